package payments

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/Barackwilliam/sokoletu/pkg/config"
)

// SimulatedOptions tunes one simulated settlement provider.
type SimulatedOptions struct {
	DisplayName string
	TxPrefix    string
	SuccessRate float64
	Latency     time.Duration

	// RandFloat and Sleep are injection points for tests. Defaults use
	// math/rand and a context-aware timer.
	RandFloat func() float64
	RandInt   func(n int) int
	Sleep     func(ctx context.Context, d time.Duration) error
}

type simulatedGateway struct {
	displayName string
	txPrefix    string
	successRate float64
	latency     time.Duration
	randFloat   func() float64
	randInt     func(n int) int
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewSimulated builds a provider that models real-world settlement latency and
// a configurable success probability.
func NewSimulated(opts SimulatedOptions) Gateway {
	if opts.RandFloat == nil {
		opts.RandFloat = rand.Float64
	}
	if opts.RandInt == nil {
		opts.RandInt = rand.Intn
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &simulatedGateway{
		displayName: opts.DisplayName,
		txPrefix:    opts.TxPrefix,
		successRate: opts.SuccessRate,
		latency:     opts.Latency,
		randFloat:   opts.RandFloat,
		randInt:     opts.RandInt,
		sleep:       opts.Sleep,
	}
}

func (g *simulatedGateway) Name() string {
	return g.displayName
}

func (g *simulatedGateway) ProcessPayment(ctx context.Context, input PaymentInput) (Result, error) {
	if err := g.sleep(ctx, g.latency); err != nil {
		return Result{}, fmt.Errorf("%s settlement interrupted: %w", g.displayName, err)
	}

	if g.randFloat() < g.successRate {
		return Result{
			Succeeded:     true,
			TransactionID: fmt.Sprintf("%s%06d", g.txPrefix, 100000+g.randInt(900000)),
			Message:       fmt.Sprintf("Payment processed successfully via %s", g.displayName),
		}, nil
	}
	return Result{
		FailureReason: fmt.Sprintf("%s payment failed. Please try again.", g.displayName),
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewRegistryFromConfig wires the full set of simulated providers under their
// stable registry keys.
func NewRegistryFromConfig(cfg config.GatewaysConfig) *Registry {
	registry := NewRegistry()
	registry.Register("mpesa", NewSimulated(SimulatedOptions{
		DisplayName: "M-Pesa",
		TxPrefix:    "MPESA",
		SuccessRate: cfg.MpesaSuccessRate,
		Latency:     cfg.MpesaLatency,
	}))
	registry.Register("tigopesa", NewSimulated(SimulatedOptions{
		DisplayName: "Tigo Pesa",
		TxPrefix:    "TIGO",
		SuccessRate: cfg.TigoPesaSuccessRate,
		Latency:     cfg.TigoPesaLatency,
	}))
	registry.Register("airtelmoney", NewSimulated(SimulatedOptions{
		DisplayName: "Airtel Money",
		TxPrefix:    "AIRTEL",
		SuccessRate: cfg.AirtelMoneySuccessRate,
		Latency:     cfg.AirtelMoneyLatency,
	}))
	registry.Register("selcom", NewSimulated(SimulatedOptions{
		DisplayName: "Selcom",
		TxPrefix:    "SELCOM",
		SuccessRate: cfg.SelcomSuccessRate,
		Latency:     cfg.SelcomLatency,
	}))
	registry.Register("card", NewSimulated(SimulatedOptions{
		DisplayName: "Credit Card",
		TxPrefix:    "CARD",
		SuccessRate: cfg.CardSuccessRate,
		Latency:     cfg.CardLatency,
	}))
	// Cash on delivery settles at the door; the gateway only records intent.
	registry.Register("cash", NewSimulated(SimulatedOptions{
		DisplayName: "Cash on Delivery",
		TxPrefix:    "CASH",
		SuccessRate: 1.0,
		Latency:     0,
	}))
	return registry
}
