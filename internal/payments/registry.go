package payments

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Barackwilliam/sokoletu/pkg/enums"
	pkgerrors "github.com/Barackwilliam/sokoletu/pkg/errors"
)

// Registry maps payment-method keys to gateway implementations. Selecting an
// unregistered key is a configuration error, never a silent default.
type Registry struct {
	mu       sync.RWMutex
	gateways map[enums.PaymentMethod]Gateway
}

// NewRegistry builds an empty gateway registry.
func NewRegistry() *Registry {
	return &Registry{gateways: make(map[enums.PaymentMethod]Gateway)}
}

// Register binds a gateway to a payment-method key, replacing any previous
// binding.
func (r *Registry) Register(method enums.PaymentMethod, gateway Gateway) {
	if gateway == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[method] = gateway
}

// Get resolves the gateway for a payment-method key.
func (r *Registry) Get(method enums.PaymentMethod) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gateway, ok := r.gateways[method]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnsupportedGateway,
			fmt.Sprintf("unsupported payment gateway %q", method)).
			WithDetails(map[string]any{"payment_method": method.String()})
	}
	return gateway, nil
}

// Keys returns the registered payment-method keys in sorted order.
func (r *Registry) Keys() []enums.PaymentMethod {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]enums.PaymentMethod, 0, len(r.gateways))
	for key := range r.gateways {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
