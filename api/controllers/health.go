package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Barackwilliam/sokoletu/api/responses"
	"github.com/Barackwilliam/sokoletu/pkg/config"
	pkgerrors "github.com/Barackwilliam/sokoletu/pkg/errors"
	"github.com/Barackwilliam/sokoletu/pkg/logger"
)

// Pinger is anything whose liveness the readiness probe should verify.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Sokoletu-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Sokoletu-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				status[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				status[name] = "down"
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").WithDetails(status))
				return
			}
			status[name] = "up"
		}

		status["status"] = "ready"
		responses.WriteSuccess(w, status)
	}
}
