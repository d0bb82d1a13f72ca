package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/kreasivisual/kreasivisual-backend/api/responses"
	"github.com/kreasivisual/kreasivisual-backend/pkg/config"
	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
	"github.com/kreasivisual/kreasivisual-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

// Pinger is satisfied by the database, redis, and pubsub clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-KreasiVisual-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency and reports per-component status.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-KreasiVisual-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		components := map[string]string{}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				components[name] = "unavailable"
				healthy = false
				if logg != nil {
					logg.Error(logg.WithField(ctx, "component", name), "readiness check failed", err)
				}
				continue
			}
			components[name] = "ok"
		}

		if !healthy {
			responses.WriteError(ctx, nil, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(components))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "components": components})
	}
}
