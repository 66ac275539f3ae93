package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/freshcart/freshcart-backend/api/responses"
	"github.com/freshcart/freshcart-backend/pkg/config"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/logger"
)

const readinessTimeout = 3 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FreshCart-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every wired dependency. Nil pingers are skipped so the
// worker deployments can reuse the same check with a narrower set.
func HealthReady(cfg *config.Config, logg *logger.Logger, database, cache, objects pinger) http.HandlerFunc {
	checks := []struct {
		name   string
		target pinger
	}{
		{"database", database},
		{"redis", cache},
		{"storage", objects},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FreshCart-Env", cfg.App.Env)

		failing := map[string]string{}
		for _, check := range checks {
			if check.target == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			err := check.target.Ping(ctx)
			cancel()
			if err != nil {
				failing[check.name] = err.Error()
			}
		}

		if len(failing) > 0 {
			names := make([]string, 0, len(failing))
			for name := range failing {
				names = append(names, name)
			}
			if logg != nil {
				logg.Warn(logg.WithFields(r.Context(), map[string]any{"failing": failing}), "readiness check failed")
			}
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable: "+strings.Join(names, ", ")))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
