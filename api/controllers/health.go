package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/sheikhshariarnehal/nesttask-edge/api/responses"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/lifecycle"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/config"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/db"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/redis"
)

const readyCheckTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-NestTask-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the hard dependencies and reports the shell lifecycle
// state. A failed dependency turns the whole check into a 503 so the load
// balancer stops routing here.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, ctrl *lifecycle.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-NestTask-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			checks["postgres"] = "ok"
			if err := dbP.Ping(ctx); err != nil {
				checks["postgres"] = "unreachable"
				healthy = false
				logg.Error(ctx, "readiness: postgres ping failed", err)
			}
		}
		if redisP != nil {
			checks["redis"] = "ok"
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = "unreachable"
				healthy = false
				logg.Error(ctx, "readiness: redis ping failed", err)
			}
		}
		if ctrl != nil {
			checks["lifecycle"] = string(ctrl.State())
			if ctrl.State() == lifecycle.StateFailed {
				healthy = false
			}
		}

		payload := map[string]any{
			"status": "ready",
			"checks": checks,
		}
		if ctrl != nil {
			payload["generation"] = ctrl.Generation()
		}
		if !healthy {
			payload["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, payload)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}
