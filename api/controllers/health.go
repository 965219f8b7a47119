package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/campusfind/campusfind-backend/api/responses"
	"github.com/campusfind/campusfind-backend/pkg/bigquery"
	"github.com/campusfind/campusfind-backend/pkg/config"
	"github.com/campusfind/campusfind-backend/pkg/db"
	pkgerrors "github.com/campusfind/campusfind-backend/pkg/errors"
	"github.com/campusfind/campusfind-backend/pkg/logger"
	pkgredis "github.com/campusfind/campusfind-backend/pkg/redis"
)

const readinessTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CampusFind-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the backing dependencies before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger, bqP bigquery.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CampusFind-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var err error
		checks := map[string]string{}
		check := func(name string, pinger interface {
			Ping(context.Context) error
		}) {
			if pinger == nil {
				checks[name] = "skipped"
				return
			}
			if pingErr := pinger.Ping(ctx); pingErr != nil {
				checks[name] = "down"
				err = multierr.Append(err, pingErr)
				return
			}
			checks[name] = "up"
		}

		check("db", dbP)
		check("redis", redisP)
		check("bigquery", bqP)

		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency check failed").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
