package controllers

import (
	"net/http"

	"github.com/campusfind/campusfind-backend/api/responses"
	"github.com/campusfind/campusfind-backend/internal/dashboard"
	pkgerrors "github.com/campusfind/campusfind-backend/pkg/errors"
	"github.com/campusfind/campusfind-backend/pkg/logger"
)

// DashboardSummary returns the caller's home-screen aggregate.
func DashboardSummary(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		uid, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
