package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/campusfind/campusfind-backend/api/responses"
	"github.com/campusfind/campusfind-backend/internal/matches"
	pkgerrors "github.com/campusfind/campusfind-backend/pkg/errors"
	"github.com/campusfind/campusfind-backend/pkg/logger"
)

// MatchList returns every match the caller participates in.
func MatchList(svc matches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "matches service unavailable"))
			return
		}

		uid, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForUser(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// MatchGet returns a match visible to the caller.
func MatchGet(svc matches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "matches service unavailable"))
			return
		}

		uid, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		matchID, err := pathUUID(r, "matchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		match, err := svc.Get(r.Context(), matchID, uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, match)
	}
}

// MatchApprove lets the finder confirm a pending match.
func MatchApprove(svc matches.Service, logg *logger.Logger) http.HandlerFunc {
	return matchDecision(svc, logg, func(r *http.Request, svc matches.Service, matchID, uid uuid.UUID) (any, error) {
		return svc.Approve(r.Context(), matchID, uid)
	})
}

// MatchReject lets the finder dismiss a pending match.
func MatchReject(svc matches.Service, logg *logger.Logger) http.HandlerFunc {
	return matchDecision(svc, logg, func(r *http.Request, svc matches.Service, matchID, uid uuid.UUID) (any, error) {
		return svc.Reject(r.Context(), matchID, uid)
	})
}

func matchDecision(svc matches.Service, logg *logger.Logger, apply func(*http.Request, matches.Service, uuid.UUID, uuid.UUID) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "matches service unavailable"))
			return
		}

		uid, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		matchID, err := pathUUID(r, "matchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		match, err := apply(r, svc, matchID, uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, match)
	}
}
