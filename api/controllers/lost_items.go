package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusfind/campusfind-backend/api/responses"
	"github.com/campusfind/campusfind-backend/api/validators"
	"github.com/campusfind/campusfind-backend/internal/items"
	"github.com/campusfind/campusfind-backend/internal/matches"
	dbtypes "github.com/campusfind/campusfind-backend/pkg/db/types"
	pkgerrors "github.com/campusfind/campusfind-backend/pkg/errors"
	"github.com/campusfind/campusfind-backend/pkg/logger"
	"github.com/campusfind/campusfind-backend/pkg/pagination"
)

// LostItemCreate files a new lost item report for the signed-in user.
func LostItemCreate(svc items.LostService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		uid, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reportLostItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.OwnerID = uid

		item, err := svc.Report(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// LostItemList returns the caller's lost item reports, newest first.
func LostItemList(svc items.LostService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		uid, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		status := strings.TrimSpace(r.URL.Query().Get("status"))

		page, err := svc.ListByOwner(r.Context(), uid, params, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// LostItemGet returns a single lost item visible to the caller.
func LostItemGet(svc items.LostService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		uid, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Get(r.Context(), itemID, uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// LostItemMarkFound transitions an active report to found.
func LostItemMarkFound(svc items.LostService, logg *logger.Logger) http.HandlerFunc {
	return lostItemTransition(svc, logg, func(r *http.Request, svc items.LostService, itemID, uid uuid.UUID) (any, error) {
		return svc.MarkAsFound(r.Context(), itemID, uid)
	})
}

// LostItemClose closes an active report without a recovery.
func LostItemClose(svc items.LostService, logg *logger.Logger) http.HandlerFunc {
	return lostItemTransition(svc, logg, func(r *http.Request, svc items.LostService, itemID, uid uuid.UUID) (any, error) {
		return svc.Close(r.Context(), itemID, uid)
	})
}

func lostItemTransition(svc items.LostService, logg *logger.Logger, apply func(*http.Request, items.LostService, uuid.UUID, uuid.UUID) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		uid, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := apply(r, svc, itemID, uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// LostItemDelete removes a report owned by the caller.
func LostItemDelete(svc items.LostService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		uid, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), itemID, uid); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// LostItemMatches lists match suggestions for a lost item the caller owns.
func LostItemMatches(svc matches.Service, logg *logger.Logger) http.HandlerFunc {
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
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForLostItem(r.Context(), itemID, uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type reportLostItemRequest struct {
	ItemType              string                        `json:"item_type" validate:"required"`
	Description           string                        `json:"description" validate:"required,min=10,max=500"`
	Location              string                        `json:"location" validate:"required"`
	LostDate              string                        `json:"lost_date" validate:"required"`
	VerificationQuestions []verificationQuestionRequest `json:"verification_questions,omitempty" validate:"omitempty,dive"`
	Photos                []string                      `json:"photos,omitempty"`
}

type verificationQuestionRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

func (r reportLostItemRequest) toInput() (items.ReportLostItemInput, error) {
	lostDate, err := parseDate(r.LostDate)
	if err != nil {
		return items.ReportLostItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lost_date")
	}

	questions := make([]dbtypes.VerificationQuestion, 0, len(r.VerificationQuestions))
	for _, q := range r.VerificationQuestions {
		questions = append(questions, dbtypes.VerificationQuestion{
			Question: strings.TrimSpace(q.Question),
			Answer:   strings.TrimSpace(q.Answer),
		})
	}

	return items.ReportLostItemInput{
		ItemType:              strings.TrimSpace(r.ItemType),
		Description:           strings.TrimSpace(r.Description),
		Location:              strings.TrimSpace(r.Location),
		LostDate:              lostDate,
		VerificationQuestions: questions,
		Photos:                r.Photos,
	}, nil
}

// parseDate accepts a bare date or a full RFC3339 timestamp.
func parseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if parsed, err := time.Parse("2006-01-02", trimmed); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, trimmed)
}
