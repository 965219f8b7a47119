package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/campusfind/campusfind-backend/api/responses"
	"github.com/campusfind/campusfind-backend/api/validators"
	"github.com/campusfind/campusfind-backend/internal/items"
	"github.com/campusfind/campusfind-backend/internal/matches"
	pkgerrors "github.com/campusfind/campusfind-backend/pkg/errors"
	"github.com/campusfind/campusfind-backend/pkg/logger"
	"github.com/campusfind/campusfind-backend/pkg/pagination"
)

// FoundItemCreate files a new found item report for the signed-in user.
func FoundItemCreate(svc items.FoundService, logg *logger.Logger) http.HandlerFunc {
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

		var payload reportFoundItemRequest
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

// FoundItemList returns the caller's found item reports, newest first.
func FoundItemList(svc items.FoundService, logg *logger.Logger) http.HandlerFunc {
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

// FoundItemGet returns a single found item visible to the caller.
func FoundItemGet(svc items.FoundService, logg *logger.Logger) http.HandlerFunc {
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

// FoundItemMarkReturned records that the item made it back to its owner.
func FoundItemMarkReturned(svc items.FoundService, logg *logger.Logger) http.HandlerFunc {
	return foundItemTransition(svc, logg, func(r *http.Request, svc items.FoundService, itemID, uid uuid.UUID) (any, error) {
		return svc.MarkAsReturned(r.Context(), itemID, uid)
	})
}

// FoundItemClose closes a report that never found its owner.
func FoundItemClose(svc items.FoundService, logg *logger.Logger) http.HandlerFunc {
	return foundItemTransition(svc, logg, func(r *http.Request, svc items.FoundService, itemID, uid uuid.UUID) (any, error) {
		return svc.Close(r.Context(), itemID, uid)
	})
}

func foundItemTransition(svc items.FoundService, logg *logger.Logger, apply func(*http.Request, items.FoundService, uuid.UUID, uuid.UUID) (any, error)) http.HandlerFunc {
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

// FoundItemDelete removes a report owned by the caller.
func FoundItemDelete(svc items.FoundService, logg *logger.Logger) http.HandlerFunc {
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

// FoundItemClaim lets a user assert ownership of a found item directly.
func FoundItemClaim(svc matches.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload claimFoundItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		match, err := svc.Claim(r.Context(), matches.ClaimInput{
			FoundItemID: itemID,
			ClaimerID:   uid,
			Answers:     payload.Answers,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, match)
	}
}

// FoundItemMatches lists matches attached to a found item the caller owns.
func FoundItemMatches(svc matches.Service, logg *logger.Logger) http.HandlerFunc {
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

		list, err := svc.ListForFoundItem(r.Context(), itemID, uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type reportFoundItemRequest struct {
	ItemType    string   `json:"item_type" validate:"required"`
	Description string   `json:"description" validate:"required,min=10,max=500"`
	Location    string   `json:"location" validate:"required"`
	FoundDate   string   `json:"found_date" validate:"required"`
	Photos      []string `json:"photos,omitempty"`
}

type claimFoundItemRequest struct {
	Answers map[string]string `json:"answers,omitempty"`
}

func (r reportFoundItemRequest) toInput() (items.ReportFoundItemInput, error) {
	foundDate, err := parseDate(r.FoundDate)
	if err != nil {
		return items.ReportFoundItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid found_date")
	}

	return items.ReportFoundItemInput{
		ItemType:    strings.TrimSpace(r.ItemType),
		Description: strings.TrimSpace(r.Description),
		Location:    strings.TrimSpace(r.Location),
		FoundDate:   foundDate,
		Photos:      r.Photos,
	}, nil
}
