package items

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusfind/campusfind-backend/pkg/db/models"
	dbtypes "github.com/campusfind/campusfind-backend/pkg/db/types"
	"github.com/campusfind/campusfind-backend/pkg/enums"
	pkgerrors "github.com/campusfind/campusfind-backend/pkg/errors"
	"github.com/campusfind/campusfind-backend/pkg/outbox"
	"github.com/campusfind/campusfind-backend/pkg/outbox/payloads"
	"github.com/campusfind/campusfind-backend/pkg/pagination"
)

// Description length bounds apply to both lost and found reports.
const (
	descriptionMinLen = 10
	descriptionMaxLen = 500
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

func validateDescription(description string) error {
	length := utf8.RuneCountInString(description)
	if length < descriptionMinLen || length > descriptionMaxLen {
		return pkgerrors.New(pkgerrors.CodeValidation, "description must be between 10 and 500 characters").
			WithDetails(map[string]any{"field": "description", "min": descriptionMinLen, "max": descriptionMaxLen})
	}
	return nil
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// LostService defines the lost item report lifecycle.
type LostService interface {
	Report(ctx context.Context, input ReportLostItemInput) (*models.LostItem, error)
	Get(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.LostItem, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, params pagination.Params, status string) (*LostItemPage, error)
	MarkAsFound(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.LostItem, error)
	Close(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.LostItem, error)
	Delete(ctx context.Context, itemID, actorUserID uuid.UUID) error
}

// ReportLostItemInput carries the fields a user submits for a lost report.
type ReportLostItemInput struct {
	OwnerID               uuid.UUID
	ItemType              string
	Description           string
	Location              string
	LostDate              time.Time
	VerificationQuestions []dbtypes.VerificationQuestion
	Photos                []string
}

// LostItemPage is a cursor page of lost item reports.
type LostItemPage struct {
	Items      []models.LostItem
	NextCursor string
}

type lostService struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewLostService builds the lost item service with its dependencies.
func NewLostService(repo Repository, tx txRunner, publisher outboxPublisher) (LostService, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "items repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &lostService{repo: repo, tx: tx, outbox: publisher}, nil
}

func (s *lostService) Report(ctx context.Context, input ReportLostItemInput) (*models.LostItem, error) {
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	itemType, err := enums.ParseItemType(input.ItemType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item type")
	}
	if err := validateDescription(input.Description); err != nil {
		return nil, err
	}
	if input.Location == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location required")
	}
	if input.LostDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lost date required")
	}
	if input.LostDate.After(time.Now().AddDate(0, 0, 1)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lost date cannot be in the future")
	}

	questions := input.VerificationQuestions
	if questions == nil {
		questions = dbtypes.QuestionList{}
	}
	photos := input.Photos
	if photos == nil {
		photos = []string{}
	}

	item := &models.LostItem{
		OwnerID:               input.OwnerID,
		ItemType:              itemType,
		Description:           input.Description,
		Location:              input.Location,
		LostDate:              input.LostDate,
		Status:                enums.LostItemStatusActive,
		VerificationQuestions: questions,
		Photos:                photos,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateLostItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create lost item")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLostItemReported,
			AggregateType: enums.AggregateLostItem,
			AggregateID:   item.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.OwnerID},
			Data: payloads.LostItemReportedEvent{
				LostItemID: item.ID,
				OwnerID:    item.OwnerID,
				ItemType:   item.ItemType,
				LostDate:   item.LostDate,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *lostService) Get(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.LostItem, error) {
	if actorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	item, err := s.repo.FindLostItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lost item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lost item")
	}
	// Verification questions carry the answers, so reads stay owner-only.
	if item.OwnerID != actorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "lost item belongs to another user")
	}
	return item, nil
}

func (s *lostService) ListByOwner(ctx context.Context, ownerID uuid.UUID, params pagination.Params, status string) (*LostItemPage, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if status != "" {
		if _, err := enums.ParseLostItemStatus(status); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	rows, err := s.repo.ListLostItemsByOwner(ctx, ownerID, ListParams{
		Limit:  params.Limit,
		Cursor: cursor,
		Status: status,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lost items")
	}

	page := &LostItemPage{Items: rows}
	limit := pagination.NormalizeLimit(params.Limit)
	if len(rows) > limit {
		page.Items = rows[:limit]
		last := page.Items[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// MarkAsFound resolves an active report, cancelling any still-pending match
// suggestions in the same transaction.
func (s *lostService) MarkAsFound(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.LostItem, error) {
	return s.transition(ctx, itemID, actorUserID, enums.LostItemStatusFound, true)
}

// Close abandons an active report. Pending matches are left alone so the
// found item side can still act on them.
func (s *lostService) Close(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.LostItem, error) {
	return s.transition(ctx, itemID, actorUserID, enums.LostItemStatusClosed, false)
}

func (s *lostService) transition(ctx context.Context, itemID, actorUserID uuid.UUID, target enums.LostItemStatus, cancelMatches bool) (*models.LostItem, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if actorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var item *models.LostItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindLostItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "lost item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lost item")
		}
		if loaded.OwnerID != actorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "lost item belongs to another user")
		}
		if loaded.Status != enums.LostItemStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lost item is no longer active")
		}

		changed, err := repo.UpdateLostItemStatus(ctx, itemID, enums.LostItemStatusActive, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update lost item status")
		}
		if !changed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lost item is no longer active")
		}
		loaded.Status = target
		item = loaded

		if cancelMatches {
			if err := cancelPendingForLostItem(ctx, repo, s.outbox, tx, loaded, "lost item resolved"); err != nil {
				return err
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventLostItemClosed,
			AggregateType: enums.AggregateLostItem,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actorUserID},
			Data: payloads.LostItemClosedEvent{
				LostItemID: loaded.ID,
				OwnerID:    loaded.OwnerID,
			},
		}
		if target == enums.LostItemStatusFound {
			event.EventType = enums.EventLostItemFound
			event.Data = payloads.LostItemFoundEvent{
				LostItemID: loaded.ID,
				OwnerID:    loaded.OwnerID,
			}
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *lostService) Delete(ctx context.Context, itemID, actorUserID uuid.UUID) error {
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if actorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindLostItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "lost item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lost item")
		}
		if item.OwnerID != actorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "lost item belongs to another user")
		}

		if err := repo.DeleteLostItem(ctx, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete lost item")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLostItemDeleted,
			AggregateType: enums.AggregateLostItem,
			AggregateID:   item.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actorUserID},
			Data: payloads.ItemDeletedEvent{
				ItemID:  item.ID,
				OwnerID: item.OwnerID,
			},
		})
	})
}

// cancelPendingForLostItem voids every still-pending suggestion attached to
// the report and emits a cancellation event per match.
func cancelPendingForLostItem(ctx context.Context, repo Repository, publisher outboxPublisher, tx *gorm.DB, item *models.LostItem, reason string) error {
	matches, err := repo.PendingMatchesForLostItem(ctx, item.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending matches")
	}
	for i := range matches {
		if err := cancelMatch(ctx, repo, publisher, tx, &matches[i], reason); err != nil {
			return err
		}
	}
	return nil
}

func cancelPendingForFoundItem(ctx context.Context, repo Repository, publisher outboxPublisher, tx *gorm.DB, item *models.FoundItem, reason string) error {
	matches, err := repo.PendingMatchesForFoundItem(ctx, item.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending matches")
	}
	for i := range matches {
		if err := cancelMatch(ctx, repo, publisher, tx, &matches[i], reason); err != nil {
			return err
		}
	}
	return nil
}

func cancelMatch(ctx context.Context, repo Repository, publisher outboxPublisher, tx *gorm.DB, match *models.Match, reason string) error {
	cancelled, err := repo.CancelMatchIfPending(ctx, match.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel match")
	}
	if !cancelled {
		return nil
	}
	return publisher.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventMatchCancelled,
		AggregateType: enums.AggregateMatch,
		AggregateID:   match.ID,
		Version:       1,
		Data: payloads.MatchCancelledEvent{
			MatchID:     match.ID,
			LostItemID:  match.LostItemID,
			FoundItemID: match.FoundItemID,
			Reason:      reason,
		},
	})
}
