package items

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusfind/campusfind-backend/pkg/db/models"
	"github.com/campusfind/campusfind-backend/pkg/enums"
	pkgerrors "github.com/campusfind/campusfind-backend/pkg/errors"
	"github.com/campusfind/campusfind-backend/pkg/outbox"
	"github.com/campusfind/campusfind-backend/pkg/outbox/payloads"
	"github.com/campusfind/campusfind-backend/pkg/pagination"
)

// ReturnReputationDelta is awarded to a finder when their found item is
// handed back to its owner.
const ReturnReputationDelta = 5

// ReputationAwarder credits a user inside the caller's transaction.
type ReputationAwarder interface {
	AwardReputation(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int, reason string) (int, error)
}

// FoundService defines the found item report lifecycle.
type FoundService interface {
	Report(ctx context.Context, input ReportFoundItemInput) (*models.FoundItem, error)
	Get(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.FoundItem, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, params pagination.Params, status string) (*FoundItemPage, error)
	MarkAsReturned(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.FoundItem, error)
	Close(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.FoundItem, error)
	Delete(ctx context.Context, itemID, actorUserID uuid.UUID) error
}

// ReportFoundItemInput carries the fields a finder submits.
type ReportFoundItemInput struct {
	OwnerID     uuid.UUID
	ItemType    string
	Description string
	Location    string
	FoundDate   time.Time
	Photos      []string
}

// FoundItemPage is a cursor page of found item reports.
type FoundItemPage struct {
	Items      []models.FoundItem
	NextCursor string
}

type foundService struct {
	repo       Repository
	tx         txRunner
	outbox     outboxPublisher
	reputation ReputationAwarder
}

// NewFoundService builds the found item service with its dependencies.
func NewFoundService(repo Repository, tx txRunner, publisher outboxPublisher, reputation ReputationAwarder) (FoundService, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "items repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	if reputation == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reputation awarder required")
	}
	return &foundService{repo: repo, tx: tx, outbox: publisher, reputation: reputation}, nil
}

func (s *foundService) Report(ctx context.Context, input ReportFoundItemInput) (*models.FoundItem, error) {
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
	if input.FoundDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "found date required")
	}
	if input.FoundDate.After(time.Now().AddDate(0, 0, 1)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "found date cannot be in the future")
	}

	photos := input.Photos
	if photos == nil {
		photos = []string{}
	}

	item := &models.FoundItem{
		OwnerID:     input.OwnerID,
		ItemType:    itemType,
		Description: input.Description,
		Location:    input.Location,
		FoundDate:   input.FoundDate,
		Status:      enums.FoundItemStatusActive,
		Photos:      photos,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateFoundItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create found item")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventFoundItemReported,
			AggregateType: enums.AggregateFoundItem,
			AggregateID:   item.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.OwnerID},
			Data: payloads.FoundItemReportedEvent{
				FoundItemID: item.ID,
				OwnerID:     item.OwnerID,
				ItemType:    item.ItemType,
				FoundDate:   item.FoundDate,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Get is open to any authenticated user so that owners of lost property can
// inspect a found report before claiming it.
func (s *foundService) Get(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.FoundItem, error) {
	if actorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	item, err := s.repo.FindFoundItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "found item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load found item")
	}
	return item, nil
}

func (s *foundService) ListByOwner(ctx context.Context, ownerID uuid.UUID, params pagination.Params, status string) (*FoundItemPage, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if status != "" {
		if _, err := enums.ParseFoundItemStatus(status); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	rows, err := s.repo.ListFoundItemsByOwner(ctx, ownerID, ListParams{
		Limit:  params.Limit,
		Cursor: cursor,
		Status: status,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list found items")
	}

	page := &FoundItemPage{Items: rows}
	limit := pagination.NormalizeLimit(params.Limit)
	if len(rows) > limit {
		page.Items = rows[:limit]
		last := page.Items[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// MarkAsReturned records a successful handover. Pending suggestions are
// cancelled and the finder earns reputation for the return.
func (s *foundService) MarkAsReturned(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.FoundItem, error) {
	return s.transition(ctx, itemID, actorUserID, enums.FoundItemStatusReturned)
}

// Close abandons the report without a handover, so no reputation is earned.
func (s *foundService) Close(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.FoundItem, error) {
	return s.transition(ctx, itemID, actorUserID, enums.FoundItemStatusClosed)
}

func (s *foundService) transition(ctx context.Context, itemID, actorUserID uuid.UUID, target enums.FoundItemStatus) (*models.FoundItem, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if actorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var item *models.FoundItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindFoundItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "found item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load found item")
		}
		if loaded.OwnerID != actorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "found item belongs to another user")
		}
		if loaded.Status != enums.FoundItemStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "found item is no longer active")
		}

		changed, err := repo.UpdateFoundItemStatus(ctx, itemID, enums.FoundItemStatusActive, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update found item status")
		}
		if !changed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "found item is no longer active")
		}
		loaded.Status = target
		item = loaded

		if err := cancelPendingForFoundItem(ctx, repo, s.outbox, tx, loaded, "found item resolved"); err != nil {
			return err
		}

		if target == enums.FoundItemStatusReturned {
			if _, err := s.reputation.AwardReputation(ctx, tx, loaded.OwnerID, ReturnReputationDelta, "item_returned"); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventFoundItemReturned,
				AggregateType: enums.AggregateFoundItem,
				AggregateID:   loaded.ID,
				Version:       1,
				Actor:         &outbox.ActorRef{UserID: actorUserID},
				Data: payloads.FoundItemReturnedEvent{
					FoundItemID: loaded.ID,
					OwnerID:     loaded.OwnerID,
					ReturnedAt:  time.Now(),
				},
			})
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventFoundItemClosed,
			AggregateType: enums.AggregateFoundItem,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actorUserID},
			Data: payloads.FoundItemClosedEvent{
				FoundItemID: loaded.ID,
				OwnerID:     loaded.OwnerID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *foundService) Delete(ctx context.Context, itemID, actorUserID uuid.UUID) error {
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if actorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindFoundItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "found item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load found item")
		}
		if item.OwnerID != actorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "found item belongs to another user")
		}

		if err := repo.DeleteFoundItem(ctx, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete found item")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventFoundItemDeleted,
			AggregateType: enums.AggregateFoundItem,
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
