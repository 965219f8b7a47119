package items

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusfind/campusfind-backend/pkg/db/models"
	"github.com/campusfind/campusfind-backend/pkg/enums"
	"github.com/campusfind/campusfind-backend/pkg/pagination"
)

// Repository covers persistence for lost and found item reports plus the
// match rows their lifecycle transitions touch.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateLostItem(ctx context.Context, item *models.LostItem) error
	FindLostItem(ctx context.Context, id uuid.UUID) (*models.LostItem, error)
	ListLostItemsByOwner(ctx context.Context, ownerID uuid.UUID, params ListParams) ([]models.LostItem, error)
	UpdateLostItemStatus(ctx context.Context, id uuid.UUID, from, to enums.LostItemStatus) (bool, error)
	DeleteLostItem(ctx context.Context, id uuid.UUID) error

	CreateFoundItem(ctx context.Context, item *models.FoundItem) error
	FindFoundItem(ctx context.Context, id uuid.UUID) (*models.FoundItem, error)
	ListFoundItemsByOwner(ctx context.Context, ownerID uuid.UUID, params ListParams) ([]models.FoundItem, error)
	UpdateFoundItemStatus(ctx context.Context, id uuid.UUID, from, to enums.FoundItemStatus) (bool, error)
	DeleteFoundItem(ctx context.Context, id uuid.UUID) error

	PendingMatchesForLostItem(ctx context.Context, lostItemID uuid.UUID) ([]models.Match, error)
	PendingMatchesForFoundItem(ctx context.Context, foundItemID uuid.UUID) ([]models.Match, error)
	CancelMatchIfPending(ctx context.Context, matchID uuid.UUID) (bool, error)
}

// ListParams carries cursor pagination plus an optional status filter.
type ListParams struct {
	Limit  int
	Cursor *pagination.Cursor
	Status string
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an items repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateLostItem(ctx context.Context, item *models.LostItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindLostItem(ctx context.Context, id uuid.UUID) (*models.LostItem, error) {
	var item models.LostItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListLostItemsByOwner(ctx context.Context, ownerID uuid.UUID, params ListParams) ([]models.LostItem, error) {
	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	query = applyListParams(query, params)
	var rows []models.LostItem
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateLostItemStatus performs a guarded transition. The WHERE clause on
// the current status makes concurrent transitions race-safe without locks.
func (r *repository) UpdateLostItemStatus(ctx context.Context, id uuid.UUID, from, to enums.LostItemStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.LostItem{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) DeleteLostItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.LostItem{}, "id = ?", id).Error
}

func (r *repository) CreateFoundItem(ctx context.Context, item *models.FoundItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindFoundItem(ctx context.Context, id uuid.UUID) (*models.FoundItem, error) {
	var item models.FoundItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListFoundItemsByOwner(ctx context.Context, ownerID uuid.UUID, params ListParams) ([]models.FoundItem, error) {
	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	query = applyListParams(query, params)
	var rows []models.FoundItem
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateFoundItemStatus(ctx context.Context, id uuid.UUID, from, to enums.FoundItemStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.FoundItem{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) DeleteFoundItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.FoundItem{}, "id = ?", id).Error
}

func (r *repository) PendingMatchesForLostItem(ctx context.Context, lostItemID uuid.UUID) ([]models.Match, error) {
	var rows []models.Match
	err := r.db.WithContext(ctx).
		Where("lost_item_id = ? AND status = ?", lostItemID, enums.MatchStatusPending).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) PendingMatchesForFoundItem(ctx context.Context, foundItemID uuid.UUID) ([]models.Match, error) {
	var rows []models.Match
	err := r.db.WithContext(ctx).
		Where("found_item_id = ? AND status = ?", foundItemID, enums.MatchStatusPending).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// CancelMatchIfPending flips a single match to cancelled only while it is
// still pending, so approved or rejected matches are never clobbered.
func (r *repository) CancelMatchIfPending(ctx context.Context, matchID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ? AND status = ?", matchID, enums.MatchStatusPending).
		Updates(map[string]any{"status": enums.MatchStatusCancelled, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func applyListParams(query *gorm.DB, params ListParams) *gorm.DB {
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID,
		)
	}
	limit := pagination.LimitWithBuffer(params.Limit)
	return query.Order("created_at DESC, id DESC").Limit(limit)
}
