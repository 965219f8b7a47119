package matches

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusfind/campusfind-backend/pkg/db/models"
	"github.com/campusfind/campusfind-backend/pkg/enums"
)

// Repository covers match persistence plus the item status flips the
// approval cascade performs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	CreateMatch(ctx context.Context, match *models.Match) error
	UpdateMatchStatus(ctx context.Context, id uuid.UUID, from []enums.MatchStatus, to enums.MatchStatus) (bool, error)

	ListForLostItem(ctx context.Context, lostItemID uuid.UUID) ([]models.Match, error)
	ListForFoundItem(ctx context.Context, foundItemID uuid.UUID) ([]models.Match, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Match, error)

	PendingMatchesForLostItem(ctx context.Context, lostItemID uuid.UUID) ([]models.Match, error)
	PendingMatchesForFoundItem(ctx context.Context, foundItemID uuid.UUID) ([]models.Match, error)
	ActiveClaimExists(ctx context.Context, foundItemID, claimerID uuid.UUID) (bool, error)

	FindLostItem(ctx context.Context, id uuid.UUID) (*models.LostItem, error)
	FindFoundItem(ctx context.Context, id uuid.UUID) (*models.FoundItem, error)
	UpdateLostItemStatus(ctx context.Context, id uuid.UUID, from, to enums.LostItemStatus) (bool, error)
	UpdateFoundItemStatus(ctx context.Context, id uuid.UUID, from, to enums.FoundItemStatus) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a matches repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).
		Preload("LostItem").
		Preload("FoundItem").
		First(&match, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *repository) CreateMatch(ctx context.Context, match *models.Match) error {
	return r.db.WithContext(ctx).Create(match).Error
}

// UpdateMatchStatus flips the status only when the current value is in the
// allowed set, so concurrent decisions cannot double-apply.
func (r *repository) UpdateMatchStatus(ctx context.Context, id uuid.UUID, from []enums.MatchStatus, to enums.MatchStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListForLostItem(ctx context.Context, lostItemID uuid.UUID) ([]models.Match, error) {
	var rows []models.Match
	err := r.db.WithContext(ctx).
		Preload("FoundItem").
		Where("lost_item_id = ?", lostItemID).
		Order("similarity_score DESC, created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListForFoundItem(ctx context.Context, foundItemID uuid.UUID) ([]models.Match, error) {
	var rows []models.Match
	err := r.db.WithContext(ctx).
		Preload("LostItem").
		Where("found_item_id = ?", foundItemID).
		Order("similarity_score DESC, created_at ASC").
		Find(&rows).Error
	return rows, err
}

// ListForUser returns every match the user participates in, whether as the
// lost report owner, the found report owner, or a direct claimer.
func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Match, error) {
	var rows []models.Match
	err := r.db.WithContext(ctx).
		Preload("LostItem").
		Preload("FoundItem").
		Where(`claimer_id = ?
			OR lost_item_id IN (SELECT id FROM lost_items WHERE owner_id = ?)
			OR found_item_id IN (SELECT id FROM found_items WHERE owner_id = ?)`,
			userID, userID, userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
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

func (r *repository) ActiveClaimExists(ctx context.Context, foundItemID, claimerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("found_item_id = ? AND claimer_id = ? AND status IN ?",
			foundItemID, claimerID,
			[]enums.MatchStatus{enums.MatchStatusPending, enums.MatchStatusMatched, enums.MatchStatusClaimed}).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindLostItem(ctx context.Context, id uuid.UUID) (*models.LostItem, error) {
	var item models.LostItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindFoundItem(ctx context.Context, id uuid.UUID) (*models.FoundItem, error) {
	var item models.FoundItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

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
