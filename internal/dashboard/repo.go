package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusfind/campusfind-backend/pkg/db/models"
	"github.com/campusfind/campusfind-backend/pkg/enums"
)

// Repository exposes the read queries behind the dashboard summary.
type Repository interface {
	RecentActiveLostItems(ctx context.Context, ownerID uuid.UUID, limit int) ([]models.LostItem, error)
	RecentActiveFoundItems(ctx context.Context, ownerID uuid.UUID, limit int) ([]models.FoundItem, error)
	PendingDecisions(ctx context.Context, ownerID uuid.UUID) ([]models.Match, error)
	MatchesInvolvingUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.Match, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a dashboard repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) RecentActiveLostItems(ctx context.Context, ownerID uuid.UUID, limit int) ([]models.LostItem, error) {
	var items []models.LostItem
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, enums.LostItemStatusActive).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) RecentActiveFoundItems(ctx context.Context, ownerID uuid.UUID, limit int) ([]models.FoundItem, error) {
	var items []models.FoundItem
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, enums.FoundItemStatusActive).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// PendingDecisions returns undecided matches on found items the user reported.
func (r *repository) PendingDecisions(ctx context.Context, ownerID uuid.UUID) ([]models.Match, error) {
	var matches []models.Match
	err := r.db.WithContext(ctx).
		Preload("LostItem").
		Preload("FoundItem").
		Where(
			"status IN ? AND found_item_id IN (SELECT id FROM found_items WHERE owner_id = ?)",
			[]enums.MatchStatus{enums.MatchStatusPending, enums.MatchStatusMatched, enums.MatchStatusClaimed},
			ownerID,
		).
		Order("created_at ASC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *repository) MatchesInvolvingUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.Match, error) {
	var matches []models.Match
	err := r.db.WithContext(ctx).
		Where(
			"created_at >= ? AND (claimer_id = ? OR lost_item_id IN (SELECT id FROM lost_items WHERE owner_id = ?) OR found_item_id IN (SELECT id FROM found_items WHERE owner_id = ?))",
			since, userID, userID, userID,
		).
		Order("created_at DESC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}
