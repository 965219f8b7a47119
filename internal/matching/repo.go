package matching

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusfind/campusfind-backend/pkg/db/models"
	"github.com/campusfind/campusfind-backend/pkg/enums"
)

// Repository exposes the persistence surface the match finder needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetLostItem(ctx context.Context, id uuid.UUID) (*models.LostItem, error)
	GetFoundItem(ctx context.Context, id uuid.UUID) (*models.FoundItem, error)
	ActiveFoundCandidates(ctx context.Context, params CandidateParams) ([]models.FoundItem, error)
	ActiveLostCandidates(ctx context.Context, params CandidateParams) ([]models.LostItem, error)
	MatchExists(ctx context.Context, lostItemID, foundItemID uuid.UUID) (bool, error)
	CreateMatch(ctx context.Context, match *models.Match) error
}

// CandidateParams bounds the candidate query to same-type active reports
// dated within the window around the triggering report's date.
type CandidateParams struct {
	ItemType   enums.ItemType
	Date       time.Time
	WindowDays int
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a matching repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) GetLostItem(ctx context.Context, id uuid.UUID) (*models.LostItem, error) {
	var item models.LostItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repositoryImpl) GetFoundItem(ctx context.Context, id uuid.UUID) (*models.FoundItem, error) {
	var item models.FoundItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repositoryImpl) ActiveFoundCandidates(ctx context.Context, params CandidateParams) ([]models.FoundItem, error) {
	from, to := candidateWindow(params)
	var rows []models.FoundItem
	err := r.db.WithContext(ctx).
		Where("status = ? AND item_type = ?", enums.FoundItemStatusActive, params.ItemType).
		Where("found_date BETWEEN ? AND ?", from, to).
		Order("found_date ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ActiveLostCandidates(ctx context.Context, params CandidateParams) ([]models.LostItem, error) {
	from, to := candidateWindow(params)
	var rows []models.LostItem
	err := r.db.WithContext(ctx).
		Where("status = ? AND item_type = ?", enums.LostItemStatusActive, params.ItemType).
		Where("lost_date BETWEEN ? AND ?", from, to).
		Order("lost_date ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) MatchExists(ctx context.Context, lostItemID, foundItemID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("lost_item_id = ? AND found_item_id = ?", lostItemID, foundItemID).
		Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) CreateMatch(ctx context.Context, match *models.Match) error {
	return r.db.WithContext(ctx).Create(match).Error
}

func candidateWindow(params CandidateParams) (time.Time, time.Time) {
	days := params.WindowDays
	if days <= 0 {
		days = 7
	}
	anchor := time.Date(params.Date.Year(), params.Date.Month(), params.Date.Day(), 0, 0, 0, 0, time.UTC)
	return anchor.AddDate(0, 0, -days), anchor.AddDate(0, 0, days)
}
