package items

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/campusfind/campusfind-backend/pkg/db/models"
	dbtypes "github.com/campusfind/campusfind-backend/pkg/db/types"
	"github.com/campusfind/campusfind-backend/pkg/enums"
	"github.com/campusfind/campusfind-backend/pkg/pagination"
)

func setupItemsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  name TEXT NOT NULL,
  university TEXT NOT NULL,
  reputation INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	lostItems := `
CREATE TABLE IF NOT EXISTS lost_items (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  item_type TEXT NOT NULL,
  description TEXT NOT NULL,
  location TEXT NOT NULL,
  lost_date DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  verification_questions TEXT NOT NULL DEFAULT '[]',
  photos TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME,
  updated_at DATETIME
);`
	foundItems := `
CREATE TABLE IF NOT EXISTS found_items (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  item_type TEXT NOT NULL,
  description TEXT NOT NULL,
  location TEXT NOT NULL,
  found_date DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  photos TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME,
  updated_at DATETIME
);`
	matches := `
CREATE TABLE IF NOT EXISTS matches (
  id TEXT PRIMARY KEY,
  lost_item_id TEXT,
  found_item_id TEXT NOT NULL,
  claimer_id TEXT,
  similarity_score REAL NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  verification_answers TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(lostItems).Error)
	require.NoError(t, db.Exec(foundItems).Error)
	require.NoError(t, db.Exec(matches).Error)
	return db
}

func insertLostItem(t *testing.T, db *gorm.DB, ownerID uuid.UUID, status enums.LostItemStatus, created time.Time) *models.LostItem {
	t.Helper()

	item := &models.LostItem{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		ItemType:    enums.ItemTypePhone,
		Description: "black phone with cracked screen",
		Location:    "Low Library steps",
		LostDate:    created,
		Status:      status,
		VerificationQuestions: dbtypes.QuestionList{
			{Question: "What is the lock screen photo?", Answer: "a dog"},
		},
		Photos:    []string{"https://cdn.example/p1.jpg"},
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func insertFoundItem(t *testing.T, db *gorm.DB, ownerID uuid.UUID, status enums.FoundItemStatus, created time.Time) *models.FoundItem {
	t.Helper()

	item := &models.FoundItem{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		ItemType:    enums.ItemTypePhone,
		Description: "black phone",
		Location:    "Low Library",
		FoundDate:   created,
		Status:      status,
		Photos:      []string{},
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func insertMatch(t *testing.T, db *gorm.DB, lostID, foundID uuid.UUID, status enums.MatchStatus) *models.Match {
	t.Helper()

	id := lostID
	m := &models.Match{
		ID:              uuid.New(),
		LostItemID:      &id,
		FoundItemID:     foundID,
		SimilarityScore: 0.7,
		Status:          status,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

func TestRepositoryLostItemRoundTrip(t *testing.T) {
	db := setupItemsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	created := insertLostItem(t, db, owner, enums.LostItemStatusActive, time.Now())

	loaded, err := repo.FindLostItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, enums.ItemTypePhone, loaded.ItemType)
	require.Len(t, loaded.VerificationQuestions, 1)
	assert.Equal(t, "a dog", loaded.VerificationQuestions[0].Answer)
	require.Len(t, loaded.Photos, 1)
}

func TestRepositoryGuardedStatusTransition(t *testing.T) {
	db := setupItemsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	item := insertLostItem(t, db, uuid.New(), enums.LostItemStatusActive, time.Now())

	changed, err := repo.UpdateLostItemStatus(ctx, item.ID, enums.LostItemStatusActive, enums.LostItemStatusFound)
	require.NoError(t, err)
	assert.True(t, changed)

	// The second transition misses the guard and must report no change.
	changed, err = repo.UpdateLostItemStatus(ctx, item.ID, enums.LostItemStatusActive, enums.LostItemStatusClosed)
	require.NoError(t, err)
	assert.False(t, changed)

	loaded, err := repo.FindLostItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.LostItemStatusFound, loaded.Status)
}

func TestRepositoryListLostItemsPagination(t *testing.T) {
	db := setupItemsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		insertLostItem(t, db, owner, enums.LostItemStatusActive, base.Add(time.Duration(i)*time.Minute))
	}
	insertLostItem(t, db, uuid.New(), enums.LostItemStatusActive, base)

	first, err := repo.ListLostItemsByOwner(ctx, owner, ListParams{Limit: 2})
	require.NoError(t, err)
	// Limit plus the look-ahead row.
	require.Len(t, first, 3)
	assert.True(t, first[0].CreatedAt.After(first[1].CreatedAt))

	cursor := &pagination.Cursor{CreatedAt: first[1].CreatedAt, ID: first[1].ID}
	second, err := repo.ListLostItemsByOwner(ctx, owner, ListParams{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, second, 2)
	for _, row := range second {
		assert.True(t, row.CreatedAt.Before(first[1].CreatedAt))
		assert.Equal(t, owner, row.OwnerID)
	}
}

func TestRepositoryListLostItemsStatusFilter(t *testing.T) {
	db := setupItemsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	insertLostItem(t, db, owner, enums.LostItemStatusActive, time.Now())
	insertLostItem(t, db, owner, enums.LostItemStatusClosed, time.Now())

	rows, err := repo.ListLostItemsByOwner(ctx, owner, ListParams{Status: string(enums.LostItemStatusClosed)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.LostItemStatusClosed, rows[0].Status)
}

func TestRepositoryCancelMatchIfPending(t *testing.T) {
	db := setupItemsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	lost := insertLostItem(t, db, uuid.New(), enums.LostItemStatusActive, time.Now())
	found := insertFoundItem(t, db, uuid.New(), enums.FoundItemStatusActive, time.Now())
	pending := insertMatch(t, db, lost.ID, found.ID, enums.MatchStatusPending)
	approved := insertMatch(t, db, lost.ID, found.ID, enums.MatchStatusApproved)

	rows, err := repo.PendingMatchesForFoundItem(ctx, found.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, pending.ID, rows[0].ID)

	cancelled, err := repo.CancelMatchIfPending(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, cancelled)

	cancelled, err = repo.CancelMatchIfPending(ctx, pending.ID)
	require.NoError(t, err)
	assert.False(t, cancelled)

	cancelled, err = repo.CancelMatchIfPending(ctx, approved.ID)
	require.NoError(t, err)
	assert.False(t, cancelled, "approved matches must never be cancelled")
}

func TestRepositoryDeleteLostItem(t *testing.T) {
	db := setupItemsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	item := insertLostItem(t, db, uuid.New(), enums.LostItemStatusActive, time.Now())
	require.NoError(t, repo.DeleteLostItem(ctx, item.ID))

	_, err := repo.FindLostItem(ctx, item.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
