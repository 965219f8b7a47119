package dashboard

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
	"github.com/campusfind/campusfind-backend/pkg/enums"
)

func setupDashboardTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS lost_items (
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
);`,
		`CREATE TABLE IF NOT EXISTS found_items (
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
);`,
		`CREATE TABLE IF NOT EXISTS matches (
  id TEXT PRIMARY KEY,
  lost_item_id TEXT,
  found_item_id TEXT NOT NULL,
  claimer_id TEXT,
  similarity_score REAL NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  verification_answers TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME,
  updated_at DATETIME
);`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func seedLostItem(t *testing.T, db *gorm.DB, ownerID uuid.UUID, status enums.LostItemStatus, created time.Time) *models.LostItem {
	t.Helper()

	item := &models.LostItem{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		ItemType:    enums.ItemTypeLaptop,
		Description: "silver laptop with stickers",
		Location:    "Butler Library",
		LostDate:    created,
		Status:      status,
		Photos:      []string{},
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func seedFoundItem(t *testing.T, db *gorm.DB, ownerID uuid.UUID, status enums.FoundItemStatus, created time.Time) *models.FoundItem {
	t.Helper()

	item := &models.FoundItem{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		ItemType:    enums.ItemTypeLaptop,
		Description: "silver laptop",
		Location:    "Butler Library",
		FoundDate:   created,
		Status:      status,
		Photos:      []string{},
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func seedMatch(t *testing.T, db *gorm.DB, lostID *uuid.UUID, foundID uuid.UUID, status enums.MatchStatus, created time.Time) *models.Match {
	t.Helper()

	m := &models.Match{
		ID:              uuid.New(),
		LostItemID:      lostID,
		FoundItemID:     foundID,
		SimilarityScore: 0.65,
		Status:          status,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

func TestRecentActiveItemsFilterAndOrder(t *testing.T) {
	db := setupDashboardTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	older := seedLostItem(t, db, ownerID, enums.LostItemStatusActive, base)
	newer := seedLostItem(t, db, ownerID, enums.LostItemStatusActive, base.Add(time.Hour))
	seedLostItem(t, db, ownerID, enums.LostItemStatusClosed, base.Add(2*time.Hour))
	seedLostItem(t, db, uuid.New(), enums.LostItemStatusActive, base)

	items, err := repo.RecentActiveLostItems(ctx, ownerID, 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)

	items, err = repo.RecentActiveLostItems(ctx, ownerID, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, newer.ID, items[0].ID)
}

func TestPendingDecisionsScopedToFinder(t *testing.T) {
	db := setupDashboardTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	finderID := uuid.New()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	found := seedFoundItem(t, db, finderID, enums.FoundItemStatusActive, base)
	lost := seedLostItem(t, db, uuid.New(), enums.LostItemStatusActive, base)

	pending := seedMatch(t, db, &lost.ID, found.ID, enums.MatchStatusPending, base)
	seedMatch(t, db, &lost.ID, found.ID, enums.MatchStatusRejected, base)

	otherFound := seedFoundItem(t, db, uuid.New(), enums.FoundItemStatusActive, base)
	seedMatch(t, db, &lost.ID, otherFound.ID, enums.MatchStatusPending, base)

	decisions, err := repo.PendingDecisions(ctx, finderID)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, pending.ID, decisions[0].ID)
	require.NotNil(t, decisions[0].FoundItem)
	assert.Equal(t, found.ID, decisions[0].FoundItem.ID)
}

func TestMatchesInvolvingUserSince(t *testing.T) {
	db := setupDashboardTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	lost := seedLostItem(t, db, userID, enums.LostItemStatusActive, base)
	found := seedFoundItem(t, db, uuid.New(), enums.FoundItemStatusActive, base)

	recent := seedMatch(t, db, &lost.ID, found.ID, enums.MatchStatusPending, base)
	seedMatch(t, db, &lost.ID, found.ID, enums.MatchStatusCancelled, base.AddDate(0, 0, -40))

	claimed := seedMatch(t, db, nil, found.ID, enums.MatchStatusMatched, base.Add(time.Hour))
	claimed.ClaimerID = &userID
	require.NoError(t, db.Save(claimed).Error)

	matches, err := repo.MatchesInvolvingUserSince(ctx, userID, base.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, claimed.ID, matches[0].ID)
	assert.Equal(t, recent.ID, matches[1].ID)
}
