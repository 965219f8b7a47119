package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/campusfind/campusfind-backend/pkg/db/models"
	pkgerrors "github.com/campusfind/campusfind-backend/pkg/errors"
)

const (
	recentItemsLimit   = 5
	activityLimit      = 10
	activityWindowDays = 30
)

// Service assembles the signed-in user's dashboard summary.
type Service interface {
	Summary(ctx context.Context, userID uuid.UUID) (*Summary, error)
}

// Summary is the aggregate returned by the dashboard endpoint.
type Summary struct {
	RecentLostItems  []models.LostItem  `json:"recent_lost_items"`
	RecentFoundItems []models.FoundItem `json:"recent_found_items"`
	PendingDecisions []models.Match     `json:"pending_decisions"`
	RecentActivity   []ActivityEntry    `json:"recent_activity"`
}

// ActivityEntry is one row of the merged recent-activity feed.
type ActivityEntry struct {
	Kind        string    `json:"kind"`
	ReferenceID uuid.UUID `json:"reference_id"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type service struct {
	repo Repository
}

// NewService wires dashboard dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "dashboard repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	lostItems, err := s.repo.RecentActiveLostItems(ctx, userID, recentItemsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lost items")
	}
	foundItems, err := s.repo.RecentActiveFoundItems(ctx, userID, recentItemsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load found items")
	}
	decisions, err := s.repo.PendingDecisions(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending decisions")
	}

	since := time.Now().UTC().AddDate(0, 0, -activityWindowDays)
	matches, err := s.repo.MatchesInvolvingUserSince(ctx, userID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent matches")
	}

	return &Summary{
		RecentLostItems:  lostItems,
		RecentFoundItems: foundItems,
		PendingDecisions: decisions,
		RecentActivity:   buildActivity(lostItems, foundItems, matches, since),
	}, nil
}

func buildActivity(lostItems []models.LostItem, foundItems []models.FoundItem, matches []models.Match, since time.Time) []ActivityEntry {
	entries := make([]ActivityEntry, 0, len(lostItems)+len(foundItems)+len(matches))

	for _, item := range lostItems {
		if item.CreatedAt.Before(since) {
			continue
		}
		entries = append(entries, ActivityEntry{
			Kind:        "lost_item_reported",
			ReferenceID: item.ID,
			Description: fmt.Sprintf("Reported a lost %s at %s", item.ItemType, item.Location),
			OccurredAt:  item.CreatedAt,
		})
	}
	for _, item := range foundItems {
		if item.CreatedAt.Before(since) {
			continue
		}
		entries = append(entries, ActivityEntry{
			Kind:        "found_item_reported",
			ReferenceID: item.ID,
			Description: fmt.Sprintf("Turned in a found %s at %s", item.ItemType, item.Location),
			OccurredAt:  item.CreatedAt,
		})
	}
	for _, match := range matches {
		entries = append(entries, ActivityEntry{
			Kind:        "match_" + string(match.Status),
			ReferenceID: match.ID,
			Description: fmt.Sprintf("Match %s with %.0f%% similarity", match.Status, match.SimilarityScore*100),
			OccurredAt:  match.CreatedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OccurredAt.After(entries[j].OccurredAt)
	})
	if len(entries) > activityLimit {
		entries = entries[:activityLimit]
	}
	return entries
}
