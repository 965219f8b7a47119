package payloads

import (
	"time"

	"github.com/campusfind/campusfind-backend/pkg/enums"
	"github.com/google/uuid"
)

// LostItemReportedEvent triggers a match scan for a new lost item report.
type LostItemReportedEvent struct {
	LostItemID uuid.UUID      `json:"lost_item_id"`
	OwnerID    uuid.UUID      `json:"owner_id"`
	ItemType   enums.ItemType `json:"item_type"`
	LostDate   time.Time      `json:"lost_date"`
}

// FoundItemReportedEvent triggers a match scan for a new found item report.
type FoundItemReportedEvent struct {
	FoundItemID uuid.UUID      `json:"found_item_id"`
	OwnerID     uuid.UUID      `json:"owner_id"`
	ItemType    enums.ItemType `json:"item_type"`
	FoundDate   time.Time      `json:"found_date"`
}

// MatchSuggestedEvent is emitted when the finder persists a pending match.
type MatchSuggestedEvent struct {
	MatchID         uuid.UUID `json:"match_id"`
	LostItemID      uuid.UUID `json:"lost_item_id"`
	FoundItemID     uuid.UUID `json:"found_item_id"`
	LostOwnerID     uuid.UUID `json:"lost_owner_id"`
	FoundOwnerID    uuid.UUID `json:"found_owner_id"`
	SimilarityScore float64   `json:"similarity_score"`
}

// MatchApprovedEvent reports a successful recovery.
type MatchApprovedEvent struct {
	MatchID      uuid.UUID  `json:"match_id"`
	LostItemID   *uuid.UUID `json:"lost_item_id,omitempty"`
	FoundItemID  uuid.UUID  `json:"found_item_id"`
	LostOwnerID  *uuid.UUID `json:"lost_owner_id,omitempty"`
	FoundOwnerID uuid.UUID  `json:"found_owner_id"`
	ClaimerID    *uuid.UUID `json:"claimer_id,omitempty"`
	ApprovedBy   uuid.UUID  `json:"approved_by"`
}

// MatchRejectedEvent reports that the found item owner declined a suggestion.
type MatchRejectedEvent struct {
	MatchID     uuid.UUID  `json:"match_id"`
	LostItemID  *uuid.UUID `json:"lost_item_id,omitempty"`
	FoundItemID uuid.UUID  `json:"found_item_id"`
	LostOwnerID *uuid.UUID `json:"lost_owner_id,omitempty"`
	ClaimerID   *uuid.UUID `json:"claimer_id,omitempty"`
	RejectedBy  uuid.UUID  `json:"rejected_by"`
}

// MatchClaimedEvent reports a direct claim on a found item.
type MatchClaimedEvent struct {
	MatchID      uuid.UUID `json:"match_id"`
	FoundItemID  uuid.UUID `json:"found_item_id"`
	FoundOwnerID uuid.UUID `json:"found_owner_id"`
	ClaimerID    uuid.UUID `json:"claimer_id"`
}

// MatchCancelledEvent is emitted when item lifecycle changes void a pending match.
type MatchCancelledEvent struct {
	MatchID     uuid.UUID  `json:"match_id"`
	LostItemID  *uuid.UUID `json:"lost_item_id,omitempty"`
	FoundItemID uuid.UUID  `json:"found_item_id"`
	Reason      string     `json:"reason,omitempty"`
}

// LostItemFoundEvent reports that a lost item report was resolved.
type LostItemFoundEvent struct {
	LostItemID uuid.UUID `json:"lost_item_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
}

// LostItemClosedEvent reports that a lost item report was closed without recovery.
type LostItemClosedEvent struct {
	LostItemID uuid.UUID `json:"lost_item_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
}

// FoundItemReturnedEvent reports that a found item was handed back.
type FoundItemReturnedEvent struct {
	FoundItemID uuid.UUID `json:"found_item_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	ReturnedAt  time.Time `json:"returned_at"`
}

// FoundItemClosedEvent reports that a found item report was closed.
type FoundItemClosedEvent struct {
	FoundItemID uuid.UUID `json:"found_item_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
}

// ItemDeletedEvent reports an explicit owner delete of either report kind.
type ItemDeletedEvent struct {
	ItemID  uuid.UUID `json:"item_id"`
	OwnerID uuid.UUID `json:"owner_id"`
}

// ReputationAwardedEvent is emitted when a user earns reputation points.
type ReputationAwardedEvent struct {
	UserID        uuid.UUID `json:"user_id"`
	Delta         int       `json:"delta"`
	NewReputation int       `json:"new_reputation"`
	Reason        string    `json:"reason"`
}
