package analytics

import (
	"encoding/json"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/campusfind/campusfind-backend/pkg/enums"
)

// Envelope is the normalized analytics event handed to the router.
type Envelope struct {
	EventID       string
	EventType     enums.AnalyticsEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   string
	OccurredAt    time.Time
	Payload       json.RawMessage
}

// ItemEventRow mirrors the item_events BigQuery schema.
type ItemEventRow struct {
	EventID    string             `bigquery:"event_id"`
	EventType  string             `bigquery:"event_type"`
	OccurredAt time.Time          `bigquery:"occurred_at"`
	ItemID     string             `bigquery:"item_id"`
	ItemKind   string             `bigquery:"item_kind"`
	ItemType   *string            `bigquery:"item_type"`
	OwnerID    string             `bigquery:"owner_id"`
	Payload    cbigquery.NullJSON `bigquery:"payload"`
}

// MatchEventRow mirrors the match_events BigQuery schema.
type MatchEventRow struct {
	EventID         string             `bigquery:"event_id"`
	EventType       string             `bigquery:"event_type"`
	OccurredAt      time.Time          `bigquery:"occurred_at"`
	MatchID         string             `bigquery:"match_id"`
	LostItemID      *string            `bigquery:"lost_item_id"`
	FoundItemID     string             `bigquery:"found_item_id"`
	ClaimerID       *string            `bigquery:"claimer_id"`
	SimilarityScore *float64           `bigquery:"similarity_score"`
	Payload         cbigquery.NullJSON `bigquery:"payload"`
}
