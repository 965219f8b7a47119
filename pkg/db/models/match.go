package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/campusfind/campusfind-backend/pkg/db/types"
	"github.com/campusfind/campusfind-backend/pkg/enums"
)

// Match links a found item to either an algorithmically suggested lost item
// or a manual claimer. Exactly one of LostItemID and ClaimerID drives the
// interpretation: lost_item present means suggestion, claimer present means
// manual claim.
type Match struct {
	ID                  uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	LostItemID          *uuid.UUID        `gorm:"column:lost_item_id;type:uuid;index"`
	LostItem            *LostItem         `gorm:"foreignKey:LostItemID;constraint:OnDelete:CASCADE"`
	FoundItemID         uuid.UUID         `gorm:"column:found_item_id;type:uuid;not null;index"`
	FoundItem           *FoundItem        `gorm:"foreignKey:FoundItemID;constraint:OnDelete:CASCADE"`
	ClaimerID           *uuid.UUID        `gorm:"column:claimer_id;type:uuid"`
	Claimer             *User             `gorm:"foreignKey:ClaimerID"`
	SimilarityScore     float64           `gorm:"column:similarity_score;not null"`
	Status              enums.MatchStatus `gorm:"type:match_status;not null;default:pending;index"`
	VerificationAnswers dbtypes.AnswerMap `gorm:"column:verification_answers;type:jsonb;not null;default:'{}'"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
