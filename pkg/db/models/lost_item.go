package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	dbtypes "github.com/campusfind/campusfind-backend/pkg/db/types"
	"github.com/campusfind/campusfind-backend/pkg/enums"
)

// LostItem is a report filed by a user who lost something on campus.
type LostItem struct {
	ID                    uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID               uuid.UUID            `gorm:"column:owner_id;type:uuid;not null;index"`
	Owner                 *User                `gorm:"foreignKey:OwnerID"`
	ItemType              enums.ItemType       `gorm:"column:item_type;type:item_type;not null;index"`
	Description           string               `gorm:"type:text;not null"`
	Location              string               `gorm:"type:text;not null"`
	LostDate              time.Time            `gorm:"column:lost_date;type:date;not null;index"`
	Status                enums.LostItemStatus `gorm:"type:lost_item_status;not null;default:active"`
	VerificationQuestions dbtypes.QuestionList `gorm:"column:verification_questions;type:jsonb;not null;default:'[]'"`
	Photos                pq.StringArray       `gorm:"type:text[];not null;default:ARRAY[]::text[]"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
