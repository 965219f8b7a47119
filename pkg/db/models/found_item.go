package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/campusfind/campusfind-backend/pkg/enums"
)

// FoundItem is a report filed by a user who picked something up on campus.
type FoundItem struct {
	ID          uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID     uuid.UUID             `gorm:"column:owner_id;type:uuid;not null;index"`
	Owner       *User                 `gorm:"foreignKey:OwnerID"`
	ItemType    enums.ItemType        `gorm:"column:item_type;type:item_type;not null;index"`
	Description string                `gorm:"type:text;not null"`
	Location    string                `gorm:"type:text;not null"`
	FoundDate   time.Time             `gorm:"column:found_date;type:date;not null;index"`
	Status      enums.FoundItemStatus `gorm:"type:found_item_status;not null;default:active"`
	Photos      pq.StringArray        `gorm:"type:text[];not null;default:ARRAY[]::text[]"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
