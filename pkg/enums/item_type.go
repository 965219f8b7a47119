package enums

import "fmt"

// ItemType maps to the item_type enum in Postgres, shared by lost and
// found item reports.
type ItemType string

const (
	ItemTypePhone    ItemType = "phone"
	ItemTypeLaptop   ItemType = "laptop"
	ItemTypeTextbook ItemType = "textbook"
	ItemTypeID       ItemType = "id"
	ItemTypeKeys     ItemType = "keys"
	ItemTypeWallet   ItemType = "wallet"
	ItemTypeBackpack ItemType = "backpack"
	ItemTypeOther    ItemType = "other"
)

var validItemTypes = []ItemType{
	ItemTypePhone,
	ItemTypeLaptop,
	ItemTypeTextbook,
	ItemTypeID,
	ItemTypeKeys,
	ItemTypeWallet,
	ItemTypeBackpack,
	ItemTypeOther,
}

// IsValid reports whether the value matches the canonical item_type enum.
func (i ItemType) IsValid() bool {
	for _, candidate := range validItemTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemType converts raw input into ItemType.
func ParseItemType(value string) (ItemType, error) {
	for _, candidate := range validItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item type %q", value)
}
