package model

import (
	"encoding/json"
	"time"
)

// InteractionType enumerates feedback actions on an insight card.
type InteractionType string

const (
	InteractionTrash      InteractionType = "trash"
	InteractionBookmark   InteractionType = "bookmark"
	InteractionUnbookmark InteractionType = "unbookmark"
	InteractionRateGood   InteractionType = "rate_good"
	InteractionRateBad    InteractionType = "rate_bad"
)

// Valid reports whether t is a known interaction type.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionTrash, InteractionBookmark, InteractionUnbookmark,
		InteractionRateGood, InteractionRateBad:
		return true
	}
	return false
}

// Bookmark stores a saved card with its denormalized payload so it survives
// the expiry of the daily batch it came from.
type Bookmark struct {
	UserID    string          `db:"user_id" json:"user_id"`
	ItemID    string          `db:"item_id" json:"item_id"`
	ItemType  string          `db:"item_type" json:"item_type"`
	ItemData  json.RawMessage `db:"item_data" json:"item_data"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
