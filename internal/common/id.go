package common

import (
	"fmt"

	"github.com/google/uuid"
)

// NewItemID generates a unique content item ID with the "item_" prefix
// Format: item_<uuid>
func NewItemID() string {
	return "item_" + uuid.New().String()
}

// NewSourceID generates a unique source ID with the "src_" prefix
// Format: src_<uuid>
func NewSourceID() string {
	return "src_" + uuid.New().String()
}

// FragmentID builds the deterministic fragment identifier for an item's
// chunk at the given ordinal position.
// Format: <item_id>:<ordinal>
func FragmentID(itemID string, ordinal int) string {
	return fmt.Sprintf("%s:%d", itemID, ordinal)
}
