package models

import "fmt"

// Fragment is one chunk of an item's text together with its embedding
// vector, as written to the vector index.
type Fragment struct {
	ItemID   string    `json:"item_id"`
	TenantID string    `json:"tenant_id"`
	Ordinal  int       `json:"ordinal"`
	Text     string    `json:"text"`
	Vector   []float32 `json:"vector,omitempty"`
}

// ID returns the deterministic fragment identifier <item_id>:<ordinal>.
func (f *Fragment) ID() string {
	return fmt.Sprintf("%s:%d", f.ItemID, f.Ordinal)
}
