package models

import "time"

// ItemStats holds derived text statistics for a completed item. Computed
// best-effort after indexing; absence never affects pipeline status.
type ItemStats struct {
	ItemID        string    `json:"item_id"`
	TenantID      string    `json:"tenant_id"`
	WordCount     int       `json:"word_count"`
	SentenceCount int       `json:"sentence_count"`
	ReadingEase   float64   `json:"reading_ease"`
	UpdatedAt     time.Time `json:"updated_at"`
}
