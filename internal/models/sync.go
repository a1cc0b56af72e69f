package models

import "time"

// SyncScope identifies what a sync run covers.
type SyncScope string

const (
	SyncScopeSource  SyncScope = "source"
	SyncScopeAll     SyncScope = "all"
	SyncScopeRebuild SyncScope = "rebuild"
)

// SyncJobStatus is the observable state of the background sync job. Readers
// always receive a copy, never a pointer into the runner's mutable state.
type SyncJobStatus struct {
	IsRunning bool      `json:"is_running"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Scope     SyncScope `json:"scope,omitempty"`
	SourceID  string    `json:"source_id,omitempty"`

	TotalItems     int `json:"total_items"`
	ProcessedItems int `json:"processed_items"`

	CreatedItems   int `json:"created_items"`
	UpdatedItems   int `json:"updated_items"`
	UnchangedItems int `json:"unchanged_items"`
	FailedItems    int `json:"failed_items"`
	OrphanedItems  int `json:"orphaned_items"`
	SkippedItems   int `json:"skipped_items"`

	Message   string     `json:"message,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// ExternalItem is one entry from a source connector's listing: enough to
// key, fingerprint and later fetch the content.
type ExternalItem struct {
	// ExternalID is the upstream stable identifier; empty when the source
	// only exposes URLs.
	ExternalID string `json:"external_id,omitempty"`
	URL        string `json:"url"`
	Title      string `json:"title"`

	// Content holds the full text when the listing already includes it
	// (CMS bodies, feed entries with content). Empty means the connector's
	// Fetch must be called.
	Content string `json:"content,omitempty"`

	// ContentHash is a connector-supplied change marker used when the
	// listing cannot carry full content (e.g. a CMS modified timestamp
	// hash). Takes precedence over hashing Content.
	ContentHash string `json:"content_hash,omitempty"`
}

// ItemUpdate pairs a stored item with the incoming listing entry that
// superseded it.
type ItemUpdate struct {
	Item     *ContentItem
	Incoming ExternalItem
}

// ReconciliationResult is the diff between a connector listing and the
// content store for one source.
type ReconciliationResult struct {
	ToCreate  []ExternalItem
	ToUpdate  []ItemUpdate
	Unchanged []*ContentItem
	Orphaned  []*ContentItem
	Skipped   int
}
