package models

import "time"

// SourceType identifies the kind of content source an item came from.
type SourceType string

const (
	SourceTypeVideo    SourceType = "video"
	SourceTypeDocument SourceType = "document"
	SourceTypeArticle  SourceType = "article"
	SourceTypePage     SourceType = "page"
)

// SourceTypeOrder is the fixed processing order used by full rebuilds.
var SourceTypeOrder = []SourceType{
	SourceTypeVideo,
	SourceTypeDocument,
	SourceTypeArticle,
	SourceTypePage,
}

// IsValid checks whether the source type is one of the known values.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeVideo, SourceTypeDocument, SourceTypeArticle, SourceTypePage:
		return true
	}
	return false
}

// ProcessingStatus tracks an item through the indexing pipeline.
type ProcessingStatus string

const (
	StatusPending             ProcessingStatus = "pending"
	StatusProcessingEmbedding ProcessingStatus = "processing_embedding"
	StatusCompleted           ProcessingStatus = "completed"
	StatusFailedFetch         ProcessingStatus = "failed_fetch"
	StatusFailedChunking      ProcessingStatus = "failed_chunking"
	StatusFailedEmbedding     ProcessingStatus = "failed_embedding"
	StatusFailedIndexWrite    ProcessingStatus = "failed_index_write"
	StatusFailedStatusPersist ProcessingStatus = "failed_status_persist"
)

// IsFailed reports whether the status is one of the failure states.
func (s ProcessingStatus) IsFailed() bool {
	switch s {
	case StatusFailedFetch, StatusFailedChunking, StatusFailedEmbedding,
		StatusFailedIndexWrite, StatusFailedStatusPersist:
		return true
	}
	return false
}

// NeedsIndexing reports whether the item should be picked up by the next
// sync run. Failure states are re-enterable; a crash mid-run can also leave
// items parked in processing_embedding.
func (s ProcessingStatus) NeedsIndexing() bool {
	return s == StatusPending || s == StatusProcessingEmbedding || s.IsFailed()
}

// ContentItem is one unit of ingested content (a video transcript, an
// uploaded document, a feed article or a CMS page) together with its
// pipeline state.
type ContentItem struct {
	ID         string     `json:"id"` // item_{uuid}
	TenantID   string     `json:"tenant_id"`
	SourceType SourceType `json:"source_type"`
	SourceID   string     `json:"source_id"` // Monitored source this item belongs to

	// ExternalID is the stable identifier from the upstream system (video
	// id, CMS post id, feed GUID). Empty when the source only exposes URLs.
	ExternalID string `json:"external_id,omitempty"`
	URL        string `json:"url"` // Normalized canonical URL
	Title      string `json:"title"`

	RawText     string `json:"raw_text,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`

	Status        ProcessingStatus `json:"status"`
	StatusMessage string           `json:"status_message,omitempty"`

	ChunkingVersion string `json:"chunking_version,omitempty"`
	FragmentCount   int    `json:"fragment_count"`

	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastIndexedAt *time.Time `json:"last_indexed_at,omitempty"`
}

// Key returns the reconciliation key for the item: the upstream external id
// when available, otherwise the normalized URL.
func (i *ContentItem) Key() string {
	if i.ExternalID != "" {
		return i.ExternalID
	}
	return i.URL
}
