package interfaces

import (
	"github.com/ternarybob/curator/internal/models"
)

// ListOptions controls item listing.
type ListOptions struct {
	TenantID   string
	SourceType models.SourceType
	SourceID   string
	Status     models.ProcessingStatus
	Limit      int
	Offset     int
}

// ItemStorage - interface for content item persistence
type ItemStorage interface {
	// CRUD operations
	SaveItem(item *models.ContentItem) error
	GetItem(id string) (*models.ContentItem, error)
	GetItemByKey(tenantID string, sourceType models.SourceType, key string) (*models.ContentItem, error)
	DeleteItem(id string) error

	// List operations
	ListItems(opts *ListOptions) ([]*models.ContentItem, error)
	ListBySource(tenantID, sourceID string) ([]*models.ContentItem, error)

	// Stats operations
	CountItems(tenantID string) (int, error)
	CountByStatus(tenantID string, status models.ProcessingStatus) (int, error)

	// Rebuild support: flips every item for the tenant back to pending
	MarkAllPending(tenantID string) error

	// Bulk operations
	ClearAll() error
}

// StatsStorage - interface for derived item statistics
type StatsStorage interface {
	SaveStats(stats *models.ItemStats) error
	GetStats(itemID string) (*models.ItemStats, error)
	DeleteStats(itemID string) error
}

// SourceStorage - interface for monitored source configurations
type SourceStorage interface {
	SaveSource(source *models.SourceConfig) error
	GetSource(id string) (*models.SourceConfig, error)
	ListSources(tenantID string) ([]*models.SourceConfig, error)
	ListEnabledSources(tenantID string, sourceType models.SourceType) ([]*models.SourceConfig, error)
	ListTenants() ([]string, error)
	DeleteSource(id string) error
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	ItemStorage() ItemStorage
	StatsStorage() StatsStorage
	SourceStorage() SourceStorage
	Close() error
}
