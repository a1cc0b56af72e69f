package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ItemStorage implements the ItemStorage interface for Badger
type ItemStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewItemStorage creates a new ItemStorage instance
func NewItemStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ItemStorage {
	return &ItemStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ItemStorage) SaveItem(item *models.ContentItem) error {
	if item.ID == "" {
		return fmt.Errorf("item ID is required")
	}
	if item.TenantID == "" {
		return fmt.Errorf("item tenant ID is required")
	}

	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	if err := s.db.Store().Upsert(item.ID, item); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

func (s *ItemStorage) GetItem(id string) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := s.db.Store().Get(id, &item); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("item not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// GetItemByKey looks up an item by its reconciliation key within a tenant
// and source type: external id when the source provides one, normalized URL
// otherwise.
func (s *ItemStorage) GetItemByKey(tenantID string, sourceType models.SourceType, key string) (*models.ContentItem, error) {
	var items []models.ContentItem
	err := s.db.Store().Find(&items, badgerhold.Where("TenantID").Eq(tenantID).
		And("SourceType").Eq(sourceType).
		And("ExternalID").Eq(key).Limit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	if len(items) == 0 {
		err = s.db.Store().Find(&items, badgerhold.Where("TenantID").Eq(tenantID).
			And("SourceType").Eq(sourceType).
			And("URL").Eq(key).Limit(1))
		if err != nil {
			return nil, fmt.Errorf("failed to find item: %w", err)
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("item not found for key: %s", key)
	}
	return &items[0], nil
}

func (s *ItemStorage) DeleteItem(id string) error {
	if err := s.db.Store().Delete(id, &models.ContentItem{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func (s *ItemStorage) ListItems(opts *interfaces.ListOptions) ([]*models.ContentItem, error) {
	query := badgerhold.Where("ID").Ne("") // Select all

	if opts != nil {
		if opts.TenantID != "" {
			query = query.And("TenantID").Eq(opts.TenantID)
		}
		if opts.SourceType != "" {
			query = query.And("SourceType").Eq(opts.SourceType)
		}
		if opts.SourceID != "" {
			query = query.And("SourceID").Eq(opts.SourceID)
		}
		if opts.Status != "" {
			query = query.And("Status").Eq(opts.Status)
		}
		if opts.Limit > 0 {
			query = query.Limit(opts.Limit)
		}
		if opts.Offset > 0 {
			query = query.Skip(opts.Offset)
		}
	}

	var items []models.ContentItem
	if err := s.db.Store().Find(&items, query); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	result := make([]*models.ContentItem, len(items))
	for i := range items {
		result[i] = &items[i]
	}
	return result, nil
}

func (s *ItemStorage) ListBySource(tenantID, sourceID string) ([]*models.ContentItem, error) {
	var items []models.ContentItem
	err := s.db.Store().Find(&items, badgerhold.Where("TenantID").Eq(tenantID).And("SourceID").Eq(sourceID))
	if err != nil {
		return nil, fmt.Errorf("failed to list items for source: %w", err)
	}

	result := make([]*models.ContentItem, len(items))
	for i := range items {
		result[i] = &items[i]
	}
	return result, nil
}

func (s *ItemStorage) CountItems(tenantID string) (int, error) {
	count, err := s.db.Store().Count(&models.ContentItem{}, badgerhold.Where("TenantID").Eq(tenantID))
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return int(count), nil
}

func (s *ItemStorage) CountByStatus(tenantID string, status models.ProcessingStatus) (int, error) {
	count, err := s.db.Store().Count(&models.ContentItem{},
		badgerhold.Where("TenantID").Eq(tenantID).And("Status").Eq(status))
	if err != nil {
		return 0, fmt.Errorf("failed to count items by status: %w", err)
	}
	return int(count), nil
}

// MarkAllPending flips every item for the tenant back to pending. Used by
// full rebuilds so an interrupted rebuild can resume where it stopped.
func (s *ItemStorage) MarkAllPending(tenantID string) error {
	items, err := s.ListItems(&interfaces.ListOptions{TenantID: tenantID})
	if err != nil {
		return err
	}

	for _, item := range items {
		item.Status = models.StatusPending
		item.StatusMessage = ""
		if err := s.SaveItem(item); err != nil {
			return fmt.Errorf("failed to mark item %s pending: %w", item.ID, err)
		}
	}

	s.logger.Info().Str("tenant_id", tenantID).Int("count", len(items)).Msg("Marked all items pending")
	return nil
}

func (s *ItemStorage) ClearAll() error {
	if err := s.db.Store().DeleteMatching(&models.ContentItem{}, nil); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	return nil
}
