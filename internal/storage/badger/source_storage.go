package badger

import (
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SourceStorage implements the SourceStorage interface for Badger
type SourceStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSourceStorage creates a new SourceStorage instance
func NewSourceStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SourceStorage {
	return &SourceStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SourceStorage) SaveSource(source *models.SourceConfig) error {
	if source.ID == "" {
		return fmt.Errorf("source ID is required")
	}
	if err := source.Validate(); err != nil {
		return fmt.Errorf("invalid source: %w", err)
	}

	now := time.Now()
	if source.CreatedAt.IsZero() {
		source.CreatedAt = now
	}
	source.UpdatedAt = now

	if err := s.db.Store().Upsert(source.ID, source); err != nil {
		return fmt.Errorf("failed to save source: %w", err)
	}
	return nil
}

func (s *SourceStorage) GetSource(id string) (*models.SourceConfig, error) {
	var source models.SourceConfig
	if err := s.db.Store().Get(id, &source); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("source not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return &source, nil
}

func (s *SourceStorage) ListSources(tenantID string) ([]*models.SourceConfig, error) {
	query := badgerhold.Where("ID").Ne("")
	if tenantID != "" {
		query = query.And("TenantID").Eq(tenantID)
	}

	var sources []models.SourceConfig
	if err := s.db.Store().Find(&sources, query); err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	result := make([]*models.SourceConfig, len(sources))
	for i := range sources {
		result[i] = &sources[i]
	}
	return result, nil
}

func (s *SourceStorage) ListEnabledSources(tenantID string, sourceType models.SourceType) ([]*models.SourceConfig, error) {
	query := badgerhold.Where("TenantID").Eq(tenantID).And("Enabled").Eq(true)
	if sourceType != "" {
		query = query.And("Type").Eq(sourceType)
	}

	var sources []models.SourceConfig
	if err := s.db.Store().Find(&sources, query); err != nil {
		return nil, fmt.Errorf("failed to list enabled sources: %w", err)
	}

	result := make([]*models.SourceConfig, len(sources))
	for i := range sources {
		result[i] = &sources[i]
	}
	return result, nil
}

// ListTenants returns the distinct tenant ids that have at least one
// configured source.
func (s *SourceStorage) ListTenants() ([]string, error) {
	sources, err := s.ListSources("")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var tenants []string
	for _, source := range sources {
		if !seen[source.TenantID] {
			seen[source.TenantID] = true
			tenants = append(tenants, source.TenantID)
		}
	}
	sort.Strings(tenants)
	return tenants, nil
}

func (s *SourceStorage) DeleteSource(id string) error {
	if err := s.db.Store().Delete(id, &models.SourceConfig{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete source: %w", err)
	}
	return nil
}
