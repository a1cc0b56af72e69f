package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// StatsStorage implements the StatsStorage interface for Badger
type StatsStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewStatsStorage creates a new StatsStorage instance
func NewStatsStorage(db *BadgerDB, logger arbor.ILogger) interfaces.StatsStorage {
	return &StatsStorage{
		db:     db,
		logger: logger,
	}
}

func (s *StatsStorage) SaveStats(stats *models.ItemStats) error {
	if stats.ItemID == "" {
		return fmt.Errorf("stats item ID is required")
	}

	stats.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(stats.ItemID, stats); err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	return nil
}

func (s *StatsStorage) GetStats(itemID string) (*models.ItemStats, error) {
	var stats models.ItemStats
	if err := s.db.Store().Get(itemID, &stats); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("stats not found for item: %s", itemID)
		}
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}

func (s *StatsStorage) DeleteStats(itemID string) error {
	if err := s.db.Store().Delete(itemID, &models.ItemStats{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete stats: %w", err)
	}
	return nil
}
