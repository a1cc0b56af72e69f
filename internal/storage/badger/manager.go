package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db     *BadgerDB
	item   interfaces.ItemStorage
	stats  interfaces.StatsStorage
	source interfaces.SourceStorage
	logger arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.StorageConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		item:   NewItemStorage(db, logger),
		stats:  NewStatsStorage(db, logger),
		source: NewSourceStorage(db, logger),
		logger: logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// ItemStorage returns the content item storage interface
func (m *Manager) ItemStorage() interfaces.ItemStorage {
	return m.item
}

// StatsStorage returns the item statistics storage interface
func (m *Manager) StatsStorage() interfaces.StatsStorage {
	return m.stats
}

// SourceStorage returns the monitored source storage interface
func (m *Manager) SourceStorage() interfaces.SourceStorage {
	return m.source
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
