package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"github.com/ternarybob/curator/internal/services/pipeline"
	"github.com/ternarybob/curator/internal/services/reconcile"
)

// ErrAlreadyRunning is returned when a sync trigger arrives while a run is
// in flight. Callers map it to 409.
var ErrAlreadyRunning = errors.New("a sync run is already in progress")

// Runner owns the background sync job: single-flight execution, progress
// reporting and the apply side of reconciliation.
type Runner struct {
	config       *common.Config
	storage      interfaces.StorageManager
	connectors   map[models.SourceType]interfaces.SourceConnector
	reconciler   *reconcile.Reconciler
	orchestrator *pipeline.Orchestrator
	logger       arbor.ILogger

	mu      sync.Mutex
	running bool
	status  models.SyncJobStatus
}

// NewRunner creates the sync runner.
func NewRunner(
	config *common.Config,
	storage interfaces.StorageManager,
	connectors map[models.SourceType]interfaces.SourceConnector,
	reconciler *reconcile.Reconciler,
	orchestrator *pipeline.Orchestrator,
	logger arbor.ILogger,
) *Runner {
	return &Runner{
		config:       config,
		storage:      storage,
		connectors:   connectors,
		reconciler:   reconciler,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Status returns a snapshot copy of the current job status.
func (r *Runner) Status() models.SyncJobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// TriggerSource starts a background sync of one source. Returns
// ErrAlreadyRunning when a run is in flight.
func (r *Runner) TriggerSource(tenantID, sourceID string) error {
	source, err := r.storage.SourceStorage().GetSource(sourceID)
	if err != nil {
		return err
	}
	if source.TenantID != tenantID {
		return fmt.Errorf("source %s does not belong to tenant %s", sourceID, tenantID)
	}

	if err := r.begin(tenantID, models.SyncScopeSource, sourceID); err != nil {
		return err
	}
	go func() {
		defer r.finish()
		r.syncSource(context.Background(), source)
	}()
	return nil
}

// TriggerAll starts a background sync of every enabled source for the
// tenant, in the fixed source type order.
func (r *Runner) TriggerAll(tenantID string) error {
	if err := r.begin(tenantID, models.SyncScopeAll, ""); err != nil {
		return err
	}
	go func() {
		defer r.finish()
		r.syncTenant(context.Background(), tenantID)
	}()
	return nil
}

// TriggerType starts a background sync of every enabled source of one
// source type for the tenant.
func (r *Runner) TriggerType(tenantID string, sourceType models.SourceType) error {
	if _, ok := r.connectors[sourceType]; !ok {
		return fmt.Errorf("unknown source type %q", sourceType)
	}

	if err := r.begin(tenantID, models.SyncScopeAll, ""); err != nil {
		return err
	}
	go func() {
		defer r.finish()
		r.syncType(context.Background(), tenantID, sourceType)
	}()
	return nil
}

// TriggerRebuild starts a full rebuild: every item flips back to pending
// first, so an interrupted rebuild resumes instead of restarting.
func (r *Runner) TriggerRebuild(tenantID string) error {
	if err := r.begin(tenantID, models.SyncScopeRebuild, ""); err != nil {
		return err
	}
	go func() {
		defer r.finish()
		r.rebuild(context.Background(), tenantID)
	}()
	return nil
}

// ReindexItem synchronously re-runs the pipeline for one item, ignoring its
// fingerprint. Runs outside the single-flight guard; vector index writes
// are idempotent per item.
func (r *Runner) ReindexItem(ctx context.Context, itemID string) error {
	item, err := r.storage.ItemStorage().GetItem(itemID)
	if err != nil {
		return err
	}

	var source *models.SourceConfig
	if item.SourceID != "" {
		if s, err := r.storage.SourceStorage().GetSource(item.SourceID); err == nil {
			source = s
		}
	}

	settings := r.config.TenantSettings(item.TenantID)
	return r.orchestrator.ProcessItem(ctx, settings, r.connectors[item.SourceType], source, item, nil)
}

// begin acquires the single-flight slot and resets the status.
func (r *Runner) begin(tenantID string, scope models.SyncScope, sourceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyRunning
	}
	r.running = true

	now := time.Now()
	r.status = models.SyncJobStatus{
		IsRunning: true,
		TenantID:  tenantID,
		Scope:     scope,
		SourceID:  sourceID,
		StartedAt: &now,
	}
	return nil
}

func (r *Runner) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.running = false
	r.status.IsRunning = false
	r.status.EndedAt = &now

	r.logger.Info().
		Str("tenant_id", r.status.TenantID).
		Str("scope", string(r.status.Scope)).
		Int("created", r.status.CreatedItems).
		Int("updated", r.status.UpdatedItems).
		Int("unchanged", r.status.UnchangedItems).
		Int("failed", r.status.FailedItems).
		Int("orphaned", r.status.OrphanedItems).
		Int("skipped", r.status.SkippedItems).
		Msg("Sync run finished")
}

func (r *Runner) update(fn func(status *models.SyncJobStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.status)
}

// syncTenant syncs every enabled source for the tenant, grouped by source
// type in the fixed order.
func (r *Runner) syncTenant(ctx context.Context, tenantID string) {
	for _, sourceType := range models.SourceTypeOrder {
		r.syncType(ctx, tenantID, sourceType)
	}
}

func (r *Runner) syncType(ctx context.Context, tenantID string, sourceType models.SourceType) {
	sources, err := r.storage.SourceStorage().ListEnabledSources(tenantID, sourceType)
	if err != nil {
		r.update(func(s *models.SyncJobStatus) { s.LastError = err.Error() })
		return
	}
	for _, source := range sources {
		if ctx.Err() != nil {
			return
		}
		r.syncSource(ctx, source)
	}
}

// rebuild marks everything pending, syncs all sources, then drains items
// still pending from stored text (their source may be gone or disabled).
func (r *Runner) rebuild(ctx context.Context, tenantID string) {
	if err := r.storage.ItemStorage().MarkAllPending(tenantID); err != nil {
		r.update(func(s *models.SyncJobStatus) { s.LastError = err.Error() })
		return
	}

	r.syncTenant(ctx, tenantID)

	leftovers, err := r.storage.ItemStorage().ListItems(&interfaces.ListOptions{
		TenantID: tenantID,
		Status:   models.StatusPending,
	})
	if err != nil {
		r.update(func(s *models.SyncJobStatus) { s.LastError = err.Error() })
		return
	}

	settings := r.config.TenantSettings(tenantID)
	for _, item := range leftovers {
		if ctx.Err() != nil {
			return
		}
		err := r.orchestrator.ProcessItem(ctx, settings, r.connectors[item.SourceType], nil, item, nil)
		r.update(func(s *models.SyncJobStatus) {
			s.TotalItems++
			s.ProcessedItems++
			if err != nil {
				s.FailedItems++
				s.LastError = err.Error()
			} else {
				s.UpdatedItems++
			}
		})
	}
}

// syncSource reconciles and processes one source. Enumeration failure
// aborts before any store mutation.
func (r *Runner) syncSource(ctx context.Context, source *models.SourceConfig) {
	connector, ok := r.connectors[source.Type]
	if !ok {
		r.logger.Warn().Str("source_type", string(source.Type)).Msg("No connector registered for source type")
		return
	}

	r.update(func(s *models.SyncJobStatus) {
		s.Message = fmt.Sprintf("Syncing %s (%s)", source.Name, source.Type)
	})

	listing, err := connector.List(ctx, source)
	if err != nil {
		r.logger.Warn().Err(err).Str("source_id", source.ID).Msg("Source enumeration failed, skipping source")
		r.update(func(s *models.SyncJobStatus) { s.LastError = err.Error() })
		return
	}

	result, err := r.reconciler.Reconcile(source, listing)
	if err != nil {
		r.update(func(s *models.SyncJobStatus) { s.LastError = err.Error() })
		return
	}

	r.update(func(s *models.SyncJobStatus) {
		s.TotalItems += len(result.ToCreate) + len(result.ToUpdate)
		s.UnchangedItems += len(result.Unchanged)
		s.SkippedItems += result.Skipped
	})

	settings := r.config.TenantSettings(source.TenantID)

	r.applyOrphans(ctx, connector, result.Orphaned)

	for _, incoming := range result.ToCreate {
		if ctx.Err() != nil {
			return
		}
		item := &models.ContentItem{
			ID:         common.NewItemID(),
			TenantID:   source.TenantID,
			SourceType: source.Type,
			SourceID:   source.ID,
			ExternalID: incoming.ExternalID,
			URL:        incoming.URL,
			Title:      incoming.Title,
			Status:     models.StatusPending,
		}
		if err := r.storage.ItemStorage().SaveItem(item); err != nil {
			r.update(func(s *models.SyncJobStatus) {
				s.ProcessedItems++
				s.FailedItems++
				s.LastError = err.Error()
			})
			continue
		}
		r.processOne(ctx, settings, connector, source, item, incoming, true)
	}

	for _, upd := range result.ToUpdate {
		if ctx.Err() != nil {
			return
		}
		upd.Item.Title = upd.Incoming.Title
		upd.Item.URL = upd.Incoming.URL
		if upd.Incoming.ExternalID != "" {
			upd.Item.ExternalID = upd.Incoming.ExternalID
		}
		r.processOne(ctx, settings, connector, source, upd.Item, upd.Incoming, false)
	}

	now := time.Now()
	source.LastCheckedAt = &now
	if err := r.storage.SourceStorage().SaveSource(source); err != nil {
		r.logger.Warn().Err(err).Str("source_id", source.ID).Msg("Failed to record source check time")
	}
}

func (r *Runner) processOne(
	ctx context.Context,
	settings common.TenantSettings,
	connector interfaces.SourceConnector,
	source *models.SourceConfig,
	item *models.ContentItem,
	incoming models.ExternalItem,
	created bool,
) {
	err := r.orchestrator.ProcessItem(ctx, settings, connector, source, item, &incoming)
	r.update(func(s *models.SyncJobStatus) {
		s.ProcessedItems++
		if err != nil {
			s.FailedItems++
			s.LastError = err.Error()
			return
		}
		if created {
			s.CreatedItems++
		} else {
			s.UpdatedItems++
		}
	})
}

// applyOrphans deletes orphans for full-snapshot sources and only counts
// them for advisory ones.
func (r *Runner) applyOrphans(ctx context.Context, connector interfaces.SourceConnector, orphans []*models.ContentItem) {
	for _, orphan := range orphans {
		if connector.OrphanPolicy() == interfaces.OrphanPolicyDelete {
			if err := r.orchestrator.DeleteItem(ctx, orphan); err != nil {
				r.logger.Warn().Err(err).Str("item_id", orphan.ID).Msg("Failed to delete orphaned item")
				r.update(func(s *models.SyncJobStatus) {
					s.FailedItems++
					s.LastError = err.Error()
				})
				continue
			}
		} else {
			r.logger.Info().
				Str("item_id", orphan.ID).
				Str("url", orphan.URL).
				Msg("Item no longer listed by source (kept, advisory orphan policy)")
		}
		r.update(func(s *models.SyncJobStatus) { s.OrphanedItems++ })
	}
}
