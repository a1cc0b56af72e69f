package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
)

// Orchestrator drives one item through the indexing pipeline:
// fetch -> chunk -> embed -> index write -> status commit.
// Every failure parks the item in the matching failed_* status; the next
// sync run picks failed items up again.
type Orchestrator struct {
	items    interfaces.ItemStorage
	stats    interfaces.StatsStorage
	chunking interfaces.ChunkingService
	gateway  interfaces.EmbeddingGateway
	index    interfaces.VectorIndex
	logger   arbor.ILogger
}

// NewOrchestrator creates the indexing orchestrator.
func NewOrchestrator(
	items interfaces.ItemStorage,
	stats interfaces.StatsStorage,
	chunking interfaces.ChunkingService,
	gateway interfaces.EmbeddingGateway,
	index interfaces.VectorIndex,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		items:    items,
		stats:    stats,
		chunking: chunking,
		gateway:  gateway,
		index:    index,
		logger:   logger,
	}
}

// ProcessItem runs the pipeline for one item. When incoming is non-nil its
// content (or a connector fetch) replaces the stored raw text; otherwise
// the stored text is reprocessed. The item must already be persisted.
func (o *Orchestrator) ProcessItem(
	ctx context.Context,
	settings common.TenantSettings,
	connector interfaces.SourceConnector,
	source *models.SourceConfig,
	item *models.ContentItem,
	incoming *models.ExternalItem,
) error {
	text, err := o.resolveText(ctx, connector, source, item, incoming)
	if err != nil {
		return o.fail(item, models.StatusFailedFetch, err)
	}
	item.RawText = text

	// The stored fingerprint must match what the next listing will report,
	// so a connector-supplied change marker wins over the text hash.
	fingerprint := common.Fingerprint(text)
	if incoming != nil && incoming.ContentHash != "" {
		fingerprint = incoming.ContentHash
	}

	// Whitespace-only content indexes as zero fragments; stale fragments
	// from a previous version still have to go.
	if strings.TrimSpace(text) == "" {
		if err := o.index.ReplaceFragments(ctx, item.TenantID, item.SourceType, item.ID, nil); err != nil {
			return o.fail(item, models.StatusFailedIndexWrite, err)
		}
		return o.complete(item, text, fingerprint, 0, item.ChunkingVersion)
	}

	chunks, chunkingVersion, err := o.chunking.Chunk(ctx, settings, text)
	if err != nil {
		return o.fail(item, models.StatusFailedChunking, err)
	}
	if len(chunks) == 0 {
		return o.fail(item, models.StatusFailedChunking, fmt.Errorf("chunking produced no fragments for non-empty text"))
	}

	item.Status = models.StatusProcessingEmbedding
	item.StatusMessage = ""
	if err := o.items.SaveItem(item); err != nil {
		return o.fail(item, models.StatusFailedStatusPersist, err)
	}

	if err := o.index.EnsureCollection(ctx, item.TenantID, item.SourceType, o.gateway.Dimension(settings)); err != nil {
		return o.fail(item, models.StatusFailedIndexWrite, err)
	}

	vectors, err := o.gateway.Embed(ctx, settings, chunks)
	if err != nil {
		return o.fail(item, models.StatusFailedEmbedding, err)
	}

	fragments := make([]*models.Fragment, len(chunks))
	for i, chunk := range chunks {
		fragments[i] = &models.Fragment{
			ItemID:   item.ID,
			TenantID: item.TenantID,
			Ordinal:  i,
			Text:     chunk,
			Vector:   vectors[i],
		}
	}

	if err := o.index.ReplaceFragments(ctx, item.TenantID, item.SourceType, item.ID, fragments); err != nil {
		return o.fail(item, models.StatusFailedIndexWrite, err)
	}

	return o.complete(item, text, fingerprint, len(fragments), chunkingVersion)
}

// DeleteItem removes an item and its fragments from both stores.
func (o *Orchestrator) DeleteItem(ctx context.Context, item *models.ContentItem) error {
	if err := o.index.DeleteItem(ctx, item.TenantID, item.SourceType, item.ID); err != nil {
		return fmt.Errorf("failed to delete fragments for item %s: %w", item.ID, err)
	}
	if err := o.items.DeleteItem(item.ID); err != nil {
		return err
	}
	if err := o.stats.DeleteStats(item.ID); err != nil {
		o.logger.Warn().Err(err).Str("item_id", item.ID).Msg("Failed to delete item stats")
	}
	return nil
}

// resolveText decides where the item's text comes from: the listing entry,
// a connector fetch, or the previously stored raw text. A fetch needs both
// a connector and a source config; rebuild and reindex paths can lack
// either when the item's source has been deleted.
func (o *Orchestrator) resolveText(
	ctx context.Context,
	connector interfaces.SourceConnector,
	source *models.SourceConfig,
	item *models.ContentItem,
	incoming *models.ExternalItem,
) (string, error) {
	if incoming != nil {
		if incoming.Content != "" {
			return incoming.Content, nil
		}
		if connector == nil || source == nil {
			return "", fmt.Errorf("no connector or source available to fetch %s", incoming.URL)
		}
		return connector.Fetch(ctx, source, *incoming)
	}

	if item.RawText != "" {
		return item.RawText, nil
	}
	if connector == nil || source == nil {
		return "", fmt.Errorf("item %s has no stored text and no source to fetch it from", item.ID)
	}
	return connector.Fetch(ctx, source, models.ExternalItem{
		ExternalID: item.ExternalID,
		URL:        item.URL,
		Title:      item.Title,
	})
}

// fail parks the item in a failure status. The status write itself is best
// effort: a failing store is logged, not masked.
func (o *Orchestrator) fail(item *models.ContentItem, status models.ProcessingStatus, cause error) error {
	item.Status = status
	item.StatusMessage = cause.Error()

	if err := o.items.SaveItem(item); err != nil {
		o.logger.Error().
			Err(err).
			Str("item_id", item.ID).
			Str("status", string(status)).
			Msg("Failed to persist failure status")
	}

	o.logger.Warn().
		Str("item_id", item.ID).
		Str("status", string(status)).
		Str("error", cause.Error()).
		Msg("Item processing failed")

	return fmt.Errorf("%s: %w", status, cause)
}

// complete commits the terminal success state. Fragments are already live
// in the vector index; a failing status write parks the item in
// failed_status_persist so the next run reconverges.
func (o *Orchestrator) complete(item *models.ContentItem, text, fingerprint string, fragmentCount int, chunkingVersion string) error {
	now := time.Now()
	item.Status = models.StatusCompleted
	item.StatusMessage = ""
	item.Fingerprint = fingerprint
	item.FragmentCount = fragmentCount
	item.ChunkingVersion = chunkingVersion
	item.LastIndexedAt = &now

	if err := o.items.SaveItem(item); err != nil {
		return o.fail(item, models.StatusFailedStatusPersist, err)
	}

	if err := o.stats.SaveStats(ComputeStats(item, text)); err != nil {
		o.logger.Warn().Err(err).Str("item_id", item.ID).Msg("Failed to save item stats")
	}

	o.logger.Debug().
		Str("item_id", item.ID).
		Int("fragments", fragmentCount).
		Str("chunking_version", chunkingVersion).
		Msg("Item indexed")

	return nil
}
