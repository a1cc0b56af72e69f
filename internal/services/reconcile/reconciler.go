package reconcile

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
)

// Reconciler diffs a connector listing against the content store for one
// source. It never mutates the store; the sync runner applies the result.
type Reconciler struct {
	items  interfaces.ItemStorage
	logger arbor.ILogger
}

// NewReconciler creates a reconciler over the given item storage.
func NewReconciler(items interfaces.ItemStorage, logger arbor.ILogger) *Reconciler {
	return &Reconciler{
		items:  items,
		logger: logger,
	}
}

// Reconcile classifies every listing entry as create, update or unchanged,
// and every stored item missing from the listing as orphaned. Entries
// without a usable key (no external id and an unparseable URL) are skipped
// and counted, never fatal.
func (r *Reconciler) Reconcile(source *models.SourceConfig, listing []models.ExternalItem) (*models.ReconciliationResult, error) {
	stored, err := r.items.ListBySource(source.TenantID, source.ID)
	if err != nil {
		return nil, err
	}

	storedByKey := make(map[string]*models.ContentItem, len(stored))
	for _, item := range stored {
		storedByKey[item.Key()] = item
	}

	result := &models.ReconciliationResult{}
	seen := make(map[string]bool, len(listing))

	for _, incoming := range listing {
		normalized, err := common.NormalizeURL(incoming.URL)
		if err != nil {
			// An external id still keys the entry; without one the entry
			// is unusable.
			if incoming.ExternalID == "" {
				r.logger.Warn().
					Err(err).
					Str("source_id", source.ID).
					Str("url", incoming.URL).
					Msg("Skipping listing entry with unusable URL")
				result.Skipped++
				continue
			}
		} else {
			incoming.URL = normalized
		}

		key := incoming.ExternalID
		if key == "" {
			key = incoming.URL
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		existing, ok := storedByKey[key]
		if !ok {
			result.ToCreate = append(result.ToCreate, incoming)
			continue
		}

		if existing.Status.NeedsIndexing() || r.contentChanged(existing, incoming) {
			result.ToUpdate = append(result.ToUpdate, models.ItemUpdate{Item: existing, Incoming: incoming})
		} else {
			result.Unchanged = append(result.Unchanged, existing)
		}
	}

	for key, item := range storedByKey {
		if !seen[key] {
			result.Orphaned = append(result.Orphaned, item)
		}
	}

	return result, nil
}

// contentChanged compares the incoming change marker against the stored
// fingerprint. Listings that carry neither content nor a hash cannot signal
// changes; those items only re-enter the pipeline through failure states or
// explicit reindex.
func (r *Reconciler) contentChanged(existing *models.ContentItem, incoming models.ExternalItem) bool {
	fingerprint := incoming.ContentHash
	if fingerprint == "" && incoming.Content != "" {
		fingerprint = common.Fingerprint(incoming.Content)
	}
	if fingerprint == "" {
		return false
	}
	return fingerprint != existing.Fingerprint
}
