package badger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
)

func newTestManager(t *testing.T) interfaces.StorageManager {
	t.Helper()

	manager, err := NewManager(common.GetLogger(), &common.StorageConfig{
		Path: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return manager
}

func TestItemStorage_SaveAndGet(t *testing.T) {
	store := newTestManager(t).ItemStorage()

	item := &models.ContentItem{
		ID:         common.NewItemID(),
		TenantID:   "acme",
		SourceType: models.SourceTypeArticle,
		URL:        "https://example.com/post",
		Title:      "Post",
		Status:     models.StatusPending,
	}
	require.NoError(t, store.SaveItem(item))
	assert.False(t, item.CreatedAt.IsZero())

	got, err := store.GetItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Post", got.Title)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestItemStorage_GetItemByKey(t *testing.T) {
	store := newTestManager(t).ItemStorage()

	withExternalID := &models.ContentItem{
		ID:         common.NewItemID(),
		TenantID:   "acme",
		SourceType: models.SourceTypeVideo,
		ExternalID: "vid123",
		URL:        "https://www.youtube.com/watch?v=vid123",
		Status:     models.StatusPending,
	}
	require.NoError(t, store.SaveItem(withExternalID))

	urlOnly := &models.ContentItem{
		ID:         common.NewItemID(),
		TenantID:   "acme",
		SourceType: models.SourceTypeArticle,
		URL:        "https://example.com/a",
		Status:     models.StatusPending,
	}
	require.NoError(t, store.SaveItem(urlOnly))

	got, err := store.GetItemByKey("acme", models.SourceTypeVideo, "vid123")
	require.NoError(t, err)
	assert.Equal(t, withExternalID.ID, got.ID)

	got, err = store.GetItemByKey("acme", models.SourceTypeArticle, "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, urlOnly.ID, got.ID)

	// Tenant scoping
	_, err = store.GetItemByKey("other", models.SourceTypeVideo, "vid123")
	assert.Error(t, err)
}

func TestItemStorage_ListItems_Filters(t *testing.T) {
	store := newTestManager(t).ItemStorage()

	for _, seed := range []struct {
		tenant string
		stype  models.SourceType
		status models.ProcessingStatus
	}{
		{"acme", models.SourceTypeArticle, models.StatusPending},
		{"acme", models.SourceTypeArticle, models.StatusCompleted},
		{"acme", models.SourceTypeVideo, models.StatusPending},
		{"globex", models.SourceTypeArticle, models.StatusPending},
	} {
		require.NoError(t, store.SaveItem(&models.ContentItem{
			ID:         common.NewItemID(),
			TenantID:   seed.tenant,
			SourceType: seed.stype,
			URL:        "https://example.com/" + common.NewItemID(),
			Status:     seed.status,
		}))
	}

	items, err := store.ListItems(&interfaces.ListOptions{TenantID: "acme"})
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, err = store.ListItems(&interfaces.ListOptions{
		TenantID:   "acme",
		SourceType: models.SourceTypeArticle,
		Status:     models.StatusPending,
	})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	count, err := store.CountByStatus("acme", models.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestItemStorage_MarkAllPending(t *testing.T) {
	store := newTestManager(t).ItemStorage()

	completed := &models.ContentItem{
		ID:         common.NewItemID(),
		TenantID:   "acme",
		SourceType: models.SourceTypePage,
		URL:        "https://example.com/p",
		Status:     models.StatusCompleted,
	}
	failed := &models.ContentItem{
		ID:            common.NewItemID(),
		TenantID:      "acme",
		SourceType:    models.SourceTypePage,
		URL:           "https://example.com/q",
		Status:        models.StatusFailedEmbedding,
		StatusMessage: "quota exceeded",
	}
	require.NoError(t, store.SaveItem(completed))
	require.NoError(t, store.SaveItem(failed))

	require.NoError(t, store.MarkAllPending("acme"))

	for _, id := range []string{completed.ID, failed.ID} {
		got, err := store.GetItem(id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.Empty(t, got.StatusMessage)
	}
}

func TestSourceStorage_CRUDAndTenants(t *testing.T) {
	store := newTestManager(t).SourceStorage()

	source := &models.SourceConfig{
		ID:       common.NewSourceID(),
		TenantID: "acme",
		Type:     models.SourceTypeArticle,
		Name:     "Engineering blog",
		Location: "https://example.com/feed.xml",
		Enabled:  true,
	}
	require.NoError(t, store.SaveSource(source))

	require.NoError(t, store.SaveSource(&models.SourceConfig{
		ID:       common.NewSourceID(),
		TenantID: "globex",
		Type:     models.SourceTypePage,
		Name:     "Docs site",
		Location: "https://docs.globex.example",
		Enabled:  false,
	}))

	enabled, err := store.ListEnabledSources("acme", models.SourceTypeArticle)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, source.ID, enabled[0].ID)

	enabled, err = store.ListEnabledSources("globex", "")
	require.NoError(t, err)
	assert.Empty(t, enabled)

	tenants, err := store.ListTenants()
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "globex"}, tenants)

	require.NoError(t, store.DeleteSource(source.ID))
	_, err = store.GetSource(source.ID)
	assert.Error(t, err)
}

func TestStatsStorage_RoundTrip(t *testing.T) {
	store := newTestManager(t).StatsStorage()

	require.NoError(t, store.SaveStats(&models.ItemStats{
		ItemID:        "item_x",
		TenantID:      "acme",
		WordCount:     420,
		SentenceCount: 21,
		ReadingEase:   64.2,
	}))

	got, err := store.GetStats("item_x")
	require.NoError(t, err)
	assert.Equal(t, 420, got.WordCount)
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, store.DeleteStats("item_x"))
	_, err = store.GetStats("item_x")
	assert.Error(t, err)
}
