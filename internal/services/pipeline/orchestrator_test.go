package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"github.com/ternarybob/curator/internal/services/extract"
	"github.com/ternarybob/curator/internal/services/sources"
)

type fakeItems struct {
	saved    map[string]*models.ContentItem
	saveErrs int
}

func newFakeItems() *fakeItems {
	return &fakeItems{saved: make(map[string]*models.ContentItem)}
}

func (f *fakeItems) SaveItem(item *models.ContentItem) error {
	if f.saveErrs > 0 {
		f.saveErrs--
		return fmt.Errorf("store unavailable")
	}
	copied := *item
	f.saved[item.ID] = &copied
	return nil
}

func (f *fakeItems) GetItem(id string) (*models.ContentItem, error) {
	item, ok := f.saved[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return item, nil
}

func (f *fakeItems) GetItemByKey(string, models.SourceType, string) (*models.ContentItem, error) {
	return nil, fmt.Errorf("not implemented")
}
func (f *fakeItems) DeleteItem(id string) error { delete(f.saved, id); return nil }
func (f *fakeItems) ListItems(*interfaces.ListOptions) ([]*models.ContentItem, error) {
	return nil, nil
}
func (f *fakeItems) ListBySource(string, string) ([]*models.ContentItem, error) { return nil, nil }
func (f *fakeItems) CountItems(string) (int, error)                             { return 0, nil }
func (f *fakeItems) CountByStatus(string, models.ProcessingStatus) (int, error) { return 0, nil }
func (f *fakeItems) MarkAllPending(string) error                                { return nil }
func (f *fakeItems) ClearAll() error                                            { return nil }

type fakeStats struct {
	saved map[string]*models.ItemStats
}

func (f *fakeStats) SaveStats(stats *models.ItemStats) error {
	if f.saved == nil {
		f.saved = make(map[string]*models.ItemStats)
	}
	f.saved[stats.ItemID] = stats
	return nil
}
func (f *fakeStats) GetStats(itemID string) (*models.ItemStats, error) { return f.saved[itemID], nil }
func (f *fakeStats) DeleteStats(string) error                          { return nil }

type fakeChunking struct {
	err error
}

func (f *fakeChunking) Chunk(ctx context.Context, settings common.TenantSettings, text string) ([]string, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return []string{text}, "window/300-50", nil
}

type fakeGateway struct {
	err   error
	calls int
}

func (f *fakeGateway) Embed(ctx context.Context, settings common.TenantSettings, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{1, 2, 3}
	}
	return vectors, nil
}

func (f *fakeGateway) Dimension(common.TenantSettings) int { return 3 }

type fakeIndex struct {
	replaced   map[string][]*models.Fragment
	replaceErr error
}

func (f *fakeIndex) EnsureCollection(context.Context, string, models.SourceType, int) error {
	return nil
}

func (f *fakeIndex) ReplaceFragments(ctx context.Context, tenantID string, st models.SourceType, itemID string, fragments []*models.Fragment) error {
	if f.replaced == nil {
		f.replaced = make(map[string][]*models.Fragment)
	}
	// Delete happens first either way
	f.replaced[itemID] = nil
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced[itemID] = fragments
	return nil
}

func (f *fakeIndex) DeleteItem(ctx context.Context, tenantID string, st models.SourceType, itemID string) error {
	delete(f.replaced, itemID)
	return nil
}

func (f *fakeIndex) CountFragments(ctx context.Context, tenantID string, st models.SourceType, itemID string) (int, error) {
	return len(f.replaced[itemID]), nil
}

type fakeConnector struct {
	text string
	err  error
}

func (f *fakeConnector) Type() models.SourceType { return models.SourceTypeArticle }
func (f *fakeConnector) List(context.Context, *models.SourceConfig) ([]models.ExternalItem, error) {
	return nil, nil
}
func (f *fakeConnector) Fetch(context.Context, *models.SourceConfig, models.ExternalItem) (string, error) {
	return f.text, f.err
}
func (f *fakeConnector) OrphanPolicy() interfaces.OrphanPolicy {
	return interfaces.OrphanPolicyAdvisory
}

func pipelineSettings() common.TenantSettings {
	return common.TenantSettings{
		TenantID:         "acme",
		ChunkingStrategy: "window",
		WindowSize:       300,
		Overlap:          50,
		EmbeddingDim:     3,
		BatchSize:        100,
	}
}

func pendingItem() *models.ContentItem {
	return &models.ContentItem{
		ID:         common.NewItemID(),
		TenantID:   "acme",
		SourceType: models.SourceTypeArticle,
		SourceID:   "src_1",
		URL:        "https://example.com/a",
		Status:     models.StatusPending,
	}
}

func newTestOrchestrator(items *fakeItems, stats *fakeStats, chunking *fakeChunking, gateway *fakeGateway, index *fakeIndex) *Orchestrator {
	return NewOrchestrator(items, stats, chunking, gateway, index, common.GetLogger())
}

func TestOrchestrator_HappyPath(t *testing.T) {
	items := newFakeItems()
	stats := &fakeStats{}
	gateway := &fakeGateway{}
	index := &fakeIndex{}
	orch := newTestOrchestrator(items, stats, &fakeChunking{}, gateway, index)

	item := pendingItem()
	incoming := &models.ExternalItem{URL: item.URL, Content: "Some meaningful text. It has two sentences."}

	err := orch.ProcessItem(context.Background(), pipelineSettings(), &fakeConnector{}, testSourceConfig(), item, incoming)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, item.Status)
	assert.Equal(t, 1, item.FragmentCount)
	assert.Equal(t, "window/300-50", item.ChunkingVersion)
	assert.Equal(t, common.Fingerprint(incoming.Content), item.Fingerprint)
	assert.NotNil(t, item.LastIndexedAt)
	assert.Len(t, index.replaced[item.ID], 1)
	assert.NotNil(t, stats.saved[item.ID])

	// The store saw the intermediate processing_embedding write too
	assert.Equal(t, models.StatusCompleted, items.saved[item.ID].Status)
}

// Whitespace-only content completes with zero fragments and no embedding
// call; stale fragments are cleared.
func TestOrchestrator_EmptyTextCompletesWithoutEmbedding(t *testing.T) {
	items := newFakeItems()
	gateway := &fakeGateway{}
	index := &fakeIndex{replaced: map[string][]*models.Fragment{}}
	orch := newTestOrchestrator(items, &fakeStats{}, &fakeChunking{}, gateway, index)

	item := pendingItem()
	index.replaced[item.ID] = []*models.Fragment{{ItemID: item.ID, Ordinal: 0}}

	incoming := &models.ExternalItem{URL: item.URL, Content: "   \n\t  "}
	err := orch.ProcessItem(context.Background(), pipelineSettings(), &fakeConnector{}, testSourceConfig(), item, incoming)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, item.Status)
	assert.Zero(t, item.FragmentCount)
	assert.Zero(t, gateway.calls)
	assert.Empty(t, index.replaced[item.ID])
}

func TestOrchestrator_FetchFailure(t *testing.T) {
	items := newFakeItems()
	orch := newTestOrchestrator(items, &fakeStats{}, &fakeChunking{}, &fakeGateway{}, &fakeIndex{})

	item := pendingItem()
	incoming := &models.ExternalItem{URL: item.URL} // no content, fetch required

	err := orch.ProcessItem(context.Background(), pipelineSettings(),
		&fakeConnector{err: fmt.Errorf("connection refused")}, testSourceConfig(), item, incoming)
	require.Error(t, err)

	assert.Equal(t, models.StatusFailedFetch, item.Status)
	assert.Contains(t, item.StatusMessage, "connection refused")
	assert.Equal(t, models.StatusFailedFetch, items.saved[item.ID].Status)
}

func TestOrchestrator_ChunkingFailure(t *testing.T) {
	items := newFakeItems()
	orch := newTestOrchestrator(items, &fakeStats{}, &fakeChunking{err: fmt.Errorf("boom")}, &fakeGateway{}, &fakeIndex{})

	item := pendingItem()
	incoming := &models.ExternalItem{URL: item.URL, Content: "text"}

	err := orch.ProcessItem(context.Background(), pipelineSettings(), &fakeConnector{}, testSourceConfig(), item, incoming)
	require.Error(t, err)
	assert.Equal(t, models.StatusFailedChunking, item.Status)
}

func TestOrchestrator_EmbeddingFailure(t *testing.T) {
	items := newFakeItems()
	index := &fakeIndex{}
	orch := newTestOrchestrator(items, &fakeStats{}, &fakeChunking{},
		&fakeGateway{err: fmt.Errorf("quota exceeded")}, index)

	item := pendingItem()
	incoming := &models.ExternalItem{URL: item.URL, Content: "text"}

	err := orch.ProcessItem(context.Background(), pipelineSettings(), &fakeConnector{}, testSourceConfig(), item, incoming)
	require.Error(t, err)
	assert.Equal(t, models.StatusFailedEmbedding, item.Status)
	// Old fragments untouched: ReplaceFragments never ran
	assert.Empty(t, index.replaced)
}

func TestOrchestrator_IndexWriteFailure(t *testing.T) {
	items := newFakeItems()
	index := &fakeIndex{replaceErr: fmt.Errorf("disk full")}
	orch := newTestOrchestrator(items, &fakeStats{}, &fakeChunking{}, &fakeGateway{}, index)

	item := pendingItem()
	incoming := &models.ExternalItem{URL: item.URL, Content: "text"}

	err := orch.ProcessItem(context.Background(), pipelineSettings(), &fakeConnector{}, testSourceConfig(), item, incoming)
	require.Error(t, err)
	assert.Equal(t, models.StatusFailedIndexWrite, item.Status)
}

// A connector-supplied change marker is stored as the fingerprint so the
// next reconciliation compares like with like.
func TestOrchestrator_ContentHashBecomesFingerprint(t *testing.T) {
	items := newFakeItems()
	orch := newTestOrchestrator(items, &fakeStats{}, &fakeChunking{}, &fakeGateway{}, &fakeIndex{})

	item := pendingItem()
	incoming := &models.ExternalItem{
		URL:         item.URL,
		Content:     "transcript text",
		ContentHash: "marker-abc",
	}

	err := orch.ProcessItem(context.Background(), pipelineSettings(), &fakeConnector{}, testSourceConfig(), item, incoming)
	require.NoError(t, err)
	assert.Equal(t, "marker-abc", item.Fingerprint)
}

func TestOrchestrator_ReprocessUsesStoredText(t *testing.T) {
	items := newFakeItems()
	orch := newTestOrchestrator(items, &fakeStats{}, &fakeChunking{}, &fakeGateway{}, &fakeIndex{})

	item := pendingItem()
	item.RawText = "previously stored text"

	err := orch.ProcessItem(context.Background(), pipelineSettings(), nil, testSourceConfig(), item, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, item.Status)
}

// A rebuild can hand the pipeline an item whose source row is gone. A
// fetch without a source config parks the item in failed_fetch instead of
// handing a nil source to a connector that reads its location.
func TestOrchestrator_NilSourceParksAsFailedFetch(t *testing.T) {
	items := newFakeItems()
	orch := newTestOrchestrator(items, &fakeStats{}, &fakeChunking{}, &fakeGateway{}, &fakeIndex{})

	connector := sources.NewWordPressConnector(common.DefaultConfig(), extract.NewExtractor(common.GetLogger()), common.GetLogger())

	item := pendingItem()
	item.SourceType = models.SourceTypePage
	item.RawText = ""

	var err error
	require.NotPanics(t, func() {
		err = orch.ProcessItem(context.Background(), pipelineSettings(), connector, nil, item, nil)
	})
	require.Error(t, err)
	assert.Equal(t, models.StatusFailedFetch, item.Status)
	assert.Equal(t, models.StatusFailedFetch, items.saved[item.ID].Status)
}

// Same hole on the listing path: an entry without inline content cannot be
// fetched without a source config.
func TestOrchestrator_NilSourceWithIncomingEntry(t *testing.T) {
	items := newFakeItems()
	orch := newTestOrchestrator(items, &fakeStats{}, &fakeChunking{}, &fakeGateway{}, &fakeIndex{})

	item := pendingItem()
	incoming := &models.ExternalItem{URL: item.URL}

	err := orch.ProcessItem(context.Background(), pipelineSettings(), &fakeConnector{text: "never fetched"}, nil, item, incoming)
	require.Error(t, err)
	assert.Equal(t, models.StatusFailedFetch, item.Status)
}

func testSourceConfig() *models.SourceConfig {
	return &models.SourceConfig{
		ID:       "src_1",
		TenantID: "acme",
		Type:     models.SourceTypeArticle,
		Name:     "Blog",
		Location: "https://example.com/feed.xml",
	}
}
