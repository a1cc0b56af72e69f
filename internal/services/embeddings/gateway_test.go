package embeddings

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
)

// fakeProvider returns deterministic vectors and records batch sizes.
type fakeProvider struct {
	batches  [][]string
	failures int
	short    bool
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, texts)
	if f.failures > 0 {
		f.failures--
		return nil, Retryable(fmt.Errorf("transient"))
	}
	n := len(texts)
	if f.short {
		n--
	}
	vectors := make([][]float32, 0, n)
	for i := 0; i < n; i++ {
		vectors = append(vectors, []float32{float32(len(texts[i]))})
	}
	return vectors, nil
}

func (f *fakeProvider) Name() string      { return "fake" }
func (f *fakeProvider) ModelName() string { return "fake-embed" }
func (f *fakeProvider) Dimension() int    { return 1 }

func newTestGateway(provider interfaces.EmbeddingProvider) *Gateway {
	return &Gateway{
		retryConfig: fastRetryConfig(3),
		factory: func(settings common.TenantSettings, logger arbor.ILogger) (interfaces.EmbeddingProvider, error) {
			return provider, nil
		},
		logger:    common.GetLogger(),
		providers: make(map[string]interfaces.EmbeddingProvider),
	}
}

func testSettings(batchSize int) common.TenantSettings {
	return common.TenantSettings{
		TenantID:          "acme",
		EmbeddingProvider: "fake",
		EmbeddingDim:      1,
		BatchSize:         batchSize,
	}
}

func manyTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("text-%d", i)
	}
	return texts
}

func TestGateway_BatchesAndPreservesOrder(t *testing.T) {
	provider := &fakeProvider{}
	gateway := newTestGateway(provider)

	texts := manyTexts(250)
	vectors, err := gateway.Embed(context.Background(), testSettings(100), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 250)

	// 250 inputs at batch size 100 means batches of 100, 100, 50
	require.Len(t, provider.batches, 3)
	assert.Len(t, provider.batches[0], 100)
	assert.Len(t, provider.batches[1], 100)
	assert.Len(t, provider.batches[2], 50)

	// Vector i encodes len(texts[i]), so order is observable
	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vectors[i][0])
	}
}

func TestGateway_BatchSizeCappedAt100(t *testing.T) {
	provider := &fakeProvider{}
	gateway := newTestGateway(provider)

	_, err := gateway.Embed(context.Background(), testSettings(500), manyTexts(120))
	require.NoError(t, err)
	for _, batch := range provider.batches {
		assert.LessOrEqual(t, len(batch), 100)
	}
}

func TestGateway_LengthMismatchIsHardFailure(t *testing.T) {
	provider := &fakeProvider{short: true}
	gateway := newTestGateway(provider)

	vectors, err := gateway.Embed(context.Background(), testSettings(100), manyTexts(10))
	require.Error(t, err)
	assert.Nil(t, vectors)
	assert.Contains(t, err.Error(), "9 vectors for batch of 10")
}

func TestGateway_RetriesTransientBatchFailure(t *testing.T) {
	provider := &fakeProvider{failures: 2}
	gateway := newTestGateway(provider)

	vectors, err := gateway.Embed(context.Background(), testSettings(100), manyTexts(5))
	require.NoError(t, err)
	assert.Len(t, vectors, 5)
	assert.Len(t, provider.batches, 3)
}

func TestGateway_EmptyInput(t *testing.T) {
	gateway := newTestGateway(&fakeProvider{})

	vectors, err := gateway.Embed(context.Background(), testSettings(100), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestGateway_CachesProviderPerTenant(t *testing.T) {
	built := 0
	gateway := &Gateway{
		retryConfig: fastRetryConfig(3),
		factory: func(settings common.TenantSettings, logger arbor.ILogger) (interfaces.EmbeddingProvider, error) {
			built++
			return &fakeProvider{}, nil
		},
		logger:    common.GetLogger(),
		providers: make(map[string]interfaces.EmbeddingProvider),
	}

	settings := testSettings(100)
	_, err := gateway.Embed(context.Background(), settings, manyTexts(2))
	require.NoError(t, err)
	_, err = gateway.Embed(context.Background(), settings, manyTexts(2))
	require.NoError(t, err)
	assert.Equal(t, 1, built)
}
