package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
)

// QdrantIndex implements the VectorIndex interface against the Qdrant REST
// API. One collection per tenant and source type keeps tenants fully
// isolated at the collection level.
type QdrantIndex struct {
	baseURL string
	apiKey  string
	prefix  string
	client  *http.Client
	logger  arbor.ILogger
}

// NewQdrantIndex creates a Qdrant-backed vector index.
func NewQdrantIndex(config *common.VectorConfig, logger arbor.ILogger) interfaces.VectorIndex {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &QdrantIndex{
		baseURL: strings.TrimRight(config.URL, "/"),
		apiKey:  config.APIKey,
		prefix:  config.CollectionPrefix,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// CollectionName builds the per-tenant, per-source-type collection name.
func (q *QdrantIndex) CollectionName(tenantID string, sourceType models.SourceType) string {
	return fmt.Sprintf("%s_%s_%s", q.prefix, tenantID, sourceType)
}

// pointID derives a deterministic UUID for a fragment so re-upserts of the
// same fragment id overwrite rather than duplicate.
func pointID(itemID string, ordinal int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(common.FragmentID(itemID, ordinal))).String()
}

func itemFilter(itemID string) map[string]interface{} {
	return map[string]interface{}{
		"must": []map[string]interface{}{
			{
				"key":   "item_id",
				"match": map[string]interface{}{"value": itemID},
			},
		},
	}
}

// EnsureCollection creates the collection when it does not exist yet.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, tenantID string, sourceType models.SourceType, dimension int) error {
	name := q.CollectionName(tenantID, sourceType)

	status, _, err := q.do(ctx, http.MethodGet, "/collections/"+name, nil)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", name, err)
	}
	if status == http.StatusOK {
		return nil
	}
	if status != http.StatusNotFound {
		return fmt.Errorf("unexpected status %d checking collection %s", status, name)
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	status, data, err := q.do(ctx, http.MethodPut, "/collections/"+name, body)
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("failed to create collection %s: status %d: %s", name, status, data)
	}

	q.logger.Info().Str("collection", name).Int("dimension", dimension).Msg("Vector collection created")
	return nil
}

// ReplaceFragments deletes every fragment for the item, then upserts the
// new set. Readers between the two writes see zero fragments, never a mix
// of old and new.
func (q *QdrantIndex) ReplaceFragments(ctx context.Context, tenantID string, sourceType models.SourceType, itemID string, fragments []*models.Fragment) error {
	if err := q.DeleteItem(ctx, tenantID, sourceType, itemID); err != nil {
		return err
	}
	if len(fragments) == 0 {
		return nil
	}

	name := q.CollectionName(tenantID, sourceType)

	points := make([]map[string]interface{}, len(fragments))
	for i, fragment := range fragments {
		points[i] = map[string]interface{}{
			"id":     pointID(fragment.ItemID, fragment.Ordinal),
			"vector": fragment.Vector,
			"payload": map[string]interface{}{
				"item_id":     fragment.ItemID,
				"tenant_id":   fragment.TenantID,
				"fragment_id": fragment.ID(),
				"ordinal":     fragment.Ordinal,
				"text":        fragment.Text,
			},
		}
	}

	status, data, err := q.do(ctx, http.MethodPut, "/collections/"+name+"/points?wait=true",
		map[string]interface{}{"points": points})
	if err != nil {
		return fmt.Errorf("failed to upsert fragments for item %s: %w", itemID, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("failed to upsert fragments for item %s: status %d: %s", itemID, status, data)
	}
	return nil
}

// DeleteItem removes every fragment belonging to the item.
func (q *QdrantIndex) DeleteItem(ctx context.Context, tenantID string, sourceType models.SourceType, itemID string) error {
	name := q.CollectionName(tenantID, sourceType)

	status, data, err := q.do(ctx, http.MethodPost, "/collections/"+name+"/points/delete?wait=true",
		map[string]interface{}{"filter": itemFilter(itemID)})
	if err != nil {
		return fmt.Errorf("failed to delete fragments for item %s: %w", itemID, err)
	}
	// A missing collection means there is nothing to delete
	if status == http.StatusNotFound {
		return nil
	}
	if status != http.StatusOK {
		return fmt.Errorf("failed to delete fragments for item %s: status %d: %s", itemID, status, data)
	}
	return nil
}

// CountFragments returns the number of fragments stored for the item.
func (q *QdrantIndex) CountFragments(ctx context.Context, tenantID string, sourceType models.SourceType, itemID string) (int, error) {
	name := q.CollectionName(tenantID, sourceType)

	status, data, err := q.do(ctx, http.MethodPost, "/collections/"+name+"/points/count",
		map[string]interface{}{"filter": itemFilter(itemID), "exact": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count fragments for item %s: %w", itemID, err)
	}
	if status == http.StatusNotFound {
		return 0, nil
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("failed to count fragments for item %s: status %d: %s", itemID, status, data)
	}

	var parsed struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return 0, fmt.Errorf("failed to decode count response: %w", err)
	}
	return parsed.Result.Count, nil
}

// do issues one JSON request and returns status code and body.
func (q *QdrantIndex) do(ctx context.Context, method, path string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}
