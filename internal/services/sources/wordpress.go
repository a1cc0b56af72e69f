package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"github.com/ternarybob/curator/internal/services/extract"
	"golang.org/x/time/rate"
)

const wpPerPage = 100

// wpEntry is the subset of the WordPress REST response the connector needs.
type wpEntry struct {
	ID          int64  `json:"id"`
	Link        string `json:"link"`
	ModifiedGMT string `json:"modified_gmt"`
	Title       struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
	Content struct {
		Rendered string `json:"rendered"`
	} `json:"content"`
}

// WordPressConnector lists posts and pages through the WordPress REST API.
// The API returns the complete set, so missing items are deleted.
type WordPressConnector struct {
	client    *http.Client
	limiter   *rate.Limiter
	extractor *extract.Extractor
	logger    arbor.ILogger
}

// NewWordPressConnector creates the WordPress connector.
func NewWordPressConnector(config *common.Config, extractor *extract.Extractor, logger arbor.ILogger) *WordPressConnector {
	limit := rate.Limit(config.Sources.FetchRatePerSecond)
	if limit <= 0 {
		limit = rate.Inf
	}

	return &WordPressConnector{
		client: &http.Client{
			Timeout: time.Duration(config.Sources.RequestTimeoutSeconds) * time.Second,
		},
		limiter:   rate.NewLimiter(limit, 1),
		extractor: extractor,
		logger:    logger,
	}
}

func (c *WordPressConnector) Type() models.SourceType { return models.SourceTypePage }

func (c *WordPressConnector) OrphanPolicy() interfaces.OrphanPolicy {
	return interfaces.OrphanPolicyDelete
}

// List enumerates all published posts and pages. The modification stamp is
// the change marker, so unchanged entries cost nothing downstream.
func (c *WordPressConnector) List(ctx context.Context, source *models.SourceConfig) ([]models.ExternalItem, error) {
	base := strings.TrimSuffix(source.Location, "/")

	var items []models.ExternalItem
	for _, kind := range []string{"posts", "pages"} {
		entries, err := c.listKind(ctx, base, kind)
		if err != nil {
			return nil, err
		}

		prefix := strings.TrimSuffix(kind, "s")
		for _, entry := range entries {
			item := models.ExternalItem{
				ExternalID:  fmt.Sprintf("%s_%d", prefix, entry.ID),
				URL:         entry.Link,
				Title:       strings.TrimSpace(entry.Title.Rendered),
				ContentHash: common.Fingerprint("modified:" + entry.ModifiedGMT),
			}

			if entry.Content.Rendered != "" {
				_, markdown, err := c.extractor.FromHTML(entry.Link, entry.Content.Rendered)
				if err != nil {
					c.logger.Warn().Err(err).Str("url", entry.Link).Msg("Failed to convert WordPress content")
				} else {
					item.Content = markdown
				}
			}

			items = append(items, item)
		}
	}

	c.logger.Debug().
		Str("source_id", source.ID).
		Int("entries", len(items)).
		Msg("Listed WordPress content")

	return items, nil
}

// listKind pages through one content type until a short page.
func (c *WordPressConnector) listKind(ctx context.Context, base, kind string) ([]wpEntry, error) {
	var all []wpEntry

	for page := 1; ; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		url := fmt.Sprintf("%s/wp-json/wp/v2/%s?per_page=%d&page=%d", base, kind, wpPerPage, page)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s from %s: %w", kind, base, err)
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxPageBody))
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("failed to read %s listing: %w", kind, readErr)
		}

		// WordPress answers 400 when paging past the last page
		if resp.StatusCode == http.StatusBadRequest && page > 1 {
			break
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("listing %s from %s returned status %d", kind, base, resp.StatusCode)
		}

		var entries []wpEntry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode %s listing: %w", kind, err)
		}

		all = append(all, entries...)
		if len(entries) < wpPerPage {
			break
		}
	}

	return all, nil
}

// Fetch re-reads a single entry. Listings normally carry content inline;
// this path covers reprocessing of items without stored text.
func (c *WordPressConnector) Fetch(ctx context.Context, source *models.SourceConfig, item models.ExternalItem) (string, error) {
	if item.Content != "" {
		return item.Content, nil
	}

	kind, id, ok := strings.Cut(item.ExternalID, "_")
	if !ok {
		return "", fmt.Errorf("unrecognized WordPress external id %q", item.ExternalID)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	base := strings.TrimSuffix(source.Location, "/")
	url := fmt.Sprintf("%s/wp-json/wp/v2/%ss/%s", base, kind, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch of %s returned status %d", url, resp.StatusCode)
	}

	var entry wpEntry
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPageBody)).Decode(&entry); err != nil {
		return "", fmt.Errorf("failed to decode WordPress entry: %w", err)
	}

	_, markdown, err := c.extractor.FromHTML(entry.Link, entry.Content.Rendered)
	if err != nil {
		return "", err
	}
	return markdown, nil
}
