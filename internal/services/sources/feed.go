package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"github.com/ternarybob/curator/internal/services/extract"
	"golang.org/x/time/rate"
)

const maxPageBody = 10 << 20

// FeedConnector monitors RSS and Atom feeds. Feeds only expose recent
// entries, so items falling off the feed are advisory orphans.
type FeedConnector struct {
	parser    *gofeed.Parser
	client    *http.Client
	limiter   *rate.Limiter
	extractor *extract.Extractor
	logger    arbor.ILogger
}

// NewFeedConnector creates the RSS/Atom connector.
func NewFeedConnector(config *common.Config, extractor *extract.Extractor, logger arbor.ILogger) *FeedConnector {
	timeout := time.Duration(config.Sources.RequestTimeoutSeconds) * time.Second

	limit := rate.Limit(config.Sources.FetchRatePerSecond)
	if limit <= 0 {
		limit = rate.Inf
	}

	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}

	return &FeedConnector{
		parser:    parser,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(limit, 1),
		extractor: extractor,
		logger:    logger,
	}
}

func (c *FeedConnector) Type() models.SourceType { return models.SourceTypeArticle }

func (c *FeedConnector) OrphanPolicy() interfaces.OrphanPolicy {
	return interfaces.OrphanPolicyAdvisory
}

// List parses the feed at the source location. Entries that embed their
// full content carry it inline; the rest are fetched on demand.
func (c *FeedConnector) List(ctx context.Context, source *models.SourceConfig) ([]models.ExternalItem, error) {
	feed, err := c.parser.ParseURLWithContext(source.Location, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", source.Location, err)
	}

	items := make([]models.ExternalItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		item := models.ExternalItem{
			ExternalID: entry.GUID,
			URL:        entry.Link,
			Title:      entry.Title,
		}

		// Only content:encoded carries the full article. Description is a
		// summary, so entries without embedded content stay empty here and
		// get their linked page fetched instead.
		if entry.Content != "" {
			_, markdown, err := c.extractor.FromHTML(entry.Link, entry.Content)
			if err != nil {
				c.logger.Warn().Err(err).Str("url", entry.Link).Msg("Failed to convert feed entry content")
			} else {
				item.Content = markdown
			}
		}

		items = append(items, item)
	}

	c.logger.Debug().
		Str("source_id", source.ID).
		Str("feed", feed.Title).
		Int("entries", len(items)).
		Msg("Listed feed entries")

	return items, nil
}

// Fetch downloads the linked page and extracts its main content. Used for
// feeds that only carry summaries.
func (c *FeedConnector) Fetch(ctx context.Context, source *models.SourceConfig, item models.ExternalItem) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", item.URL, err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", item.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch of %s returned status %d", item.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBody))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", item.URL, err)
	}

	_, markdown, err := c.extractor.FromHTML(item.URL, string(body))
	if err != nil {
		return "", err
	}
	return markdown, nil
}
