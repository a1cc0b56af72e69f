package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"github.com/ternarybob/curator/internal/services/extract"
)

func testSourcesConfig() *common.Config {
	config := common.DefaultConfig()
	config.Sources.FetchRatePerSecond = 0 // unlimited in tests
	return config
}

func newTestFeedConnector() *FeedConnector {
	return NewFeedConnector(testSourcesConfig(), extract.NewExtractor(common.GetLogger()), common.GetLogger())
}

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
<title>Engineering Blog</title>
<item>
  <guid>post-1</guid>
  <link>%[1]s/posts/launch</link>
  <title>Launch Day</title>
  <content:encoded><![CDATA[<p>We <em>shipped</em> it. Full story inside.</p>]]></content:encoded>
</item>
<item>
  <guid>post-2</guid>
  <link>%[1]s/posts/roadmap</link>
  <title>Roadmap</title>
  <description><![CDATA[<p>Short teaser only.</p>]]></description>
</item>
<item>
  <guid>post-3</guid>
  <link>%[1]s/posts/retro</link>
  <title>Retro</title>
</item>
</channel>
</rss>`

func TestFeedConnector_List(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed.xml":
			fmt.Fprintf(w, rssFixture, server.URL)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	source := &models.SourceConfig{
		ID:       "src_feed",
		TenantID: "acme",
		Type:     models.SourceTypeArticle,
		Location: server.URL + "/feed.xml",
	}

	items, err := newTestFeedConnector().List(context.Background(), source)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "post-1", items[0].ExternalID)
	assert.Equal(t, "Launch Day", items[0].Title)
	assert.Contains(t, items[0].Content, "shipped")

	// Description is a summary, not the article; the entry defers to Fetch
	assert.Equal(t, "post-2", items[1].ExternalID)
	assert.Empty(t, items[1].Content)

	// No content at all also defers to Fetch
	assert.Equal(t, "post-3", items[2].ExternalID)
	assert.Empty(t, items[2].Content)
}

// A summary-only entry must end up with the full linked article, not the
// teaser the feed carried.
func TestFeedConnector_SummaryOnlyEntryFetchesArticle(t *testing.T) {
	var articleFetched bool
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed.xml":
			fmt.Fprintf(w, rssFixture, server.URL)
		case "/posts/roadmap":
			articleFetched = true
			fmt.Fprint(w, `<html><body><article><p>The complete roadmap, every quarter spelled out.</p></article></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	connector := newTestFeedConnector()
	source := &models.SourceConfig{
		ID:       "src_feed",
		TenantID: "acme",
		Type:     models.SourceTypeArticle,
		Location: server.URL + "/feed.xml",
	}

	items, err := connector.List(context.Background(), source)
	require.NoError(t, err)

	var roadmap models.ExternalItem
	for _, item := range items {
		if item.ExternalID == "post-2" {
			roadmap = item
		}
	}
	require.Empty(t, roadmap.Content)

	text, err := connector.Fetch(context.Background(), source, roadmap)
	require.NoError(t, err)
	assert.True(t, articleFetched)
	assert.Contains(t, text, "The complete roadmap")
	assert.NotContains(t, text, "Short teaser")
}

func TestFeedConnector_FetchExtractsPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Retro</title></head><body><article><p>What went well.</p></article></body></html>`)
	}))
	defer server.Close()

	text, err := newTestFeedConnector().Fetch(context.Background(), nil, models.ExternalItem{
		URL: server.URL + "/posts/retro",
	})
	require.NoError(t, err)
	assert.Contains(t, text, "What went well.")
}

func TestFeedConnector_FetchNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	_, err := newTestFeedConnector().Fetch(context.Background(), nil, models.ExternalItem{URL: server.URL + "/x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "410")
}

func TestFeedConnector_ListUnreachable(t *testing.T) {
	source := &models.SourceConfig{Location: "http://127.0.0.1:1/feed.xml"}
	_, err := newTestFeedConnector().List(context.Background(), source)
	require.Error(t, err)
}

func TestFeedConnector_Policy(t *testing.T) {
	c := newTestFeedConnector()
	assert.Equal(t, models.SourceTypeArticle, c.Type())
	assert.Equal(t, interfaces.OrphanPolicyAdvisory, c.OrphanPolicy())
}
