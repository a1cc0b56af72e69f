package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"github.com/ternarybob/curator/internal/services/extract"
)

func newTestWordPressConnector() *WordPressConnector {
	return NewWordPressConnector(testSourcesConfig(), extract.NewExtractor(common.GetLogger()), common.GetLogger())
}

func wpFixture(id int64, link, title, content, modified string) map[string]any {
	return map[string]any{
		"id":           id,
		"link":         link,
		"modified_gmt": modified,
		"title":        map[string]any{"rendered": title},
		"content":      map[string]any{"rendered": content},
	}
}

func newWordPressServer(t *testing.T, posts, pages []map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		var entries []map[string]any
		switch r.URL.Path {
		case "/wp-json/wp/v2/posts":
			entries = posts
		case "/wp-json/wp/v2/pages":
			entries = pages
		default:
			http.NotFound(w, r)
			return
		}

		if page > 1 {
			http.Error(w, `{"code":"rest_post_invalid_page_number"}`, http.StatusBadRequest)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(entries))
	}))
}

func TestWordPressConnector_ListPostsAndPages(t *testing.T) {
	posts := []map[string]any{
		wpFixture(7, "https://blog.example.com/hello", "Hello", "<p>First post body.</p>", "2026-08-01T10:00:00"),
	}
	pages := []map[string]any{
		wpFixture(3, "https://blog.example.com/about", "About", "<p>Who we are.</p>", "2026-07-15T09:30:00"),
	}
	server := newWordPressServer(t, posts, pages)
	defer server.Close()

	source := &models.SourceConfig{
		ID:       "src_wp",
		TenantID: "acme",
		Type:     models.SourceTypePage,
		Location: server.URL,
	}

	items, err := newTestWordPressConnector().List(context.Background(), source)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "post_7", items[0].ExternalID)
	assert.Equal(t, "Hello", items[0].Title)
	assert.Contains(t, items[0].Content, "First post body.")
	assert.Equal(t, common.Fingerprint("modified:2026-08-01T10:00:00"), items[0].ContentHash)

	assert.Equal(t, "page_3", items[1].ExternalID)
	assert.Contains(t, items[1].Content, "Who we are.")
}

// The change marker tracks the modification stamp, so an edit changes the
// hash and an untouched entry does not.
func TestWordPressConnector_ChangeMarkerFollowsModifiedStamp(t *testing.T) {
	entry := wpFixture(7, "https://blog.example.com/hello", "Hello", "<p>Body.</p>", "2026-08-01T10:00:00")
	server := newWordPressServer(t, []map[string]any{entry}, nil)

	source := &models.SourceConfig{Location: server.URL}
	connector := newTestWordPressConnector()

	first, err := connector.List(context.Background(), source)
	require.NoError(t, err)
	server.Close()

	edited := wpFixture(7, "https://blog.example.com/hello", "Hello", "<p>Body v2.</p>", "2026-08-02T11:00:00")
	server2 := newWordPressServer(t, []map[string]any{edited}, nil)
	defer server2.Close()

	source.Location = server2.URL
	second, err := connector.List(context.Background(), source)
	require.NoError(t, err)

	assert.NotEqual(t, first[0].ContentHash, second[0].ContentHash)
}

func TestWordPressConnector_ListErrorOnServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestWordPressConnector().List(context.Background(), &models.SourceConfig{Location: server.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestWordPressConnector_FetchSingleEntry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/posts/7" {
			http.NotFound(w, r)
			return
		}
		entry := wpFixture(7, "https://blog.example.com/hello", "Hello", "<p>Fetched body.</p>", "2026-08-01T10:00:00")
		json.NewEncoder(w).Encode(entry)
	}))
	defer server.Close()

	text, err := newTestWordPressConnector().Fetch(context.Background(),
		&models.SourceConfig{Location: server.URL},
		models.ExternalItem{ExternalID: "post_7"})
	require.NoError(t, err)
	assert.Contains(t, text, "Fetched body.")
}

func TestWordPressConnector_FetchBadExternalID(t *testing.T) {
	_, err := newTestWordPressConnector().Fetch(context.Background(),
		&models.SourceConfig{Location: "http://example.com"},
		models.ExternalItem{ExternalID: "bogus"})
	require.Error(t, err)
}

func TestWordPressConnector_Pagination(t *testing.T) {
	full := make([]map[string]any, wpPerPage)
	for i := range full {
		full[i] = wpFixture(int64(i+1), fmt.Sprintf("https://blog.example.com/p%d", i+1), "T", "", "2026-08-01T10:00:00")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/wp-json/wp/v2/pages" {
			json.NewEncoder(w).Encode([]map[string]any{})
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		switch page {
		case 1:
			json.NewEncoder(w).Encode(full)
		case 2:
			json.NewEncoder(w).Encode([]map[string]any{
				wpFixture(999, "https://blog.example.com/last", "Last", "", "2026-08-01T10:00:00"),
			})
		default:
			http.Error(w, `{"code":"rest_post_invalid_page_number"}`, http.StatusBadRequest)
		}
	}))
	defer server.Close()

	items, err := newTestWordPressConnector().List(context.Background(), &models.SourceConfig{Location: server.URL})
	require.NoError(t, err)
	assert.Len(t, items, wpPerPage+1)
	assert.Equal(t, "post_999", items[wpPerPage].ExternalID)
}

func TestWordPressConnector_Policy(t *testing.T) {
	c := newTestWordPressConnector()
	assert.Equal(t, models.SourceTypePage, c.Type())
	assert.Equal(t, interfaces.OrphanPolicyDelete, c.OrphanPolicy())
}
