package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const youtubePageSize = 50

// YouTubeConnector lists channel uploads or playlist entries through the
// YouTube Data API and fetches caption transcripts. Playlists paginate and
// may omit older entries, so orphans are advisory.
type YouTubeConnector struct {
	apiKey  string
	client  *http.Client
	logger  arbor.ILogger
	service *youtube.Service
}

// NewYouTubeConnector creates the YouTube connector. The Data API service
// is built on first use because it needs a context.
func NewYouTubeConnector(config *common.Config, logger arbor.ILogger) *YouTubeConnector {
	return &YouTubeConnector{
		apiKey: config.Sources.YouTubeAPIKey,
		client: &http.Client{
			Timeout: time.Duration(config.Sources.RequestTimeoutSeconds) * time.Second,
		},
		logger: logger,
	}
}

func (c *YouTubeConnector) Type() models.SourceType { return models.SourceTypeVideo }

func (c *YouTubeConnector) OrphanPolicy() interfaces.OrphanPolicy {
	return interfaces.OrphanPolicyAdvisory
}

// List enumerates videos. The source location is either a playlist id or a
// channel id; channels resolve to their uploads playlist first.
func (c *YouTubeConnector) List(ctx context.Context, source *models.SourceConfig) ([]models.ExternalItem, error) {
	service, err := c.youtubeService(ctx)
	if err != nil {
		return nil, err
	}

	playlistID := source.Location
	if !strings.HasPrefix(playlistID, "PL") && !strings.HasPrefix(playlistID, "UU") {
		playlistID, err = c.uploadsPlaylist(service, source.Location)
		if err != nil {
			return nil, err
		}
	}

	var items []models.ExternalItem
	pageToken := ""
	for {
		call := service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(youtubePageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list playlist %s: %w", playlistID, err)
		}

		for _, entry := range resp.Items {
			videoID := entry.ContentDetails.VideoId
			items = append(items, models.ExternalItem{
				ExternalID: "yt_" + videoID,
				URL:        "https://www.youtube.com/watch?v=" + videoID,
				Title:      entry.Snippet.Title,
				// Transcripts are effectively immutable; the video id is
				// the change marker.
				ContentHash: common.Fingerprint("video:" + videoID),
			})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.Debug().
		Str("source_id", source.ID).
		Str("playlist_id", playlistID).
		Int("videos", len(items)).
		Msg("Listed YouTube videos")

	return items, nil
}

// Fetch retrieves the caption transcript for one video.
func (c *YouTubeConnector) Fetch(ctx context.Context, source *models.SourceConfig, item models.ExternalItem) (string, error) {
	videoID := strings.TrimPrefix(item.ExternalID, "yt_")
	if videoID == "" {
		return "", fmt.Errorf("item %q has no video id", item.URL)
	}

	transcriptURL := "https://video.google.com/timedtext?lang=en&v=" + url.QueryEscape(videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, transcriptURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build transcript request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch transcript for %s: %w", videoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcript fetch for %s returned status %d", videoID, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBody))
	if err != nil {
		return "", fmt.Errorf("failed to read transcript for %s: %w", videoID, err)
	}

	return parseTranscript(body)
}

func (c *YouTubeConnector) youtubeService(ctx context.Context) (*youtube.Service, error) {
	if c.service != nil {
		return c.service, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("no YouTube API key configured")
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	c.service = service
	return service, nil
}

// uploadsPlaylist resolves a channel id to its uploads playlist.
func (c *YouTubeConnector) uploadsPlaylist(service *youtube.Service, channelID string) (string, error) {
	resp, err := service.Channels.List([]string{"contentDetails"}).Id(channelID).Do()
	if err != nil {
		return "", fmt.Errorf("failed to look up channel %s: %w", channelID, err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("channel %s not found", channelID)
	}
	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// timedtext response: a flat list of caption segments.
type transcriptXML struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

func parseTranscript(body []byte) (string, error) {
	var transcript transcriptXML
	if err := xml.Unmarshal(body, &transcript); err != nil {
		return "", fmt.Errorf("failed to parse transcript XML: %w", err)
	}

	var parts []string
	for _, segment := range transcript.Texts {
		text := strings.TrimSpace(html.UnescapeString(segment.Value))
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
