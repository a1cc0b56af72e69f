package sources

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"github.com/ternarybob/curator/internal/services/extract"
)

var uploadExtensions = map[string]bool{
	".pdf":      true,
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// UploadConnector indexes documents dropped into the tenant's upload
// directory. The directory walk is a complete snapshot, so removed files
// are deleted from the index.
type UploadConnector struct {
	uploadDir string
	extractor *extract.Extractor
	logger    arbor.ILogger
}

// NewUploadConnector creates the upload directory connector.
func NewUploadConnector(config *common.Config, extractor *extract.Extractor, logger arbor.ILogger) *UploadConnector {
	return &UploadConnector{
		uploadDir: config.Sync.UploadDir,
		extractor: extractor,
		logger:    logger,
	}
}

func (c *UploadConnector) Type() models.SourceType { return models.SourceTypeDocument }

func (c *UploadConnector) OrphanPolicy() interfaces.OrphanPolicy {
	return interfaces.OrphanPolicyDelete
}

// List walks the source directory. The relative path keys each file; size
// and modification time form the change marker so unchanged files are
// never re-extracted.
func (c *UploadConnector) List(ctx context.Context, source *models.SourceConfig) ([]models.ExternalItem, error) {
	root := c.sourceRoot(source)

	var items []models.ExternalItem
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			return nil
		}
		if !uploadExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		items = append(items, models.ExternalItem{
			ExternalID:  rel,
			URL:         "file://" + (&url.URL{Path: filepath.ToSlash(path)}).EscapedPath(),
			Title:       strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			ContentHash: common.Fingerprint(fmt.Sprintf("%s:%d:%d", rel, info.Size(), info.ModTime().UnixNano())),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk upload directory %s: %w", root, err)
	}

	c.logger.Debug().
		Str("source_id", source.ID).
		Str("dir", root).
		Int("files", len(items)).
		Msg("Listed uploaded documents")

	return items, nil
}

// Fetch extracts text from the file behind the item's relative path.
func (c *UploadConnector) Fetch(ctx context.Context, source *models.SourceConfig, item models.ExternalItem) (string, error) {
	if item.ExternalID == "" {
		return "", fmt.Errorf("upload item %q has no file path", item.URL)
	}
	path := filepath.Join(c.sourceRoot(source), filepath.FromSlash(item.ExternalID))
	return c.extractor.FromFile(ctx, path)
}

// sourceRoot is the tenant's upload directory, optionally narrowed by the
// source location.
func (c *UploadConnector) sourceRoot(source *models.SourceConfig) string {
	root := filepath.Join(c.uploadDir, source.TenantID)
	if source.Location != "" && source.Location != "." && source.Location != "/" {
		root = filepath.Join(root, filepath.FromSlash(source.Location))
	}
	return root
}
