package sources

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"github.com/ternarybob/curator/internal/services/extract"
)

// NewRegistry builds the connector for each source type.
func NewRegistry(config *common.Config, extractor *extract.Extractor, logger arbor.ILogger) map[models.SourceType]interfaces.SourceConnector {
	return map[models.SourceType]interfaces.SourceConnector{
		models.SourceTypeVideo:    NewYouTubeConnector(config, logger),
		models.SourceTypeDocument: NewUploadConnector(config, extractor, logger),
		models.SourceTypeArticle:  NewFeedConnector(config, extractor, logger),
		models.SourceTypePage:     NewWordPressConnector(config, extractor, logger),
	}
}
