package searchindex

import (
	"context"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday/internal/platform/logging"
)

// LogIndexer stands in for the search consumer: it records which canonical
// entities need (re)indexing.
type LogIndexer struct {
	logger *logging.Logger
}

func NewLogIndexer(logger *logging.Logger) *LogIndexer {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogIndexer{logger: logger.Named("searchindex")}
}

func (i *LogIndexer) Index(ctx context.Context, entity, entityID string) error {
	if strings.TrimSpace(entity) == "" || strings.TrimSpace(entityID) == "" {
		return crerr.Newf("search index request needs entity and id, got entity=%q id=%q", entity, entityID)
	}
	i.logger.InfoContext(ctx, "search index requested", "entity", entity, "entity_id", entityID)
	return nil
}
