package searchindex

import (
	"context"
	"testing"

	"github.com/riskibarqy/matchday/internal/platform/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogIndexer_Index(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	indexer := NewLogIndexer(logging.FromZap(zap.New(core)))

	if err := indexer.Index(context.Background(), "team", "t-1"); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if logs.FilterMessage("search index requested").Len() != 1 {
		t.Fatalf("expected one index log entry, got %d", logs.Len())
	}
	if err := indexer.Index(context.Background(), "", "t-1"); err == nil {
		t.Fatalf("expected error for missing entity")
	}
}
