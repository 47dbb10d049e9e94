package logging

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_FieldsAndName(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core)).With("component", "clock").Named("audit")

	logger.Info("match transitioned", "match_id", "m1", "error", errors.New("boom"), "dangling")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.LoggerName != "audit" {
		t.Fatalf("unexpected logger name %q", entry.LoggerName)
	}
	fields := entry.ContextMap()
	if fields["component"] != "clock" || fields["match_id"] != "m1" {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if fields["error"] != "boom" {
		t.Fatalf("expected error field, got %v", fields["error"])
	}
	if _, ok := fields["dangling"]; !ok {
		t.Fatalf("expected dangling key to be kept")
	}
}

func TestLogger_ContextWithoutSpanAddsNoTraceFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := FromZap(zap.New(core))

	logger.InfoContext(context.Background(), "tick")
	logger.DebugContext(context.Background(), "filtered")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected debug entry to be filtered, got %d entries", len(entries))
	}
	if _, ok := entries[0].ContextMap()["trace_id"]; ok {
		t.Fatalf("unexpected trace_id without span")
	}
}

func TestDefault_NilFallsBackToNop(t *testing.T) {
	SetDefault(nil)
	if Default() == nil {
		t.Fatalf("expected non-nil default logger")
	}
	var nilLogger *Logger
	nilLogger.Info("does not panic")
}
