package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/costgate/costgate/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"gibberish", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	log := New(config.Logging{Level: "warn", Service: "test"})
	if log.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled at warn level")
	}
	if !log.Enabled(context.Background(), slog.LevelError) {
		t.Error("error disabled at warn level")
	}
}

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := TraceID(ctx); got != "" {
		t.Errorf("TraceID(empty ctx) = %q, want empty", got)
	}

	ctx = WithTraceID(ctx, "abc-123")
	if got := TraceID(ctx); got != "abc-123" {
		t.Errorf("TraceID = %q, want abc-123", got)
	}
}
