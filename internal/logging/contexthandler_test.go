package logging_test

import (
	"bytes"
	"context"
	"github.com/myrjola/lettergen/internal/logging"
	"github.com/stretchr/testify/require"
	"log/slog"
	"testing"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelDebug)

	ctx := logging.WithAttrs(context.Background(), slog.String("batch", "b-1"))
	child := logging.WithAttrs(ctx, slog.String("letter", "bank"))
	sibling := logging.WithAttrs(ctx, slog.String("letter", "tsp"))

	logger.With("source", "test").LogAttrs(child, slog.LevelInfo, "generated")
	require.Contains(t, buf.String(), "batch=b-1")
	require.Contains(t, buf.String(), "letter=bank")
	require.Contains(t, buf.String(), "source=test")
	buf.Reset()

	logger.LogAttrs(sibling, slog.LevelInfo, "generated")
	require.Contains(t, buf.String(), "letter=tsp")
	require.NotContains(t, buf.String(), "letter=bank")
}

func TestTee(t *testing.T) {
	var verbose, quiet bytes.Buffer
	logger := slog.New(logging.Tee{
		slog.NewTextHandler(&verbose, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelWarn}),
	})

	logger.Debug("details")
	logger.Warn("storage busy")

	require.Contains(t, verbose.String(), "details")
	require.Contains(t, verbose.String(), "storage busy")
	require.NotContains(t, quiet.String(), "details")
	require.Contains(t, quiet.String(), "storage busy")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: " WARN ", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "", want: slog.LevelInfo},
		{in: "verbose", want: slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, logging.ParseLevel(tt.in))
		})
	}
}
