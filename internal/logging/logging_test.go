package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	stored := slog.New(slog.NewTextHandler(&buf, nil))
	fallback := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	if got := FromContext(context.Background(), nil); got != Discard {
		t.Fatal("expected Discard without a logger")
	}
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Fatal("expected fallback logger")
	}

	ctx := WithLogger(context.Background(), stored)
	if got := FromContext(ctx, fallback); got != stored {
		t.Fatal("expected stored logger")
	}
}

func TestWith(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := With(context.Background(), base, "cart_id", "abc")
	FromContext(ctx, nil).Info("hello")

	if !strings.Contains(buf.String(), "cart_id=abc") {
		t.Fatalf("expected cart_id attribute, got %q", buf.String())
	}
}

func TestTee(t *testing.T) {
	t.Parallel()

	var info, errs bytes.Buffer
	logger := slog.New(Tee(
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		nil,
		slog.NewJSONHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)).With("component", "test")

	logger.Info("saved")
	logger.Error("failed")

	if !strings.Contains(info.String(), "msg=saved") || !strings.Contains(info.String(), "msg=failed") {
		t.Fatalf("expected both records in info output, got %q", info.String())
	}
	if strings.Contains(errs.String(), "saved") {
		t.Fatalf("info record leaked into error output: %q", errs.String())
	}
	if !strings.Contains(errs.String(), `"component":"test"`) {
		t.Fatalf("expected attributes in error output, got %q", errs.String())
	}
}

func TestTee_Empty(t *testing.T) {
	t.Parallel()

	if Tee(nil).Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected empty tee to discard")
	}
}
