package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestNewLoggerLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		debug bool
		want  bool
	}{
		{debug: true, want: true},
		{debug: false, want: false},
	}

	for _, tc := range tests {
		logger := NewLogger(tc.debug)
		if got := logger.Desugar().Core().Enabled(zap.DebugLevel); got != tc.want {
			t.Errorf("debug=%v: expected debug enabled %v got %v", tc.debug, tc.want, got)
		}
	}
}

func TestDefaultLoggerIsShared(t *testing.T) {
	t.Parallel()

	if DefaultLogger() != DefaultLogger() {
		t.Error("expected a single default logger")
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	if FromContext(context.Background()) != DefaultLogger() {
		t.Error("expected the default logger for a bare context")
	}

	logger := NewLogger(true).Named("bout.Engine")
	ctx := WithLogger(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Errorf("expected %p got %p", logger, got)
	}
}
