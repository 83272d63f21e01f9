package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tkwin-games/tkwin/internal/server"
)

func TestProbe(t *testing.T) {
	t.Parallel()

	healthy := httptest.NewServer(server.HandleHealth(context.Background()))
	defer healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	if status, err := check(context.Background(), Config{URL: healthy.URL, Timeout: time.Second}); err != nil || status != "ok" {
		t.Errorf("expected ok got %q %v", status, err)
	}
	if _, err := check(context.Background(), Config{URL: broken.URL, Timeout: time.Second}); err == nil {
		t.Error("expected error for unavailable server")
	}
}
