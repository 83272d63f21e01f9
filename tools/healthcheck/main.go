package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/tkwin-games/tkwin/internal/logging"
	"github.com/tkwin-games/tkwin/internal/shutdown"
)

// Config of the health check, suitable for a container HEALTHCHECK.
type Config struct {
	URL     string        `envconfig:"TKWIN_HEALTH_URL" default:"http://127.0.0.1:8080/health"`
	Timeout time.Duration `envconfig:"TKWIN_HEALTH_TIMEOUT" default:"3s"`
}

type okResponse struct {
	Status string `json:"status"`
}

func main() {
	ctx, cancel := shutdown.New()
	defer cancel()

	logger := logging.FromContext(ctx)
	config := Config{}
	if err := envconfig.Process("", &config); err != nil {
		logger.Fatalf("processing the config: %v", err)
	}

	status, err := check(ctx, config)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stdout, err)
		os.Exit(1)
	}
	_, _ = fmt.Fprintln(os.Stdout, status)
}

func check(ctx context.Context, config Config) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.URL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", config.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var ok okResponse
	if err := json.NewDecoder(resp.Body).Decode(&ok); err != nil {
		return "", fmt.Errorf("body unmarshal: %w", err)
	}
	if ok.Status != "ok" {
		return "", fmt.Errorf("unhealthy: %q", ok.Status)
	}
	return ok.Status, nil
}
