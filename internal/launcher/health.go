package launcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// DefaultHealthTimeout bounds how long `start --wait` polls for readiness.
const DefaultHealthTimeout = 30 * time.Second

// healthPollInterval is the delay between readiness probes.
const healthPollInterval = 200 * time.Millisecond

// IsHealthy checks if the server answers its health endpoint.
func IsHealthy(ctx context.Context, host string, port int) bool {
	url := fmt.Sprintf("http://%s/api/v1/health", net.JoinHostPort(host, fmt.Sprintf("%d", port)))

	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// WaitForHealthy polls the server health endpoint until it responds or the
// timeout elapses.
func WaitForHealthy(ctx context.Context, host string, port int, timeout time.Duration) error {
	deadline := time.After(timeout)
	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("server did not become healthy within %s", timeout)
		case <-ticker.C:
			if IsHealthy(ctx, host, port) {
				return nil
			}
		}
	}
}
