package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	gnet "github.com/shirou/gopsutil/v4/net"
)

// bindPollInterval is how often the post-kill bindability probe retries.
const bindPollInterval = 100 * time.Millisecond

// ListenerPIDs returns the PIDs of processes holding a LISTEN socket on the
// given TCP port. An empty result is not an error.
func ListenerPIDs(port int) ([]int, error) {
	conns, err := gnet.Connections("tcp")
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate tcp connections: %w", err)
	}

	seen := make(map[int]bool)
	var pids []int
	for _, conn := range conns {
		if conn.Status != "LISTEN" || int(conn.Laddr.Port) != port {
			continue
		}
		pid := int(conn.Pid)
		if pid <= 0 || seen[pid] {
			continue
		}
		seen[pid] = true
		pids = append(pids, pid)
	}

	return pids, nil
}

// FreePort forcibly terminates every process listening on the port.
// Best-effort: an empty scan is success, and owners that refuse to die are
// logged and skipped. The launcher's own PID is never killed.
func FreePort(port int) error {
	pids, err := ListenerPIDs(port)
	if err != nil {
		return err
	}

	self := os.Getpid()
	for _, pid := range pids {
		if pid == self {
			slog.Warn("Refusing to kill own process holding port", "pid", pid, "port", port)
			continue
		}
		slog.Info("Killing process holding port", "pid", pid, "port", port)
		if err := KillProcess(pid); err != nil {
			slog.Warn("Failed to kill port owner", "pid", pid, "error", err)
		}
	}

	return nil
}

// IsPortAvailable checks if a TCP port is available for binding on the host.
func IsPortAvailable(host string, port int) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
	if err != nil {
		return false
	}
	ln.Close()
	return true
}

// WaitUntilBindable polls until the port can be bound or the timeout elapses.
// This replaces the original's fixed settle sleep: the OS may take a moment
// to release a socket after its owner is killed, and a blind sleep has no
// feedback signal that it waited long enough.
func WaitUntilBindable(ctx context.Context, host string, port int, timeout time.Duration) error {
	deadline := time.After(timeout)
	ticker := time.NewTicker(bindPollInterval)
	defer ticker.Stop()

	if IsPortAvailable(host, port) {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("port %d still occupied after %s", port, timeout)
		case <-ticker.C:
			if IsPortAvailable(host, port) {
				return nil
			}
		}
	}
}
