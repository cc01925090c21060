package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/tradewire/kitebridge/internal/config"
	"github.com/tradewire/kitebridge/internal/pyenv"

	// Register environment managers.
	_ "github.com/tradewire/kitebridge/internal/pyenv/pip"
	_ "github.com/tradewire/kitebridge/internal/pyenv/uv"
)

// bindTimeout bounds the wait for the port to become bindable after the old
// owner is killed.
const bindTimeout = 5 * time.Second

// Options control a single Launch invocation.
type Options struct {
	// SkipEnvSync disables the Python environment sync step.
	SkipEnvSync bool

	// Wait blocks until the spawned server answers its health endpoint.
	// The original launcher fired and forgot; this is the opt-in check.
	Wait        bool
	WaitTimeout time.Duration

	// Command overrides the spawned server command. Empty means the
	// bridge's own serve subcommand.
	Command []string
}

// Result reports what Launch spawned.
type Result struct {
	PID     int
	Port    int
	LogFile string
}

// Launch runs the start sequence: enter the base directory, sync the Python
// environment (best-effort), free the target port, wait for it to become
// bindable, then spawn the server detached with its combined output captured
// to the log file. It returns once the child is running; it does not
// supervise it.
func Launch(ctx context.Context, baseDir string, cfg *config.Config, opts Options) (*Result, error) {
	// Entering the base directory is the only fatal step before the spawn.
	if err := os.Chdir(baseDir); err != nil {
		return nil, fmt.Errorf("failed to enter base directory %s: %w", baseDir, err)
	}

	lock, err := AcquireLock(baseDir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	if !opts.SkipEnvSync {
		syncEnvironment(ctx, cfg)
	}

	host := cfg.Server.Host
	port := cfg.Server.Port

	if err := FreePort(port); err != nil {
		// Scan failures are tolerated: absence of a port owner was never an
		// error, and the bind probe below catches a genuinely stuck port.
		slog.Warn("Port scan failed", "port", port, "error", err)
	}

	if err := WaitUntilBindable(ctx, host, port, bindTimeout); err != nil {
		// Proceed anyway: the spawned server's own bind failure lands in the
		// log file, which is where the original surfaced it too.
		slog.Warn("Port did not become bindable, spawning anyway", "port", port, "error", err)
	}

	pid, err := spawn(cfg, opts.Command)
	if err != nil {
		return nil, err
	}

	state := &ServerState{
		PID:       pid,
		Host:      host,
		Port:      port,
		LogFile:   cfg.Server.LogFile,
		StartedAt: time.Now(),
	}
	if err := WriteState(baseDir, state); err != nil {
		slog.Warn("Failed to write state file", "error", err)
	}

	if opts.Wait {
		timeout := opts.WaitTimeout
		if timeout <= 0 {
			timeout = DefaultHealthTimeout
		}
		if err := WaitForHealthy(ctx, host, port, timeout); err != nil {
			return nil, fmt.Errorf("server failed to become ready: %w", err)
		}
	}

	return &Result{
		PID:     pid,
		Port:    port,
		LogFile: cfg.Server.LogFile,
	}, nil
}

// syncEnvironment runs the quiet dependency sync for the sidecar Python
// environment. Failures are reported and swallowed: the server does not
// depend on the sidecar environment to start.
func syncEnvironment(ctx context.Context, cfg *config.Config) {
	if cfg.Python.VenvPath == "" {
		slog.Debug("No Python environment configured, skipping sync")
		return
	}

	mgr, err := pyenv.NewWithPath(cfg.Python.Manager, cfg.Python.ManagerPath)
	if err != nil {
		slog.Warn("Environment sync skipped", "error", err)
		return
	}

	err = mgr.Sync(ctx, pyenv.SyncOptions{
		VenvPath:    cfg.Python.VenvPath,
		ProjectDir:  cfg.Python.ProjectDir,
		Requirement: cfg.Python.Requirement,
		LogWriter:   os.Stderr,
	})
	if err != nil {
		slog.Warn("Environment sync failed, continuing", "manager", mgr.Name(), "error", err)
		return
	}

	slog.Debug("Environment sync complete", "manager", mgr.Name())
}

// spawn starts the server command detached from this process's session, with
// stdout and stderr merged into the log file. The file is truncated first so
// each run starts a fresh log, then the child appends for its lifetime.
func spawn(cfg *config.Config, command []string) (int, error) {
	if len(command) == 0 {
		exe, err := os.Executable()
		if err != nil {
			return 0, fmt.Errorf("failed to locate executable: %w", err)
		}
		command = []string{
			exe, "serve",
			"--host", cfg.Server.Host,
			"--port", fmt.Sprintf("%d", cfg.Server.Port),
		}
	}

	logFile, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file %s: %w", cfg.Server.LogFile, err)
	}
	// The child holds its own descriptor after Start; ours closes either way.
	defer logFile.Close()

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = getSysProcAttr()

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start server: %w", err)
	}

	pid := cmd.Process.Pid
	slog.Debug("Server process started", "pid", pid, "log_file", cfg.Server.LogFile)

	// Detach from the child so it doesn't become a zombie of ours.
	cmd.Process.Release()

	return pid, nil
}
