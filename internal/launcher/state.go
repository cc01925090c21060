// Package launcher manages the lifecycle of the detached auth server process.
// It handles base directory resolution, optional Python environment sync,
// freeing the target port, spawning the server with its output captured to a
// log file, and reading/writing the state file later commands use to find it.
package launcher

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ServerState records the last spawned server instance.
type ServerState struct {
	PID       int       `json:"pid"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	LogFile   string    `json:"log_file"`
	StartedAt time.Time `json:"started_at"`
}

// StateFileName is the state file, kept next to the binary so every
// invocation resolves it the same way regardless of working directory.
const StateFileName = "launcher.state"

// LockFileName is the spawn lock file.
const LockFileName = "spawn.lock"

// ResolveBaseDir returns the directory containing the running executable,
// with symlinks resolved. All relative paths anchor here.
func ResolveBaseDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable path: %w", err)
	}
	return filepath.Dir(resolved), nil
}

// StatePath returns the path to the state file under baseDir.
func StatePath(baseDir string) string {
	return filepath.Join(baseDir, StateFileName)
}

// LockPath returns the path to the spawn lock file under baseDir.
func LockPath(baseDir string) string {
	return filepath.Join(baseDir, LockFileName)
}

// ReadState reads the server state from disk.
// Returns nil, nil if the state file does not exist.
func ReadState(baseDir string) (*ServerState, error) {
	data, err := os.ReadFile(StatePath(baseDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read server state: %w", err)
	}

	var state ServerState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse server state: %w", err)
	}

	return &state, nil
}

// WriteState writes the server state to disk.
func WriteState(baseDir string, state *ServerState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal server state: %w", err)
	}

	if err := os.WriteFile(StatePath(baseDir), data, 0600); err != nil {
		return fmt.Errorf("failed to write server state: %w", err)
	}

	return nil
}

// RemoveState removes the server state file. A missing file is not an error.
func RemoveState(baseDir string) error {
	if err := os.Remove(StatePath(baseDir)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove server state: %w", err)
	}
	return nil
}
