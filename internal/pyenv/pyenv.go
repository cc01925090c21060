// Package pyenv synchronizes the optional sidecar Python environment the
// auth bridge's trading scripts run under. The launcher treats every failure
// here as non-fatal; implementations just report what happened.
package pyenv

import (
	"context"
	"io"
)

// EnvManager is the interface all environment managers must implement.
type EnvManager interface {
	// Name returns the manager name (e.g., "pip", "uv")
	Name() string

	// Sync installs or refreshes the configured dependencies in quiet mode
	Sync(ctx context.Context, opts SyncOptions) error
}

// SyncOptions contains parameters for a dependency sync.
type SyncOptions struct {
	VenvPath    string    // Virtual environment directory
	ProjectDir  string    // Local package to install editable ("" = skip)
	Requirement string    // requirements.txt to install ("" = skip)
	LogWriter   io.Writer // Optional writer for streaming command output
}
