package uv

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/tradewire/kitebridge/internal/pyenv"
)

func init() {
	pyenv.Register("uv", func(customPath string) (pyenv.EnvManager, error) {
		return NewWithPath(customPath)
	})
}

// UvManager implements the EnvManager interface using the uv binary.
type UvManager struct {
	uvPath string // Path to uv binary
}

// New creates a new UvManager instance
func New() (*UvManager, error) {
	return NewWithPath("")
}

// NewWithPath creates a new UvManager with a custom uv binary path
func NewWithPath(customPath string) (*UvManager, error) {
	uvPath := customPath
	if uvPath == "" {
		path, err := exec.LookPath("uv")
		if err != nil {
			return nil, fmt.Errorf("uv not found in PATH: %w", err)
		}
		uvPath = path
	}
	return &UvManager{uvPath: uvPath}, nil
}

// Name returns the environment manager name
func (u *UvManager) Name() string {
	return "uv"
}

// Sync installs the configured dependencies through `uv pip` against the venv.
func (u *UvManager) Sync(ctx context.Context, opts pyenv.SyncOptions) error {
	if opts.VenvPath == "" {
		return fmt.Errorf("virtual environment path is required")
	}

	if opts.Requirement != "" {
		if err := u.run(ctx, opts, "pip", "install", "--quiet", "--python", opts.VenvPath, "-r", opts.Requirement); err != nil {
			return fmt.Errorf("uv pip install -r failed: %w", err)
		}
	}

	if opts.ProjectDir != "" {
		if err := u.run(ctx, opts, "pip", "install", "--quiet", "--python", opts.VenvPath, "-e", opts.ProjectDir); err != nil {
			return fmt.Errorf("uv pip install -e failed: %w", err)
		}
	}

	return nil
}

func (u *UvManager) run(ctx context.Context, opts pyenv.SyncOptions, args ...string) error {
	cmd := exec.CommandContext(ctx, u.uvPath, args...)
	if opts.LogWriter != nil {
		fmt.Fprintf(opts.LogWriter, "Running: uv %s\n", strings.Join(args, " "))
		cmd.Stdout = opts.LogWriter
		cmd.Stderr = opts.LogWriter
	}
	return cmd.Run()
}
