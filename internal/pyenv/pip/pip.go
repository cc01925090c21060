package pip

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tradewire/kitebridge/internal/pyenv"
)

func init() {
	pyenv.Register("pip", func(customPath string) (pyenv.EnvManager, error) {
		return NewWithPath(customPath)
	})
}

// PipManager implements the EnvManager interface using the pip binary
// inside the target virtual environment.
type PipManager struct {
	pipPath string // Custom pip binary path; "" = resolve from the venv
}

// New creates a new PipManager instance
func New() (*PipManager, error) {
	return NewWithPath("")
}

// NewWithPath creates a new PipManager with a custom pip binary path
func NewWithPath(customPath string) (*PipManager, error) {
	return &PipManager{pipPath: customPath}, nil
}

// Name returns the environment manager name
func (p *PipManager) Name() string {
	return "pip"
}

// Sync installs the configured dependencies with --quiet, matching the
// original launcher's non-interactive install.
func (p *PipManager) Sync(ctx context.Context, opts pyenv.SyncOptions) error {
	pip, err := p.resolvePip(opts.VenvPath)
	if err != nil {
		return err
	}

	if opts.Requirement != "" {
		if err := p.run(ctx, pip, opts, "install", "--quiet", "-r", opts.Requirement); err != nil {
			return fmt.Errorf("pip install -r failed: %w", err)
		}
	}

	if opts.ProjectDir != "" {
		if err := p.run(ctx, pip, opts, "install", "--quiet", "-e", opts.ProjectDir); err != nil {
			return fmt.Errorf("pip install -e failed: %w", err)
		}
	}

	return nil
}

// resolvePip locates the pip executable for the venv.
func (p *PipManager) resolvePip(venvPath string) (string, error) {
	if p.pipPath != "" {
		return p.pipPath, nil
	}
	if venvPath == "" {
		return "", fmt.Errorf("virtual environment path is required")
	}

	pip := filepath.Join(venvPath, "bin", "pip")
	if runtime.GOOS == "windows" {
		pip = filepath.Join(venvPath, "Scripts", "pip.exe")
	}

	if _, err := os.Stat(pip); err != nil {
		return "", fmt.Errorf("pip not found in venv %s: %w", venvPath, err)
	}
	return pip, nil
}

func (p *PipManager) run(ctx context.Context, pip string, opts pyenv.SyncOptions, args ...string) error {
	cmd := exec.CommandContext(ctx, pip, args...)
	if opts.LogWriter != nil {
		fmt.Fprintf(opts.LogWriter, "Running: pip %s\n", strings.Join(args, " "))
		cmd.Stdout = opts.LogWriter
		cmd.Stderr = opts.LogWriter
	}
	return cmd.Run()
}
