package uv

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/tradewire/kitebridge/internal/pyenv"
)

// fakeUv drops a uv shell script that records its arguments into a temp
// directory and puts that directory at the front of PATH.
func fakeUv(t *testing.T) (argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake uv script requires a POSIX shell")
	}

	binDir := t.TempDir()
	argsFile = filepath.Join(binDir, "args.txt")

	script := "#!/bin/sh\necho \"$@\" >> " + argsFile + "\n"
	if err := os.WriteFile(filepath.Join(binDir, "uv"), []byte(script), 0755); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return argsFile
}

func TestFactoryRegistration(t *testing.T) {
	fakeUv(t)

	mgr, err := pyenv.New("uv")
	if err != nil {
		t.Fatalf("pyenv.New(uv) failed: %v", err)
	}
	if mgr.Name() != "uv" {
		t.Errorf("Name: got %q, want %q", mgr.Name(), "uv")
	}
}

func TestNew_UvNotOnPath(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	if _, err := New(); err == nil {
		t.Fatal("New should fail when uv is not on PATH")
	}
}

func TestNewWithPath_SkipsLookup(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	mgr, err := NewWithPath("/opt/uv/bin/uv")
	if err != nil {
		t.Fatalf("NewWithPath failed: %v", err)
	}
	if mgr.uvPath != "/opt/uv/bin/uv" {
		t.Errorf("uvPath: got %q, want %q", mgr.uvPath, "/opt/uv/bin/uv")
	}
}

func TestSync_RequirementsThenProject(t *testing.T) {
	argsFile := fakeUv(t)

	mgr, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var log bytes.Buffer
	err = mgr.Sync(context.Background(), pyenv.SyncOptions{
		VenvPath:    "/opt/venv",
		ProjectDir:  ".",
		Requirement: "requirements.txt",
		LogWriter:   &log,
	})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("fake uv was never invoked: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two uv invocations, got %d: %v", len(lines), lines)
	}
	if lines[0] != "pip install --quiet --python /opt/venv -r requirements.txt" {
		t.Errorf("first invocation: got %q", lines[0])
	}
	if lines[1] != "pip install --quiet --python /opt/venv -e ." {
		t.Errorf("second invocation: got %q", lines[1])
	}
	if !strings.Contains(log.String(), "Running: uv") {
		t.Error("log writer should record the command")
	}
}

func TestSync_MissingVenvPath(t *testing.T) {
	fakeUv(t)

	mgr, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	err = mgr.Sync(context.Background(), pyenv.SyncOptions{ProjectDir: "."})
	if err == nil {
		t.Fatal("Sync should require a venv path")
	}
}

func TestSync_NothingToInstall(t *testing.T) {
	argsFile := fakeUv(t)

	mgr, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// No project and no requirements file: sync is a no-op.
	if err := mgr.Sync(context.Background(), pyenv.SyncOptions{VenvPath: "/opt/venv"}); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if _, err := os.Stat(argsFile); !os.IsNotExist(err) {
		t.Error("uv should not run when there is nothing to install")
	}
}
