package launcher

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/tradewire/kitebridge/internal/config"
)

// testConfig builds a config anchored at baseDir with an ephemeral free port
// and no Python environment.
func testConfig(t *testing.T, baseDir string) *config.Config {
	t.Helper()

	ln, port := listenLocal(t)
	ln.Close()

	return &config.Config{
		Server: config.ServerConfig{
			Host:    "127.0.0.1",
			Port:    port,
			LogFile: filepath.Join(baseDir, "server.log"),
		},
	}
}

// restoreWD undoes the Chdir Launch performs.
func restoreWD(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLaunch_SpawnsDetachedServer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test server script requires a POSIX shell")
	}
	restoreWD(t)

	baseDir := t.TempDir()
	cfg := testConfig(t, baseDir)

	res, err := Launch(context.Background(), baseDir, cfg, Options{
		SkipEnvSync: true,
		Command:     []string{"/bin/sh", "-c", "echo started; exec sleep 30"},
	})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	defer KillProcess(res.PID)

	if !IsProcessAlive(res.PID) {
		t.Fatal("reported PID should correspond to a running process")
	}

	// The state file records the spawn.
	state, err := ReadState(baseDir)
	if err != nil {
		t.Fatalf("ReadState failed: %v", err)
	}
	if state == nil || state.PID != res.PID {
		t.Fatalf("state file should record PID %d, got %+v", res.PID, state)
	}
	if state.Port != cfg.Server.Port {
		t.Errorf("state port: got %d, want %d", state.Port, cfg.Server.Port)
	}

	// The child's output lands in the log file.
	waitForLogContent(t, res.LogFile, "started")

	// The spawn lock is released once Launch returns.
	if _, err := os.Stat(LockPath(baseDir)); !os.IsNotExist(err) {
		t.Error("spawn lock should be released after Launch")
	}
}

func TestLaunch_TruncatesLogFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test server script requires a POSIX shell")
	}
	restoreWD(t)

	baseDir := t.TempDir()
	cfg := testConfig(t, baseDir)

	if err := os.WriteFile(cfg.Server.LogFile, []byte("old run output\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	res, err := Launch(context.Background(), baseDir, cfg, Options{
		SkipEnvSync: true,
		Command:     []string{"/bin/sh", "-c", "echo fresh"},
	})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	defer KillProcess(res.PID)

	waitForLogContent(t, res.LogFile, "fresh")

	data, err := os.ReadFile(res.LogFile)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if strings.Contains(string(data), "old run output") {
		t.Error("log file should be truncated on each launch")
	}
}

func TestLaunch_BadBaseDir(t *testing.T) {
	restoreWD(t)

	baseDir := filepath.Join(t.TempDir(), "gone")

	_, err := Launch(context.Background(), baseDir, &config.Config{}, Options{SkipEnvSync: true})
	if err == nil {
		t.Fatal("Launch should fail when the base directory cannot be entered")
	}
}

func TestLaunch_MissingCommand(t *testing.T) {
	restoreWD(t)

	baseDir := t.TempDir()
	cfg := testConfig(t, baseDir)

	_, err := Launch(context.Background(), baseDir, cfg, Options{
		SkipEnvSync: true,
		Command:     []string{filepath.Join(baseDir, "no-such-binary")},
	})
	if err == nil {
		t.Fatal("Launch should surface a spawn failure")
	}
}

// waitForLogContent polls the log file until it contains want or the bounded
// wait expires.
func waitForLogContent(t *testing.T, path, want string) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && strings.Contains(string(data), want) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("log file %s never contained %q", path, want)
}
