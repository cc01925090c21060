package launcher

import (
	"os"
	"testing"
	"time"
)

func TestWriteAndReadState(t *testing.T) {
	baseDir := t.TempDir()

	state := &ServerState{
		PID:       12345,
		Host:      "127.0.0.1",
		Port:      5001,
		LogFile:   "server.log",
		StartedAt: time.Now().Truncate(time.Second),
	}

	if err := WriteState(baseDir, state); err != nil {
		t.Fatalf("WriteState failed: %v", err)
	}

	if _, err := os.Stat(StatePath(baseDir)); os.IsNotExist(err) {
		t.Fatal("State file was not created")
	}

	readState, err := ReadState(baseDir)
	if err != nil {
		t.Fatalf("ReadState failed: %v", err)
	}
	if readState == nil {
		t.Fatal("ReadState returned nil")
	}

	if readState.PID != state.PID {
		t.Errorf("PID: got %d, want %d", readState.PID, state.PID)
	}
	if readState.Port != state.Port {
		t.Errorf("Port: got %d, want %d", readState.Port, state.Port)
	}
	if readState.Host != state.Host {
		t.Errorf("Host: got %q, want %q", readState.Host, state.Host)
	}
	if readState.LogFile != state.LogFile {
		t.Errorf("LogFile: got %q, want %q", readState.LogFile, state.LogFile)
	}
}

func TestReadState_FileNotExist(t *testing.T) {
	state, err := ReadState(t.TempDir())
	if err != nil {
		t.Fatalf("ReadState should not error for missing file: %v", err)
	}
	if state != nil {
		t.Fatal("ReadState should return nil for missing file")
	}
}

func TestReadState_Corrupt(t *testing.T) {
	baseDir := t.TempDir()
	if err := os.WriteFile(StatePath(baseDir), []byte("{broken"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := ReadState(baseDir); err == nil {
		t.Fatal("ReadState should error for a corrupt state file")
	}
}

func TestRemoveState(t *testing.T) {
	baseDir := t.TempDir()

	state := &ServerState{PID: 1, Port: 5001}
	if err := WriteState(baseDir, state); err != nil {
		t.Fatalf("WriteState failed: %v", err)
	}

	if err := RemoveState(baseDir); err != nil {
		t.Fatalf("RemoveState failed: %v", err)
	}

	if _, err := os.Stat(StatePath(baseDir)); !os.IsNotExist(err) {
		t.Fatal("State file should have been removed")
	}

	// Removing again is a no-op.
	if err := RemoveState(baseDir); err != nil {
		t.Fatalf("RemoveState on missing file should not error: %v", err)
	}
}

func TestResolveBaseDir(t *testing.T) {
	dir, err := ResolveBaseDir()
	if err != nil {
		t.Fatalf("ResolveBaseDir failed: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("base dir should exist: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s should be a directory", dir)
	}
}
