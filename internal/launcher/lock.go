package launcher

import (
	"fmt"
	"os"
)

// Lock is a file-based advisory lock preventing two concurrent start
// invocations from double-spawning the server.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock acquires the spawn lock under baseDir using O_CREATE|O_EXCL
// for atomic creation. Returns an error if another live process holds it.
func AcquireLock(baseDir string) (*Lock, error) {
	lockPath := LockPath(baseDir)

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			// Check if the lock is stale (the owning process may have crashed).
			if isLockStale(lockPath) {
				os.Remove(lockPath)
				file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
				if err != nil {
					return nil, fmt.Errorf("failed to acquire spawn lock after removing stale lock: %w", err)
				}
			} else {
				return nil, fmt.Errorf("another process is already starting the server")
			}
		} else {
			return nil, fmt.Errorf("failed to acquire spawn lock: %w", err)
		}
	}

	// Write our PID to the lock file for stale lock detection.
	fmt.Fprintf(file, "%d", os.Getpid())

	return &Lock{
		path: lockPath,
		file: file,
	}, nil
}

// Release releases the spawn lock.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release spawn lock: %w", err)
	}
	return nil
}

// isLockStale checks if a lock file is stale by reading the PID and checking if it's alive.
func isLockStale(lockPath string) bool {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		// Can't read the lock file; assume it's stale.
		return true
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		// Can't parse PID; assume stale.
		return true
	}

	return !IsProcessAlive(pid)
}
