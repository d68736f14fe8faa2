package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

const sessionLockName = ".session-lock"

// SessionLock is the lock file an interactive session writes next to the
// database. One-shot commands may run alongside it, a second interactive
// session may not.
type SessionLock struct {
	Holder    string    `json:"holder"`
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
	Version   string    `json:"version"`
}

// AcquireSessionLock creates the session lock file in the database's
// directory. A lock left by a process that no longer exists is replaced.
// Returns the lock file path for cleanup on shutdown.
func AcquireSessionLock(dbPath, holder, version string) (lockPath string, err error) {
	lockPath = filepath.Join(filepath.Dir(dbPath), sessionLockName)

	if data, err := os.ReadFile(lockPath); err == nil {
		var existing SessionLock
		if json.Unmarshal(data, &existing) == nil {
			if existing.PID != os.Getpid() && isProcessAlive(existing.PID, existing.Hostname) {
				return "", fmt.Errorf("another %s session is already running (PID %d on %s, started %s)",
					existing.Holder, existing.PID, existing.Hostname, existing.StartedAt.Format(time.RFC3339))
			}
		}
	}

	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to get hostname: %w", err)
	}

	lock := SessionLock{
		Holder:    holder,
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now(),
		Version:   version,
	}

	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal lock: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create lock directory: %w", err)
	}
	if err := os.WriteFile(lockPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to create session lock: %w", err)
	}

	return lockPath, nil
}

// ReleaseSessionLock removes the session lock file.
func ReleaseSessionLock(lockPath string) error {
	if lockPath == "" {
		return nil
	}

	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session lock: %w", err)
	}

	return nil
}

// isProcessAlive checks if a process with the given PID exists on the given hostname.
// Processes on other hosts cannot be checked and are assumed alive.
func isProcessAlive(pid int, hostname string) bool {
	currentHost, err := os.Hostname()
	if err != nil {
		return true
	}

	if !strings.EqualFold(hostname, currentHost) {
		return true
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// signal 0 probes without delivering anything
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}

	// EPERM: the process exists but belongs to someone else
	if err == syscall.EPERM {
		return true
	}

	return false
}
