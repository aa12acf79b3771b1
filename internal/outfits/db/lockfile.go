package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrLockAcquireFailed is returned when the writer lock cannot be acquired.
var ErrLockAcquireFailed = errors.New("failed to acquire wardrobe lock")

// ErrLockTimeout is returned when the lock cannot be acquired within the timeout.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// LockFile is an advisory lock next to the database file. It keeps two
// wardrobe processes from migrating or writing the same file at once.
type LockFile struct {
	file *os.File
	path string
}

// LockOptions configures lock acquisition behavior.
type LockOptions struct {
	// Timeout is the maximum time to wait for the lock.
	// If zero, the lock attempt is non-blocking.
	Timeout time.Duration

	// RetryInterval is how often to retry acquiring the lock.
	// If zero, defaults to 100ms.
	RetryInterval time.Duration
}

// DefaultLockOptions returns the options used by Open.
func DefaultLockOptions() LockOptions {
	return LockOptions{
		Timeout:       5 * time.Second,
		RetryInterval: 100 * time.Millisecond,
	}
}

// LockPath returns the lock file path for a given database directory.
func LockPath(dbDir string) string {
	return filepath.Join(dbDir, ".wardrobe.lock")
}

// Path returns the path to the lock file.
func (lf *LockFile) Path() string {
	return lf.path
}

// GetLockHolderPID reads the PID written by the current lock holder.
// Returns 0 if the PID cannot be determined.
func GetLockHolderPID(dbDir string) int {
	return readLockPID(LockPath(dbDir))
}

func readLockPID(lockPath string) int {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return 0
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0
	}
	return pid
}

// writePID records the holder's PID in the lock file for diagnostics.
func writePID(file *os.File) error {
	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate lock file: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to seek lock file: %w", err)
	}
	if _, err := fmt.Fprintf(file, "%d\n", os.Getpid()); err != nil {
		return fmt.Errorf("failed to write PID to lock file: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync lock file: %w", err)
	}
	return nil
}

func acquireWithRetry(dbDir string, opts LockOptions, try func(string) (*LockFile, error), busy func(error) bool) (*LockFile, error) {
	lockPath := LockPath(dbDir)
	if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = 100 * time.Millisecond
	}

	deadline := time.Now().Add(opts.Timeout)
	for {
		lf, err := try(lockPath)
		if err == nil {
			return lf, nil
		}
		if !busy(err) {
			return nil, fmt.Errorf("%w: %w", ErrLockAcquireFailed, err)
		}
		if opts.Timeout == 0 {
			return nil, fmt.Errorf("%w: lock held by pid %d", ErrLockAcquireFailed, readLockPID(lockPath))
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		time.Sleep(opts.RetryInterval)
	}
}
