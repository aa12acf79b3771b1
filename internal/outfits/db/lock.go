//go:build !windows

package db

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// AcquireLock takes an exclusive flock on the lock file in dbDir.
// The caller must call Release when done with the lock.
func AcquireLock(dbDir string, opts LockOptions) (*LockFile, error) {
	return acquireWithRetry(dbDir, opts, tryAcquireLock, func(err error) bool {
		return errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN)
	})
}

func tryAcquireLock(lockPath string) (*LockFile, error) {
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		return nil, err
	}

	if err := writePID(file); err != nil {
		_ = unix.Flock(int(file.Fd()), unix.LOCK_UN)
		file.Close()
		return nil, err
	}

	return &LockFile{path: lockPath, file: file}, nil
}

// Release releases the lock and removes the lock file.
// It is safe to call Release multiple times.
func (lf *LockFile) Release() error {
	if lf.file == nil {
		return nil
	}

	if err := unix.Flock(int(lf.file.Fd()), unix.LOCK_UN); err != nil {
		_ = lf.file.Close()
		lf.file = nil
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if err := lf.file.Close(); err != nil {
		lf.file = nil
		return fmt.Errorf("failed to close lock file: %w", err)
	}
	lf.file = nil

	_ = os.Remove(lf.path)
	return nil
}

// IsLocked reports whether another process holds the lock for dbDir.
func IsLocked(dbDir string) bool {
	file, err := os.OpenFile(LockPath(dbDir), os.O_RDWR, 0o644)
	if err != nil {
		return false
	}
	defer file.Close()

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return true
	}
	_ = unix.Flock(int(file.Fd()), unix.LOCK_UN)
	return false
}
