//go:build windows

package db

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

const windowsStillActive = 259

// AcquireLock takes the lock by atomically creating the lock file.
// A lock file left behind by a dead process is removed and retried.
func AcquireLock(dbDir string, opts LockOptions) (*LockFile, error) {
	return acquireWithRetry(dbDir, opts, tryAcquireLock, func(err error) bool {
		return errors.Is(err, os.ErrExist)
	})
}

func tryAcquireLock(lockPath string) (*LockFile, error) {
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if os.IsExist(err) {
			if pid := readLockPID(lockPath); pid > 0 && !processExists(pid) {
				_ = os.Remove(lockPath)
			}
			return nil, os.ErrExist
		}
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := writePID(file); err != nil {
		file.Close()
		_ = os.Remove(lockPath)
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
	if err := lf.file.Close(); err != nil {
		lf.file = nil
		return fmt.Errorf("failed to close lock file: %w", err)
	}
	lf.file = nil
	_ = os.Remove(lf.path)
	return nil
}

// IsLocked reports whether a live process holds the lock for dbDir.
func IsLocked(dbDir string) bool {
	lockPath := LockPath(dbDir)
	if _, err := os.Stat(lockPath); err != nil {
		return false
	}
	pid := readLockPID(lockPath)
	return pid == 0 || processExists(pid)
}

func processExists(pid int) bool {
	if pid <= 0 {
		return false
	}

	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == windowsStillActive
}
