package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// StaleLockThreshold is the maximum age of a lock before it's considered stale.
const StaleLockThreshold = 30 * time.Minute

// ErrLockExists is returned when another run holds the lock of a tool.
var ErrLockExists = errors.New("workspace lock exists: another run may be in progress")

// Lock is an exclusive claim on the namespace of one tool.
type Lock struct {
	path  string
	runID string
	file  *os.File
}

// AcquireLock takes the lock of tool. Uses O_CREATE|O_EXCL for atomic lock
// creation; a lock older than StaleLockThreshold is removed and taken over.
func AcquireLock(ctx context.Context, l Layout, tool, runID string) (*Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		runID = uuid.NewString()
	}

	dir := l.LockDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lockPath := filepath.Join(dir, tool+".lock")

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if stale, _ := isLockStale(lockPath); !stale {
			return nil, ErrLockExists
		}
		os.Remove(lockPath)
		if file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644); err != nil {
			return nil, ErrLockExists
		}
	}

	lockData := fmt.Sprintf("run_id=%s\npid=%d\ntimestamp=%s\n", runID, os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("sync lock file: %w", err)
	}

	return &Lock{path: lockPath, runID: runID, file: file}, nil
}

// RunID returns the identifier recorded in the lock file.
func (l *Lock) RunID() string { return l.runID }

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release releases the lock. Releasing twice is a no-op.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	if l.path != "" {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove lock file: %w", err)
		}
		l.path = ""
	}

	return nil
}

func isLockStale(lockPath string) (bool, error) {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false, err
	}
	return time.Since(info.ModTime()) > StaleLockThreshold, nil
}
