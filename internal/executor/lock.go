package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"medley/internal/services"
)

const (
	lockAttempts   = 5
	lockRetryDelay = 200 * time.Millisecond
	lockFileSuffix = ".lock"
)

// FileLock is a held advisory lock for one media file.
type FileLock struct {
	fl *flock.Flock
}

// AcquireFileLock takes the advisory lock guarding path. Acquisition is
// non-blocking with a bounded number of retries; exhaustion returns an
// explicit error rather than waiting indefinitely.
func AcquireFileLock(ctx context.Context, path string) (*FileLock, error) {
	fl := flock.New(path + lockFileSuffix)
	for attempt := 0; attempt < lockAttempts; attempt++ {
		locked, err := fl.TryLock()
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "executor", "lock",
				fmt.Sprintf("lock %s", path), err)
		}
		if locked {
			return &FileLock{fl: fl}, nil
		}
		select {
		case <-time.After(lockRetryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, services.Wrap(services.ErrTimeout, "executor", "lock",
		fmt.Sprintf("file %s is locked by another worker", path), nil)
}

// Release drops the lock.
func (l *FileLock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
