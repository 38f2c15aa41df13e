package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockPoll is the interval between attempts to take a held lock.
const lockPoll = 50 * time.Millisecond

// Lock takes the exclusive lock on the file at path, waiting until it is
// released or ctx is done. The returned function releases the lock. The
// lock is held by the open file, so it is released by the system when the
// holding process exits.
func Lock(ctx context.Context, path string) (unlock func() error, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &CacheIOError{Op: "lock", Path: path, Cause: err}
	}
	fl := flock.New(path)
	locked, err := fl.TryLockContext(ctx, lockPoll)
	switch {
	case err != nil:
		return nil, &CacheIOError{Op: "lock", Path: path, Cause: err}
	case !locked:
		return nil, &CacheIOError{Op: "lock", Path: path, Cause: ctx.Err()}
	}
	return fl.Unlock, nil
}
