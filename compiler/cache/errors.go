package cache

import (
	"errors"
	"fmt"
)

// ErrCacheIO indicates a cache record could not be read, decoded or written.
var ErrCacheIO = errors.New("datatype: cache i/o")

// CacheIOError reports a failure to read, decode or write a cache record.
// The controller recovers from it by treating the run as a miss.
type CacheIOError struct {
	Op    string // "read", "decode", "encode", "write", "lock"
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *CacheIOError) Error() string {
	msg := fmt.Sprintf("datatype: cache %s %s", e.Op, e.Path)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *CacheIOError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for CacheIOError.
func (e *CacheIOError) Is(target error) bool {
	return target == ErrCacheIO
}

// IsCacheIOError reports whether the error is a CacheIOError.
func IsCacheIOError(err error) bool {
	var ioErr *CacheIOError
	return errors.As(err, &ioErr)
}
