package learning

import (
	"errors"
	"fmt"
)

// ErrMalformedResult marks workflow results rejected before any state
// mutation. Use errors.Is to detect it.
var ErrMalformedResult = errors.New("malformed workflow result")

// StorageError reports that a persisted state resource could not be
// read or written. It aborts the current invocation and is surfaced
// to the caller verbatim; the engine never retries.
type StorageError struct {
	Op   string // "read", "write", "append"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
