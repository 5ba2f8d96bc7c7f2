package kb

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the store, pipeline, and query engine.
var (
	// ErrNotFound is returned for an unknown document, sensor, or chunk id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDimension is returned when a vector does not match the
	// deployment's fixed dimension. Never silently truncated or padded.
	ErrInvalidDimension = errors.New("invalid vector dimension")

	// ErrAmbiguousQuery is returned for a query with no text, no vector,
	// and no filter.
	ErrAmbiguousQuery = errors.New("ambiguous query: no text, vector, or filter")

	// ErrEmbeddingUnavailable is returned when an embedding call failed or
	// timed out. During ingestion this is absorbed into per-chunk status,
	// not propagated.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
)

// StorageError wraps a durability-layer failure with operation context.
// It is the only error class that legitimately moves a document to the
// failed state and warrants caller-level retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("storage: %v", e.Err)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// WrapStorage wraps err as a StorageError unless it is nil or already a
// domain sentinel that should pass through unchanged.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidDimension) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
