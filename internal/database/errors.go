package database

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups for ids or hashes with no row.
var ErrNotFound = errors.New("entry not found")

// StorageError wraps a driver failure from a mutating operation. Callers must
// not assume the store is usable after one; the capture pipeline aborts the
// current pass and surfaces the degradation, but keeps polling.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
