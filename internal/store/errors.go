package store

import (
	"errors"
	"fmt"
)

// ErrNoFragments indicates a write was attempted while the store holds zero
// fragments.
var ErrNoFragments = errors.New("no configuration fragments loaded")

// WriteError reports which fragment a flush failed on. Fragments persisted
// before the failure are no longer dirty; fragments after it still are.
type WriteError struct {
	Fragment string
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to persist fragment %s: %v", e.Fragment, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
