package engine

import "fmt"

// LoadError reports a failure while enumerating, reading, or parsing
// fragments. The store keeps whatever state it had before the load attempt.
type LoadError struct {
	// Path is the fragment that failed, or empty when enumeration itself
	// failed.
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to load configuration: %v", e.Err)
	}
	return fmt.Sprintf("failed to load fragment %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
