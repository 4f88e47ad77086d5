// Package screenshot captures the browser page of a failed test and stores it
// next to the report.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Driver is a browser automation session able to capture the current page.
// Screenshot writes a PNG to a temporary file and returns its path; the caller
// owns that file afterwards.
type Driver interface {
	Screenshot(ctx context.Context) (string, error)
}

// SessionClosedError signals that the driver session was already quit or torn
// down. Capturing after teardown is an expected situation at the end of a run
// and is not worth reporting.
type SessionClosedError struct {
	Err error
}

func (e *SessionClosedError) Error() string {
	if e.Err == nil {
		return "driver session closed"
	}
	return fmt.Sprintf("driver session closed: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *SessionClosedError) Unwrap() error {
	return e.Err
}

// NewSessionClosedError creates a new SessionClosedError
func NewSessionClosedError(err error) *SessionClosedError {
	return &SessionClosedError{Err: err}
}

// IsSessionClosed checks if the error is or wraps a SessionClosedError
func IsSessionClosed(err error) bool {
	var closed *SessionClosedError
	return err != nil && errors.As(err, &closed)
}

// Holder keeps the driver of the running test, if any
type Holder struct {
	mu     sync.RWMutex
	driver Driver
}

// NewHolder creates a holder, optionally pre-populated
func NewHolder(d Driver) *Holder {
	return &Holder{driver: d}
}

// Set replaces the current driver
func (h *Holder) Set(d Driver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.driver = d
}

// Get returns the current driver, or nil when none is available
func (h *Holder) Get() Driver {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.driver
}

// Clear removes the current driver
func (h *Holder) Clear() {
	h.Set(nil)
}
