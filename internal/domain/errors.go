package domain

import "fmt"

// StoreError is the typed failure surfaced when the backing store rejects or
// fails a request. One failing page request aborts the whole computation; no
// layer retries.
type StoreError struct {
	// Collection is the store collection the failing request targeted.
	Collection string

	// StatusCode is the HTTP status the store answered with, or 0 when the
	// request never completed.
	StatusCode int

	// Message is the store's error message, when one was returned.
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("store request to %s failed (status %d): %s", e.Collection, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("store request to %s failed (status %d)", e.Collection, e.StatusCode)
}

// NewStoreError creates a store error for the given collection and status.
func NewStoreError(collection string, statusCode int, message string) *StoreError {
	return &StoreError{
		Collection: collection,
		StatusCode: statusCode,
		Message:    message,
	}
}
