package doccoll

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	// ErrNotFound is returned when an operation that requires an existing
	// document (FetchEditSave) cannot find it. Lookups that may legitimately
	// come back empty return a nil record instead.
	ErrNotFound = errors.New("doccoll: document not found")

	// ErrNoDatabase is returned when a collection is built without a connection.
	ErrNoDatabase = errors.New("doccoll: no database connection")

	// ErrValidation matches every ValidationError and ValidationErrors via errors.Is.
	ErrValidation = errors.New("doccoll: validation failed")
)

// ValidationError indicates a field or argument failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

func (e ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidationErrors is a slice of ValidationError that implements error.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (ve ValidationErrors) Is(target error) bool { return target == ErrValidation }

// StoreError wraps a fault reported by the driver or the server:
// connectivity, timeouts, write errors. It is never retried by this package.
type StoreError struct {
	Op         OpType
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("doccoll: %s on %s failed: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Timeout reports whether the fault was a deadline or network timeout.
func (e *StoreError) Timeout() bool {
	return mongo.IsTimeout(e.Err)
}

// IsDuplicateKey reports whether err was caused by a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func storeErr(op OpType, collection string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Collection: collection, Err: err}
}
