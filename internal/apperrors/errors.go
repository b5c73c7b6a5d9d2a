// Package apperrors defines the typed errors surfaced by the document
// service. Untrusted-input parse failures are deliberately absent: the
// OCR normalizer resolves those to fallback values instead of erroring.
package apperrors

import "fmt"

// ValidationError rejects bad caller input before any side effect runs.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s=%q: %s", e.Field, e.Value, e.Reason)
}

// StorageError wraps a failure of the object-storage backend. Callers
// treat these as expected steady-state conditions and degrade rather
// than abort.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IntakeError reports a per-item failure inside a mail intake batch.
// The batch continues; the error only shows up in the item report.
type IntakeError struct {
	ItemID string
	Stage  string
	Err    error
}

func (e *IntakeError) Error() string {
	return fmt.Sprintf("intake item %s failed at %s: %v", e.ItemID, e.Stage, e.Err)
}

func (e *IntakeError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a missing owner-scoped row.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// ProtectedError reports an attempt to delete or rename a built-in
// taxonomy entry.
type ProtectedError struct {
	Name string
}

func (e *ProtectedError) Error() string {
	return fmt.Sprintf("document type %q is built in and cannot be modified", e.Name)
}
