package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrNoOpUpdate    = errors.New("no fields to update")
	ErrDeleteFailed  = errors.New("delete failed")
	ErrPersistFailed = errors.New("persist failed")
	ErrNotUpdatable  = errors.New("resource cannot be updated")
)

// ValidationError reports the first constraint a request violated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// MissingMediaError is returned when a required slot has no upload.
type MissingMediaError struct {
	Slot string
}

func (e *MissingMediaError) Error() string {
	return fmt.Sprintf("%s is required", e.Slot)
}

// MediaUploadError wraps a failed upload for one slot.
type MediaUploadError struct {
	Slot string
	Err  error
}

func (e *MediaUploadError) Error() string {
	return fmt.Sprintf("%s upload failed: %v", e.Slot, e.Err)
}

func (e *MediaUploadError) Unwrap() error { return e.Err }

// NotFoundError carries the kind and id that were looked up.
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PersistError wraps a repository failure during create or update.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() []error { return []error{ErrPersistFailed, e.Err} }
