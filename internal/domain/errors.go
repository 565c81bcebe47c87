package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks caller input that violates an entity invariant.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced deck or card that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStorage marks a failure of the underlying record store.
	ErrStorage = errors.New("storage failure")
)

// Error carries the operation and entity that failed together with the kind
// of failure. Use errors.Is against ErrValidation, ErrNotFound or ErrStorage.
type Error struct {
	Op     string // operation name, e.g. "addCards"
	Entity string // "deck" or "card"
	ID     int64  // zero when no entity id applies
	Kind   error
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Entity != "" {
		b.WriteString(" ")
		b.WriteString(e.Entity)
		if e.ID != 0 {
			fmt.Fprintf(&b, " %d", e.ID)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Validation builds an ErrValidation error.
func Validation(op, entity, msg string) error {
	return &Error{Op: op, Entity: entity, Kind: ErrValidation, Err: errors.New(msg)}
}

// NotFound builds an ErrNotFound error for the given entity id.
func NotFound(op, entity string, id int64) error {
	return &Error{Op: op, Entity: entity, ID: id, Kind: ErrNotFound}
}

// Storage wraps a store failure. Errors that already carry a domain kind are
// returned unchanged so that not-found and validation errors raised inside a
// transaction keep their meaning.
func Storage(op, entity string, id int64, err error) error {
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Op: op, Entity: entity, ID: id, Kind: ErrStorage, Err: err}
}
