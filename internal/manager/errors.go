package manager

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes facade errors. The set is closed.
type ErrorKind string

const (
	// KindDuplicateName indicates a create collided with an existing name.
	KindDuplicateName ErrorKind = "DUPLICATE_NAME"

	// KindNoSuchRecord indicates the lookup or modify target does not exist.
	KindNoSuchRecord ErrorKind = "NO_SUCH_RECORD"

	// KindNotReady indicates an operation was attempted before Bootstrap.
	KindNotReady ErrorKind = "NOT_READY"

	// KindStorageFailure indicates any other persistence fault.
	KindStorageFailure ErrorKind = "STORAGE_FAILURE"
)

// Error is returned by every Manager operation that touches storage.
//
// Driver-level detail is logged, never carried: Error does not unwrap to the
// underlying storage error.
type Error struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Name is the record name involved, if any.
	Name string

	// Op is the facade operation that failed.
	Op string
}

// Sentinels for errors.Is. Matching compares Kind only.
var (
	ErrDuplicateName  = &Error{Kind: KindDuplicateName}
	ErrNoSuchRecord   = &Error{Kind: KindNoSuchRecord}
	ErrNotReady       = &Error{Kind: KindNotReady}
	ErrStorageFailure = &Error{Kind: KindStorageFailure}
)

// Error implements the error interface.
func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindDuplicateName:
		msg = "a record with this name already exists"
	case KindNoSuchRecord:
		msg = "no such record"
	case KindNotReady:
		msg = "store is not bootstrapped"
	case KindStorageFailure:
		msg = "storage failure"
	default:
		msg = "unknown error"
	}

	switch {
	case e.Op != "" && e.Name != "":
		return fmt.Sprintf("%s: %s: %s (name=%s)", e.Kind, e.Op, msg, e.Name)
	case e.Op != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, msg)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or "" if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsDuplicateName returns true if err is a duplicate-name error.
func IsDuplicateName(err error) bool { return KindOf(err) == KindDuplicateName }

// IsNoSuchRecord returns true if err is a missing-record error.
func IsNoSuchRecord(err error) bool { return KindOf(err) == KindNoSuchRecord }

// IsNotReady returns true if err is a not-bootstrapped error.
func IsNotReady(err error) bool { return KindOf(err) == KindNotReady }

// IsStorageFailure returns true if err is a storage failure.
func IsStorageFailure(err error) bool { return KindOf(err) == KindStorageFailure }
