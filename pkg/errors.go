package dedupr

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the failures a run can meet.
// Kinds are strings so they read well in logs and serialise naturally.
type ErrorKind string

const (
	// KindConfig is a bad option; it fails the run before any I/O.
	KindConfig ErrorKind = "CONFIG_ERROR"

	// KindTraversal is a folder that could not be listed; its branch is skipped.
	KindTraversal ErrorKind = "TRAVERSAL_ERROR"

	// KindEntryStat is a single directory entry that could not be stat'ed.
	KindEntryStat ErrorKind = "ENTRY_STAT_ERROR"

	// KindHash is a file that could not be opened, read or closed while hashing.
	KindHash ErrorKind = "HASH_ERROR"

	// KindDelete is a duplicate that could not be removed.
	KindDelete ErrorKind = "DELETE_ERROR"

	// KindReport is a failure handing the report to its sink.
	KindReport ErrorKind = "REPORT_ERROR"
)

// Error is a classified failure, optionally tied to a path
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds a classified error
func newError(kind ErrorKind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// configErrorf builds a KindConfig error from a format string
func configErrorf(format string, args ...interface{}) *Error {
	return newError(KindConfig, "", fmt.Errorf(format, args...))
}

// KindOf returns the kind of a classified error, or "" when err is not one
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err (or anything it wraps) has the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// ErrorRecord is the recorded outcome of a non-fatal failure
type ErrorRecord struct {
	Path    string    `json:"path" yaml:"path"`
	Kind    ErrorKind `json:"kind" yaml:"kind"`
	Message string    `json:"error" yaml:"error"`
}

// recordOf converts a classified error into its recorded form
func recordOf(e *Error) ErrorRecord {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return ErrorRecord{Path: e.Path, Kind: e.Kind, Message: msg}
}
