package formula

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates an unparseable version or an invalid option set.
	ErrConfiguration = errors.New("configuration error")

	// ErrMissingDependency indicates an enabled feature needs a dependency
	// location that was not supplied.
	ErrMissingDependency = errors.New("missing dependency location")

	// ErrPatternNotFound indicates a relocation rule matched nothing.
	// It is only ever reported as a Warning.
	ErrPatternNotFound = errors.New("relocation pattern not found")

	// ErrArtifactNotFound indicates no find-script exists under any candidate
	// path. It is only ever reported as a Warning.
	ErrArtifactNotFound = errors.New("artifact not found")
)

// Error wraps an error kind with the operation and subject that failed.
type Error struct {
	Op      string // resolve, defs, relocate, ...
	Subject string // version, option or dependency name
	Kind    error  // one of the Err* kinds above
	Err     error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Subject != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Subject, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// -----------------------------------------------------------------------------

// Warning is a non-fatal diagnostic. A warning never aborts a recipe run.
type Warning struct {
	Kind    error
	Subject string
	Message string
}

func (w Warning) String() string {
	if w.Subject != "" {
		return fmt.Sprintf("%v (%s): %s", w.Kind, w.Subject, w.Message)
	}
	return fmt.Sprintf("%v: %s", w.Kind, w.Message)
}
