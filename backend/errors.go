package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolved is returned by Function.Get when the export is absent
	// from the loaded backend.
	ErrUnresolved = errors.New("backend: export not resolved")

	// ErrReleased is returned by Function.Get after the owning Backend has
	// been closed.
	ErrReleased = errors.New("backend: module released")
)

// NotFoundError reports that a backend module could not be loaded.
//
// FileName is the attempted module file, Type and Version the logical
// backend identity, and Diagnostic the loader's message, verbatim.
type NotFoundError struct {
	FileName   string
	Type       string
	Version    string
	Diagnostic string
}

func (e *NotFoundError) Error() string {
	if e.Diagnostic == "" {
		return fmt.Sprintf("backend %s %s not found (%s)", e.Type, e.Version, e.FileName)
	}
	return fmt.Sprintf("backend %s %s not found (%s): %s", e.Type, e.Version, e.FileName, e.Diagnostic)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// SignatureError reports that an in-process symbol cannot be bound to the
// requested function type.
type SignatureError struct {
	Export string
	Want   string
	Got    string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("backend: export %s has signature %s, want %s", e.Export, e.Got, e.Want)
}
