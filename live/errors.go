package live

import (
	"errors"
	"fmt"

	"golang.org/x/mod/semver"
)

// ErrorCode is a raw status code returned by a backend function.
//
// Backends may return codes not listed here; they are carried through
// unchanged.
type ErrorCode int32

const (
	CodeNoError             ErrorCode = 0
	CodeInvalidResult       ErrorCode = -10
	CodeBadConnectionObject ErrorCode = -100
	CodeUninitializedSocket ErrorCode = -101
	CodeUninitializedAgent  ErrorCode = -102
	CodeProtocolMismatch    ErrorCode = -103
	CodeAccessDenied        ErrorCode = -104
	CodeNotLoggedIn         ErrorCode = -105
	CodeNotSynchronized     ErrorCode = -106
	CodeResponseTimeout     ErrorCode = -107
	CodeBidirectionalPoint  ErrorCode = -108
)

var codeInfo = map[ErrorCode]struct{ name, message string }{
	CodeNoError:             {"NoError", "no error occurred"},
	CodeInvalidResult:       {"InvalidResult", "backend function returned invalid result"},
	CodeBadConnectionObject: {"BadConnectionObject", "invalid connection object"},
	CodeUninitializedSocket: {"UninitializedSocket", "failed to initialize socket"},
	CodeUninitializedAgent:  {"UninitializedAgent", "failed to initialize agent"},
	CodeProtocolMismatch:    {"ProtocolMismatch", "client-server protocol mismatch"},
	CodeAccessDenied:        {"AccessDenied", "server rejected login attempt"},
	CodeNotLoggedIn:         {"NotLoggedIn", "client is still connecting"},
	CodeNotSynchronized:     {"NotSynchronized", "client is still synchronizing with server"},
	CodeResponseTimeout:     {"ResponseTimeout", "server failed to respond in time"},
	CodeBidirectionalPoint:  {"BidirectionalPoint", "attempted to set the same point as input and output"},
}

// String returns the symbolic name of a known code, or "Code(n)".
func (c ErrorCode) String() string {
	if info, ok := codeInfo[c]; ok {
		return info.name
	}
	return fmt.Sprintf("Code(%d)", int32(c))
}

// Message returns a human-readable description of the code.
func (c ErrorCode) Message() string {
	if info, ok := codeInfo[c]; ok {
		return info.message
	}
	return "unknown backend error"
}

// Retryable reports whether the client stays usable after this code and the
// triggering call (usually SynchronizeInput) should simply be reissued.
func (c ErrorCode) Retryable() bool {
	return c == CodeNotLoggedIn || c == CodeNotSynchronized
}

var (
	// ErrUninitializedClient is returned by every operation that needs a
	// connection while the client is not initialized or has been shut.
	ErrUninitializedClient = errors.New("live: client is not initialized")

	// ErrClientClosed is returned by every operation after Close.
	ErrClientClosed = errors.New("live: client is closed")
)

// BackendError reports a non-success status returned by the backend.
type BackendError struct {
	Code ErrorCode
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("live: backend error %d (%s): %s", int32(e.Code), e.Code, e.Code.Message())
}

// Retryable reports whether the client remains usable; see ErrorCode.Retryable.
func (e *BackendError) Retryable() bool {
	return e.Code.Retryable()
}

// UnsupportedFunctionError reports that the loaded backend does not export
// the function behind Method.
type UnsupportedFunctionError struct {
	// Method is the logical operation, e.g. "writeST".
	Method string

	// Symbol is the missing export.
	Symbol string

	// Version is the version of the loaded backend.
	Version string

	// Since is the first EDS version documented to provide the export.
	Since string
}

func (e *UnsupportedFunctionError) Error() string {
	msg := fmt.Sprintf("live: %s is not supported by EDS %s backend (missing export %s)", e.Method, e.Version, e.Symbol)
	if e.Since != "" && versionBefore(e.Version, e.Since) {
		msg += fmt.Sprintf("; requires EDS %s or newer", e.Since)
	}
	return msg
}

// IsRetryable reports whether err is a BackendError with a retryable code.
func IsRetryable(err error) bool {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Retryable()
	}
	return false
}

// IsUnsupported reports whether err is an UnsupportedFunctionError.
func IsUnsupported(err error) bool {
	var ue *UnsupportedFunctionError
	return errors.As(err, &ue)
}

// CodeOf returns the backend code carried by err, or CodeNoError when err
// is not a BackendError.
func CodeOf(err error) ErrorCode {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeNoError
}

func codeError(code int32) error {
	if ErrorCode(code) == CodeNoError {
		return nil
	}
	return &BackendError{Code: ErrorCode(code)}
}

// versionBefore compares dotted versions. Versions that are not numeric
// compare as unknown and never report "before".
func versionBefore(v, than string) bool {
	a, b := "v"+v, "v"+than
	if !semver.IsValid(a) || !semver.IsValid(b) {
		return false
	}
	return semver.Compare(a, b) < 0
}
