// Package tferr defines TableFS's flat error taxonomy, styled directly
// on the teacher codebase's pkg/metadata/errors package: an ErrorCode
// enum plus a single Error type carrying {Code, Message, Path}.
package tferr

import "fmt"

// Code identifies the kind of failure a TableFS operation reports.
type Code int

const (
	// NotFound: a path component does not exist. The resolver attaches
	// the failing prefix as Path.
	NotFound Code = iota + 1

	// AlreadyExists: name conflict on create.
	AlreadyExists

	// DirExpected: an interior path component is not a directory, or a
	// trailing slash was used against a regular file.
	DirExpected

	// FileExpected: Unlink targeted a directory, or a create-file call
	// was given a path ending in a trailing slash.
	FileExpected

	// DirNotEmpty: Rmdir found at least one child entry.
	DirNotEmpty

	// AccessDenied: a permission check failed.
	AccessDenied

	// InvalidArgument: the path is not absolute, or an argument is nil/empty.
	InvalidArgument

	// AssertionFailed: an operation hit an internal state the protocol
	// guarantees cannot occur (e.g. Rmdir of the root).
	AssertionFailed

	// Corruption: root or entry bytes failed to decode.
	Corruption

	// IoError: the underlying kv.Store surfaced an error not covered above.
	IoError
)

// String returns the taxonomy name of the code, matching spec.md §7's
// naming exactly.
func (c Code) String() string {
	switch c {
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case DirExpected:
		return "DirExpected"
	case FileExpected:
		return "FileExpected"
	case DirNotEmpty:
		return "DirNotEmpty"
	case AccessDenied:
		return "AccessDenied"
	case InvalidArgument:
		return "InvalidArgument"
	case AssertionFailed:
		return "AssertionFailed"
	case Corruption:
		return "Corruption"
	case IoError:
		return "IoError"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type every TableFS operation returns on
// failure. Path, when set, localizes the failure — for NotFound and
// DirExpected raised by the resolver it is the prefix of the input
// path up to (not including) the offending segment.
type Error struct {
	Code    Code
	Message string
	Path    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path: %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same Code, so callers
// can write errors.Is(err, tferr.New(tferr.NotFound, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New constructs an *Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithPath returns a copy of e with Path set, used by the resolver to
// attach the localizing prefix once a failure occurs.
func (e *Error) WithPath(path string) *Error {
	return &Error{Code: e.Code, Message: e.Message, Path: path}
}

// NotFoundError builds a NotFound error localized to path.
func NotFoundError(path string) *Error {
	return &Error{Code: NotFound, Message: "no such file or directory", Path: path}
}

// AlreadyExistsError builds an AlreadyExists error localized to path.
func AlreadyExistsError(path string) *Error {
	return &Error{Code: AlreadyExists, Message: "file exists", Path: path}
}

// DirExpectedError builds a DirExpected error localized to path.
func DirExpectedError(path string) *Error {
	return &Error{Code: DirExpected, Message: "not a directory", Path: path}
}

// FileExpectedError builds a FileExpected error localized to path.
func FileExpectedError(path string) *Error {
	return &Error{Code: FileExpected, Message: "is a directory", Path: path}
}

// DirNotEmptyError builds a DirNotEmpty error localized to path.
func DirNotEmptyError(path string) *Error {
	return &Error{Code: DirNotEmpty, Message: "directory not empty", Path: path}
}

// AccessDeniedError builds an AccessDenied error localized to path.
func AccessDeniedError(path string) *Error {
	return &Error{Code: AccessDenied, Message: "permission denied", Path: path}
}

// InvalidArgumentError builds an InvalidArgument error with a free-form message.
func InvalidArgumentError(message string) *Error {
	return &Error{Code: InvalidArgument, Message: message}
}

// AssertionFailedError builds an AssertionFailed error with a free-form message.
func AssertionFailedError(message string) *Error {
	return &Error{Code: AssertionFailed, Message: message}
}

// CorruptionError builds a Corruption error localized to path.
func CorruptionError(path string, cause error) *Error {
	msg := "failed to decode record"
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &Error{Code: Corruption, Message: msg, Path: path}
}

// IoErrorFrom wraps an underlying kv.Store error verbatim, per spec.md
// §4.9's fail-fast, wrap-don't-retry discipline.
func IoErrorFrom(cause error) *Error {
	return &Error{Code: IoError, Message: cause.Error()}
}

// Is reports whether err is a *Error with the given code.
func Is(err error, code Code) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Code == code
}
