package rootio

import (
	"errors"
	"strconv"
	"strings"
)

// Error is the rootio error domain type.
//
// Errors coming from rootio components should be able to be inspected as
// ([errors.As]) an *Error at some point in the error chain.
//
// Components should create an Error at the point a byte stream fails to
// conform to the expected layout (e.g. a bad magic number, a short read, an
// unrecognized version word) and intermediate layers should not wrap in
// another Error except to add [ErrorKind] information. Prefer [fmt.Errorf]
// with a "%w" verb over constructing a containing Error.
type Error struct {
	Inner   error
	Kind    ErrorKind
	Message string
	Op      string
	// Offset is the byte position within the file being decoded at which
	// the error was detected, or -1 if not applicable.
	Offset int64
}

// Assert this implements all the cool features.
var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	b.WriteString("[")
	switch e.Kind {
	case ErrIO,
		ErrInvalidFormat,
		ErrUnsupportedVersion,
		ErrKeyNotFound,
		ErrParse,
		ErrCompression,
		ErrDataType:
		b.WriteString(string(e.Kind))
	default:
		b.WriteString("???")
	}
	b.WriteString("]")
	if e.Offset >= 0 {
		b.WriteString(" @")
		b.WriteString(strconv.FormatInt(e.Offset, 10))
	}
	b.WriteString(": ")
	if e.Message != "" {
		b.WriteString(e.Message)
	}
	if e.Message != "" && e.Inner != nil {
		b.WriteString(": ")
	}
	if e.Op == "" && e.Message == "" && e.Offset < 0 {
		b.Reset()
	}
	if e.Inner != nil {
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables [errors.Is].
//
// It compares the error kind. Callers should compare against a declared
// [ErrorKind] over a specific error.
func (e *Error) Is(kind error) bool {
	return errors.Is(e.Kind, kind)
}

// Unwrap enables [errors.Unwrap].
func (e *Error) Unwrap() error {
	return e.Inner
}

// ErrorKind represents classes of errors to be checked against, matching
// the failure modes a ROOT file decoder can hit: I/O failures from the
// underlying reader, structural violations of the container format,
// version words this decoder doesn't know how to read, a key lookup that
// came up empty, an object-stream parse failure, a failed decompression,
// and a payload whose data type the catalog can't interpret.
type ErrorKind string

// Defined error kinds.
var (
	ErrIO                 = ErrorKind("io")                  // underlying reader/seeker failed
	ErrInvalidFormat      = ErrorKind("invalid-format")      // bytes don't match the documented layout
	ErrUnsupportedVersion = ErrorKind("unsupported-version") // version word this decoder doesn't know
	ErrKeyNotFound        = ErrorKind("key-not-found")       // no TKey at the requested name/offset
	ErrParse              = ErrorKind("parse-error")          // object-stream decode failed
	ErrCompression        = ErrorKind("compression-error")   // decompression failed or overflowed its bound
	ErrDataType           = ErrorKind("data-type")            // unrecognized or mismatched element type
)

// Error implements error.
func (e ErrorKind) Error() string {
	return string(e)
}
