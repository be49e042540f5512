// Package wire implements the low-level, bounds-checked, big-endian cursor
// that every higher layer of rootio reads through.
//
// ROOT's on-disk format is big-endian throughout, so Buffer never takes a
// byte-order argument; callers needing another order (there are none in
// this decoder) would reach for a different type.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

// Buffer is a bounds-checked cursor over an in-memory big-endian byte
// slice. It never panics on short input; every read method returns an
// error with the offset the read was attempted at.
type Buffer struct {
	b   []byte
	pos int64
}

// NewBuffer wraps b for sequential big-endian reads starting at offset 0.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{b: b}
}

// Len reports the number of unread bytes remaining.
func (r *Buffer) Len() int {
	n := int64(len(r.b)) - r.pos
	if n < 0 {
		return 0
	}
	return int(n)
}

// Pos reports the current cursor offset within the wrapped slice.
func (r *Buffer) Pos() int64 { return r.pos }

// Seek moves the cursor to an absolute offset within the wrapped slice. It
// is an error to seek outside [0, len(b)].
func (r *Buffer) Seek(pos int64) error {
	if pos < 0 || pos > int64(len(r.b)) {
		return &wireError{op: "seek", offset: pos, err: io.ErrUnexpectedEOF}
	}
	r.pos = pos
	return nil
}

// Skip advances the cursor by n bytes, failing if that would run past the
// end of the buffer.
func (r *Buffer) Skip(n int64) error {
	if n < 0 {
		return &wireError{op: "skip", offset: r.pos, err: fmt.Errorf("negative skip %d", n)}
	}
	return r.Seek(r.pos + n)
}

func (r *Buffer) need(n int) ([]byte, error) {
	if n < 0 || int64(n) > int64(r.Len()) {
		return nil, &wireError{op: "read", offset: r.pos, err: io.ErrUnexpectedEOF}
	}
	b := r.b[r.pos : r.pos+int64(n)]
	r.pos += int64(n)
	return b, nil
}

// ReadU8 reads a single byte.
func (r *Buffer) ReadU8() (uint8, error) {
	b, err := r.need(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a big-endian uint16.
func (r *Buffer) ReadU16() (uint16, error) {
	b, err := r.need(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadU32 reads a big-endian uint32.
func (r *Buffer) ReadU32() (uint32, error) {
	b, err := r.need(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadU64 reads a big-endian uint64. ROOT's file header switches several
// fields from 32 to 64 bits once the file grows past the 32-bit pointer
// range (version >= 1000000); this is the reader for that wide form.
func (r *Buffer) ReadU64() (uint64, error) {
	b, err := r.need(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadI32 reads a big-endian, two's-complement int32. The compression
// descriptor field is signed in the file header.
func (r *Buffer) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadBytes returns a slice of the next n bytes of the underlying buffer.
// The slice aliases Buffer's storage and must not be retained past the
// buffer's lifetime if the caller mutates it elsewhere.
func (r *Buffer) ReadBytes(n int) ([]byte, error) {
	return r.need(n)
}

// ReadString reads a fixed-length byte run and validates it as UTF-8.
func (r *Buffer) ReadString(n int) (string, error) {
	start := r.pos
	b, err := r.need(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", &wireError{op: "read-string", offset: start, err: fmt.Errorf("invalid UTF-8")}
	}
	return string(b), nil
}

// ReadCString reads a NUL-terminated string, scanning at most cap bytes
// (the terminator included) before giving up. Used for the class name
// that follows a new-class tag in an object-stream envelope.
func (r *Buffer) ReadCString(cap int) (string, error) {
	start := r.pos
	for i := 0; i < cap; i++ {
		b, err := r.need(1)
		if err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(r.b[start : r.pos-1]), nil
		}
	}
	return "", &wireError{op: "read-cstring", offset: start, err: fmt.Errorf("no NUL within %d bytes", cap)}
}

// ReadTString reads a ROOT "TString": a single length byte, or 0xFF
// followed by a 4-byte big-endian length, then that many bytes of string
// data.
func (r *Buffer) ReadTString() (string, error) {
	n, err := r.ReadU8()
	if err != nil {
		return "", err
	}
	length := int(n)
	if n == 0xFF {
		wide, err := r.ReadU32()
		if err != nil {
			return "", err
		}
		length = int(wide)
	}
	return r.ReadString(length)
}

type wireError struct {
	op     string
	offset int64
	err    error
}

func (e *wireError) Error() string {
	return fmt.Sprintf("wire: %s at offset %d: %v", e.op, e.offset, e.err)
}

func (e *wireError) Unwrap() error { return e.err }

// Offset reports the byte position a wireError occurred at, for callers
// that want to attach it to a higher-level [rootio.Error].
func Offset(err error) (int64, bool) {
	if we, ok := err.(*wireError); ok {
		return we.offset, true
	}
	return 0, false
}
