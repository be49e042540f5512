// Package tkey decodes a TFile's on-disk header and the TKey envelopes
// that precede every object stored in it.
package tkey

import (
	"fmt"
	"io"

	"github.com/kylelau519/rootio/internal/wire"
)

// magic is the 4-byte tag every ROOT file starts with.
const magic = "root"

// wideVersionThreshold is the version at and above which a TFile widens
// its pointer fields from 32 to 64 bits, to address files too large for a
// 32-bit seek offset.
const wideVersionThreshold = 1_000_000

// FileHeader is the fixed-layout preamble at the start of every ROOT
// file: the root directory's bookkeeping, the free-space list location,
// the compression descriptor, and the byte offset of the streamer-info
// catalog key.
type FileHeader struct {
	Version      int32
	Begin        int64
	End          int64
	SeekFree     int64
	NBytesFree   int32
	NFree        int32
	NBytesName   int32
	Units        uint8
	Compress     int32
	SeekInfo     int64
	NBytesInfo   int32
	UUID         [16]byte
}

// Wide reports whether this header uses the 64-bit pointer-width fields.
func (h *FileHeader) Wide() bool { return h.Version >= wideVersionThreshold }

// ReadFileHeader parses a FileHeader from the start of r.
func ReadFileHeader(r io.ReaderAt) (*FileHeader, error) {
	// The header is at most 4 (magic) + 4 (version) + 8*4 (widest pointer
	// fields) + 4*4 (narrow ints) + 1 (units) + 4 (compress) + 16 (uuid),
	// comfortably under 128 bytes either way.
	buf := make([]byte, 128)
	n, err := r.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil, &headerError{op: "read", offset: 0, err: err}
	}
	b := wire.NewBuffer(buf[:n])
	return parseFileHeader(b)
}

func parseFileHeader(b *wire.Buffer) (*FileHeader, error) {
	tag, err := b.ReadString(4)
	if err != nil {
		return nil, &headerError{op: "magic", offset: b.Pos(), err: err}
	}
	if tag != magic {
		return nil, &headerError{op: "magic", offset: 0, err: fmt.Errorf("not a ROOT file: got magic %q", tag)}
	}

	h := new(FileHeader)
	version, err := b.ReadI32()
	if err != nil {
		return nil, wrapAt(b, "version", err)
	}
	h.Version = version

	wide := h.Wide()
	readPtr := func(field string) (int64, error) {
		if wide {
			v, err := b.ReadU64()
			return int64(v), err
		}
		v, err := b.ReadU32()
		return int64(v), err
	}

	// fBEGIN is always a plain 4-byte word, even in a wide-pointer file;
	// only end/seek_free/seek_info widen with the version.
	if v, err := b.ReadU32(); err != nil {
		return nil, wrapAt(b, "begin", err)
	} else {
		h.Begin = int64(v)
	}
	if h.End, err = readPtr("end"); err != nil {
		return nil, wrapAt(b, "end", err)
	}
	if h.SeekFree, err = readPtr("seek_free"); err != nil {
		return nil, wrapAt(b, "seek_free", err)
	}
	if v, err := b.ReadI32(); err != nil {
		return nil, wrapAt(b, "nbytes_free", err)
	} else {
		h.NBytesFree = v
	}
	if v, err := b.ReadI32(); err != nil {
		return nil, wrapAt(b, "nfree", err)
	} else {
		h.NFree = v
	}
	if v, err := b.ReadI32(); err != nil {
		return nil, wrapAt(b, "nbytes_name", err)
	} else {
		h.NBytesName = v
	}
	if h.Units, err = b.ReadU8(); err != nil {
		return nil, wrapAt(b, "units", err)
	}
	if wantWide := h.Units == 8; wantWide != wide {
		return nil, wrapAt(b, "units", fmt.Errorf("units=%d inconsistent with version %d (wide=%v)", h.Units, h.Version, wide))
	}
	if h.Compress, err = b.ReadI32(); err != nil {
		return nil, wrapAt(b, "compress", err)
	}
	if h.SeekInfo, err = readPtr("seek_info"); err != nil {
		return nil, wrapAt(b, "seek_info", err)
	}
	if v, err := b.ReadI32(); err != nil {
		return nil, wrapAt(b, "nbytes_info", err)
	} else {
		h.NBytesInfo = v
	}
	uuid, err := b.ReadBytes(16)
	if err != nil {
		return nil, wrapAt(b, "uuid", err)
	}
	copy(h.UUID[:], uuid)

	return h, nil
}

func wrapAt(b *wire.Buffer, field string, err error) error {
	off := b.Pos()
	if o, ok := wire.Offset(err); ok {
		off = o
	}
	return &headerError{op: field, offset: off, err: err}
}

type headerError struct {
	op     string
	offset int64
	err    error
}

func (e *headerError) Error() string {
	return fmt.Sprintf("tkey: file header %s at offset %d: %v", e.op, e.offset, e.err)
}

func (e *headerError) Unwrap() error { return e.err }

// Offset reports the byte position at which a headerError occurred.
func (e *headerError) Offset() int64 { return e.offset }
