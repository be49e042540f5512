package tkey

import (
	"fmt"
	"io"

	"github.com/kylelau519/rootio/internal/wire"
)

// Key is a TKey envelope: the bookkeeping record that precedes every
// object's (possibly compressed) payload bytes in a ROOT file.
type Key struct {
	NBytes     int32  // total size of this key, header + payload, in bytes
	Version    int16
	ObjLen     int32 // uncompressed payload size
	DateTime   uint32
	KeyLen     int16 // size of this key's header, in bytes
	Cycle      int16
	SeekKey    int64
	SeekPdir   int64
	ClassName  string
	Name       string
	Title      string

	// payloadOffset is the absolute file offset of the first payload
	// byte, set once the header fields above have all been read.
	payloadOffset int64
}

// PayloadOffset reports the absolute file offset of this key's first
// payload byte.
func (k *Key) PayloadOffset() int64 { return k.payloadOffset }

// ReadKeyAt parses the TKey envelope starting at absolute offset pos.
// units is the file header's pointer-width byte (4 or 8): per spec.md
// §4.4, a key's own seek fields mirror the file header's pointer width
// rather than switching on anything in the key itself.
func ReadKeyAt(r io.ReaderAt, pos int64, units uint8) (*Key, error) {
	// A TKey header is never larger than roughly 18 + 2*8 + a handful of
	// short Pascal strings; 512 bytes is generous headroom for the
	// class/name/title strings without reading the whole payload.
	buf := make([]byte, 512)
	n, err := r.ReadAt(buf, pos)
	if err != nil && err != io.EOF {
		return nil, &keyError{op: "read", offset: pos, err: err}
	}
	b := wire.NewBuffer(buf[:n])
	k, err := parseKey(b, units)
	if err != nil {
		return nil, offsetKeyError(err, pos)
	}
	k.payloadOffset = pos + int64(k.KeyLen)
	return k, nil
}

func parseKey(b *wire.Buffer, units uint8) (*Key, error) {
	k := new(Key)
	var err error

	if v, err2 := b.ReadU32(); err2 != nil {
		return nil, wrapKey(b, "nbytes", err2)
	} else {
		k.NBytes = int32(v)
	}
	if v, err2 := b.ReadU16(); err2 != nil {
		return nil, wrapKey(b, "version", err2)
	} else {
		k.Version = int16(v)
	}
	if v, err2 := b.ReadU32(); err2 != nil {
		return nil, wrapKey(b, "obj_len", err2)
	} else {
		k.ObjLen = int32(v)
	}
	if k.DateTime, err = b.ReadU32(); err != nil {
		return nil, wrapKey(b, "datetime", err)
	}
	if v, err2 := b.ReadU16(); err2 != nil {
		return nil, wrapKey(b, "key_len", err2)
	} else {
		k.KeyLen = int16(v)
	}
	if v, err2 := b.ReadU16(); err2 != nil {
		return nil, wrapKey(b, "cycle", err2)
	} else {
		k.Cycle = int16(v)
	}

	wide := units == 8
	readPtr := func() (int64, error) {
		if wide {
			v, err := b.ReadU64()
			return int64(v), err
		}
		v, err := b.ReadU32()
		return int64(v), err
	}
	if k.SeekKey, err = readPtr(); err != nil {
		return nil, wrapKey(b, "seek_key", err)
	}
	if k.SeekPdir, err = readPtr(); err != nil {
		return nil, wrapKey(b, "seek_pdir", err)
	}

	// The class name, object name, and title are each a single-byte-length
	// Pascal string (ROOT never uses the wide TString form inside a TKey
	// header, only inside object payloads), not NUL-terminated.
	if k.ClassName, err = readPascalString(b); err != nil {
		return nil, wrapKey(b, "class_name", err)
	}
	if k.Name, err = readPascalString(b); err != nil {
		return nil, wrapKey(b, "name", err)
	}
	if k.Title, err = readPascalString(b); err != nil {
		return nil, wrapKey(b, "title", err)
	}

	if k.KeyLen <= 0 {
		return nil, wrapKey(b, "key_len", fmt.Errorf("non-positive key length %d", k.KeyLen))
	}
	if int64(k.NBytes) < int64(k.KeyLen) {
		return nil, wrapKey(b, "nbytes", fmt.Errorf("total size %d shorter than key header %d", k.NBytes, k.KeyLen))
	}

	return k, nil
}

// readPascalString reads a single-byte-length string, the form TKey uses
// for its class/name/title fields (as opposed to the wider TString form
// used inside object payloads proper).
func readPascalString(b *wire.Buffer) (string, error) {
	n, err := b.ReadU8()
	if err != nil {
		return "", err
	}
	return b.ReadString(int(n))
}

// CompressedPayloadLen reports the size, in bytes, of this key's payload
// as stored on disk (which may be smaller than ObjLen if compressed).
func (k *Key) CompressedPayloadLen() int32 {
	return k.NBytes - int32(k.KeyLen)
}

func wrapKey(b *wire.Buffer, field string, err error) error {
	return &keyError{op: field, offset: b.Pos(), err: err}
}

func offsetKeyError(err error, base int64) error {
	ke, ok := err.(*keyError)
	if !ok {
		return err
	}
	ke.offset += base
	return ke
}

type keyError struct {
	op     string
	offset int64
	err    error
}

func (e *keyError) Error() string {
	return fmt.Sprintf("tkey: key %s at offset %d: %v", e.op, e.offset, e.err)
}

func (e *keyError) Unwrap() error { return e.err }

// Offset reports the byte position at which a keyError occurred.
func (e *keyError) Offset() int64 { return e.offset }
