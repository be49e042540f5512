// Package stream decodes ROOT's object-serialization stream: the
// self-describing, back-reference-capable binary format every TObject
// subclass is written in, and the TStreamerInfo catalog built on top of
// it.
package stream

import (
	"fmt"

	"github.com/kylelau519/rootio/internal/wire"
)

// Bit-mask and sentinel constants from ROOT's own TBufferFile
// implementation. These are the wire protocol, not configuration, so they
// are declared as constants rather than package state.
const (
	// KHasByteCount marks the high bit of a 32-bit word as "this is a
	// byte-count envelope, not a bare class tag".
	KHasByteCount uint32 = 0x4000_0000
	// KByteCountMask isolates the count once the high bit above is known
	// to be set.
	KByteCountMask uint32 = 0x3FFF_FFFF
	// KNewClassBit marks a class tag as a reference to a previously seen
	// class, with the remaining bits giving the position in the class
	// table.
	KNewClassBit uint32 = 0x8000_0000
	// KNewClassTag is the sentinel meaning "the class name follows as a
	// NUL-terminated string; register it in the class table".
	KNewClassTag uint32 = 0xFFFF_FFFF
	// KNullTag marks an envelope carrying no object at all.
	KNullTag uint32 = 0x0000_0000
	// KMapOffset accounts for ROOT's class-reference map reserving its
	// first two slots; a registered class's table key is its anchor
	// position minus this offset, and a back-reference's payload is that
	// same adjusted key.
	KMapOffset = 2

	// versionByteCountSentinel marks a version word as member-wise
	// streaming: a 4-byte member-wise size and the real 2-byte version
	// follow.
	versionByteCountSentinel = 0xFFFF

	// maxClassNameLen bounds the NUL-terminated class name that follows a
	// new-class tag, terminator included.
	maxClassNameLen = 80
)

// Envelope is the result of reading one object's class tag and, if
// present, its enclosing byte-count.
type Envelope struct {
	// HasByteCount reports whether a byte-count word preceded the tag.
	HasByteCount bool
	// ByteCount is the number of bytes following the byte-count word that
	// belong to this object, valid only if HasByteCount is true.
	ByteCount uint32
	// ClassName is the resolved class name for this envelope, or "" if
	// the envelope was a null tag.
	ClassName string
	// Null reports whether this envelope carried [KNullTag].
	Null bool
	// BodyStart is the absolute buffer offset of the first body byte.
	BodyStart int64
	// byteCountWordPos is the absolute offset of the byte-count word
	// itself, the anchor [EndOffset] computes from.
	byteCountWordPos int64
}

// EndOffset reports the absolute offset one past this envelope's body,
// computed from the byte-count word per ROOT's skip discipline: always by
// absolute position, never by summing up how many bytes a partial decode
// consumed. Valid only if HasByteCount is true.
func (e Envelope) EndOffset() int64 {
	return e.byteCountWordPos + 4 + int64(e.ByteCount)
}

// ClassTable tracks the class names seen so far in one object stream,
// keyed by the position-derived key ROOT uses for back-references.
type ClassTable struct {
	byKey map[int64]string
}

// NewClassTable returns an empty class table.
func NewClassTable() *ClassTable {
	return &ClassTable{byKey: make(map[int64]string)}
}

func (t *ClassTable) register(key int64, name string) {
	t.byKey[key] = name
}

func (t *ClassTable) lookup(key int64) (string, bool) {
	name, ok := t.byKey[key]
	return name, ok
}

// ReadEnvelope reads one class-tag envelope at the buffer's current
// position, using table to resolve and record back-references.
func ReadEnvelope(b *wire.Buffer, table *ClassTable) (Envelope, error) {
	anchor := b.Pos()
	word, err := b.ReadU32()
	if err != nil {
		return Envelope{}, fmt.Errorf("stream: envelope: reading first word: %w", err)
	}

	var env Envelope
	tag := word
	if word&KHasByteCount != 0 {
		env.HasByteCount = true
		env.ByteCount = word & KByteCountMask
		env.byteCountWordPos = anchor
		tag, err = b.ReadU32()
		if err != nil {
			return Envelope{}, fmt.Errorf("stream: envelope: reading class tag: %w", err)
		}
	}

	switch {
	case tag == KNullTag:
		env.Null = true
	case tag == KNewClassTag:
		name, err := b.ReadCString(maxClassNameLen)
		if err != nil {
			return Envelope{}, fmt.Errorf("stream: envelope: reading class name: %w", err)
		}
		// Keep the key to the 30 bits a back-reference tag can carry, so a
		// class registered at anchor 0 or 1 can still be referenced.
		table.register(int64(uint32(anchor-KMapOffset)&KByteCountMask), name)
		env.ClassName = name
	case tag&KNewClassBit != 0:
		key := int64(tag & KByteCountMask)
		name, ok := table.lookup(key)
		if !ok {
			return Envelope{}, fmt.Errorf("stream: envelope: unresolved class back-reference %d", key)
		}
		env.ClassName = name
	default:
		// Bit clear and not the null tag: a direct back-reference to an
		// already-registered class, using the tag itself as the table
		// key. ROOT's built-in streamers can also emit this form for
		// short, predeclared classes; this decoder treats both the same
		// way since both resolve through the same table.
		key := int64(tag)
		name, ok := table.lookup(key)
		if !ok {
			return Envelope{}, fmt.Errorf("stream: envelope: unresolved short class reference %d", key)
		}
		env.ClassName = name
	}

	env.BodyStart = b.Pos()
	return env, nil
}

// ReadVersion reads a streamer version word, following the sentinel
// convention: 0xFFFF marks member-wise streaming and is followed by a
// 4-byte member-wise size and the real 2-byte version.
func ReadVersion(b *wire.Buffer) (version uint16, memberWiseSize uint32, wide bool, err error) {
	v, err := b.ReadU16()
	if err != nil {
		return 0, 0, false, fmt.Errorf("stream: version: %w", err)
	}
	if v != versionByteCountSentinel {
		return v, 0, false, nil
	}
	size, err := b.ReadU32()
	if err != nil {
		return 0, 0, false, fmt.Errorf("stream: version: member-wise size: %w", err)
	}
	real, err := b.ReadU16()
	if err != nil {
		return 0, 0, false, fmt.Errorf("stream: version: real version: %w", err)
	}
	return real, size, true, nil
}

// SkipTo seeks the buffer to an envelope's end offset, implementing
// ROOT's one inviolable rule for this format: an object whose internals
// this decoder doesn't understand is skipped by the byte count the
// envelope declared, never by however many bytes a partial decode
// consumed.
func SkipTo(b *wire.Buffer, end int64) error {
	return b.Seek(end)
}
