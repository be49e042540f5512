package stream

import (
	"fmt"

	"github.com/kylelau519/rootio/internal/wire"
)

// ValueKind tags the variant held by a [Value]. The streamer catalog's
// shapes are fixed (spec'd exactly), but a full object stream can hold
// classes this decoder has no special-cased shape for; Value is the
// generic tree those decode into, per the catalog's "skip by byte count"
// discipline.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindUint32
	KindUint16
	KindBytes
	KindObject
)

// Value is one node of the generic decoded-object tree: either a
// primitive, or an Object carrying its class name and whatever fields or
// items this decoder extracted from it.
type Value struct {
	Kind   ValueKind
	Str    string
	U32    uint32
	U16    uint16
	Bytes  []byte
	Object *Object
}

// Object is a decoded instance of some ROOT class. Fields holds named
// members for classes with a known shape (TNamed, TStreamerInfo, ...);
// Items holds the element sequence for aggregate classes (TList,
// TObjArray); Raw holds the untouched payload for any class this decoder
// doesn't special-case, recovered purely from the envelope's byte count.
type Object struct {
	Class  string
	Fields map[string]Value
	Items  []Value
	Raw    []byte
}

// DecodeAny reads one full enveloped object at the buffer's current
// position: its class-tag envelope, then a class-specific body decode if
// this decoder recognizes the class, else an opaque byte-count-bounded
// skip. It is the entry point both the streamer catalog and any caller
// wanting the untyped tree use.
func DecodeAny(b *wire.Buffer, table *ClassTable) (Value, error) {
	env, err := ReadEnvelope(b, table)
	if err != nil {
		return Value{}, err
	}
	if env.Null {
		return Value{Kind: KindNull}, nil
	}

	obj, err := decodeBody(b, table, env)
	if err != nil {
		return Value{}, fmt.Errorf("stream: decoding %s: %w", env.ClassName, err)
	}

	// Whatever the class-specific decoder consumed, the byte count in the
	// envelope is authoritative: reseek to it rather than trust how far
	// the body decode actually advanced the cursor.
	if env.HasByteCount {
		if err := SkipTo(b, env.EndOffset()); err != nil {
			return Value{}, fmt.Errorf("stream: skipping to end of %s: %w", env.ClassName, err)
		}
	}

	return Value{Kind: KindObject, Object: obj}, nil
}

// decodeBody dispatches to a class-specific shape decoder, falling back
// to an opaque capture of the envelope's declared byte range for any
// class this decoder has no shape for. An unknown class with no byte
// count can't be skipped safely and is reported as a parse error.
func decodeBody(b *wire.Buffer, table *ClassTable, env Envelope) (*Object, error) {
	switch env.ClassName {
	case "TNamed":
		return decodeNamed(b)
	case "TList", "TObjArray":
		return decodeList(b, table, env.ClassName)
	case "TStreamerInfo":
		return decodeStreamerInfo(b, table)
	case classTStreamerBase, classTStreamerBasicType, classTStreamerString,
		classTStreamerObject, classTStreamerObjectAny, classTStreamerBasicPointer,
		classTStreamerLoop, classTStreamerSTL:
		return decodeStreamerElement(b, env.ClassName)
	default:
		if !env.HasByteCount {
			return nil, fmt.Errorf("stream: class %q has no known shape and no byte count to skip by", env.ClassName)
		}
		n := env.EndOffset() - b.Pos()
		if n < 0 {
			return nil, fmt.Errorf("stream: class %q: envelope end before body start", env.ClassName)
		}
		raw, err := b.ReadBytes(int(n))
		if err != nil {
			return nil, fmt.Errorf("stream: class %q: %w", env.ClassName, err)
		}
		return &Object{Class: env.ClassName, Raw: raw}, nil
	}
}
