package stream

import (
	"fmt"

	"github.com/kylelau519/rootio/internal/wire"
)

// objectHeader is TObject's own body: a version word (always present, if
// rarely more than 1 in practice) followed by the unique ID and bit
// field every ROOT object carries.
type objectHeader struct {
	UniqueID uint32
	Bits     uint32
}

func decodeObjectHeader(b *wire.Buffer) (objectHeader, error) {
	if _, _, _, err := ReadVersion(b); err != nil {
		return objectHeader{}, fmt.Errorf("TObject version: %w", err)
	}
	uid, err := b.ReadU32()
	if err != nil {
		return objectHeader{}, fmt.Errorf("TObject uniqueid: %w", err)
	}
	bits, err := b.ReadU32()
	if err != nil {
		return objectHeader{}, fmt.Errorf("TObject bits: %w", err)
	}
	return objectHeader{UniqueID: uid, Bits: bits}, nil
}

func decodeNamedFields(b *wire.Buffer) (hdr objectHeader, name, title string, err error) {
	hdr, err = decodeObjectHeader(b)
	if err != nil {
		return
	}
	name, err = b.ReadTString()
	if err != nil {
		err = fmt.Errorf("TNamed name: %w", err)
		return
	}
	title, err = b.ReadTString()
	if err != nil {
		err = fmt.Errorf("TNamed title: %w", err)
		return
	}
	return
}

func namedObject(class string, hdr objectHeader, name, title string) *Object {
	return &Object{Class: class, Fields: map[string]Value{
		"UniqueID": {Kind: KindUint32, U32: hdr.UniqueID},
		"Bits":     {Kind: KindUint32, U32: hdr.Bits},
		"Name":     {Kind: KindString, Str: name},
		"Title":    {Kind: KindString, Str: title},
	}}
}

// decodeNamed decodes a TNamed reached through the generic class-tag
// dispatch, where the enclosing envelope already consumed the byte count:
// the body starts directly at TNamed's own version word.
func decodeNamed(b *wire.Buffer) (*Object, error) {
	if _, _, _, err := ReadVersion(b); err != nil {
		return nil, fmt.Errorf("TNamed version: %w", err)
	}
	hdr, name, title, err := decodeNamedFields(b)
	if err != nil {
		return nil, err
	}
	return namedObject("TNamed", hdr, name, title), nil
}

// decodeNamedAsBase decodes a TNamed reached as an embedded base-class
// member (as TStreamerInfo embeds TNamed), which ROOT wraps in its own
// byte-count-and-version header the same way it wraps any streamed
// member, even though no class name needs resolving.
func decodeNamedAsBase(b *wire.Buffer) (*Object, error) {
	word, err := b.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("TNamed base header: %w", err)
	}
	if word&KHasByteCount == 0 {
		return nil, fmt.Errorf("TNamed base: expected a byte-count header, got bare word %#x", word)
	}
	if _, _, _, err := ReadVersion(b); err != nil {
		return nil, fmt.Errorf("TNamed base version: %w", err)
	}
	hdr, name, title, err := decodeNamedFields(b)
	if err != nil {
		return nil, err
	}
	return namedObject("TNamed", hdr, name, title), nil
}

// decodeList decodes the body of a TList or TObjArray: both carry a
// TNamed-less TObject header, a name, an object count, and (TObjArray
// only) a lower bound, followed by that many nested enveloped objects.
// TList additionally writes a short option string after each entry; this
// decoder reads and discards it.
func decodeList(b *wire.Buffer, table *ClassTable, class string) (*Object, error) {
	if _, _, _, err := ReadVersion(b); err != nil {
		return nil, fmt.Errorf("%s version: %w", class, err)
	}
	hdr, err := decodeObjectHeader(b)
	if err != nil {
		return nil, err
	}
	name, err := b.ReadTString()
	if err != nil {
		return nil, fmt.Errorf("%s name: %w", class, err)
	}
	n, err := b.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("%s count: %w", class, err)
	}

	fields := map[string]Value{
		"UniqueID":   {Kind: KindUint32, U32: hdr.UniqueID},
		"Bits":       {Kind: KindUint32, U32: hdr.Bits},
		"Name":       {Kind: KindString, Str: name},
		"NumObjects": {Kind: KindUint32, U32: n},
	}
	if class == "TObjArray" {
		lowerBound, err := b.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("TObjArray lower bound: %w", err)
		}
		fields["LowerBound"] = Value{Kind: KindUint32, U32: lowerBound}
	}

	items := make([]Value, 0, n)
	for i := uint32(0); i < n; i++ {
		v, err := DecodeAny(b, table)
		if err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", class, i, err)
		}
		items = append(items, v)
		if class == "TList" {
			if _, err := b.ReadTString(); err != nil {
				return nil, fmt.Errorf("%s entry %d option string: %w", class, i, err)
			}
		}
	}

	return &Object{Class: class, Fields: fields, Items: items}, nil
}

// decodeStreamerInfo decodes a TStreamerInfo: an embedded TNamed base,
// a checksum, a class-format version, and a nested TObjArray of the
// class's streamer elements.
func decodeStreamerInfo(b *wire.Buffer, table *ClassTable) (*Object, error) {
	named, err := decodeNamedAsBase(b)
	if err != nil {
		return nil, fmt.Errorf("TStreamerInfo base: %w", err)
	}
	checksum, err := b.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("TStreamerInfo checksum: %w", err)
	}
	classVersion, err := b.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("TStreamerInfo class_version: %w", err)
	}
	elems, err := DecodeAny(b, table)
	if err != nil {
		return nil, fmt.Errorf("TStreamerInfo elements: %w", err)
	}

	named.Class = "TStreamerInfo"
	named.Fields["Checksum"] = Value{Kind: KindUint32, U32: checksum}
	named.Fields["ClassVersion"] = Value{Kind: KindUint32, U32: classVersion}
	if elems.Kind == KindObject && elems.Object != nil {
		named.Items = elems.Object.Items
	}
	return named, nil
}
