package stream

import (
	"fmt"

	"github.com/kylelau519/rootio/internal/wire"
)

// The closed family of streamer element classes a TStreamerInfo's
// element array can hold. ROOT has more subclasses than this, but these
// are the ones that appear in practice for the basic-type and object
// member shapes this decoder cares about; anything else falls through to
// the opaque byte-count skip in decodeBody.
const (
	classTStreamerBase          = "TStreamerBase"
	classTStreamerBasicType     = "TStreamerBasicType"
	classTStreamerString        = "TStreamerString"
	classTStreamerObject        = "TStreamerObject"
	classTStreamerObjectAny     = "TStreamerObjectAny"
	classTStreamerBasicPointer  = "TStreamerBasicPointer"
	classTStreamerLoop          = "TStreamerLoop"
	classTStreamerSTL           = "TStreamerSTL"
)

// decodeStreamerElementBase decodes the TStreamerElement fields common to
// every element subclass: an embedded TNamed base, then the type/size/
// array-shape fields, then the type name string. TStreamerElement is
// itself read as an embedded base-class member, the same convention
// TStreamerInfo's embedded TNamed uses.
func decodeStreamerElementBase(b *wire.Buffer) (*Object, error) {
	word, err := b.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("TStreamerElement base header: %w", err)
	}
	if word&KHasByteCount == 0 {
		return nil, fmt.Errorf("TStreamerElement base: expected a byte-count header, got bare word %#x", word)
	}
	if _, _, _, err := ReadVersion(b); err != nil {
		return nil, fmt.Errorf("TStreamerElement base version: %w", err)
	}

	named, err := decodeNamedAsBase(b)
	if err != nil {
		return nil, fmt.Errorf("TStreamerElement named base: %w", err)
	}

	fType, err := b.ReadI32()
	if err != nil {
		return nil, fmt.Errorf("TStreamerElement type: %w", err)
	}
	fSize, err := b.ReadI32()
	if err != nil {
		return nil, fmt.Errorf("TStreamerElement size: %w", err)
	}
	fArrayLength, err := b.ReadI32()
	if err != nil {
		return nil, fmt.Errorf("TStreamerElement array_length: %w", err)
	}
	fArrayDim, err := b.ReadI32()
	if err != nil {
		return nil, fmt.Errorf("TStreamerElement array_dim: %w", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := b.ReadI32(); err != nil {
			return nil, fmt.Errorf("TStreamerElement max_index[%d]: %w", i, err)
		}
	}
	typeName, err := b.ReadTString()
	if err != nil {
		return nil, fmt.Errorf("TStreamerElement type_name: %w", err)
	}

	named.Fields["Type"] = Value{Kind: KindUint32, U32: uint32(fType)}
	named.Fields["Size"] = Value{Kind: KindUint32, U32: uint32(fSize)}
	named.Fields["ArrayLength"] = Value{Kind: KindUint32, U32: uint32(fArrayLength)}
	named.Fields["ArrayDim"] = Value{Kind: KindUint32, U32: uint32(fArrayDim)}
	named.Fields["TypeName"] = Value{Kind: KindString, Str: typeName}
	return named, nil
}

// decodeStreamerElement decodes one of the streamer element subclasses,
// reading the shared TStreamerElement shape and then whatever additional
// fields class adds.
func decodeStreamerElement(b *wire.Buffer, class string) (*Object, error) {
	base, err := decodeStreamerElementBase(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", class, err)
	}
	base.Class = class

	switch class {
	case classTStreamerBasicPointer, classTStreamerLoop:
		countVersion, err := b.ReadI32()
		if err != nil {
			return nil, fmt.Errorf("%s count_version: %w", class, err)
		}
		countName, err := b.ReadTString()
		if err != nil {
			return nil, fmt.Errorf("%s count_name: %w", class, err)
		}
		countClass, err := b.ReadTString()
		if err != nil {
			return nil, fmt.Errorf("%s count_class: %w", class, err)
		}
		base.Fields["CountVersion"] = Value{Kind: KindUint32, U32: uint32(countVersion)}
		base.Fields["CountName"] = Value{Kind: KindString, Str: countName}
		base.Fields["CountClass"] = Value{Kind: KindString, Str: countClass}
	case classTStreamerSTL:
		stlType, err := b.ReadI32()
		if err != nil {
			return nil, fmt.Errorf("%s stl_type: %w", class, err)
		}
		ctype, err := b.ReadI32()
		if err != nil {
			return nil, fmt.Errorf("%s ctype: %w", class, err)
		}
		base.Fields["STLType"] = Value{Kind: KindUint32, U32: uint32(stlType)}
		base.Fields["CType"] = Value{Kind: KindUint32, U32: uint32(ctype)}
	case classTStreamerBase, classTStreamerBasicType, classTStreamerString,
		classTStreamerObject, classTStreamerObjectAny:
		// No fields beyond the shared TStreamerElement shape.
	}

	return base, nil
}
