package stream

import (
	"fmt"

	"github.com/kylelau519/rootio/internal/wire"
)

// Element is one decoded streamer-element description: a single data
// member of some class as recorded in the streamer catalog.
type Element struct {
	Kind        string // the element's ROOT class, e.g. "TStreamerBasicType"
	Name        string
	Title       string
	TypeName    string
	Type        int32
	Size        int32
	ArrayLength int32
	ArrayDim    int32
	CountName   string
	CountClass  string
	STLType     int32
	CType       int32
}

// StreamerInfo is one decoded class description from the catalog: a
// class name, its on-disk version and checksum, and the ordered list of
// members that make up its serialized form.
type StreamerInfo struct {
	Name         string
	Title        string
	ClassVersion uint32
	Checksum     uint32
	Elements     []Element
}

// Catalog is the fully decoded streamer-info table for one ROOT file: the
// set of class shapes the file's writer recorded so that a reader from a
// different ROOT version can still make sense of the data.
type Catalog struct {
	Streamers []StreamerInfo
}

// DecodeCatalog decodes the (already decompressed) payload of a ROOT
// file's StreamerInfo key: a TList (occasionally a TObjArray) of
// TStreamerInfo entries.
func DecodeCatalog(payload []byte) (*Catalog, error) {
	b := wire.NewBuffer(payload)
	table := NewClassTable()

	root, err := DecodeAny(b, table)
	if err != nil {
		return nil, fmt.Errorf("stream: catalog: %w", err)
	}
	if root.Kind != KindObject || root.Object == nil {
		return nil, fmt.Errorf("stream: catalog: payload decoded to a non-object value")
	}
	if root.Object.Class != "TList" && root.Object.Class != "TObjArray" {
		return nil, fmt.Errorf("stream: catalog: unexpected top-level class %q", root.Object.Class)
	}

	cat := &Catalog{}
	for i, item := range root.Object.Items {
		if item.Kind != KindObject || item.Object == nil {
			continue
		}
		if item.Object.Class != "TStreamerInfo" {
			// The catalog list can carry other bookkeeping entries in
			// some ROOT versions; only TStreamerInfo entries describe a
			// class shape.
			continue
		}
		si, err := convertStreamerInfo(item.Object)
		if err != nil {
			return nil, fmt.Errorf("stream: catalog: entry %d: %w", i, err)
		}
		cat.Streamers = append(cat.Streamers, si)
	}
	return cat, nil
}

func convertStreamerInfo(o *Object) (StreamerInfo, error) {
	si := StreamerInfo{
		Name:         o.Fields["Name"].Str,
		Title:        o.Fields["Title"].Str,
		ClassVersion: o.Fields["ClassVersion"].U32,
		Checksum:     o.Fields["Checksum"].U32,
	}
	for _, it := range o.Items {
		if it.Kind != KindObject || it.Object == nil {
			continue
		}
		si.Elements = append(si.Elements, convertElement(it.Object))
	}
	return si, nil
}

func convertElement(o *Object) Element {
	el := Element{
		Kind:     o.Class,
		Name:     o.Fields["Name"].Str,
		Title:    o.Fields["Title"].Str,
		TypeName: o.Fields["TypeName"].Str,
	}
	if v, ok := o.Fields["Type"]; ok {
		el.Type = int32(v.U32)
	}
	if v, ok := o.Fields["Size"]; ok {
		el.Size = int32(v.U32)
	}
	if v, ok := o.Fields["ArrayLength"]; ok {
		el.ArrayLength = int32(v.U32)
	}
	if v, ok := o.Fields["ArrayDim"]; ok {
		el.ArrayDim = int32(v.U32)
	}
	if v, ok := o.Fields["CountName"]; ok {
		el.CountName = v.Str
	}
	if v, ok := o.Fields["CountClass"]; ok {
		el.CountClass = v.Str
	}
	if v, ok := o.Fields["STLType"]; ok {
		el.STLType = int32(v.U32)
	}
	if v, ok := o.Fields["CType"]; ok {
		el.CType = int32(v.U32)
	}
	return el
}
