package rootio

import "github.com/kylelau519/rootio/internal/stream"

// ObjectInfo is one entry in a file's object listing: its name, its class,
// and, for an entry that stands for a key, the key's cycle. It holds no
// file offset.
type ObjectInfo struct {
	Name  string
	Class string
	Cycle int16
}

// StreamerInfo describes one class's on-disk serialization shape, as
// recorded in the file's streamer-info catalog.
type StreamerInfo struct {
	Name         string
	Title        string
	ClassVersion uint32
	Checksum     uint32
	Elements     []Element
}

// Element is one data member of a StreamerInfo's class shape.
type Element struct {
	Kind        string
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

func newStreamerInfo(si stream.StreamerInfo) StreamerInfo {
	out := StreamerInfo{
		Name:         si.Name,
		Title:        si.Title,
		ClassVersion: si.ClassVersion,
		Checksum:     si.Checksum,
	}
	for _, e := range si.Elements {
		out.Elements = append(out.Elements, Element{
			Kind:        e.Kind,
			Name:        e.Name,
			Title:       e.Title,
			TypeName:    e.TypeName,
			Type:        e.Type,
			Size:        e.Size,
			ArrayLength: e.ArrayLength,
			ArrayDim:    e.ArrayDim,
			CountName:   e.CountName,
			CountClass:  e.CountClass,
			STLType:     e.STLType,
			CType:       e.CType,
		})
	}
	return out
}
