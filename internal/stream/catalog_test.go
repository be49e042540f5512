package stream

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// The helpers below build a synthetic ROOT object stream byte-for-byte in
// the shapes this package decodes, independent of the decoder's own
// helper functions, so the test actually exercises the wire format rather
// than round-tripping through shared code.

func encodeTObjectHeader(version uint16, uid, bits uint32) []byte {
	var b bytes.Buffer
	writeU16(&b, version)
	writeU32(&b, uid)
	writeU32(&b, bits)
	return b.Bytes()
}

func encodeNamedAsBase(version uint16, uid, bits uint32, name, title string) []byte {
	var body bytes.Buffer
	writeU16(&body, version)
	body.Write(encodeTObjectHeader(1, uid, bits))
	writeTString(&body, name)
	writeTString(&body, title)

	var out bytes.Buffer
	writeU32(&out, KHasByteCount|uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func encodeStreamerElementBody(name, title, typeName string, ftype, fsize, arrLen, arrDim int32) []byte {
	var inner bytes.Buffer
	writeU16(&inner, 1)
	inner.Write(encodeNamedAsBase(1, 0, 0, name, title))
	writeU32(&inner, uint32(ftype))
	writeU32(&inner, uint32(fsize))
	writeU32(&inner, uint32(arrLen))
	writeU32(&inner, uint32(arrDim))
	for i := 0; i < 5; i++ {
		writeU32(&inner, 0)
	}
	writeTString(&inner, typeName)

	var out bytes.Buffer
	writeU32(&out, KHasByteCount|uint32(inner.Len()))
	out.Write(inner.Bytes())
	return out.Bytes()
}

func wrapClassTag(className string, body []byte) []byte {
	var out bytes.Buffer
	byteCount := uint32(4 + len(className) + 1 + len(body))
	writeU32(&out, KHasByteCount|byteCount)
	writeU32(&out, KNewClassTag)
	out.WriteString(className)
	out.WriteByte(0)
	out.Write(body)
	return out.Bytes()
}

func encodeTObjArrayBody(name string, lowerBound uint32, items [][]byte) []byte {
	var b bytes.Buffer
	writeU16(&b, 1)
	b.Write(encodeTObjectHeader(1, 0, 0))
	writeTString(&b, name)
	writeU32(&b, uint32(len(items)))
	writeU32(&b, lowerBound)
	for _, it := range items {
		b.Write(it)
	}
	return b.Bytes()
}

func encodeTListBody(name string, entries [][]byte, options []string) []byte {
	var b bytes.Buffer
	writeU16(&b, 1)
	b.Write(encodeTObjectHeader(1, 0, 0))
	writeTString(&b, name)
	writeU32(&b, uint32(len(entries)))
	for i, e := range entries {
		b.Write(e)
		writeTString(&b, options[i])
	}
	return b.Bytes()
}

func encodeStreamerInfoBody(name, title string, checksum, classVersion uint32, elementsEnvelope []byte) []byte {
	var b bytes.Buffer
	b.Write(encodeNamedAsBase(1, 0, 0, name, title))
	writeU32(&b, checksum)
	writeU32(&b, classVersion)
	b.Write(elementsEnvelope)
	return b.Bytes()
}

func TestDecodeCatalogSingleClass(t *testing.T) {
	elem := wrapClassTag("TStreamerBasicType",
		encodeStreamerElementBody("fX", "x coordinate", "float", 5, 4, -1, 0))
	objArr := wrapClassTag("TObjArray", encodeTObjArrayBody("elements", 0, [][]byte{elem}))
	si := wrapClassTag("TStreamerInfo",
		encodeStreamerInfoBody("MyClass", "a test class", 0xDEADBEEF, 1, objArr))
	list := wrapClassTag("TList", encodeTListBody("StreamerInfoList", [][]byte{si}, []string{""}))

	cat, err := DecodeCatalog(list)
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Streamers) != 1 {
		t.Fatalf("got %d streamers, want 1", len(cat.Streamers))
	}
	s := cat.Streamers[0]
	if s.Name != "MyClass" || s.Title != "a test class" {
		t.Fatalf("unexpected streamer: %+v", s)
	}
	if s.Checksum != 0xDEADBEEF || s.ClassVersion != 1 {
		t.Fatalf("unexpected checksum/version: %+v", s)
	}
	if len(s.Elements) != 1 {
		t.Fatalf("got %d elements, want 1", len(s.Elements))
	}
	el := s.Elements[0]
	if el.Kind != "TStreamerBasicType" || el.Name != "fX" || el.TypeName != "float" {
		t.Fatalf("unexpected element: %+v", el)
	}
	if el.Type != 5 || el.Size != 4 || el.ArrayLength != -1 {
		t.Fatalf("unexpected element shape fields: %+v", el)
	}
}

func TestDecodeCatalogMultipleClassesDeepEqual(t *testing.T) {
	// A richer fixture, asserted with cmp.Diff rather than field-by-field
	// checks, so a stray new field on StreamerInfo/Element doesn't
	// silently pass this test the way a partial comparison would.
	elem1 := wrapClassTag("TStreamerBasicType",
		encodeStreamerElementBody("fX", "x coordinate", "float", 5, 4, -1, 0))
	elem2 := wrapClassTag("TStreamerString",
		encodeStreamerElementBody("fName", "the name", "TString", 65, 16, -1, 0))
	objArr := wrapClassTag("TObjArray", encodeTObjArrayBody("elements", 0, [][]byte{elem1, elem2}))
	si := wrapClassTag("TStreamerInfo",
		encodeStreamerInfoBody("MyClass", "a test class", 0xDEADBEEF, 1, objArr))
	list := wrapClassTag("TList", encodeTListBody("StreamerInfoList", [][]byte{si}, []string{""}))

	cat, err := DecodeCatalog(list)
	if err != nil {
		t.Fatal(err)
	}

	want := []StreamerInfo{{
		Name:         "MyClass",
		Title:        "a test class",
		ClassVersion: 1,
		Checksum:     0xDEADBEEF,
		Elements: []Element{
			{Kind: "TStreamerBasicType", Name: "fX", Title: "x coordinate", TypeName: "float", Type: 5, Size: 4, ArrayLength: -1},
			{Kind: "TStreamerString", Name: "fName", Title: "the name", TypeName: "TString", Type: 65, Size: 16, ArrayLength: -1},
		},
	}}
	if diff := cmp.Diff(want, cat.Streamers); diff != "" {
		t.Fatalf("streamer catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeCatalogRejectsNonListRoot(t *testing.T) {
	body := encodeNamedAsBase(1, 0, 0, "lonely", "")
	env := wrapClassTag("TNamed", body)
	if _, err := DecodeCatalog(env); err == nil {
		t.Fatal("expected error: top-level object isn't a list")
	}
}

// TestDecodeCatalogBackReference builds a list whose second TStreamerInfo
// entry refers back to the first entry's class name by table key, rather
// than spelling out "TStreamerInfo" again: the KNewClassBit form, here
// exercised through a whole catalog decode.
func TestDecodeCatalogBackReference(t *testing.T) {
	objArr1 := wrapClassTag("TObjArray", encodeTObjArrayBody("elements", 0, nil))
	body1 := encodeStreamerInfoBody("First", "", 1, 1, objArr1)

	objArr2 := wrapClassTag("TObjArray", encodeTObjArrayBody("elements", 0, nil))
	body2 := encodeStreamerInfoBody("Second", "", 2, 1, objArr2)

	// Outer TList envelope prefix: byte-count word + tag word + "TList\0".
	const listPrefixLen = 4 + 4 + len("TList") + 1

	var listBody bytes.Buffer
	writeU16(&listBody, 1)
	listBody.Write(encodeTObjectHeader(1, 0, 0))
	writeTString(&listBody, "StreamerInfoList")
	writeU32(&listBody, 2) // two entries

	entry1Anchor := int64(listPrefixLen + listBody.Len())
	entry1 := wrapClassTag("TStreamerInfo", body1)
	listBody.Write(entry1)
	writeTString(&listBody, "")

	refKey := uint32(entry1Anchor - KMapOffset)
	var entry2 bytes.Buffer
	byteCount2 := uint32(4 + len(body2))
	writeU32(&entry2, KHasByteCount|byteCount2)
	writeU32(&entry2, refKey|KNewClassBit)
	entry2.Write(body2)
	listBody.Write(entry2.Bytes())
	writeTString(&listBody, "")

	list := wrapClassTag("TList", listBody.Bytes())

	cat, err := DecodeCatalog(list)
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Streamers) != 2 {
		t.Fatalf("got %d streamers, want 2", len(cat.Streamers))
	}
	if cat.Streamers[0].Name != "First" || cat.Streamers[1].Name != "Second" {
		t.Fatalf("unexpected streamer names: %+v", cat.Streamers)
	}
}

func TestDecodeCatalogSkipsUnknownSiblingEntries(t *testing.T) {
	// An opaque class the decoder has no shape for, sitting alongside a
	// real TStreamerInfo in the same list; it must be skipped by byte
	// count rather than aborting the whole catalog decode.
	mystery := wrapClassTag("TSomeFutureClass", []byte{1, 2, 3, 4, 5, 6, 7, 8})

	objArr := wrapClassTag("TObjArray", encodeTObjArrayBody("elements", 0, nil))
	si := wrapClassTag("TStreamerInfo",
		encodeStreamerInfoBody("OtherClass", "", 1, 1, objArr))

	list := wrapClassTag("TList", encodeTListBody("StreamerInfoList",
		[][]byte{mystery, si}, []string{"", ""}))

	cat, err := DecodeCatalog(list)
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Streamers) != 1 || cat.Streamers[0].Name != "OtherClass" {
		t.Fatalf("unexpected catalog: %+v", cat.Streamers)
	}
}
