package tkey

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildKey(className, name, title string, objLen int32, wide bool) []byte {
	var body bytes.Buffer
	// fields after nbytes/version/obj_len/datetime/key_len/cycle/seek_key/seek_pdir
	body.WriteByte(byte(len(className)))
	body.WriteString(className)
	body.WriteByte(byte(len(name)))
	body.WriteString(name)
	body.WriteByte(byte(len(title)))
	body.WriteString(title)

	ptrLen := 4
	if wide {
		ptrLen = 8
	}
	fixedLen := 4 + 2 + 4 + 4 + 2 + 2 + 2*ptrLen // nbytes,version,obj_len,datetime,key_len,cycle,seek_key,seek_pdir
	keyLen := fixedLen + body.Len()

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, int32(keyLen)) // nbytes == keyLen (no payload in this fixture)
	binary.Write(&buf, binary.BigEndian, int16(4))      // version (not used for pointer width anymore)
	binary.Write(&buf, binary.BigEndian, objLen)
	binary.Write(&buf, binary.BigEndian, uint32(0)) // datetime
	binary.Write(&buf, binary.BigEndian, int16(keyLen))
	binary.Write(&buf, binary.BigEndian, int16(1)) // cycle
	if wide {
		binary.Write(&buf, binary.BigEndian, uint64(0)) // seek_key
		binary.Write(&buf, binary.BigEndian, uint64(0)) // seek_pdir
	} else {
		binary.Write(&buf, binary.BigEndian, int32(0)) // seek_key
		binary.Write(&buf, binary.BigEndian, int32(0)) // seek_pdir
	}
	buf.Write(body.Bytes())
	return buf.Bytes()
}

func TestReadKeyAt(t *testing.T) {
	raw := buildKey("TList", "StreamerInfo", "Doubly linked list", 42, false)
	k, err := ReadKeyAt(bytes.NewReader(raw), 0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if k.ClassName != "TList" || k.Name != "StreamerInfo" || k.Title != "Doubly linked list" {
		t.Fatalf("unexpected fields: %+v", k)
	}
	if k.ObjLen != 42 {
		t.Fatalf("obj_len = %d, want 42", k.ObjLen)
	}
	if k.PayloadOffset() != int64(k.KeyLen) {
		t.Fatalf("payload offset = %d, want %d", k.PayloadOffset(), k.KeyLen)
	}
}

func TestReadKeyAtOffset(t *testing.T) {
	raw := append(make([]byte, 16), buildKey("TObjArray", "StreamerList", "", 7, false)...)
	k, err := ReadKeyAt(bytes.NewReader(raw), 16, 4)
	if err != nil {
		t.Fatal(err)
	}
	if k.PayloadOffset() != 16+int64(k.KeyLen) {
		t.Fatalf("payload offset = %d, want %d", k.PayloadOffset(), 16+int64(k.KeyLen))
	}
}

// TestReadKeyAtWideUnits exercises a key read with the file header's
// 8-byte pointer width: per spec.md §4.4, a key's pointer width mirrors
// units passed in from the file header, not anything in the key itself
// (real TKey version words are small integers, 1-4, so deriving width
// from the key's own version can never detect a wide file).
func TestReadKeyAtWideUnits(t *testing.T) {
	raw := buildKey("TList", "StreamerInfo", "", 100, true)
	k, err := ReadKeyAt(bytes.NewReader(raw), 0, 8)
	if err != nil {
		t.Fatal(err)
	}
	if k.PayloadOffset() != int64(k.KeyLen) {
		t.Fatalf("payload offset = %d, want %d", k.PayloadOffset(), k.KeyLen)
	}
	if k.ClassName != "TList" {
		t.Fatalf("unexpected class name: %q", k.ClassName)
	}
}

func TestReadKeyAtInconsistentSizes(t *testing.T) {
	raw := buildKey("TList", "x", "y", 1, false)
	// Corrupt nbytes to be smaller than key_len.
	binary.BigEndian.PutUint32(raw[0:4], 1)
	if _, err := ReadKeyAt(bytes.NewReader(raw), 0, 4); err == nil {
		t.Fatal("expected error: nbytes shorter than key_len")
	}
}
