// Package codec implements ROOT's compression-descriptor dispatch:
// deflate, LZ4, Zstandard, or a straight identity pass-through, chosen by
// the signed algorithm/level value stored in a TFile's header.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm identifies one of ROOT's compression codecs.
type Algorithm int

const (
	// AlgIdentity covers both an explicit "none" descriptor and any
	// descriptor this decoder doesn't recognize; ROOT itself falls back
	// to storing data uncompressed in the same circumstance.
	AlgIdentity Algorithm = iota
	AlgZlib
	AlgLZ4
	AlgZstd
)

// allocSlack is how far past the declared uncompressed size a
// decompressed result may run before Decompress reports it as corrupt.
// The check is made on the finished output: it does not limit how much a
// decompressor allocates while it runs, and the LZ4 branch allocates
// whatever size the block's own prefix declares.
const allocSlack = 4096

// Descriptor decomposes a TFile's signed fCompress value into an
// algorithm and a level, per ROOT's own convention: algorithm = value/100,
// level = value%100. Negative values, which have no meaningful
// algorithm/level split, report AlgIdentity.
type Descriptor struct {
	Algorithm Algorithm
	Level     int
}

// ParseDescriptor decomposes the signed fCompress field from a TFile
// header.
func ParseDescriptor(value int32) Descriptor {
	if value < 0 {
		return Descriptor{Algorithm: AlgIdentity}
	}
	alg := value / 100
	level := int(value % 100)
	switch alg {
	case 1:
		return Descriptor{Algorithm: AlgZlib, Level: level}
	case 4:
		return Descriptor{Algorithm: AlgLZ4, Level: level}
	case 5:
		return Descriptor{Algorithm: AlgZstd, Level: level}
	default:
		return Descriptor{Algorithm: AlgIdentity}
	}
}

// Decompress expands compressed, the raw bytes of a compressed object
// block, according to d, and rejects a result larger than
// expectedSize+allocSlack bytes once it has been produced. expectedSize is
// the object's declared uncompressed length (a TKey's obj_len); pass 0 if
// unknown, in which case the result's size is not checked and only LZ4's
// self-describing size prefix bounds the allocation.
func Decompress(d Descriptor, compressed []byte, expectedSize int) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch d.Algorithm {
	case AlgIdentity:
		out = append([]byte(nil), compressed...)
	case AlgZlib:
		out, err = decompressZlib(compressed)
	case AlgLZ4:
		out, err = decompressLZ4(compressed)
	case AlgZstd:
		out, err = decompressZstd(compressed)
	default:
		return nil, fmt.Errorf("codec: unknown algorithm %d", d.Algorithm)
	}
	if err != nil {
		return nil, err
	}
	if expectedSize > 0 && len(out) > expectedSize+allocSlack {
		return nil, fmt.Errorf("codec: decompressed %d bytes, expected at most %d", len(out), expectedSize+allocSlack)
	}
	return out, nil
}

func decompressZlib(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("codec: zlib: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("codec: zlib: %w", err)
	}
	return out, nil
}

func decompressZstd(b []byte) ([]byte, error) {
	zr, err := zstd.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("codec: zstd: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("codec: zstd: %w", err)
	}
	return out, nil
}

// decompressLZ4 strips ROOT's 4-byte little-endian uncompressed-size
// prefix, which is ROOT-specific framing not part of the LZ4 block format
// itself, then runs the remainder through the block decompressor.
func decompressLZ4(b []byte) ([]byte, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("codec: lz4: block too short for size prefix (%d bytes)", len(b))
	}
	size := binary.LittleEndian.Uint32(b[:4])
	out := make([]byte, size)
	n, err := lz4.UncompressBlock(b[4:], out)
	if err != nil {
		return nil, fmt.Errorf("codec: lz4: %w", err)
	}
	return out[:n], nil
}
