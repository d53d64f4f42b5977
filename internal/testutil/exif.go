// Package testutil builds small image fixtures carrying EXIF metadata.
package testutil

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

const (
	tagOrientation = 0x0112
	tagExifPointer = 0x8769
	tagFNumber     = 0x829D

	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

type ifdEntry struct {
	tag, typ uint16
	count    uint32
	value    uint32
}

func writeIFD(buf *bytes.Buffer, entries ...ifdEntry) {
	le := binary.LittleEndian
	_ = binary.Write(buf, le, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(buf, le, e.tag)
		_ = binary.Write(buf, le, e.typ)
		_ = binary.Write(buf, le, e.count)
		_ = binary.Write(buf, le, e.value)
	}
	_ = binary.Write(buf, le, uint32(0))
}

func tiffHeader(buf *bytes.Buffer) {
	buf.WriteString("II")
	_ = binary.Write(buf, binary.LittleEndian, uint16(42))
	_ = binary.Write(buf, binary.LittleEndian, uint32(8))
}

// TIFFWithFNumber returns a little-endian TIFF stream whose Exif IFD holds
// FNumber = num/den.
func TIFFWithFNumber(num, den uint32) []byte {
	var buf bytes.Buffer
	tiffHeader(&buf)

	// IFD0 at 8 (18 bytes), Exif IFD at 26 (18 bytes), rational at 44.
	writeIFD(&buf, ifdEntry{tag: tagExifPointer, typ: typeLong, count: 1, value: 26})
	writeIFD(&buf, ifdEntry{tag: tagFNumber, typ: typeRational, count: 1, value: 44})
	_ = binary.Write(&buf, binary.LittleEndian, num)
	_ = binary.Write(&buf, binary.LittleEndian, den)
	return buf.Bytes()
}

// TIFFWithoutFNumber returns a TIFF stream with an orientation tag only.
func TIFFWithoutFNumber() []byte {
	var buf bytes.Buffer
	tiffHeader(&buf)
	writeIFD(&buf, ifdEntry{tag: tagOrientation, typ: typeShort, count: 1, value: 1})
	return buf.Bytes()
}

// JPEG wraps a TIFF stream into a minimal JPEG with an EXIF APP1 segment.
func JPEG(tiff []byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(2+6+len(tiff)))
	buf.WriteString("Exif\x00\x00")
	buf.Write(tiff)
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

// JPEGWithXMP wraps a TIFF stream into a JPEG whose first APP1 segment is an
// XMP packet, followed by the EXIF APP1 segment.
func JPEGWithXMP(tiff []byte) []byte {
	xmp := []byte("http://ns.adobe.com/xap/1.0/\x00<x:xmpmeta/>")

	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(2+len(xmp)))
	buf.Write(xmp)
	exif := JPEG(tiff)
	buf.Write(exif[2:])
	return buf.Bytes()
}

// JPEGWithFNumber is shorthand for JPEG(TIFFWithFNumber(num, den)).
func JPEGWithFNumber(num, den uint32) []byte {
	return JPEG(TIFFWithFNumber(num, den))
}

// PlainJPEG returns a JPEG without any APP1 segment.
func PlainJPEG() []byte {
	return []byte{0xFF, 0xD8, 0xFF, 0xD9}
}

// MalformedJPEG returns a JPEG whose EXIF payload is not a TIFF stream.
func MalformedJPEG() []byte {
	return JPEG([]byte("garbage!garbage!"))
}

// WriteFile writes data under dir/name, creating parent directories.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
