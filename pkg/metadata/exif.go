package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// ErrMalformed is returned when a file carries EXIF data that cannot be decoded
var ErrMalformed = errors.New("malformed exif metadata")

var (
	exifIntro  = []byte("Exif\x00\x00")
	tiffLittle = []byte("II*\x00")
	tiffBig    = []byte("MM\x00*")
	jpegSOI    = []byte{0xFF, 0xD8}
)

const (
	markerAPP1 = 0xE1
	markerSOS  = 0xDA
	markerEOI  = 0xD9
)

// FNumberFile reads the file at path and returns its aperture
func FNumberFile(path string) (*float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return FNumber(data)
}

// FNumber extracts the EXIF FNumber tag from an image.
// A nil result without error means the file has no aperture recorded.
func FNumber(data []byte) (*float64, error) {
	payload, ok := exifPayload(data)
	if !ok {
		return nil, nil
	}

	x, err := exif.Decode(bytes.NewReader(payload))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	tag, err := x.Get(exif.FNumber)
	if err != nil {
		if exif.IsTagNotPresentError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	num, den, err := tag.Rat2(0)
	if err != nil {
		return nil, fmt.Errorf("%w: f-number: %v", ErrMalformed, err)
	}
	if den == 0 {
		return nil, fmt.Errorf("%w: f-number %d/0", ErrMalformed, num)
	}

	value := float64(num) / float64(den)
	return &value, nil
}

// HasExif reports whether data looks like a TIFF stream or a JPEG
// carrying an EXIF APP1 payload.
func HasExif(data []byte) bool {
	_, ok := exifPayload(data)
	return ok
}

// exifPayload returns the TIFF stream holding the EXIF tags. For a JPEG this
// is the body of the first APP1 segment introduced by "Exif\0\0", so XMP or
// other APP1 segments placed before it are skipped. A JPEG whose segment
// structure is broken but still mentions an EXIF intro is returned whole so
// that decoding reports it as malformed.
func exifPayload(data []byte) ([]byte, bool) {
	if bytes.HasPrefix(data, tiffLittle) || bytes.HasPrefix(data, tiffBig) {
		return data, true
	}
	if !bytes.HasPrefix(data, jpegSOI) {
		return nil, false
	}

	pos := len(jpegSOI)
	for pos+1 < len(data) {
		if data[pos] != 0xFF {
			break
		}
		marker := data[pos+1]
		switch {
		case marker == 0xFF:
			// fill byte
			pos++
			continue
		case marker == markerSOS || marker == markerEOI:
			return nil, false
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			pos += 2
			continue
		}

		if pos+4 > len(data) {
			break
		}
		length := int(binary.BigEndian.Uint16(data[pos+2:]))
		if length < 2 {
			break
		}
		start := pos + 4
		end := pos + 2 + length
		if end > len(data) {
			end = len(data)
		}
		if marker == markerAPP1 && bytes.HasPrefix(data[start:end], exifIntro) {
			return data[start+len(exifIntro) : end], true
		}
		pos = pos + 2 + length
	}

	if bytes.Contains(data, exifIntro) {
		return data, true
	}
	return nil, false
}
