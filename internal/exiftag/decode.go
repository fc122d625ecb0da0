package exiftag

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

const maxBinaryDump = 64

var (
	exifHeader   = []byte("Exif\x00\x00")
	asciiComment = []byte("ASCII\x00\x00\x00")
)

// Raw is a decoded tag block keyed by numeric tag id. IFD0 and the Exif
// sub-IFD are merged into Main; the GPS sub-block is kept apart.
type Raw struct {
	Main map[uint16]Value
	// GPS is nil when IFD0 carries no GPS pointer.
	GPS map[uint16]Value
	// GPSErr is set when the GPS pointer exists but its directory is unreadable.
	GPSErr error
	// ExifErr is set when the Exif sub-IFD could not be followed. Main then
	// holds IFD0 only.
	ExifErr error
}

// Decode locates the tag block in an encoded image and returns its raw tags.
func Decode(data []byte) (Raw, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil || x.Tiff == nil || len(x.Tiff.Dirs) == 0 {
		if hasTagBlock(data) {
			return Raw{}, fmt.Errorf("%w: %v", ErrMalformedTagBlock, err)
		}
		return Raw{}, ErrNoTagBlock
	}

	// goexif reports unreadable sub-directories through err while still
	// returning the main directory; those are walked again below.
	raw := Raw{Main: make(map[uint16]Value)}
	ifd0 := x.Tiff.Dirs[0]

	for _, tag := range ifd0.Tags {
		switch tag.Id {
		case ExifPointer, GPSPointer, InteropPointer:
			continue
		}
		raw.Main[tag.Id] = convert(tag)
	}

	for _, tag := range ifd0.Tags {
		switch tag.Id {
		case ExifPointer:
			dir, err := subDir(x, tag)
			if err != nil {
				raw.ExifErr = fmt.Errorf("%w: %v", ErrUnreadableExif, err)
				continue
			}
			for _, sub := range dir.Tags {
				if sub.Id == InteropPointer {
					continue
				}
				if _, exists := raw.Main[sub.Id]; !exists {
					raw.Main[sub.Id] = convert(sub)
				}
			}
		case GPSPointer:
			dir, err := subDir(x, tag)
			if err != nil {
				raw.GPSErr = fmt.Errorf("%w: %v", ErrUnsupportedGPS, err)
				continue
			}
			raw.GPS = make(map[uint16]Value, len(dir.Tags))
			for _, sub := range dir.Tags {
				raw.GPS[sub.Id] = convert(sub)
			}
		}
	}

	return raw, nil
}

func subDir(x *exif.Exif, ptr *tiff.Tag) (*tiff.Dir, error) {
	if ptr.Format() != tiff.IntVal {
		return nil, fmt.Errorf("pointer tag %#04x is not an offset", ptr.Id)
	}
	offset, err := ptr.Int64(0)
	if err != nil {
		return nil, fmt.Errorf("read pointer tag %#04x: %w", ptr.Id, err)
	}
	if offset <= 0 || offset >= int64(len(x.Raw)) {
		return nil, fmt.Errorf("pointer tag %#04x offset %d outside tag block", ptr.Id, offset)
	}

	r := bytes.NewReader(x.Raw)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek sub-directory: %w", err)
	}
	dir, _, err := tiff.DecodeDir(r, x.Tiff.Order)
	if err != nil {
		return nil, fmt.Errorf("decode sub-directory: %w", err)
	}
	return dir, nil
}

func convert(tag *tiff.Tag) Value {
	count := int(tag.Count)

	switch tag.Format() {
	case tiff.IntVal:
		parts := make([]float64, 0, count)
		for i := 0; i < count; i++ {
			v, err := tag.Int64(i)
			if err != nil {
				break
			}
			if count == 1 {
				return Int(v)
			}
			parts = append(parts, float64(v))
		}
		return Tuple(parts)
	case tiff.RatVal:
		parts := make([]float64, 0, count)
		for i := 0; i < count; i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				break
			}
			parts = append(parts, ratio(num, den))
		}
		if len(parts) == 1 {
			return Float(parts[0])
		}
		return Tuple(parts)
	case tiff.FloatVal:
		parts := make([]float64, 0, count)
		for i := 0; i < count; i++ {
			v, err := tag.Float(i)
			if err != nil {
				break
			}
			parts = append(parts, v)
		}
		if len(parts) == 1 {
			return Float(parts[0])
		}
		return Tuple(parts)
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return String(undefinedText(tag.Val))
		}
		return String(string(bytes.TrimRight([]byte(s), "\x00")))
	case tiff.UndefVal:
		return String(undefinedText(tag.Val))
	default:
		return String(tag.String())
	}
}

func ratio(num, den int64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(den)
}

func undefinedText(b []byte) string {
	text := bytes.TrimPrefix(b, asciiComment)
	text = bytes.TrimRight(text, "\x00 ")
	if isPrintable(text) {
		return string(text)
	}
	if len(b) > maxBinaryDump {
		return fmt.Sprintf("0x%x... (%d bytes)", b[:maxBinaryDump], len(b))
	}
	return fmt.Sprintf("0x%x", b)
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c == '\t' || c == '\n' || c == '\r' {
			continue
		}
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

func hasTagBlock(data []byte) bool {
	if len(data) >= 4 {
		switch string(data[:4]) {
		case "II*\x00", "MM\x00*":
			return true
		}
	}
	return bytes.Contains(data, exifHeader)
}
