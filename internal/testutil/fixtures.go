// Package testutil builds in-memory image fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"sort"
	"testing"
)

const (
	typeByte      = 1
	typeASCII     = 2
	typeShort     = 3
	typeLong      = 4
	typeRational  = 5
	typeUndefined = 7

	exifPointer = 0x8769
	gpsPointer  = 0x8825
)

var le = binary.LittleEndian

// Tag is one entry of a synthetic IFD with its value already encoded.
type Tag struct {
	ID    uint16
	Type  uint16
	Count uint32
	Data  []byte
}

// ASCII builds a NUL-terminated string tag.
func ASCII(id uint16, s string) Tag {
	b := append([]byte(s), 0)
	return Tag{ID: id, Type: typeASCII, Count: uint32(len(b)), Data: b}
}

// Byte builds a BYTE tag.
func Byte(id uint16, v ...byte) Tag {
	return Tag{ID: id, Type: typeByte, Count: uint32(len(v)), Data: append([]byte(nil), v...)}
}

// Short builds a SHORT tag.
func Short(id uint16, v ...uint16) Tag {
	var b []byte
	for _, x := range v {
		b = le.AppendUint16(b, x)
	}
	return Tag{ID: id, Type: typeShort, Count: uint32(len(v)), Data: b}
}

// Long builds a LONG tag.
func Long(id uint16, v ...uint32) Tag {
	var b []byte
	for _, x := range v {
		b = le.AppendUint32(b, x)
	}
	return Tag{ID: id, Type: typeLong, Count: uint32(len(v)), Data: b}
}

// Rational builds a RATIONAL tag from numerator/denominator pairs.
func Rational(id uint16, pairs ...uint32) Tag {
	var b []byte
	for _, x := range pairs {
		b = le.AppendUint32(b, x)
	}
	return Tag{ID: id, Type: typeRational, Count: uint32(len(pairs) / 2), Data: b}
}

// Undefined builds an UNDEFINED tag.
func Undefined(id uint16, v []byte) Tag {
	return Tag{ID: id, Type: typeUndefined, Count: uint32(len(v)), Data: append([]byte(nil), v...)}
}

// Block describes a little-endian TIFF tag block.
type Block struct {
	IFD0 []Tag
	// Exif and GPS become sub-IFDs when non-nil.
	Exif []Tag
	GPS  []Tag
	// GPSOffset and ExifOffset override the pointer values, which lets tests
	// point them outside the block.
	GPSOffset  *uint32
	ExifOffset *uint32
}

// TIFF encodes the block.
func (b Block) TIFF() []byte {
	ifd0 := append([]Tag(nil), b.IFD0...)
	if b.Exif != nil || b.ExifOffset != nil {
		ifd0 = append(ifd0, Long(exifPointer, 0))
	}
	if b.GPS != nil || b.GPSOffset != nil {
		ifd0 = append(ifd0, Long(gpsPointer, 0))
	}
	sortTags(ifd0)

	exifOff := uint32(8 + ifdSize(ifd0))
	gpsOff := exifOff
	if b.Exif != nil {
		gpsOff += uint32(ifdSize(b.Exif))
	}
	if b.GPSOffset != nil {
		gpsOff = *b.GPSOffset
	}
	if b.ExifOffset != nil {
		exifOff = *b.ExifOffset
	}
	for i := range ifd0 {
		switch ifd0[i].ID {
		case exifPointer:
			ifd0[i] = Long(exifPointer, exifOff)
		case gpsPointer:
			ifd0[i] = Long(gpsPointer, gpsOff)
		}
	}

	buf := []byte{'I', 'I', 42, 0}
	buf = le.AppendUint32(buf, 8)
	buf = writeIFD(buf, ifd0)
	if b.Exif != nil {
		buf = writeIFD(buf, sorted(b.Exif))
	}
	if b.GPS != nil {
		buf = writeIFD(buf, sorted(b.GPS))
	}
	return buf
}

func sorted(tags []Tag) []Tag {
	out := append([]Tag(nil), tags...)
	sortTags(out)
	return out
}

func sortTags(tags []Tag) {
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
}

func ifdSize(tags []Tag) int {
	size := 2 + 12*len(tags) + 4
	for _, t := range tags {
		if len(t.Data) > 4 {
			size += len(t.Data) + len(t.Data)%2
		}
	}
	return size
}

func writeIFD(buf []byte, tags []Tag) []byte {
	dataOff := len(buf) + 2 + 12*len(tags) + 4
	var data []byte

	buf = le.AppendUint16(buf, uint16(len(tags)))
	for _, t := range tags {
		buf = le.AppendUint16(buf, t.ID)
		buf = le.AppendUint16(buf, t.Type)
		buf = le.AppendUint32(buf, t.Count)
		if len(t.Data) <= 4 {
			inline := make([]byte, 4)
			copy(inline, t.Data)
			buf = append(buf, inline...)
			continue
		}
		buf = le.AppendUint32(buf, uint32(dataOff+len(data)))
		data = append(data, t.Data...)
		if len(data)%2 == 1 {
			data = append(data, 0)
		}
	}
	buf = le.AppendUint32(buf, 0)
	return append(buf, data...)
}

// GPSBlock returns GPS tags for the given DMS coordinates (whole seconds).
func GPSBlock(latRef string, lat [3]uint32, lonRef string, lon [3]uint32) []Tag {
	return []Tag{
		Byte(0x00, 2, 3, 0, 0),
		ASCII(0x01, latRef),
		Rational(0x02, lat[0], 1, lat[1], 1, lat[2], 1),
		ASCII(0x03, lonRef),
		Rational(0x04, lon[0], 1, lon[1], 1, lon[2], 1),
	}
}

// Gradient returns an opaque RGBA image with a horizontal gradient.
func Gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / max(w-1, 1)), G: uint8(y * 255 / max(h-1, 1)), B: 128, A: 255})
		}
	}
	return img
}

// JPEG encodes a w×h gradient and, when block is non-nil, embeds it as an
// APP1 Exif segment right after SOI.
func JPEG(tb testing.TB, w, h int, block []byte) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Gradient(w, h), &jpeg.Options{Quality: 90}); err != nil {
		tb.Fatalf("encode jpeg: %v", err)
	}
	encoded := buf.Bytes()
	if block == nil {
		return encoded
	}

	payload := append([]byte("Exif\x00\x00"), block...)
	segLen := len(payload) + 2
	out := []byte{0xFF, 0xD8, 0xFF, 0xE1, byte(segLen >> 8), byte(segLen)}
	out = append(out, payload...)
	return append(out, encoded[2:]...)
}

// PNG encodes img.
func PNG(tb testing.TB, img image.Image) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		tb.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// Solid returns a w×h image filled with c.
func Solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// GIF encodes an animation with the given number of frames.
func GIF(tb testing.TB, w, h, frames int) []byte {
	tb.Helper()
	palette := color.Palette{color.Black, color.White, color.RGBA{R: 255, A: 255}}
	anim := &gif.GIF{}
	for i := 0; i < frames; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, w, h), palette)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				frame.SetColorIndex(x, y, uint8((x+y+i)%len(palette)))
			}
		}
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 10)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		tb.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}
