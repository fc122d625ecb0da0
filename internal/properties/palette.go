package properties

import (
	"encoding/json"
	"image"
	"image/color"
	"strconv"
)

const (
	// PaletteCap is the largest exact distinct-color count reported.
	PaletteCap = 1 << 24
	// PaletteOverflow replaces the count once PaletteCap is exceeded.
	PaletteOverflow = "More than 16M colors"
)

// PaletteSize is an exact distinct-color count or the overflow sentinel.
type PaletteSize struct {
	Count    int
	Overflow bool
}

func (p PaletteSize) String() string {
	if p.Overflow {
		return PaletteOverflow
	}
	return strconv.Itoa(p.Count)
}

// MarshalJSON writes the count as a number, or the sentinel string.
func (p PaletteSize) MarshalJSON() ([]byte, error) {
	if p.Overflow {
		return json.Marshal(PaletteOverflow)
	}
	return json.Marshal(p.Count)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PaletteSize) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = PaletteSize{Overflow: true}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = PaletteSize{Count: n}
	return nil
}

// countColors counts distinct colors at 8 bits per channel. Paletted images
// count the palette indices in use.
func countColors(img image.Image, opaque bool) PaletteSize {
	b := img.Bounds()

	if p, ok := img.(*image.Paletted); ok {
		var seen [256]bool
		n := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				i := p.ColorIndexAt(x, y)
				if !seen[i] {
					seen[i] = true
					n++
				}
			}
		}
		return PaletteSize{Count: n}
	}

	if opaque {
		// 2^24 RGB keys fit in a 2 MiB bitset; the cap is unreachable.
		bits := make([]uint64, PaletteCap/64)
		n := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				key := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
				word, bit := key/64, uint64(1)<<(key%64)
				if bits[word]&bit == 0 {
					bits[word] |= bit
					n++
				}
			}
		}
		return PaletteSize{Count: n}
	}

	seen := make(map[uint32]struct{})
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			seen[uint32(c.R)<<24|uint32(c.G)<<16|uint32(c.B)<<8|uint32(c.A)] = struct{}{}
			if len(seen) > PaletteCap {
				return PaletteSize{Overflow: true}
			}
		}
	}
	return PaletteSize{Count: len(seen)}
}
