package properties

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/EdlinOrg/prominentcolor"
)

// Dimensions holds the geometric properties of an image.
type Dimensions struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Resolution  string  `json:"resolution"`
	AspectRatio float64 `json:"aspect_ratio"`
	Megapixels  float64 `json:"megapixels"`
	Orientation string  `json:"orientation"`
}

// ColorInfo holds color-space properties.
type ColorInfo struct {
	Mode            string      `json:"mode"`
	HasTransparency bool        `json:"has_transparency"`
	PaletteSize     PaletteSize `json:"color_palette_size"`
	DominantColors  []string    `json:"dominant_colors,omitempty"`
}

// Technical holds container-level properties.
type Technical struct {
	Format            string `json:"format"`
	FormatDescription string `json:"format_description"`
	IsAnimated        bool   `json:"is_animated"`
	Frames            int    `json:"n_frames"`
}

// ImageProperties is the image_properties sub-record. Error is set instead
// of the other fields when analysis failed.
type ImageProperties struct {
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	ColorInfo  *ColorInfo  `json:"color_info,omitempty"`
	Technical  *Technical  `json:"technical,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Failed returns an ImageProperties carrying only an error marker.
func Failed(err error) ImageProperties {
	return ImageProperties{Error: fmt.Sprintf("Failed to analyze image properties: %v", err)}
}

var formatDescriptions = map[string]string{
	"JPEG": "JPEG (ISO 10918)",
	"PNG":  "Portable network graphics",
	"GIF":  "Compuserve GIF",
	"WEBP": "WebP image",
	"BMP":  "Windows Bitmap",
	"TIFF": "Adobe TIFF",
}

// Analyze derives the properties of a decoded image.
func Analyze(d Decoded) ImageProperties {
	b := d.Image.Bounds()
	w, h := b.Dx(), b.Dy()

	opaque := isOpaque(d.Image)
	mode := Mode(d.Image)
	format := strings.ToUpper(d.Format)
	frames := d.Frames
	if frames < 1 {
		frames = 1
	}

	return ImageProperties{
		Dimensions: &Dimensions{
			Width:       w,
			Height:      h,
			Resolution:  fmt.Sprintf("%dx%d", w, h),
			AspectRatio: round(float64(w)/float64(h), 3),
			Megapixels:  round(float64(w)*float64(h)/1_000_000, 2),
			Orientation: Orientation(w, h),
		},
		ColorInfo: &ColorInfo{
			Mode:            mode,
			HasTransparency: mode == "RGBA" || !opaque,
			PaletteSize:     countColors(d.Image, opaque),
			DominantColors:  dominantColors(d.Image),
		},
		Technical: &Technical{
			Format:            format,
			FormatDescription: formatDescriptions[format],
			IsAnimated:        frames > 1,
			Frames:            frames,
		},
	}
}

// Orientation classifies an image as landscape, portrait or square.
func Orientation(w, h int) string {
	switch {
	case w > h:
		return "landscape"
	case h > w:
		return "portrait"
	default:
		return "square"
	}
}

// Mode returns the color mode label of img. Images stored with an alpha
// channel are RGBA even when every pixel is opaque.
func Mode(img image.Image) string {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA:
		return "RGBA"
	case *image.YCbCr:
		return "RGB"
	case *image.Gray:
		return "L"
	case *image.Gray16:
		return "I;16"
	case *image.Paletted:
		return "P"
	case *image.CMYK:
		return "CMYK"
	}
	if isOpaque(img) {
		return "RGB"
	}
	return "RGBA"
}

type opaquer interface {
	Opaque() bool
}

// isOpaque also inspects palettes, so a GIF with a transparent index is
// reported as transparent even when no pixel uses it.
func isOpaque(img image.Image) bool {
	if p, ok := img.(*image.Paletted); ok {
		for _, c := range p.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return false
			}
		}
		return true
	}
	if o, ok := img.(opaquer); ok {
		return o.Opaque()
	}
	return false
}

const dominantColorCount = 3

func dominantColors(img image.Image) (colors []string) {
	// prominentcolor panics on degenerate inputs such as single-pixel images.
	defer func() {
		if recover() != nil {
			colors = nil
		}
	}()

	items, err := prominentcolor.KmeansWithArgs(prominentcolor.ArgumentNoCropping, img)
	if err != nil {
		return nil
	}
	for _, item := range items {
		if len(colors) == dominantColorCount {
			break
		}
		colors = append(colors, fmt.Sprintf("#%02x%02x%02x", item.Color.R, item.Color.G, item.Color.B))
	}
	return colors
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
