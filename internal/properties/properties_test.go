package properties

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/abduss/imagemeta/internal/testutil"
)

func TestOrientationBoundaries(t *testing.T) {
	cases := []struct {
		w, h int
		want string
	}{
		{1, 1, "square"},
		{100, 1, "landscape"},
		{1, 100, "portrait"},
	}
	for _, tc := range cases {
		if got := Orientation(tc.w, tc.h); got != tc.want {
			t.Fatalf("%dx%d: expected %s, got %s", tc.w, tc.h, tc.want, got)
		}
	}
}

func TestAnalyzeJPEG(t *testing.T) {
	d, err := Decode(testutil.JPEG(t, 300, 200, nil))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	props := Analyze(d)
	dim := props.Dimensions
	if dim.Width != 300 || dim.Height != 200 || dim.Resolution != "300x200" {
		t.Fatalf("unexpected dimensions %+v", dim)
	}
	if dim.AspectRatio != 1.5 || dim.Megapixels != 0.06 || dim.Orientation != "landscape" {
		t.Fatalf("unexpected derived values %+v", dim)
	}
	if props.ColorInfo.Mode != "RGB" || props.ColorInfo.HasTransparency {
		t.Fatalf("unexpected color info %+v", props.ColorInfo)
	}
	if props.ColorInfo.PaletteSize.Overflow || props.ColorInfo.PaletteSize.Count < 2 {
		t.Fatalf("unexpected palette size %+v", props.ColorInfo.PaletteSize)
	}
	tech := props.Technical
	if tech.Format != "JPEG" || tech.FormatDescription != "JPEG (ISO 10918)" || tech.IsAnimated || tech.Frames != 1 {
		t.Fatalf("unexpected technical info %+v", tech)
	}
}

func TestAnalyzeTransparentPNG(t *testing.T) {
	img := testutil.Solid(4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})

	d, err := Decode(testutil.PNG(t, img))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	props := Analyze(d)
	if props.ColorInfo.Mode != "RGBA" || !props.ColorInfo.HasTransparency {
		t.Fatalf("expected transparent RGBA, got %+v", props.ColorInfo)
	}
	if props.ColorInfo.PaletteSize.Count != 2 {
		t.Fatalf("expected 2 colors, got %+v", props.ColorInfo.PaletteSize)
	}
	if props.Technical.FormatDescription != "Portable network graphics" {
		t.Fatalf("unexpected description %q", props.Technical.FormatDescription)
	}
}

func TestModeFollowsStoredChannels(t *testing.T) {
	opaque := color.NRGBA{R: 10, G: 20, B: 30, A: 255}
	cases := []struct {
		name        string
		img         image.Image
		mode        string
		transparent bool
	}{
		{"rgb", testutil.Gradient(4, 4), "RGB", false},
		{"alpha channel fully opaque", testutil.Solid(4, 4, opaque), "RGBA", true},
		{"gray", image.NewGray(image.Rect(0, 0, 2, 2)), "L", false},
	}
	for _, tc := range cases {
		props := Analyze(Decoded{Image: tc.img, Format: "png", Frames: 1})
		if props.ColorInfo.Mode != tc.mode || props.ColorInfo.HasTransparency != tc.transparent {
			t.Fatalf("%s: expected %s/%v, got %+v", tc.name, tc.mode, tc.transparent, props.ColorInfo)
		}
	}
}

func TestAnalyzeGrayscale(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.SetGray(1, 0, color.Gray{Y: 128})
	img.SetGray(2, 0, color.Gray{Y: 255})

	d, err := Decode(testutil.PNG(t, img))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	props := Analyze(d)
	if props.ColorInfo.Mode != "L" {
		t.Fatalf("expected L, got %s", props.ColorInfo.Mode)
	}
	if props.ColorInfo.PaletteSize.Count != 3 {
		t.Fatalf("expected 3 gray levels, got %+v", props.ColorInfo.PaletteSize)
	}
}

func TestAnalyzeAnimatedGIF(t *testing.T) {
	d, err := Decode(testutil.GIF(t, 6, 6, 4))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	props := Analyze(d)
	if !props.Technical.IsAnimated || props.Technical.Frames != 4 {
		t.Fatalf("expected 4 animated frames, got %+v", props.Technical)
	}
	if props.ColorInfo.Mode != "P" || props.Technical.Format != "GIF" {
		t.Fatalf("unexpected mode/format %s %s", props.ColorInfo.Mode, props.Technical.Format)
	}
	if props.ColorInfo.PaletteSize.Count != 3 {
		t.Fatalf("expected 3 palette entries in use, got %+v", props.ColorInfo.PaletteSize)
	}
}

func TestDecodeRejectsNonImages(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestPaletteSizeJSON(t *testing.T) {
	data, err := json.Marshal(PaletteSize{Overflow: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"More than 16M colors"` {
		t.Fatalf("unexpected sentinel encoding %s", data)
	}

	var back PaletteSize
	if err := json.Unmarshal([]byte("42"), &back); err != nil || back.Count != 42 || back.Overflow {
		t.Fatalf("unexpected decode %+v (%v)", back, err)
	}
	if err := json.Unmarshal(data, &back); err != nil || !back.Overflow {
		t.Fatalf("expected overflow after decode, got %+v (%v)", back, err)
	}
}

func TestFailedCarriesOnlyErrorMarker(t *testing.T) {
	data, err := json.Marshal(Failed(errors.New("boom")))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"error":"Failed to analyze image properties: boom"}` {
		t.Fatalf("unexpected encoding %s", data)
	}
}
