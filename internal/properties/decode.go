// Package properties derives geometric and color properties from decoded
// images.
package properties

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoded is an image together with the container details needed for
// analysis.
type Decoded struct {
	Image image.Image
	// Format is the registered decoder name, e.g. "jpeg" or "png".
	Format string
	Frames int
}

// DecodeError reports bytes that are not a decodable image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot identify image file: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var errEmptyImage = errors.New("image has no pixels")

// Decode decodes data with the registered image decoders.
func Decode(data []byte) (Decoded, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Decoded{}, &DecodeError{Err: err}
	}
	if img.Bounds().Empty() {
		return Decoded{}, &DecodeError{Err: errEmptyImage}
	}

	frames := 1
	if format == "gif" {
		if anim, err := gif.DecodeAll(bytes.NewReader(data)); err == nil && len(anim.Image) > 0 {
			frames = len(anim.Image)
		}
	}

	return Decoded{Image: img, Format: format, Frames: frames}, nil
}
