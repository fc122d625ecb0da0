package exiftag

import "errors"

var (
	// ErrNoTagBlock indicates the image carries no embedded tag block.
	ErrNoTagBlock = errors.New("no tag block")
	// ErrMalformedTagBlock signals a tag block that is present but cannot be parsed.
	ErrMalformedTagBlock = errors.New("malformed tag block")
	// ErrUnreadableExif signals an Exif pointer that does not lead to a readable directory.
	ErrUnreadableExif = errors.New("exif sub-block unreadable")
	// ErrUnsupportedGPS signals a GPS sub-block that is not a readable directory.
	ErrUnsupportedGPS = errors.New("gps sub-block format not supported")
)
