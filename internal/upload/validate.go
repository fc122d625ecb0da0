// Package upload reads and validates multipart image uploads.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	octetStream = "application/octet-stream"
	svgType     = "image/svg+xml"
)

var (
	// ErrMissingFile indicates the request has no file part.
	ErrMissingFile = errors.New("file field is required")
	// ErrNotImage indicates the upload is not declared or detected as an image.
	ErrNotImage = errors.New("File must be an image")
	// ErrUnsupportedType rejects scriptable image types.
	ErrUnsupportedType = errors.New("SVG images are not supported")
	// ErrFileTooLarge signals that the upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file too large")
)

// ContentType validates the declared content type of an upload, falling back
// to sniffing head when nothing useful was declared. It returns the type to
// record.
func ContentType(declared string, head []byte) (string, error) {
	declared = strings.TrimSpace(declared)
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mediaType
	}

	if declared == "" || declared == octetStream {
		declared = mimetype.Detect(head).String()
		if i := strings.IndexByte(declared, ';'); i >= 0 {
			declared = declared[:i]
		}
	}

	switch {
	case declared == svgType:
		return "", ErrUnsupportedType
	case strings.HasPrefix(declared, "image/"):
		return declared, nil
	default:
		return "", ErrNotImage
	}
}

// File is an upload that passed validation.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Read loads a multipart file into a File. maxSize <= 0 disables the
// size check.
func Read(fh *multipart.FileHeader, maxSize int64) (File, error) {
	if fh == nil {
		return File{}, ErrMissingFile
	}
	if maxSize > 0 && fh.Size > maxSize {
		return File{}, ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return File{}, fmt.Errorf("open upload file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if maxSize > 0 {
		r = io.LimitReader(f, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("read upload file: %w", err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return File{}, ErrFileTooLarge
	}

	contentType, err := ContentType(fh.Header.Get("Content-Type"), data)
	if err != nil {
		return File{}, err
	}

	return File{
		Filename:    fh.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
