package upload

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/abduss/imagemeta/internal/testutil"
)

func TestContentTypeAcceptsDeclaredImages(t *testing.T) {
	got, err := ContentType("image/jpeg", nil)
	if err != nil || got != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q (%v)", got, err)
	}
	got, err = ContentType("image/png; charset=binary", nil)
	if err != nil || got != "image/png" {
		t.Fatalf("expected parameters to be dropped, got %q (%v)", got, err)
	}
}

func TestContentTypeSniffsMissingType(t *testing.T) {
	got, err := ContentType("", testutil.JPEG(t, 4, 4, nil))
	if err != nil || got != "image/jpeg" {
		t.Fatalf("expected sniffed image/jpeg, got %q (%v)", got, err)
	}
	got, err = ContentType("application/octet-stream", testutil.GIF(t, 2, 2, 1))
	if err != nil || got != "image/gif" {
		t.Fatalf("expected sniffed image/gif, got %q (%v)", got, err)
	}
}

func TestContentTypeRejectsNonImages(t *testing.T) {
	if _, err := ContentType("text/plain", []byte("hello")); !errors.Is(err, ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
	if _, err := ContentType("", []byte("just some text")); !errors.Is(err, ErrNotImage) {
		t.Fatalf("expected ErrNotImage for sniffed text, got %v", err)
	}
	if _, err := ContentType("image/svg+xml", nil); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestReadEnforcesSizeLimit(t *testing.T) {
	data := testutil.JPEG(t, 16, 16, nil)
	fh := buildFileHeader(t, "photo.jpg", "image/jpeg", data)

	up, err := Read(fh, 0)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if up.Filename != "photo.jpg" || up.ContentType != "image/jpeg" || !bytes.Equal(up.Data, data) {
		t.Fatalf("unexpected upload %q %q %d bytes", up.Filename, up.ContentType, len(up.Data))
	}

	if _, err := Read(fh, int64(len(data)-1)); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if _, err := Read(nil, 0); !errors.Is(err, ErrMissingFile) {
		t.Fatalf("expected ErrMissingFile, got %v", err)
	}
}

func buildFileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(int64(body.Len()) + 1024); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}

	_, fh, err := req.FormFile("file")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	return fh
}
