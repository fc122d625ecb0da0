package archive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinIOStoreMirrorsThroughClient(t *testing.T) {
	type upload struct {
		method, path, contentType string
		body                      []byte
	}
	var uploads []upload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		uploads = append(uploads, upload{method: r.Method, path: r.URL.Path, contentType: r.Header.Get("Content-Type"), body: body})
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := minio.New(strings.TrimPrefix(srv.URL, "http://"), &minio.Options{
		Creds:        credentials.NewStaticV4("access", "secret", ""),
		Region:       "us-east-1",
		BucketLookup: minio.BucketLookupPath,
	})
	require.NoError(t, err)

	repo := newTestRepository(t)
	service := NewService(repo, NewMinIOStore(client), "saved", nil)

	entry, err := service.Save(context.Background(), []byte("data"), "tower.jpg", sampleRecord("tower.jpg"))
	require.NoError(t, err)

	require.Len(t, uploads, 2)
	assert.Equal(t, http.MethodPut, uploads[0].method)
	assert.Equal(t, "/saved/images/"+entry.SavedFilename, uploads[0].path)
	assert.Equal(t, "image/jpeg", uploads[0].contentType)
	assert.Contains(t, string(uploads[0].body), "data")
	assert.Equal(t, http.MethodPut, uploads[1].method)
	assert.True(t, strings.HasPrefix(uploads[1].path, "/saved/metadata/"), uploads[1].path)
	assert.Equal(t, "application/json", uploads[1].contentType)
}
