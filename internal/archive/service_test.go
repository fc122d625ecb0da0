package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putCall struct {
	bucket      string
	object      string
	contentType string
	body        []byte
}

type fakeObjectStore struct {
	calls []putCall
	err   error
}

func (f *fakeObjectStore) PutObject(_ context.Context, bucketName, objectName string, reader io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.calls = append(f.calls, putCall{bucket: bucketName, object: objectName, contentType: opts.ContentType, body: body})
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: int64(len(body))}, nil
}

func TestServiceSaveMirrorsToObjectStore(t *testing.T) {
	repo := newTestRepository(t)
	objects := &fakeObjectStore{}
	service := NewService(repo, objects, "saved", nil)

	entry, err := service.Save(context.Background(), []byte("data"), "tower.jpg", sampleRecord("tower.jpg"))
	require.NoError(t, err)

	require.Len(t, objects.calls, 2)
	assert.Equal(t, "saved", objects.calls[0].bucket)
	assert.Equal(t, "images/"+entry.SavedFilename, objects.calls[0].object)
	assert.Equal(t, "image/jpeg", objects.calls[0].contentType)
	assert.Equal(t, []byte("data"), objects.calls[0].body)

	sidecar := objects.calls[1]
	assert.Equal(t, "application/json", sidecar.contentType)
	assert.Equal(t, "metadata/"+entry.SavedFilename[:len(entry.SavedFilename)-len(".jpg")]+".json", sidecar.object)
	assert.Contains(t, string(sidecar.body), entry.ImageID)
}

func TestServiceSaveSurvivesMirrorFailure(t *testing.T) {
	repo := newTestRepository(t)
	service := NewService(repo, &fakeObjectStore{err: errors.New("connection refused")}, "saved", nil)

	entry, err := service.Save(context.Background(), []byte("data"), "tower.jpg", sampleRecord("tower.jpg"))
	require.NoError(t, err)

	got, err := service.Get(context.Background(), entry.ImageID)
	require.NoError(t, err)
	assert.Equal(t, entry.SavedFilename, got.SavedFilename)
}

func TestServiceSaveWithoutObjectStore(t *testing.T) {
	service := NewService(newTestRepository(t), nil, "", nil)

	entry, err := service.Save(context.Background(), []byte("data"), "a.png", sampleRecord("a.png"))
	require.NoError(t, err)

	list, err := service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entry.ImageID, list[0].ImageID)
}

func TestServiceOpen(t *testing.T) {
	repo := newTestRepository(t)
	service := NewService(repo, nil, "", nil)

	entry, err := service.Save(context.Background(), []byte("pixels"), "a.png", sampleRecord("a.png"))
	require.NoError(t, err)

	_, f, err := service.Open(context.Background(), entry.ImageID)
	require.NoError(t, err)
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, []byte("pixels"), content)

	require.NoError(t, os.Remove(repo.ImagePath(entry)))
	_, _, err = service.Open(context.Background(), entry.ImageID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceOutcome(t *testing.T) {
	repo := newTestRepository(t)
	service := NewService(repo, nil, "", nil)

	entry, err := service.Save(context.Background(), []byte("data"), "a.jpg", sampleRecord("a.jpg"))
	require.NoError(t, err)

	outcome := service.Outcome(entry)
	assert.Equal(t, "success", outcome.Status)
	assert.Equal(t, entry.ImageID, outcome.ImageID)
	assert.Equal(t, entry.SavedFilename, outcome.SavedFilename)
	imagesDir, _ := repo.Dirs()
	assert.Equal(t, filepath.Join(imagesDir, entry.SavedFilename), outcome.ImagePath)
	assert.NotEmpty(t, outcome.SavedAt)
}
