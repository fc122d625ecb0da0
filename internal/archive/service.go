// Package archive persists uploaded images together with their metadata
// records.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/abduss/imagemeta/internal/metadata"
	"github.com/abduss/imagemeta/internal/metrics"
)

const (
	mirrorTimeout  = 30 * time.Second
	imagesPrefix   = "images"
	metadataPrefix = "metadata"
)

type store interface {
	Save(data []byte, originalFilename string, rec metadata.Record) (Entry, error)
	Get(id string) (Entry, error)
	List() ([]Summary, error)
	ImagePath(e Entry) string
}

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Service saves entries to the repository and mirrors them to object
// storage when one is configured.
type Service struct {
	repo         store
	objectStore  objectStore
	objectBucket string
	log          *zap.Logger
}

// NewService constructs an archive service. objects may be nil.
func NewService(repo store, objects objectStore, objectBucket string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:         repo,
		objectStore:  objects,
		objectBucket: objectBucket,
		log:          log,
	}
}

// Save persists data and rec. Mirroring failures are logged and never fail
// the save.
func (s *Service) Save(ctx context.Context, data []byte, originalFilename string, rec metadata.Record) (Entry, error) {
	entry, err := s.repo.Save(data, originalFilename, rec)
	if err != nil {
		metrics.RecordSave("error")
		s.log.Error("save image", zap.String("filename", originalFilename), zap.Error(err))
		return Entry{}, err
	}
	metrics.RecordSave("success")
	s.log.Info("image saved", zap.String("image_id", entry.ImageID), zap.String("saved_filename", entry.SavedFilename))

	if s.objectStore != nil {
		s.mirror(ctx, entry, data)
	}
	return entry, nil
}

func (s *Service) mirror(ctx context.Context, entry Entry, data []byte) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorTimeout)
	defer cancel()

	contentType := entry.Metadata.FileInfo.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	imageObject := path.Join(imagesPrefix, entry.SavedFilename)
	if _, err := s.objectStore.PutObject(ctx, s.objectBucket, imageObject, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		s.log.Warn("mirror image", zap.String("object", imageObject), zap.Error(err))
		return
	}

	sidecar, err := json.Marshal(entry)
	if err != nil {
		s.log.Warn("encode sidecar for mirror", zap.String("image_id", entry.ImageID), zap.Error(err))
		return
	}
	sidecarObject := path.Join(metadataPrefix, strings.TrimSuffix(entry.SavedFilename, path.Ext(entry.SavedFilename))+sidecarExt)
	if _, err := s.objectStore.PutObject(ctx, s.objectBucket, sidecarObject, bytes.NewReader(sidecar), int64(len(sidecar)), minio.PutObjectOptions{
		ContentType: "application/json",
	}); err != nil {
		s.log.Warn("mirror sidecar", zap.String("object", sidecarObject), zap.Error(err))
	}
}

// Get returns the entry saved under id.
func (s *Service) Get(_ context.Context, id string) (Entry, error) {
	return s.repo.Get(id)
}

// List returns all entries, newest first.
func (s *Service) List(_ context.Context) ([]Summary, error) {
	return s.repo.List()
}

// Open returns the entry saved under id and its image file.
func (s *Service) Open(ctx context.Context, id string) (Entry, *os.File, error) {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return Entry{}, nil, err
	}
	f, err := os.Open(s.repo.ImagePath(entry))
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, nil, ErrNotFound
		}
		return Entry{}, nil, err
	}
	return entry, f, nil
}

// Outcome describes a finished save for the save_info field.
func (s *Service) Outcome(entry Entry) metadata.PersistenceOutcome {
	return metadata.PersistenceOutcome{
		Status:        "success",
		ImageID:       entry.ImageID,
		SavedFilename: entry.SavedFilename,
		ImagePath:     s.repo.ImagePath(entry),
		SavedAt:       metadata.Timestamp(entry.SavedAt),
	}
}
