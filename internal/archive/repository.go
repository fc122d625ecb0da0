package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abduss/imagemeta/internal/metadata"
)

const (
	defaultStem    = "image"
	defaultExt     = ".jpg"
	sidecarExt     = ".json"
	maxStemLen     = 100
	filePerm       = 0o644
	dirPerm        = 0o755
	nameTimeLayout = "20060102_150405"
)

// Repository stores images and JSON sidecars in two parallel directories.
// Lookups scan the sidecar directory.
type Repository struct {
	imagesDir string
	dataDir   string
	log       *zap.Logger
	now       func() time.Time
	newID     func() uuid.UUID
}

// NewRepository creates both directories when missing.
func NewRepository(imagesDir, dataDir string, log *zap.Logger) (*Repository, error) {
	if log == nil {
		log = zap.NewNop()
	}
	for _, dir := range []string{imagesDir, dataDir} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, fmt.Errorf("create storage directory %q: %w", dir, err)
		}
	}
	return &Repository{
		imagesDir: imagesDir,
		dataDir:   dataDir,
		log:       log,
		now:       time.Now,
		newID:     uuid.New,
	}, nil
}

// Dirs returns the image and sidecar directories.
func (r *Repository) Dirs() (images, data string) {
	return r.imagesDir, r.dataDir
}

// ImagePath returns where the image of e is stored.
func (r *Repository) ImagePath(e Entry) string {
	return filepath.Join(r.imagesDir, filepath.Base(e.SavedFilename))
}

func (r *Repository) sidecarPath(savedFilename string) string {
	base := strings.TrimSuffix(savedFilename, filepath.Ext(savedFilename))
	return filepath.Join(r.dataDir, base+sidecarExt)
}

// Save writes the image, then its sidecar. If the sidecar cannot be written
// the image is removed again.
func (r *Repository) Save(data []byte, originalFilename string, rec metadata.Record) (Entry, error) {
	savedAt := r.now()
	id := r.newID().String()
	stem, ext := SanitizeFilename(originalFilename)
	savedFilename := fmt.Sprintf("%s_%s_%s%s", savedAt.Format(nameTimeLayout), id, stem, ext)

	entry := Entry{
		ImageID:          id,
		OriginalFilename: originalFilename,
		SavedFilename:    savedFilename,
		SavedAt:          savedAt,
		FileSize:         int64(len(data)),
		Metadata:         rec,
	}
	entry.Metadata.SaveInfo = nil

	sidecar, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return Entry{}, &PersistenceError{Op: "encode sidecar", Err: err}
	}

	imagePath := r.ImagePath(entry)
	if err := renameio.WriteFile(imagePath, data, filePerm); err != nil {
		return Entry{}, &PersistenceError{Op: "write image", Err: err}
	}
	if err := renameio.WriteFile(r.sidecarPath(savedFilename), sidecar, filePerm); err != nil {
		if rmErr := os.Remove(imagePath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			r.log.Error("remove orphaned image", zap.String("path", imagePath), zap.Error(rmErr))
		}
		return Entry{}, &PersistenceError{Op: "write sidecar", Err: err}
	}

	return entry, nil
}

// Get scans the sidecars for id.
func (r *Repository) Get(id string) (Entry, error) {
	var (
		found Entry
		ok    bool
	)
	err := r.scan(func(e Entry) bool {
		if e.ImageID == id {
			found, ok = e, true
			return false
		}
		return true
	})
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, ErrNotFound
	}
	return found, nil
}

// List returns every readable entry, newest first, flagging entries whose
// image file is gone.
func (r *Repository) List() ([]Summary, error) {
	summaries := []Summary{}
	err := r.scan(func(e Entry) bool {
		_, statErr := os.Stat(r.ImagePath(e))
		summaries = append(summaries, summarize(e, statErr == nil))
		return true
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].SavedAt.After(summaries[j].SavedAt)
	})
	return summaries, nil
}

// scan decodes sidecars in directory order until fn returns false.
// Unreadable sidecars are logged and skipped.
func (r *Repository) scan(fn func(Entry) bool) error {
	dirEntries, err := os.ReadDir(r.dataDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read sidecar directory: %w", err)
	}

	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != sidecarExt {
			continue
		}
		path := filepath.Join(r.dataDir, de.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			r.log.Warn("skip unreadable sidecar", zap.String("path", path), zap.Error(err))
			continue
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil || e.ImageID == "" {
			r.log.Warn("skip malformed sidecar", zap.String("path", path), zap.Error(err))
			continue
		}
		if !fn(e) {
			return nil
		}
	}
	return nil
}

// SanitizeFilename splits name into a safe stem and a lower-cased
// extension. The stem keeps letters, digits, '.', '_' and '-'.
func SanitizeFilename(name string) (stem, ext string) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}

	ext = strings.ToLower(filepath.Ext(base))
	ext = "." + keepSafe(strings.TrimPrefix(ext, "."), false)
	if ext == "." {
		ext = defaultExt
	}

	stem = keepSafe(strings.TrimSuffix(base, filepath.Ext(base)), true)
	stem = strings.Trim(stem, ".")
	if len(stem) > maxStemLen {
		stem = stem[:maxStemLen]
	}
	if stem == "" {
		stem = defaultStem
	}
	return stem, ext
}

func keepSafe(s string, punctuation bool) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			return r
		case punctuation && (r == '.' || r == '_' || r == '-'):
			return r
		}
		return -1
	}, s)
}
