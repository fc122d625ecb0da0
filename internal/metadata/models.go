package metadata

import (
	"time"

	"github.com/abduss/imagemeta/internal/analysis"
	"github.com/abduss/imagemeta/internal/exiftag"
	"github.com/abduss/imagemeta/internal/geo"
	"github.com/abduss/imagemeta/internal/properties"
	"github.com/abduss/imagemeta/internal/upload"
)

// APIVersion is stamped into every record.
const APIVersion = "1.0.0"

// TimeLayout is the ISO-8601 layout used for all record timestamps.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// FileInfo identifies the uploaded file.
type FileInfo struct {
	Filename        string `json:"filename"`
	SizeBytes       int64  `json:"size_bytes"`
	SizeFormatted   string `json:"size_formatted"`
	ContentType     string `json:"content_type"`
	MD5Hash         string `json:"md5_hash"`
	UploadTimestamp string `json:"upload_timestamp"`
}

// ProcessingInfo stamps the tool version, the tag table revision and the
// processing time.
type ProcessingInfo struct {
	APIVersion  string `json:"api_version"`
	TagTables   string `json:"tag_tables"`
	ProcessedAt string `json:"processed_at"`
}

// PersistenceOutcome reports the result of saving a record.
type PersistenceOutcome struct {
	Status        string `json:"status"`
	ImageID       string `json:"image_id,omitempty"`
	SavedFilename string `json:"saved_filename,omitempty"`
	ImagePath     string `json:"image_path,omitempty"`
	MetadataPath  string `json:"metadata_path,omitempty"`
	SavedAt       string `json:"saved_at,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Record is the canonical metadata record for one image.
type Record struct {
	FileInfo        FileInfo                   `json:"file_info"`
	ImageProperties properties.ImageProperties `json:"image_properties"`
	ExifData        exiftag.Section            `json:"exif_data"`
	GPSLocation     geo.GeoLocation            `json:"gps_location"`
	ProcessingInfo  ProcessingInfo             `json:"processing_info"`
	AIAnalysis      *analysis.Result           `json:"ai_analysis,omitempty"`
	SaveInfo        *PersistenceOutcome        `json:"save_info,omitempty"`
}

// Upload is an image received from a caller.
type Upload = upload.File

// Options controls optional extraction steps.
type Options struct {
	// Analyze forwards the image and its summary to the analyzer when one is
	// available.
	Analyze bool
}

// Timestamp formats t with TimeLayout.
func Timestamp(t time.Time) string {
	return t.Format(TimeLayout)
}
