package archive

import (
	"time"

	"github.com/abduss/imagemeta/internal/metadata"
)

// Entry is one saved image and the record it was saved with. It is also the
// sidecar schema.
type Entry struct {
	ImageID          string          `json:"image_id"`
	OriginalFilename string          `json:"original_filename"`
	SavedFilename    string          `json:"saved_filename"`
	SavedAt          time.Time       `json:"saved_at"`
	FileSize         int64           `json:"file_size"`
	Metadata         metadata.Record `json:"metadata"`
}

// Summary is the listing view of an Entry.
type Summary struct {
	ImageID          string    `json:"image_id"`
	OriginalFilename string    `json:"original_filename"`
	SavedFilename    string    `json:"saved_filename"`
	SavedAt          time.Time `json:"saved_at"`
	FileSize         int64     `json:"file_size"`
	ImageExists      bool      `json:"image_exists"`
	HasGPS           bool      `json:"has_gps"`
	HasAIAnalysis    bool      `json:"has_ai_analysis"`
}

func summarize(e Entry, imageExists bool) Summary {
	ai := e.Metadata.AIAnalysis
	return Summary{
		ImageID:          e.ImageID,
		OriginalFilename: e.OriginalFilename,
		SavedFilename:    e.SavedFilename,
		SavedAt:          e.SavedAt,
		FileSize:         e.FileSize,
		ImageExists:      imageExists,
		HasGPS:           e.Metadata.GPSLocation.HasCoordinates(),
		HasAIAnalysis:    ai != nil && ai.Error == "",
	}
}
