package metadata

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/abduss/imagemeta/internal/exiftag"
	"github.com/abduss/imagemeta/internal/geo"
	"github.com/abduss/imagemeta/internal/properties"
)

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// Hash returns the hex MD5 digest of data.
func Hash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// FormatSize renders a byte count with two decimals in the largest unit up
// to GB.
func FormatSize(n int64) string {
	if n == 0 {
		return "0 B"
	}
	size := float64(n)
	i := 0
	for size >= 1024 && i < len(sizeUnits)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", size, sizeUnits[i])
}

// NewFileInfo builds the file identity of an upload received at now.
func NewFileInfo(up Upload, now time.Time) FileInfo {
	return FileInfo{
		Filename:        up.Filename,
		SizeBytes:       int64(len(up.Data)),
		SizeFormatted:   FormatSize(int64(len(up.Data))),
		ContentType:     up.ContentType,
		MD5Hash:         Hash(up.Data),
		UploadTimestamp: Timestamp(now),
	}
}

// Aggregate composes the sub-records into a Record processed at now.
func Aggregate(file FileInfo, props properties.ImageProperties, tags exiftag.Section, loc geo.GeoLocation, now time.Time) Record {
	if tags.Error == "" && tags.Tags == nil {
		tags.Tags = exiftag.TagMap{}
	}
	return Record{
		FileInfo:        file,
		ImageProperties: props,
		ExifData:        tags,
		GPSLocation:     loc,
		ProcessingInfo: ProcessingInfo{
			APIVersion:  APIVersion,
			TagTables:   exiftag.TableVersion,
			ProcessedAt: Timestamp(now),
		},
	}
}
