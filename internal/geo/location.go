package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/abduss/imagemeta/internal/exiftag"
)

// Status tells apart the possible outcomes of reading a GPS block.
type Status string

const (
	StatusOK            Status = "ok"
	StatusNoTagBlock    Status = "no_exif"
	StatusNoGPS         Status = "no_gps"
	StatusUnsupported   Status = "unsupported_format"
	StatusNoCoordinates Status = "no_coordinates"
	StatusFailed        Status = "failed"
)

const (
	msgNoTagBlock    = "No EXIF data available"
	msgUnsupported   = "GPS data format not supported"
	msgNoGPS         = "No GPS data found in EXIF"
	msgNoCoordinates = "No valid GPS coordinates found"
)

// GeoLocation is the gps_location sub-record.
type GeoLocation struct {
	Status             Status            `json:"status"`
	Latitude           *float64          `json:"latitude,omitempty"`
	Longitude          *float64          `json:"longitude,omitempty"`
	LatitudeRef        string            `json:"latitude_ref,omitempty"`
	LongitudeRef       string            `json:"longitude_ref,omitempty"`
	CoordinatesDecimal string            `json:"coordinates_decimal,omitempty"`
	GoogleMapsURL      string            `json:"google_maps_url,omitempty"`
	OpenStreetMapURL   string            `json:"openstreetmap_url,omitempty"`
	Altitude           *float64          `json:"altitude,omitempty"`
	AltitudeRef        string            `json:"altitude_ref,omitempty"`
	GPSDate            string            `json:"gps_date,omitempty"`
	GPSTimeUTC         string            `json:"gps_time_utc,omitempty"`
	RawGPSData         map[string]string `json:"raw_gps_data,omitempty"`
	Error              string            `json:"error,omitempty"`
}

// HasCoordinates reports whether both coordinates were resolved.
func (g GeoLocation) HasCoordinates() bool {
	return g.Latitude != nil && g.Longitude != nil
}

// NoTagBlock is the outcome for images without any tag block.
func NoTagBlock() GeoLocation {
	return GeoLocation{Status: StatusNoTagBlock, Error: msgNoTagBlock}
}

// NoGPS is the outcome for tag blocks without a GPS sub-block.
func NoGPS() GeoLocation {
	return GeoLocation{Status: StatusNoGPS, Error: msgNoGPS}
}

// Unsupported is the outcome for a GPS sub-block that could not be read.
func Unsupported(err error) GeoLocation {
	loc := GeoLocation{Status: StatusUnsupported, Error: msgUnsupported}
	if err != nil {
		loc.RawGPSData = map[string]string{"cause": err.Error()}
	}
	return loc
}

// Failed is the outcome for unexpected errors while processing GPS data.
func Failed(err error) GeoLocation {
	return GeoLocation{Status: StatusFailed, Error: fmt.Sprintf("Error processing GPS data: %v", err)}
}

// Locate maps the result of decoding and resolving a tag block onto a
// GeoLocation.
func Locate(res exiftag.Resolved, decodeErr error) GeoLocation {
	switch {
	case errors.Is(decodeErr, exiftag.ErrNoTagBlock):
		return NoTagBlock()
	case errors.Is(decodeErr, exiftag.ErrMalformedTagBlock):
		return Unsupported(decodeErr)
	case decodeErr != nil:
		return Failed(decodeErr)
	case res.GPSErr != nil:
		return Unsupported(res.GPSErr)
	}
	return FromTags(res.GPS)
}

// FromTags builds a GeoLocation from a resolved GPS block.
func FromTags(tags exiftag.TagMap) GeoLocation {
	if len(tags) == 0 {
		return NoGPS()
	}

	loc := GeoLocation{Status: StatusNoCoordinates}

	latRef := text(tags, "GPSLatitudeRef")
	lonRef := text(tags, "GPSLongitudeRef")
	latVal, hasLat := tags["GPSLatitude"]
	lonVal, hasLon := tags["GPSLongitude"]
	if hasLat && hasLon {
		lat, latOK := DMSToDecimal(latVal.Parts(), orDefault(latRef, "N"))
		lon, lonOK := DMSToDecimal(lonVal.Parts(), orDefault(lonRef, "E"))
		if latOK && lonOK {
			loc.Status = StatusOK
			loc.Latitude = &lat
			loc.Longitude = &lon
			loc.LatitudeRef = latRef
			loc.LongitudeRef = lonRef

			latText, lonText := formatCoord(lat), formatCoord(lon)
			loc.CoordinatesDecimal = latText + ", " + lonText
			loc.GoogleMapsURL = "https://maps.google.com/?q=" + latText + "," + lonText
			loc.OpenStreetMapURL = "https://www.openstreetmap.org/?mlat=" + latText + "&mlon=" + lonText + "&zoom=15"
		}
	}

	if v, ok := tags["GPSAltitude"]; ok {
		if alt, ok := v.Float(); ok && !math.IsNaN(alt) && !math.IsInf(alt, 0) {
			var ref int64
			if r, ok := tags["GPSAltitudeRef"]; ok {
				ref, _ = r.Int()
			}
			signed, label := Altitude(alt, ref)
			loc.Altitude = &signed
			loc.AltitudeRef = label
		}
	}

	loc.GPSDate = text(tags, "GPSDateStamp")
	if v, ok := tags["GPSTimeStamp"]; ok {
		if ts, ok := FormatGPSTime(v.Parts()); ok {
			loc.GPSTimeUTC = ts
		}
	}

	loc.RawGPSData = make(map[string]string, len(tags))
	for name, v := range tags {
		loc.RawGPSData[name] = v.String()
	}

	if loc.Status == StatusNoCoordinates {
		loc.Error = msgNoCoordinates
	}
	return loc
}

func text(tags exiftag.TagMap, name string) string {
	v, ok := tags[name]
	if !ok {
		return ""
	}
	return v.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
