package metadata

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Highlights lists the tags copied into the summary, in render order.
var Highlights = []string{
	"Make",
	"Model",
	"LensModel",
	"DateTimeOriginal",
	"DateTimeDigitized",
	"DateTime",
	"ExposureTime",
	"FNumber",
	"ISOSpeedRatings",
	"FocalLength",
	"Flash",
	"WhiteBalance",
	"Software",
	"Artist",
	"Copyright",
}

const maxHighlightLen = 200

// RenderSummary renders rec as sectioned plain text. The section skeleton is
// the same for every record; a failed sub-record renders a "Not available"
// line in place of its fields.
func RenderSummary(rec Record) string {
	var b strings.Builder

	section(&b, "FILE INFORMATION", "", func() {
		f := rec.FileInfo
		line(&b, "Filename", f.Filename)
		line(&b, "Size", fmt.Sprintf("%s (%d bytes)", f.SizeFormatted, f.SizeBytes))
		line(&b, "Content type", f.ContentType)
		line(&b, "MD5", f.MD5Hash)
		line(&b, "Uploaded", f.UploadTimestamp)
	})

	section(&b, "IMAGE PROPERTIES", rec.ImageProperties.Error, func() {
		p := rec.ImageProperties
		if d := p.Dimensions; d != nil {
			line(&b, "Dimensions", fmt.Sprintf("%s (%s)", d.Resolution, d.Orientation))
			line(&b, "Aspect ratio", strconv.FormatFloat(d.AspectRatio, 'f', -1, 64))
			line(&b, "Megapixels", strconv.FormatFloat(d.Megapixels, 'f', -1, 64))
		}
		if c := p.ColorInfo; c != nil {
			line(&b, "Color mode", c.Mode)
			line(&b, "Transparency", yesNo(c.HasTransparency))
			line(&b, "Distinct colors", c.PaletteSize.String())
			if len(c.DominantColors) > 0 {
				line(&b, "Dominant colors", strings.Join(c.DominantColors, ", "))
			}
		}
		if t := p.Technical; t != nil {
			format := t.Format
			if t.FormatDescription != "" {
				format += " (" + t.FormatDescription + ")"
			}
			line(&b, "Format", format)
			line(&b, "Animated", fmt.Sprintf("%s (%d frames)", yesNo(t.IsAnimated), t.Frames))
		}
	})

	section(&b, "GEOLOCATION", rec.GPSLocation.Error, func() {
		g := rec.GPSLocation
		line(&b, "Coordinates", g.CoordinatesDecimal)
		if g.Altitude != nil {
			line(&b, "Altitude", fmt.Sprintf("%s m (%s)", strconv.FormatFloat(*g.Altitude, 'f', -1, 64), g.AltitudeRef))
		}
		if g.GPSDate != "" {
			line(&b, "GPS date", g.GPSDate)
		}
		if g.GPSTimeUTC != "" {
			line(&b, "GPS time (UTC)", g.GPSTimeUTC)
		}
	})

	exifFailure := ""
	if rec.ExifData.Failed() {
		exifFailure = rec.ExifData.Error
	}
	section(&b, "CAMERA TAGS", exifFailure, func() {
		n := 0
		for _, name := range Highlights {
			v, ok := rec.ExifData.Tags[name]
			if !ok {
				continue
			}
			text := strings.TrimSpace(v.String())
			if text == "" {
				continue
			}
			text = truncate(text, maxHighlightLen)
			line(&b, name, text)
			n++
		}
		if n == 0 {
			b.WriteString("- No highlighted tags present\n")
		}
		fmt.Fprintf(&b, "- Total tags: %d\n", len(rec.ExifData.Tags))
		if rec.ExifData.Error != "" {
			line(&b, "Incomplete", rec.ExifData.Error)
		}
	})

	section(&b, "PROCESSING", "", func() {
		line(&b, "API version", rec.ProcessingInfo.APIVersion)
		if rec.ProcessingInfo.TagTables != "" {
			line(&b, "Tag tables", rec.ProcessingInfo.TagTables)
		}
		line(&b, "Processed at", rec.ProcessingInfo.ProcessedAt)
	})

	return strings.TrimRight(b.String(), "\n")
}

func section(b *strings.Builder, title, failure string, body func()) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(title)
	b.WriteString("\n")
	if failure != "" {
		fmt.Fprintf(b, "- Not available: %s\n", failure)
		return
	}
	body()
}

func line(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}

// truncate cuts text to at most limit runes.
func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
