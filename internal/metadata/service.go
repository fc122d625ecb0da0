// Package metadata assembles the canonical metadata record of an uploaded
// image and renders its textual summary.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abduss/imagemeta/internal/analysis"
	"github.com/abduss/imagemeta/internal/exiftag"
	"github.com/abduss/imagemeta/internal/geo"
	"github.com/abduss/imagemeta/internal/metrics"
	"github.com/abduss/imagemeta/internal/properties"
)

type analyzer interface {
	Available() bool
	Analyze(ctx context.Context, image []byte, summary string) analysis.Result
}

// Service runs the extraction stages for one upload at a time.
type Service struct {
	analyzer analyzer
	log      *zap.Logger
	now      func() time.Time
}

// NewService constructs an extraction service. analyzer may be nil.
func NewService(analyzer analyzer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{analyzer: analyzer, log: log, now: time.Now}
}

// AnalyzerAvailable reports whether Options.Analyze can take effect.
func (s *Service) AnalyzerAvailable() bool {
	return s.analyzer != nil && s.analyzer.Available()
}

// Extract builds the full record for up. Only a *properties.DecodeError is
// returned; failures inside a stage become error markers in the record.
func (s *Service) Extract(ctx context.Context, up Upload, opts Options) (Record, error) {
	received := s.now()

	decoded, err := properties.Decode(up.Data)
	if err != nil {
		metrics.RecordExtraction("rejected")
		return Record{}, err
	}

	var (
		props properties.ImageProperties
		tags  exiftag.Section
		loc   geo.GeoLocation
	)

	var g errgroup.Group
	g.Go(func() error {
		if err := s.guard("properties", up.Filename, func() {
			props = properties.Analyze(decoded)
		}); err != nil {
			props = properties.Failed(err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.guard("tags", up.Filename, func() {
			tags, loc = s.resolveTags(up.Data, up.Filename)
		}); err != nil {
			tags = exiftag.Section{Error: fmt.Sprintf("Failed to extract EXIF data: %v", err)}
			loc = geo.Failed(err)
		}
		return nil
	})
	_ = g.Wait()

	rec := Aggregate(NewFileInfo(up, received), props, tags, loc, s.now())

	if opts.Analyze && s.AnalyzerAvailable() {
		result := s.analyzer.Analyze(ctx, up.Data, RenderSummary(rec))
		rec.AIAnalysis = &result
	}

	metrics.RecordExtraction("success")
	return rec, nil
}

// ExtractGPS resolves only the geolocation of up.
func (s *Service) ExtractGPS(ctx context.Context, up Upload) (geo.GeoLocation, error) {
	if _, err := properties.Decode(up.Data); err != nil {
		return geo.GeoLocation{}, err
	}

	var loc geo.GeoLocation
	if err := s.guard("gps", up.Filename, func() {
		_, loc = s.resolveTags(up.Data, up.Filename)
	}); err != nil {
		loc = geo.Failed(err)
	}
	return loc, nil
}

func (s *Service) resolveTags(data []byte, filename string) (exiftag.Section, geo.GeoLocation) {
	raw, err := exiftag.Decode(data)
	res := exiftag.Resolve(raw)

	var section exiftag.Section
	switch {
	case errors.Is(err, exiftag.ErrNoTagBlock):
		section = exiftag.Section{Tags: exiftag.TagMap{}}
	case err != nil:
		section = exiftag.Section{Error: fmt.Sprintf("Failed to extract EXIF data: %v", err)}
	default:
		section = exiftag.Section{Tags: res.Tags}
	}

	if res.ExifErr != nil {
		s.log.Warn("exif sub-block skipped", zap.String("filename", filename), zap.Error(res.ExifErr))
		section.Error = fmt.Sprintf("Failed to extract EXIF data: %v", res.ExifErr)
	}
	return section, geo.Locate(res, err)
}

// guard runs stage and converts a panic into an error so sibling stages
// still complete.
func (s *Service) guard(stage, filename string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
			s.log.Error("extraction stage panicked",
				zap.String("stage", stage),
				zap.String("filename", filename),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	fn()
	return nil
}
