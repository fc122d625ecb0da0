// Package analysis forwards images and their metadata summary to an external
// vision-capable model.
package analysis

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/abduss/imagemeta/internal/metrics"
)

type completer interface {
	Analyze(ctx context.Context, req Request) (Completion, error)
	Configured() bool
	Model() string
}

var features = []string{
	"scene_description",
	"metadata_correlation",
	"location_context",
	"camera_settings_review",
}

// Service wraps the vision client and turns its failures into result
// markers.
type Service struct {
	client completer
	log    *zap.Logger
	now    func() time.Time
}

// NewService constructs an analysis service.
func NewService(client completer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{client: client, log: log, now: time.Now}
}

// Available reports whether analysis requests can be made.
func (s *Service) Available() bool {
	return s != nil && s.client != nil && s.client.Configured()
}

// Status describes the current availability.
func (s *Service) Status() StatusReport {
	if !s.Available() {
		return StatusReport{
			Status:   "unavailable",
			Features: []string{},
			Message:  "AI analysis is disabled: OPENAI_API_KEY is not set",
		}
	}
	return StatusReport{
		Status:           "available",
		AIAvailable:      true,
		OpenAIConfigured: true,
		Model:            s.client.Model(),
		Features:         features,
		Message:          "AI analysis is available",
	}
}

// Analyze never fails: transport and service errors are returned as a
// Result with Status "error".
func (s *Service) Analyze(ctx context.Context, image []byte, summary string) Result {
	result := Result{
		AnalysisType:            analysisType,
		MetadataContextProvided: summary != "",
		AnalyzedAt:              s.now().Format(timeLayout),
	}

	if !s.Available() {
		result.Status = StatusError
		result.Error = ErrNotConfigured.Error()
		metrics.RecordAIRequest(StatusError)
		return result
	}

	start := s.now()
	completion, err := s.client.Analyze(ctx, Request{Image: image, Summary: summary})
	if err != nil {
		s.log.Warn("ai analysis failed", zap.Error(err), zap.Duration("elapsed", s.now().Sub(start)))
		result.Status = StatusError
		result.Error = err.Error()
		metrics.RecordAIRequest(StatusError)
		return result
	}

	result.Status = StatusSuccess
	result.Analysis = completion.Text
	result.Model = completion.Model
	result.TokensUsed = completion.TokensUsed
	result.ImageContentProcessed = true
	metrics.RecordAIRequest(StatusSuccess)
	return result
}
