package analysis

import "time"

// Result is the ai_analysis sub-record. Status is "success" or "error"; on
// error only Error and the bookkeeping fields are set.
type Result struct {
	Analysis                string `json:"analysis,omitempty"`
	Model                   string `json:"model,omitempty"`
	TokensUsed              int    `json:"tokens_used,omitempty"`
	AnalysisType            string `json:"analysis_type,omitempty"`
	ImageContentProcessed   bool   `json:"image_content_processed"`
	MetadataContextProvided bool   `json:"metadata_context_provided"`
	Status                  string `json:"status"`
	AnalyzedAt              string `json:"analyzed_at,omitempty"`
	Error                   string `json:"error,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"

	analysisType = "image_and_metadata"
	timeLayout   = "2006-01-02T15:04:05.000000Z07:00"
)

// Request is one image plus the rendered metadata summary.
type Request struct {
	Image   []byte
	Summary string
}

// Completion is the parsed reply of the vision service.
type Completion struct {
	Text       string
	Model      string
	TokensUsed int
}

// StatusReport describes analyzer availability.
type StatusReport struct {
	Status           string   `json:"status"`
	AIAvailable      bool     `json:"ai_available"`
	OpenAIConfigured bool     `json:"openai_configured"`
	Model            string   `json:"model,omitempty"`
	Features         []string `json:"features"`
	Message          string   `json:"message"`
}

// Config parameterizes the vision client.
type Config struct {
	APIKey            string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	MaxTokens         int
	MaxImageDimension int
}
