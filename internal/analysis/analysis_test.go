package analysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/abduss/imagemeta/internal/testutil"
)

type capturedRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	} `json:"messages"`
}

func TestClientSendsImageAndSummary(t *testing.T) {
	var captured capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-4o-2024","choices":[{"message":{"content":"A gradient."}}],"usage":{"total_tokens":321}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: srv.URL + "/", MaxImageDimension: 32}, srv.Client())

	completion, err := client.Analyze(context.Background(), Request{Image: testutil.JPEG(t, 128, 64, nil), Summary: "FILE INFORMATION"})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if completion.Text != "A gradient." || completion.Model != "gpt-4o-2024" || completion.TokensUsed != 321 {
		t.Fatalf("unexpected completion %+v", completion)
	}

	if captured.Model != "gpt-4o" || captured.MaxTokens != 1000 || len(captured.Messages) != 2 {
		t.Fatalf("unexpected request %+v", captured)
	}
	parts, ok := captured.Messages[1].Content.([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("unexpected user content %#v", captured.Messages[1].Content)
	}
	text := parts[0].(map[string]any)["text"].(string)
	if !strings.Contains(text, "FILE INFORMATION") {
		t.Fatalf("summary missing from request text %q", text)
	}

	url := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	const prefix = "data:image/jpeg;base64,"
	if !strings.HasPrefix(url, prefix) {
		t.Fatalf("unexpected data url prefix %q", url[:32])
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	if err != nil {
		t.Fatalf("decode data url: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(strings.NewReader(string(raw)))
	if err != nil {
		t.Fatalf("decode sent image: %v", err)
	}
	if cfg.Width != 32 || cfg.Height != 16 {
		t.Fatalf("expected image fitted to 32x16, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestClientReportsUpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: srv.URL}, srv.Client())
	_, err := client.Analyze(context.Background(), Request{Image: testutil.JPEG(t, 8, 8, nil)})
	if !errors.Is(err, ErrUpstream) || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestClientRejectsEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-4o","choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: srv.URL}, srv.Client())
	_, err := client.Analyze(context.Background(), Request{Image: testutil.JPEG(t, 8, 8, nil)})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestClientWithoutKey(t *testing.T) {
	client := NewClient(Config{}, nil)
	if _, err := client.Analyze(context.Background(), Request{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

type fakeCompleter struct {
	configured bool
	completion Completion
	err        error
}

func (f *fakeCompleter) Analyze(context.Context, Request) (Completion, error) {
	return f.completion, f.err
}

func (f *fakeCompleter) Configured() bool { return f.configured }

func (f *fakeCompleter) Model() string { return "fake-model" }

func TestServiceTurnsFailuresIntoMarkers(t *testing.T) {
	service := NewService(&fakeCompleter{configured: true, err: errors.New("connection refused")}, nil)

	result := service.Analyze(context.Background(), []byte("img"), "summary")
	if result.Status != StatusError || result.Error != "connection refused" {
		t.Fatalf("unexpected result %+v", result)
	}
	if !result.MetadataContextProvided || result.ImageContentProcessed {
		t.Fatalf("unexpected bookkeeping %+v", result)
	}
}

func TestServiceSuccess(t *testing.T) {
	service := NewService(&fakeCompleter{configured: true, completion: Completion{Text: "ok", Model: "m", TokensUsed: 7}}, nil)

	result := service.Analyze(context.Background(), []byte("img"), "")
	if result.Status != StatusSuccess || result.Analysis != "ok" || result.TokensUsed != 7 || !result.ImageContentProcessed {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.MetadataContextProvided {
		t.Fatalf("empty summary must not count as context")
	}
}

func TestStatusEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, configured := range []bool{true, false} {
		r := gin.New()
		RegisterRoutes(r.Group("/"), NewService(&fakeCompleter{configured: configured}, nil))

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ai-status", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}

		var report StatusReport
		if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if report.AIAvailable != configured || report.OpenAIConfigured != configured {
			t.Fatalf("configured=%v: unexpected report %+v", configured, report)
		}
		if configured && report.Model != "fake-model" {
			t.Fatalf("expected model in report, got %+v", report)
		}
	}
}
