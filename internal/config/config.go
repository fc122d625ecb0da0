package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultMaxUploadBytes = 100 * 1024 * 1024

// Config aggregates runtime configuration for the image metadata API.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	AI      AIConfig
	MinIO   MinIOConfig
	Metrics MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	Environment    string
	AllowedOrigins []string
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Development reports whether the server runs in a development environment.
func (s ServerConfig) Development() bool {
	return s.Environment == "development"
}

// StorageConfig controls where saved images and their sidecars live.
type StorageConfig struct {
	SaveEnabled    bool
	ImagesDir      string
	DataDir        string
	MaxUploadBytes int64
}

// AIConfig configures the vision analysis collaborator.
type AIConfig struct {
	APIKey            string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	MaxTokens         int
	MaxImageDimension int
}

// MinIOConfig carries MinIO connection and bucket information. Saved images
// are mirrored to the bucket only when Enabled is set.
type MinIOConfig struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:           getString("API_HOST", "0.0.0.0"),
			Port:           getInt("API_PORT", 8000),
			ReadTimeout:    getDuration("API_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getDuration("API_WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:    getDuration("API_IDLE_TIMEOUT", 60*time.Second),
			Environment:    strings.ToLower(getString("ENVIRONMENT", "development")),
			AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		},
		Storage: StorageConfig{
			SaveEnabled:    getBool("SAVE_IMAGES_ENABLED", true),
			ImagesDir:      getString("SAVED_IMAGES_DIR", "saved_images"),
			DataDir:        getString("SAVED_DATA_DIR", "saved_data"),
			MaxUploadBytes: int64(getInt("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)),
		},
		AI: AIConfig{
			APIKey:            getString("OPENAI_API_KEY", ""),
			Model:             getString("OPENAI_MODEL", "gpt-4o"),
			BaseURL:           strings.TrimRight(getString("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
			Timeout:           getDuration("OPENAI_TIMEOUT", 60*time.Second),
			MaxTokens:         getInt("OPENAI_MAX_TOKENS", 1000),
			MaxImageDimension: getInt("AI_MAX_IMAGE_DIMENSION", 1024),
		},
		MinIO: MinIOConfig{
			Enabled:         getBool("MINIO_ENABLED", false),
			Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getString("MINIO_ROOT_USER", "imagemeta"),
			SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
			Bucket:          getString("MINIO_BUCKET", "imagemeta"),
			UseSSL:          getBool("MINIO_USE_SSL", false),
			Region:          getString("MINIO_REGION", ""),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("METRICS_PATH", "/metrics"),
		},
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid API_PORT %d", cfg.Server.Port)
	}
	if cfg.Storage.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("invalid MAX_UPLOAD_BYTES %d", cfg.Storage.MaxUploadBytes)
	}
	if cfg.Storage.SaveEnabled && (cfg.Storage.ImagesDir == "" || cfg.Storage.DataDir == "") {
		return Config{}, fmt.Errorf("SAVED_IMAGES_DIR and SAVED_DATA_DIR must be set when saving is enabled")
	}
	if !strings.HasPrefix(cfg.Metrics.PrometheusPath, "/") {
		cfg.Metrics.PrometheusPath = "/" + cfg.Metrics.PrometheusPath
	}
	if cfg.Server.Development() {
		cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, "*")
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
