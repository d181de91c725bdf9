package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variable names. Vision settings follow the upstream service
// convention: an empty VISION_PROVIDER disables remote OCR entirely.
const (
	EnvPort         = "PORT"
	EnvMode         = "MODE"
	EnvAPIKey       = "API_KEY"
	EnvUploadDir    = "UPLOAD_DIR"
	EnvStateDB      = "STATE_DB"
	EnvMaxFileBytes = "MAX_FILE_BYTES"
	EnvDeleteDelay  = "FILE_DELETE_DELAY"
	EnvLogLevel     = "LOG_LEVEL"

	EnvVisionProvider = "VISION_PROVIDER"
	EnvVisionBaseURL  = "VISION_BASE_URL"
	EnvVisionAPIKey   = "VISION_API_KEY"
	EnvVisionModel    = "VISION_MODEL"
	EnvVisionPrompt   = "VISION_PROMPT"
	EnvVisionTimeout  = "VISION_TIMEOUT_SECONDS"

	EnvPDFConcurrentLimit = "PDF_CONCURRENT_LIMIT"
	EnvPDFBatchSize       = "PDF_BATCH_SIZE"
)

// Defaults for missing or invalid values.
const (
	DefaultPort         = "8080"
	DefaultUploadDir    = "files"
	DefaultStateDB      = "data/extractd.db"
	DefaultMaxFileBytes = int64(50 << 20) // 50 MiB

	DefaultDeleteDelay   = 300 * time.Second
	DefaultVisionTimeout = 120 * time.Second

	DefaultPDFConcurrentLimit = 5
	DefaultPDFBatchSize       = 10
)

// Config holds runtime configuration sourced from environment variables.
type Config struct {
	Port      string
	Mode      string // "release", "debug" or "mcp"
	APIKey    string // inbound x-api-key; empty disables auth
	UploadDir string
	StateDB   string
	LogLevel  string

	MaxFileSizeBytes int64
	DeleteDelay      time.Duration

	Vision Vision
	PDF    PDF
}

// Vision configures the remote vision-language OCR backend.
type Vision struct {
	Provider string // "openai", "ollama" or "" (disabled)
	BaseURL  string
	APIKey   string
	Model    string
	Prompt   string
	Timeout  time.Duration
}

// Enabled reports whether a remote vision backend is configured.
func (v Vision) Enabled() bool {
	return v.Provider != "" && v.BaseURL != "" && v.Model != ""
}

// PDF configures the per-page OCR fallback.
type PDF struct {
	ConcurrentLimit int // max parallel vision requests
	BatchSize       int // pages per progress-logged batch
}

// Load reads Config from environment variables, falling back to defaults for
// missing or invalid values.
func Load() *Config {
	cfg := &Config{
		Port:             envOr(EnvPort, DefaultPort),
		Mode:             os.Getenv(EnvMode),
		APIKey:           os.Getenv(EnvAPIKey),
		UploadDir:        envOr(EnvUploadDir, DefaultUploadDir),
		StateDB:          envOr(EnvStateDB, DefaultStateDB),
		LogLevel:         envOr(EnvLogLevel, "info"),
		MaxFileSizeBytes: DefaultMaxFileBytes,
		DeleteDelay:      DefaultDeleteDelay,
		Vision: Vision{
			Provider: os.Getenv(EnvVisionProvider),
			BaseURL:  os.Getenv(EnvVisionBaseURL),
			APIKey:   os.Getenv(EnvVisionAPIKey),
			Model:    os.Getenv(EnvVisionModel),
			Prompt:   os.Getenv(EnvVisionPrompt),
			Timeout:  DefaultVisionTimeout,
		},
		PDF: PDF{
			ConcurrentLimit: envInt(EnvPDFConcurrentLimit, DefaultPDFConcurrentLimit),
			BatchSize:       envInt(EnvPDFBatchSize, DefaultPDFBatchSize),
		},
	}

	if v := os.Getenv(EnvMaxFileBytes); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxFileSizeBytes = n
		}
	}
	if v := os.Getenv(EnvDeleteDelay); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.DeleteDelay = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv(EnvVisionTimeout); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Vision.Timeout = time.Duration(n) * time.Second
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
