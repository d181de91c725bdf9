// Package vision calls a remote vision-language model to extract text from
// images. Two wire shapes are supported: OpenAI-compatible chat completions
// and the Ollama native chat API.
package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Provider selects the request/response wire shape.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
)

// DefaultPrompt is used when no extraction prompt is configured.
const DefaultPrompt = "Extract all text content from this image. " +
	"Return the text as clean Markdown, preserving headings, lists and tables. " +
	"Respond with the extracted text only, no commentary."

const (
	maxRetries     = 3
	initialBackoff = 2 * time.Second
)

// Config holds the settings needed to reach a vision endpoint.
type Config struct {
	Provider Provider
	BaseURL  string
	APIKey   string
	Model    string
	Prompt   string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Client issues text-extraction requests against a vision endpoint.
type Client struct {
	provider   Provider
	baseURL    string
	apiKey     string
	model      string
	prompt     string
	httpClient *http.Client
	logger     *slog.Logger
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	switch cfg.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return nil, fmt.Errorf("unknown vision provider: %q", cfg.Provider)
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("vision base URL is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("vision model is required")
	}

	prompt := cfg.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		provider:   cfg.Provider,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		prompt:     prompt,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Describe sends the image to the configured endpoint and returns the
// extracted text. mimeType is the image media type (e.g. "image/png").
func (c *Client) Describe(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", errors.New("empty image")
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	var do func(context.Context, []byte, string) (string, error)
	switch c.provider {
	case ProviderOllama:
		do = c.describeOllama
	default:
		do = c.describeOpenAI
	}

	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying vision request",
				"attempt", attempt+1, "backoff", backoff)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		text, err := do(ctx, image, mimeType)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("vision request failed after %d attempts: %w", maxRetries, lastErr)
}

// statusError marks an HTTP failure so retry logic can distinguish rate
// limits and server errors from permanent request faults.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("vision API returned status %d: %s", e.code, e.body)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	// Transport-level errors (connection refused, timeouts) are worth a retry
	// unless the context itself has been cancelled.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
