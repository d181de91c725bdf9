package vision

// ollama.go — Ollama native chat wire shape.
//
// POST {base}/api/chat with stream:false. Images are raw base64 strings in
// the message's "images" array rather than data URLs, and the answer sits at
// message.content instead of choices[0].message.content.

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
	Error   string        `json:"error,omitempty"`
}

func (c *Client) describeOllama(ctx context.Context, image []byte, _ string) (string, error) {
	payload := ollamaRequest{
		Model: c.model,
		Messages: []ollamaMessage{{
			Role:    "user",
			Content: c.prompt,
			Images:  []string{base64.StdEncoding.EncodeToString(image)},
		}},
		Stream: false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal vision request: %w", err)
	}

	url := c.baseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send vision request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &statusError{code: resp.StatusCode, body: string(b)}
	}

	var parsed ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode vision response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("vision API error: %s", parsed.Error)
	}
	return strings.TrimSpace(parsed.Message.Content), nil
}
