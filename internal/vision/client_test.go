package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, provider Provider, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{
		Provider: provider,
		BaseURL:  baseURL,
		APIKey:   "test-key",
		Model:    "test-model",
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "carrier-pigeon", BaseURL: "http://x", Model: "m"})
	if err == nil {
		t.Fatal("expected error for unknown provider, got nil")
	}
}

func TestNew_MissingBaseURL(t *testing.T) {
	_, err := New(Config{Provider: ProviderOpenAI, Model: "m"})
	if err == nil {
		t.Fatal("expected error for missing base URL, got nil")
	}
}

func TestNew_DefaultPrompt(t *testing.T) {
	c := newTestClient(t, ProviderOpenAI, "http://localhost")
	if c.prompt != DefaultPrompt {
		t.Errorf("prompt = %q, want default", c.prompt)
	}
}

func TestDescribe_OpenAIShape(t *testing.T) {
	var gotPath string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
			t.Errorf("unexpected message shape: %+v", req.Messages)
		}
		if img := req.Messages[0].Content[1].ImageURL; img == nil ||
			!strings.HasPrefix(img.URL, "data:image/png;base64,") {
			t.Errorf("expected data URL image part, got %+v", img)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "  extracted text  "}},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, ProviderOpenAI, srv.URL)
	text, err := c.Describe(context.Background(), []byte("fakepng"), "image/png")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if text != "extracted text" {
		t.Errorf("text = %q, want %q", text, "extracted text")
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q, want /chat/completions", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth = %q, want bearer token", gotAuth)
	}
}

func TestDescribe_OllamaShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("stream should be false")
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Images) != 1 {
			t.Errorf("unexpected message shape: %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Message: ollamaMessage{Role: "assistant", Content: "page text"},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, ProviderOllama, srv.URL)
	text, err := c.Describe(context.Background(), []byte("fakepng"), "image/png")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if text != "page text" {
		t.Errorf("text = %q, want %q", text, "page text")
	}
}

func TestDescribe_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, ProviderOpenAI, srv.URL)
	text, err := c.Describe(context.Background(), []byte("fakepng"), "image/png")
	if err != nil {
		t.Fatalf("Describe after retry: %v", err)
	}
	if text != "ok" {
		t.Errorf("text = %q, want %q", text, "ok")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server calls = %d, want 2", got)
	}
}

func TestDescribe_NoRetryOnBadRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad image", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, ProviderOpenAI, srv.URL)
	_, err := c.Describe(context.Background(), []byte("fakepng"), "image/png")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1 (no retry on 400)", got)
	}
}

func TestDescribe_EmptyImage(t *testing.T) {
	c := newTestClient(t, ProviderOpenAI, "http://localhost")
	if _, err := c.Describe(context.Background(), nil, "image/png"); err == nil {
		t.Fatal("expected error for empty image, got nil")
	}
}

func TestDescribe_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(t, ProviderOpenAI, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Describe(ctx, []byte("fakepng"), "image/png"); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}
