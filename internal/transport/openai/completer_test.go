package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/notemill/notemill/internal/domain"
	"github.com/notemill/notemill/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterProviderMetrics()
	os.Exit(m.Run())
}

// chatCompletionResponse mirrors the OpenAI-compatible chat completion response.
type chatCompletionResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		resp := chatCompletionResponse{
			ID:     "cmpl-1",
			Object: "chat.completion",
			Model:  "test-model",
		}
		resp.Choices = append(resp.Choices, struct {
			Index   int `json:"index"`
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		}{
			Message: struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			}{Role: "assistant", Content: content},
			FinishReason: "stop",
		})
		resp.Usage.PromptTokens = 42
		resp.Usage.CompletionTokens = 10
		resp.Usage.TotalTokens = 52

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestSynthesize(t *testing.T) {
	server := completionServer(t, "Caffeine delays sleep onset [1].")
	defer server.Close()

	c := NewCompleter(&Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	text, err := c.Synthesize(context.Background(), "prompt text")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if text != "Caffeine delays sleep onset [1]." {
		t.Errorf("unexpected completion text: %q", text)
	}
}

func TestSynthesize_ServerErrorIsTransientProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	}))
	defer server.Close()

	c := NewCompleter(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "m"})

	_, err := c.Synthesize(context.Background(), "prompt")
	if !errors.Is(err, domain.ErrSynthesisProvider) {
		t.Fatalf("expected ErrSynthesisProvider, got %v", err)
	}

	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		t.Fatal("expected *domain.ProviderError")
	}
	if pe.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", pe.StatusCode)
	}
	if !pe.Transient() {
		t.Error("500 should classify as transient")
	}
}

func TestSynthesize_AuthErrorIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer server.Close()

	c := NewCompleter(&Config{APIKey: "bad", BaseURL: server.URL, Model: "m"})

	_, err := c.Synthesize(context.Background(), "prompt")
	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *domain.ProviderError, got %v", err)
	}
	if pe.Transient() {
		t.Error("401 must not classify as transient")
	}
}

func TestSynthesize_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(chatCompletionResponse{ID: "cmpl-2", Object: "chat.completion"})
	}))
	defer server.Close()

	c := NewCompleter(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "m"})

	_, err := c.Synthesize(context.Background(), "prompt")
	if !errors.Is(err, domain.ErrSynthesisProvider) {
		t.Fatalf("expected ErrSynthesisProvider, got %v", err)
	}
}
