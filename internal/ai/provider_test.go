package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func completionFixture() CompletionRequest {
	return CompletionRequest{
		Model:        "test-model",
		SystemPrompt: "You are a resume expert.",
		UserPrompt:   "Enhance this resume.",
		MaxTokens:    4096,
		Temperature:  0.3,
		APIKey:       "test-key",
	}
}

func TestOpenAIProviderComplete(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var gotPath, gotAuth string
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": "enhanced text"}},
				},
				"usage": map[string]int{"prompt_tokens": 120, "completion_tokens": 80, "total_tokens": 200},
			})
		}))
		defer server.Close()

		p := NewOpenAIProvider(server.URL, server.Client(), nil)
		resp, err := p.Complete(context.Background(), completionFixture())
		if err != nil {
			t.Fatalf("Complete failed: %v", err)
		}

		if gotPath != "/v1/chat/completions" {
			t.Errorf("path = %q", gotPath)
		}
		if gotAuth != "Bearer test-key" {
			t.Errorf("auth header = %q", gotAuth)
		}
		if gotBody["model"] != "test-model" {
			t.Errorf("model = %v", gotBody["model"])
		}
		messages, _ := gotBody["messages"].([]any)
		if len(messages) != 2 {
			t.Fatalf("messages = %v, want system + user", gotBody["messages"])
		}
		first, _ := messages[0].(map[string]any)
		if first["role"] != "system" {
			t.Errorf("first message role = %v", first["role"])
		}
		if gotBody["max_tokens"] != float64(4096) {
			t.Errorf("max_tokens = %v", gotBody["max_tokens"])
		}

		if resp.Text != "enhanced text" {
			t.Errorf("text = %q", resp.Text)
		}
		if resp.Usage == nil || resp.Usage.InputTokens != 120 || resp.Usage.OutputTokens != 80 || resp.Usage.TotalTokens != 200 {
			t.Errorf("usage = %+v", resp.Usage)
		}
	})

	t.Run("ErrorEnvelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
		}))
		defer server.Close()

		p := NewOpenAIProvider(server.URL, server.Client(), nil)
		_, err := p.Complete(context.Background(), completionFixture())

		aiErr, ok := AsError(err)
		if !ok {
			t.Fatalf("expected classified error, got %v", err)
		}
		if aiErr.Kind != KindAPIKeyInvalid {
			t.Errorf("kind = %s, want api_key_invalid", aiErr.Kind)
		}
		if aiErr.Message != "Incorrect API key provided" {
			t.Errorf("vendor message not extracted: %q", aiErr.Message)
		}
	})

	t.Run("RateLimitCarriesRetryAfter", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
		}))
		defer server.Close()

		p := NewOpenAIProvider(server.URL, server.Client(), nil)
		_, err := p.Complete(context.Background(), completionFixture())

		aiErr, _ := AsError(err)
		if aiErr == nil || aiErr.Kind != KindRateLimit {
			t.Fatalf("expected rate_limit, got %v", err)
		}
		if aiErr.RetryAfter.Seconds() != 7 {
			t.Errorf("retryAfter = %v, want 7s", aiErr.RetryAfter)
		}
	})

	t.Run("EmptyCompletion", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  "}}]}`))
		}))
		defer server.Close()

		p := NewOpenAIProvider(server.URL, server.Client(), nil)
		_, err := p.Complete(context.Background(), completionFixture())

		aiErr, ok := AsError(err)
		if !ok || aiErr.Kind != KindUnknown {
			t.Fatalf("expected unknown-kind error for empty text, got %v", err)
		}
	})

	t.Run("TransportFailure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		p := NewOpenAIProvider(url, nil, nil)
		_, err := p.Complete(context.Background(), completionFixture())

		aiErr, ok := AsError(err)
		if !ok || aiErr.Kind != KindNetworkError {
			t.Fatalf("expected network_error, got %v", err)
		}
	})
}

func TestOpenAIProviderListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"id": "gpt-4o"},
				{"id": "whisper-1"},
				{"id": "text-embedding-3-small"},
				{"id": "gpt-3.5-turbo"},
				{"id": "dall-e-3"},
			},
		})
	}))
	defer server.Close()

	p := NewOpenAIProvider(server.URL, server.Client(), nil)
	models, err := p.ListModels(context.Background(), "test-key")
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}

	if len(models) != 2 {
		t.Fatalf("models = %+v, want gpt-4o and gpt-3.5-turbo only", models)
	}
	if models[0].ID != "gpt-4o" || !models[0].Recommended {
		t.Errorf("first model = %+v, want recommended gpt-4o", models[0])
	}
	if models[1].ID != "gpt-3.5-turbo" || !models[1].Deprecated {
		t.Errorf("second model = %+v, want deprecated gpt-3.5-turbo", models[1])
	}
}

func TestAnthropicProviderComplete(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var gotPath, gotKey, gotVersion string
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.Header.Get("x-api-key")
			gotVersion = r.Header.Get("anthropic-version")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"content": []map[string]string{{"type": "text", "text": "enhanced text"}},
				"usage":   map[string]int{"input_tokens": 150, "output_tokens": 90},
			})
		}))
		defer server.Close()

		p := NewAnthropicProvider(server.URL, server.Client(), nil)
		resp, err := p.Complete(context.Background(), completionFixture())
		if err != nil {
			t.Fatalf("Complete failed: %v", err)
		}

		if gotPath != "/v1/messages" {
			t.Errorf("path = %q", gotPath)
		}
		if gotKey != "test-key" {
			t.Errorf("x-api-key = %q", gotKey)
		}
		if gotVersion != anthropicVersion {
			t.Errorf("anthropic-version = %q", gotVersion)
		}
		if gotBody["system"] != "You are a resume expert." {
			t.Errorf("system prompt = %v", gotBody["system"])
		}

		if resp.Text != "enhanced text" {
			t.Errorf("text = %q", resp.Text)
		}
		if resp.Usage.TotalTokens != 240 {
			t.Errorf("total tokens = %d, want input+output sum", resp.Usage.TotalTokens)
		}
	})

	t.Run("ErrorEnvelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"not_found_error","message":"model: claude-nope"}}`))
		}))
		defer server.Close()

		p := NewAnthropicProvider(server.URL, server.Client(), nil)
		_, err := p.Complete(context.Background(), completionFixture())

		aiErr, ok := AsError(err)
		if !ok || aiErr.Kind != KindModelUnavailable {
			t.Fatalf("expected model_unavailable, got %v", err)
		}
		if aiErr.Message != "model: claude-nope" {
			t.Errorf("vendor message not extracted: %q", aiErr.Message)
		}
	})
}

func TestAnthropicProviderListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"id": "claude-3-5-sonnet-20241022", "display_name": "Claude 3.5 Sonnet"},
				{"id": "claude-2.1", "display_name": "Claude 2.1"},
			},
		})
	}))
	defer server.Close()

	p := NewAnthropicProvider(server.URL, server.Client(), nil)
	models, err := p.ListModels(context.Background(), "test-key")
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}

	if len(models) != 2 {
		t.Fatalf("models = %+v", models)
	}
	if models[0].ID != "claude-3-5-sonnet-20241022" || models[0].DisplayName != "Claude 3.5 Sonnet" {
		t.Errorf("first model = %+v", models[0])
	}
	if !models[1].Deprecated {
		t.Errorf("claude-2.1 should be flagged deprecated: %+v", models[1])
	}
}

func TestGeminiProviderComplete(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var gotPath, gotKey string
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.Header.Get("x-goog-api-key")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"candidates": []map[string]any{
					{"content": map[string]any{"parts": []map[string]string{{"text": "enhanced text"}}}},
				},
				"usageMetadata": map[string]int{"promptTokenCount": 100, "candidatesTokenCount": 60, "totalTokenCount": 160},
			})
		}))
		defer server.Close()

		p := NewGeminiProvider(server.URL, server.Client(), nil)
		resp, err := p.Complete(context.Background(), completionFixture())
		if err != nil {
			t.Fatalf("Complete failed: %v", err)
		}

		if gotPath != "/v1beta/models/test-model:generateContent" {
			t.Errorf("path = %q", gotPath)
		}
		if gotKey != "test-key" {
			t.Errorf("x-goog-api-key = %q", gotKey)
		}
		if _, ok := gotBody["systemInstruction"]; !ok {
			t.Error("systemInstruction missing from request body")
		}
		genCfg, _ := gotBody["generationConfig"].(map[string]any)
		if genCfg["maxOutputTokens"] != float64(4096) {
			t.Errorf("maxOutputTokens = %v", genCfg["maxOutputTokens"])
		}

		if resp.Text != "enhanced text" {
			t.Errorf("text = %q", resp.Text)
		}
		if resp.Usage.TotalTokens != 160 {
			t.Errorf("total tokens = %d", resp.Usage.TotalTokens)
		}
	})

	t.Run("EmptyCandidates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		}))
		defer server.Close()

		p := NewGeminiProvider(server.URL, server.Client(), nil)
		_, err := p.Complete(context.Background(), completionFixture())

		aiErr, ok := AsError(err)
		if !ok || aiErr.Kind != KindUnknown {
			t.Fatalf("expected unknown-kind error, got %v", err)
		}
	})
}

func TestGeminiProviderListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{
				{"name": "models/gemini-2.0-flash", "displayName": "Gemini 2.0 Flash"},
				{"name": "models/text-embedding-004", "displayName": "Text Embedding"},
			},
		})
	}))
	defer server.Close()

	p := NewGeminiProvider(server.URL, server.Client(), nil)
	models, err := p.ListModels(context.Background(), "test-key")
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}

	if len(models) != 1 {
		t.Fatalf("models = %+v, want only gemini-2.0-flash", models)
	}
	if models[0].ID != "gemini-2.0-flash" {
		t.Errorf("id = %q, vendor prefix should be stripped", models[0].ID)
	}
}

func TestRegistry(t *testing.T) {
	registry := DefaultRegistry(nil, nil)

	for _, id := range []ProviderID{ProviderOpenAI, ProviderAnthropic, ProviderGemini} {
		p, ok := registry.Lookup(id)
		if !ok {
			t.Fatalf("provider %s not registered", id)
		}
		if p.ID() != id {
			t.Errorf("provider %s reports ID %s", id, p.ID())
		}
	}

	if _, ok := registry.Lookup("cohere"); ok {
		t.Error("unregistered provider should not resolve")
	}

	ids := registry.IDs()
	want := []ProviderID{ProviderAnthropic, ProviderGemini, ProviderOpenAI}
	if len(ids) != len(want) {
		t.Fatalf("IDs() = %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("IDs() = %v, want sorted %v", ids, want)
		}
	}
}
