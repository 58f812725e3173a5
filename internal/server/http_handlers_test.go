package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resumelift/internal/config"
	"resumelift/internal/errors"
	"resumelift/internal/observability"
	"resumelift/internal/types"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

// newTestObservability returns a disabled manager: noop tracer, empty
// metrics, identity middleware. Handlers built on it never hit a backend.
func newTestObservability(t *testing.T) *observability.ObservabilityManager {
	t.Helper()
	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("NewObservabilityManager() error = %v", err)
	}
	return om
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	appCfg := &config.Config{}
	appCfg.Observability.HealthCheck.Timeout = time.Second

	srv, err := NewServer(appCfg, ServerConfig{
		Host:           "127.0.0.1",
		Port:           "8080",
		Version:        "test",
		MaxRequestSize: 1 << 20,
	}, newTestLogger())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(srv.Sessions.Close)
	return srv
}

func postJSON(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestParseJSONRequest(t *testing.T) {
	t.Run("rejects missing content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/enhance", strings.NewReader(`{}`))
		var v map[string]any
		err := parseJSONRequest(req, &v)
		if err == nil {
			t.Fatal("expected error for missing content type")
		}
		if !strings.Contains(err.Error(), "content-type") {
			t.Errorf("error = %v, want content-type complaint", err)
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		req := postJSON("/enhance", `{"level": `)
		var v map[string]any
		err := parseJSONRequest(req, &v)
		if err == nil {
			t.Fatal("expected error for malformed JSON")
		}
		if !strings.Contains(err.Error(), "failed to parse JSON") {
			t.Errorf("error = %v, want parse failure", err)
		}
	})

	t.Run("decodes valid JSON", func(t *testing.T) {
		req := postJSON("/enhance", `{"level": "light"}`)
		var v struct {
			Level string `json:"level"`
		}
		if err := parseJSONRequest(req, &v); err != nil {
			t.Fatalf("parseJSONRequest() error = %v", err)
		}
		if v.Level != "light" {
			t.Errorf("Level = %q, want %q", v.Level, "light")
		}
	})
}

func TestWriteErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	writeErrorResponse(rec, "Something broke", "the details", http.StatusTeapot)

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "Something broke" || resp.Message != "the details" {
		t.Errorf("response = %+v", resp)
	}
}

func TestHealthHandler(t *testing.T) {
	t.Run("rejects non-GET", func(t *testing.T) {
		srv := newTestServer(t)
		rec := httptest.NewRecorder()
		srv.healthHandler(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})

	t.Run("degraded while AI services are down", func(t *testing.T) {
		srv := newTestServer(t)
		rec := httptest.NewRecorder()
		srv.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
		}
		var resp map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp["status"] != "degraded" {
			t.Errorf("status field = %v, want degraded", resp["status"])
		}
		if resp["service"] != "resumelift" {
			t.Errorf("service field = %v", resp["service"])
		}
		if _, ok := resp["prompt_reload"]; !ok {
			t.Error("prompt_reload section missing")
		}
	})
}

func TestStatsHandler(t *testing.T) {
	t.Run("rejects non-GET", func(t *testing.T) {
		srv := newTestServer(t)
		rec := httptest.NewRecorder()
		srv.statsHandler(rec, httptest.NewRequest(http.MethodDelete, "/stats", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})

	t.Run("reports server sections", func(t *testing.T) {
		srv := newTestServer(t)
		rec := httptest.NewRecorder()
		srv.statsHandler(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp["service"] != "resumelift" {
			t.Errorf("service = %v", resp["service"])
		}
		rl, ok := resp["rate_limiting"].(map[string]any)
		if !ok || rl["enabled"] != false {
			t.Errorf("rate_limiting = %v, want disabled", resp["rate_limiting"])
		}
		if _, ok := resp["review_sessions"]; !ok {
			t.Error("review_sessions section missing")
		}
		usageInfo, ok := resp["usage"].(map[string]any)
		if !ok || usageInfo["enabled"] != false {
			t.Errorf("usage = %v, want disabled", resp["usage"])
		}
	})
}

func TestEnhanceHandlerValidation(t *testing.T) {
	srv := newTestServer(t)
	om := newTestObservability(t)
	handler := srv.createEnhanceHandler(om)

	validDoc := `{"parsedData":{"personalInfo":{"fullName":"Dana Smith"}}}`

	t.Run("rejects wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/enhance", strings.NewReader(validDoc))
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("rejects empty document", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, postJSON("/enhance", `{"parsedData":{}}`))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
		var resp ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Error != "Missing resume data" {
			t.Errorf("error = %q", resp.Error)
		}
	})

	t.Run("rejects unknown enhancement level", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, postJSON("/enhance", `{"parsedData":{"personalInfo":{"fullName":"Dana"}},"level":"extreme"}`))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("rejects unknown provider", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, postJSON("/enhance", `{"parsedData":{"personalInfo":{"fullName":"Dana"}},"provider":"frontier"}`))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("responds 503 before services are built", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, postJSON("/enhance", validDoc))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
		}
	})
}

func TestReparseHandlerValidation(t *testing.T) {
	srv := newTestServer(t)
	om := newTestObservability(t)
	handler := srv.createReparseHandler(om)

	t.Run("rejects missing source text", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, postJSON("/reparse", `{"sourceText":"   "}`))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("responds 503 before services are built", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, postJSON("/reparse", `{"sourceText":"Dana Smith\nEngineer"}`))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
		}
	})
}

func TestCheckHandlerValidation(t *testing.T) {
	srv := newTestServer(t)
	om := newTestObservability(t)
	handler := srv.createCheckHandler(om)

	t.Run("rejects missing provider", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, postJSON("/check", `{}`))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("rejects unknown provider", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, postJSON("/check", `{"provider":"frontier"}`))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestModelsHandlerValidation(t *testing.T) {
	srv := newTestServer(t)
	om := newTestObservability(t)
	handler := srv.createModelsHandler(om)

	t.Run("rejects non-GET", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPost, "/models", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})

	t.Run("rejects missing provider", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/models", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestEmptyDocument(t *testing.T) {
	if !emptyDocument(types.ResumeData{}) {
		t.Error("zero document should be empty")
	}
	if emptyDocument(types.ResumeData{PersonalInfo: types.PersonalInfo{FullName: "Dana"}}) {
		t.Error("document with a name is not empty")
	}
	if emptyDocument(types.ResumeData{Skills: []types.SkillGroup{{Category: "Languages"}}}) {
		t.Error("document with skills is not empty")
	}
}

func TestRequestOptions(t *testing.T) {
	appCfg := &config.Config{}
	appCfg.AI.Provider = "openai"
	appCfg.AI.Model = "gpt-4o"
	appCfg.AI.APIKey = "sk-base"
	appCfg.AI.FallbackProvider = "anthropic"
	srv := &Server{AppConfig: appCfg}

	t.Run("no overrides keeps configured chain", func(t *testing.T) {
		opts := srv.requestOptions(appCfg.GetEnhanceConfig(), "", "")
		if string(opts.Provider) != "openai" || opts.Model != "gpt-4o" {
			t.Errorf("opts = %+v", opts)
		}
		if opts.Fallback == nil {
			t.Error("configured fallback should survive")
		}
	})

	t.Run("provider override drops model and fallback", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")

		opts := srv.requestOptions(appCfg.GetEnhanceConfig(), "anthropic", "")
		if string(opts.Provider) != "anthropic" {
			t.Errorf("Provider = %q", opts.Provider)
		}
		if opts.Model != "" {
			t.Errorf("Model = %q, want empty after provider override", opts.Model)
		}
		if opts.Fallback != nil {
			t.Error("fallback belongs to the configured chain, want nil")
		}
		if opts.APIKey != "" {
			t.Error("override must not reuse the configured provider's key")
		}
	})

	t.Run("model override keeps provider", func(t *testing.T) {
		opts := srv.requestOptions(appCfg.GetEnhanceConfig(), "", "gpt-4o-mini")
		if string(opts.Provider) != "openai" || opts.Model != "gpt-4o-mini" {
			t.Errorf("opts = %+v", opts)
		}
	})
}
