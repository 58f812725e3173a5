package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"resumelift/internal/config"
	"resumelift/internal/review"
	"resumelift/internal/types"
)

func reviewResult() *types.EnhancementResult {
	original := types.ResumeData{
		PersonalInfo: types.PersonalInfo{FullName: "Grace Field", Summary: "Backend engineer"},
		Experience: []types.Experience{
			{ID: "exp-1", Company: "Widget Co", Position: "Engineer", Description: "Built services"},
		},
	}
	enhanced := types.ResumeData{
		PersonalInfo: types.PersonalInfo{
			FullName: "Grace Field",
			Summary:  "Backend engineer who ships reliable distributed systems",
		},
		Experience: []types.Experience{
			{ID: "exp-1", Company: "Widget Co", Position: "Engineer", Description: "Designed and ran the order pipeline"},
		},
	}
	return &types.EnhancementResult{
		OriginalData: original,
		EnhancedData: enhanced,
		Suggestions: []types.Suggestion{
			{
				ID: "sug-1", Type: types.SuggestionRewrite,
				Section: "personalInfo", Field: "summary",
				OriginalValue:  "Backend engineer",
				SuggestedValue: "Backend engineer who ships reliable distributed systems",
				Confidence:     0.9,
			},
			{
				ID: "sug-2", Type: types.SuggestionImprovement,
				Section: "experience", Field: "0.description",
				SuggestedValue: "Designed and ran the order pipeline",
				Confidence:     0.8,
			},
		},
		Confidence: 0.85,
		Provider:   "openai",
		Model:      "gpt-4o-mini",
		Success:    true,
		Timestamp:  time.Now(),
	}
}

func openReview(t *testing.T, mux *http.ServeMux, body ReviewRequest) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal review request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/review", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) *review.SessionView {
	t.Helper()
	var view review.SessionView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode session view: %v", err)
	}
	return &view
}

func TestReviewCreateValidation(t *testing.T) {
	srv := newTestServer(t)
	om := newTestObservability(t)
	mux := srv.setupRoutes(om)

	t.Run("missing result", func(t *testing.T) {
		rec := openReview(t, mux, ReviewRequest{})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("history link without a history store", func(t *testing.T) {
		rec := openReview(t, mux, ReviewRequest{Result: reviewResult(), HistoryID: "h-1"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestReviewFlow(t *testing.T) {
	srv := newTestServer(t)
	om := newTestObservability(t)
	mux := srv.setupRoutes(om)

	rec := openReview(t, mux, ReviewRequest{Result: reviewResult()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeView(t, rec)
	if created.ID == "" {
		t.Fatal("session ID missing")
	}
	if created.Pending != 2 {
		t.Errorf("pending = %d, want 2", created.Pending)
	}
	if created.Document.PersonalInfo.Summary != "Backend engineer" {
		t.Errorf("document should start from the original, got %q", created.Document.PersonalInfo.Summary)
	}

	t.Run("snapshot by ID", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/review/"+created.ID, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if view := decodeView(t, rec); view.ID != created.ID {
			t.Errorf("ID = %q, want %q", view.ID, created.ID)
		}
	})

	t.Run("accept patches the document", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/review/"+created.ID+"/suggestions/sug-1/accept", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		view := decodeView(t, rec)
		if view.Accepted != 1 || view.Pending != 1 {
			t.Errorf("accepted = %d, pending = %d", view.Accepted, view.Pending)
		}
		want := "Backend engineer who ships reliable distributed systems"
		if view.Document.PersonalInfo.Summary != want {
			t.Errorf("summary = %q, want patched value", view.Document.PersonalInfo.Summary)
		}
	})

	t.Run("repeat accept is a no-op", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/review/"+created.ID+"/suggestions/sug-1/accept", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if view := decodeView(t, rec); view.Accepted != 1 {
			t.Errorf("accepted = %d, want 1", view.Accepted)
		}
	})

	t.Run("reject after accept conflicts", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/review/"+created.ID+"/suggestions/sug-1/reject", nil))
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
		}
	})

	t.Run("unknown suggestion is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/review/"+created.ID+"/suggestions/sug-99/accept", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("unknown session is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/review/no-such-session", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestReviewBulkDecisions(t *testing.T) {
	t.Run("accept-all swaps in the enhanced document", func(t *testing.T) {
		srv := newTestServer(t)
		om := newTestObservability(t)
		mux := srv.setupRoutes(om)

		created := decodeView(t, openReview(t, mux, ReviewRequest{Result: reviewResult()}))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/review/"+created.ID+"/accept-all", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		view := decodeView(t, rec)
		if view.Pending != 0 || view.Accepted != 2 {
			t.Errorf("pending = %d, accepted = %d", view.Pending, view.Accepted)
		}
		if view.Document.Experience[0].Description != "Designed and ran the order pipeline" {
			t.Errorf("description = %q, want enhanced value", view.Document.Experience[0].Description)
		}
	})

	t.Run("reject-all keeps the original document", func(t *testing.T) {
		srv := newTestServer(t)
		om := newTestObservability(t)
		mux := srv.setupRoutes(om)

		created := decodeView(t, openReview(t, mux, ReviewRequest{Result: reviewResult()}))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/review/"+created.ID+"/reject-all", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		view := decodeView(t, rec)
		if view.Pending != 0 || view.Rejected != 2 {
			t.Errorf("pending = %d, rejected = %d", view.Pending, view.Rejected)
		}
		if view.Document.PersonalInfo.Summary != "Backend engineer" {
			t.Errorf("summary = %q, want original value", view.Document.PersonalInfo.Summary)
		}
	})
}

func TestReviewHistoryLinking(t *testing.T) {
	appCfg := &config.Config{}
	appCfg.Observability.HealthCheck.Timeout = time.Second
	appCfg.Usage.HistoryPath = filepath.Join(t.TempDir(), "history.json")

	srv, err := NewServer(appCfg, ServerConfig{Host: "127.0.0.1", Port: "8080", Version: "test"}, newTestLogger())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(srv.Sessions.Close)

	om := newTestObservability(t)
	mux := srv.setupRoutes(om)

	entry, err := srv.History.Append(review.HistoryEntryFor(reviewResult(), types.OperationEnhance))
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	t.Run("unknown history entry is 404", func(t *testing.T) {
		rec := openReview(t, mux, ReviewRequest{Result: reviewResult(), HistoryID: "no-such-entry"})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("decisions land on the linked entry", func(t *testing.T) {
		rec := openReview(t, mux, ReviewRequest{Result: reviewResult(), HistoryID: entry.ID})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
		}
		created := decodeView(t, rec)
		if created.HistoryID != entry.ID {
			t.Errorf("HistoryID = %q, want %q", created.HistoryID, entry.ID)
		}

		decide := httptest.NewRecorder()
		mux.ServeHTTP(decide, httptest.NewRequest(http.MethodPost, "/review/"+created.ID+"/suggestions/sug-1/accept", nil))
		if decide.Code != http.StatusOK {
			t.Fatalf("decision status = %d", decide.Code)
		}

		stored, err := srv.History.Get(entry.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if len(stored.Actions) != 1 {
			t.Fatalf("actions = %d, want 1", len(stored.Actions))
		}
		if stored.Actions[0].SuggestionID != "sug-1" || stored.Actions[0].Action != review.ActionAccepted {
			t.Errorf("action = %+v", stored.Actions[0])
		}
	})
}
