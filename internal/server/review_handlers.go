package server

import (
	"encoding/json"
	stderrors "errors"
	"log"
	"net/http"

	"resumelift/internal/errors"
	"resumelift/internal/observability"
	"resumelift/internal/review"
)

// reviewCreateHandler opens a review session over an enhancement result.
// Passing historyId links the session to an existing history entry so
// decisions feed acceptance analytics.
func (s *Server) reviewCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := parseJSONRequest(r, &req); err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Result == nil {
		writeErrorResponse(w, "Missing enhancement result", "result field is required", http.StatusBadRequest)
		return
	}

	if req.HistoryID != "" {
		if s.History == nil {
			writeErrorResponse(w, "History unavailable", "History recording is disabled on this server", http.StatusBadRequest)
			return
		}
		if _, err := s.History.Get(req.HistoryID); err != nil {
			writeErrorResponse(w, "Unknown history entry", err.Error(), reviewStatus(err))
			return
		}
	}

	cfg := review.SessionConfig{
		HistoryID: req.HistoryID,
		Logger:    s.Logger,
	}
	if s.History != nil {
		cfg.History = s.History
	}

	session, err := review.NewSession(req.Result, cfg)
	if err != nil {
		writeErrorResponse(w, "Failed to open review session", err.Error(), http.StatusInternalServerError)
		return
	}
	s.Sessions.Add(session)

	s.Logger.Info("Review session opened",
		"session_id", session.ID,
		"history_id", session.HistoryID,
		"suggestions", len(session.Suggestions()))

	writeSessionView(w, session, http.StatusCreated)
}

// reviewGetHandler returns the current snapshot of a review session.
func (s *Server) reviewGetHandler(w http.ResponseWriter, r *http.Request) {
	session, err := s.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeErrorResponse(w, "Session not found", err.Error(), reviewStatus(err))
		return
	}
	writeSessionView(w, session, http.StatusOK)
}

// createReviewDecisionHandler accepts or rejects a single suggestion. The
// action is review.ActionAccepted or review.ActionRejected.
func (s *Server) createReviewDecisionHandler(om *observability.ObservabilityManager, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.Sessions.Get(r.PathValue("id"))
		if err != nil {
			writeErrorResponse(w, "Session not found", err.Error(), reviewStatus(err))
			return
		}

		suggestionID := r.PathValue("sid")
		// Only genuine pending-to-decided transitions count toward the
		// resolution metric; idempotent re-decides do not.
		wasPending := suggestionPending(session, suggestionID)

		decide := session.Reject
		if action == review.ActionAccepted {
			decide = session.Accept
		}
		if err := decide(suggestionID); err != nil {
			writeErrorResponse(w, "Decision failed", err.Error(), reviewStatus(err))
			return
		}

		if wasPending {
			om.GetMetrics().RecordSuggestionsResolved(r.Context(), action, 1)
		}

		writeSessionView(w, session, http.StatusOK)
	}
}

// createReviewBulkHandler decides every pending suggestion at once and swaps
// the canonical document wholesale.
func (s *Server) createReviewBulkHandler(om *observability.ObservabilityManager, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.Sessions.Get(r.PathValue("id"))
		if err != nil {
			writeErrorResponse(w, "Session not found", err.Error(), reviewStatus(err))
			return
		}

		pending := countPending(session)

		apply := session.RejectAll
		if action == review.ActionAccepted {
			apply = session.AcceptAll
		}
		if err := apply(); err != nil {
			writeErrorResponse(w, "Bulk decision failed", err.Error(), http.StatusInternalServerError)
			return
		}

		if pending > 0 {
			om.GetMetrics().RecordSuggestionsResolved(r.Context(), action, pending)
		}

		writeSessionView(w, session, http.StatusOK)
	}
}

// writeSessionView encodes the session snapshot every review endpoint returns.
func writeSessionView(w http.ResponseWriter, session *review.Session, status int) {
	view, err := session.View()
	if err != nil {
		writeErrorResponse(w, "Failed to snapshot session", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(view); err != nil {
		log.Printf("Failed to encode session view: %v", err)
	}
}

// reviewStatus maps review error codes to HTTP statuses. Terminal-decision
// conflicts are 409; patch failures mean the suggestion no longer fits the
// document, which is 422.
func reviewStatus(err error) int {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case errors.ErrCodeSessionNotFound, errors.ErrCodeSuggestionNotFound, errors.ErrCodeHistoryNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidRequest:
		return http.StatusConflict
	case errors.ErrCodeInvalidFieldPath, errors.ErrCodeDocumentInvalid:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// suggestionPending reports whether the suggestion exists and is undecided.
func suggestionPending(session *review.Session, suggestionID string) bool {
	for _, sug := range session.Suggestions() {
		if sug.ID == suggestionID {
			return sug.Accepted == nil
		}
	}
	return false
}

// countPending counts the undecided suggestions in a session.
func countPending(session *review.Session) int64 {
	var n int64
	for _, sug := range session.Suggestions() {
		if sug.Accepted == nil {
			n++
		}
	}
	return n
}
