// Package review reconciles AI suggestions against a canonical resume
// document. A session starts from the original document; accepting a
// suggestion patches its field in, rejecting leaves the document alone, and
// the bulk operations swap the whole document for the enhanced or original
// version. Suggestion decisions are terminal and every decision is recorded
// against the session's history entry.
package review

import (
	"fmt"
	"sync"
	"time"

	"resumelift/internal/document"
	"resumelift/internal/errors"
	"resumelift/internal/types"

	"github.com/google/uuid"
)

const (
	ActionAccepted = "accepted"
	ActionRejected = "rejected"
)

// ActionRecorder persists accept/reject decisions for acceptance-rate
// analytics. *HistoryStore satisfies it.
type ActionRecorder interface {
	RecordSuggestionActions(historyID string, actions []types.SuggestionAction) error
}

// Session is one review of an enhancement result. All methods are safe for
// concurrent use.
type Session struct {
	ID        string
	HistoryID string
	CreatedAt time.Time

	mu          sync.Mutex
	original    types.ResumeData
	enhanced    types.ResumeData
	current     types.ResumeData
	suggestions []types.Suggestion

	history ActionRecorder
	logger  *errors.Logger
	now     func() time.Time
}

// SessionConfig carries the session's collaborators. All fields are
// optional; a session without a recorder simply skips history.
type SessionConfig struct {
	HistoryID string
	History   ActionRecorder
	Logger    *errors.Logger
	Now       func() time.Time
}

// NewSession opens a review over result. The canonical document starts as
// the original data; accepted suggestions move it toward the enhanced
// version.
func NewSession(result *types.EnhancementResult, cfg SessionConfig) (*Session, error) {
	if result == nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Review session requires an enhancement result", nil)
	}

	original, err := document.Clone(result.OriginalData)
	if err != nil {
		return nil, err
	}
	enhanced, err := document.Clone(result.EnhancedData)
	if err != nil {
		return nil, err
	}
	current, err := document.Clone(result.OriginalData)
	if err != nil {
		return nil, err
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	suggestions := make([]types.Suggestion, len(result.Suggestions))
	copy(suggestions, result.Suggestions)

	return &Session{
		ID:          uuid.New().String(),
		HistoryID:   cfg.HistoryID,
		CreatedAt:   now(),
		original:    original,
		enhanced:    enhanced,
		current:     current,
		suggestions: suggestions,
		history:     cfg.History,
		logger:      cfg.Logger,
		now:         now,
	}, nil
}

// Accept marks the suggestion accepted and patches its field into the
// canonical document. Accepting an already-accepted suggestion is a no-op;
// accepting a rejected one is an error because decisions are terminal. A
// patch failure leaves the suggestion pending.
func (s *Session) Accept(suggestionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sug, err := s.find(suggestionID)
	if err != nil {
		return err
	}
	if sug.Accepted != nil {
		if *sug.Accepted {
			return nil
		}
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Suggestion %q was already rejected", suggestionID), nil)
	}

	patched, err := document.ApplyFieldPatch(s.current, patchPath(sug), sug.SuggestedValue)
	if err != nil {
		return err
	}
	s.current = patched

	accepted := true
	sug.Accepted = &accepted
	s.record([]types.SuggestionAction{{SuggestionID: suggestionID, Action: ActionAccepted, Timestamp: s.now()}})
	return nil
}

// Reject marks the suggestion rejected; the canonical document is untouched.
// Rejecting an already-rejected suggestion is a no-op; rejecting an accepted
// one is an error.
func (s *Session) Reject(suggestionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sug, err := s.find(suggestionID)
	if err != nil {
		return err
	}
	if sug.Accepted != nil {
		if !*sug.Accepted {
			return nil
		}
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Suggestion %q was already accepted", suggestionID), nil)
	}

	rejected := false
	sug.Accepted = &rejected
	s.record([]types.SuggestionAction{{SuggestionID: suggestionID, Action: ActionRejected, Timestamp: s.now()}})
	return nil
}

// AcceptAll replaces the canonical document with the enhanced data wholesale
// and accepts every pending suggestion. Decided suggestions keep their
// state. Calling it again yields the same document.
func (s *Session) AcceptAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := document.Clone(s.enhanced)
	if err != nil {
		return err
	}
	s.current = doc
	s.decidePending(true)
	return nil
}

// RejectAll restores the canonical document to the original data wholesale
// and rejects every pending suggestion.
func (s *Session) RejectAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := document.Clone(s.original)
	if err != nil {
		return err
	}
	s.current = doc
	s.decidePending(false)
	return nil
}

// decidePending stamps every undecided suggestion with the given state and
// records the transitions. Caller holds the lock.
func (s *Session) decidePending(accepted bool) {
	action := ActionRejected
	if accepted {
		action = ActionAccepted
	}
	var actions []types.SuggestionAction
	for i := range s.suggestions {
		if s.suggestions[i].Accepted != nil {
			continue
		}
		state := accepted
		s.suggestions[i].Accepted = &state
		actions = append(actions, types.SuggestionAction{
			SuggestionID: s.suggestions[i].ID,
			Action:       action,
			Timestamp:    s.now(),
		})
	}
	s.record(actions)
}

// Document returns a copy of the canonical document.
func (s *Session) Document() (types.ResumeData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return document.Clone(s.current)
}

// Suggestions returns a copy of the suggestions with their current states.
func (s *Session) Suggestions() []types.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Suggestion, len(s.suggestions))
	copy(out, s.suggestions)
	return out
}

// SessionView is the JSON shape served for a review session.
type SessionView struct {
	ID          string             `json:"id"`
	CreatedAt   time.Time          `json:"createdAt"`
	HistoryID   string             `json:"historyId,omitempty"`
	Document    types.ResumeData   `json:"document"`
	Suggestions []types.Suggestion `json:"suggestions"`
	Pending     int                `json:"pending"`
	Accepted    int                `json:"accepted"`
	Rejected    int                `json:"rejected"`
}

// View snapshots the session for API responses.
func (s *Session) View() (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := document.Clone(s.current)
	if err != nil {
		return nil, err
	}
	view := &SessionView{
		ID:          s.ID,
		CreatedAt:   s.CreatedAt,
		HistoryID:   s.HistoryID,
		Document:    doc,
		Suggestions: make([]types.Suggestion, len(s.suggestions)),
	}
	copy(view.Suggestions, s.suggestions)
	for _, sug := range s.suggestions {
		switch {
		case sug.Accepted == nil:
			view.Pending++
		case *sug.Accepted:
			view.Accepted++
		default:
			view.Rejected++
		}
	}
	return view, nil
}

// find locates a suggestion by ID. Caller holds the lock.
func (s *Session) find(suggestionID string) (*types.Suggestion, error) {
	for i := range s.suggestions {
		if s.suggestions[i].ID == suggestionID {
			return &s.suggestions[i], nil
		}
	}
	return nil, errors.NewValidationError(errors.ErrCodeSuggestionNotFound,
		fmt.Sprintf("No suggestion with ID %q in this session", suggestionID), nil)
}

// record persists decisions to the linked history entry. History failures
// are logged, not surfaced: the decision itself already happened.
func (s *Session) record(actions []types.SuggestionAction) {
	if s.history == nil || s.HistoryID == "" || len(actions) == 0 {
		return
	}
	if err := s.history.RecordSuggestionActions(s.HistoryID, actions); err != nil && s.logger != nil {
		s.logger.Warn("Suggestion action could not be recorded",
			"history_id", s.HistoryID, "error", err.Error())
	}
}

// patchPath builds the dotted document path for a suggestion. The section
// prefixes the field, which itself may carry a list index
// ("experience.0.description").
func patchPath(sug *types.Suggestion) string {
	if sug.Section == "" {
		return sug.Field
	}
	if sug.Field == "" {
		return sug.Section
	}
	return sug.Section + "." + sug.Field
}
