package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"resumelift/internal/errors"
	"resumelift/internal/types"

	"github.com/google/uuid"
)

// HistoryStore persists enhancement history entries and the accept/reject
// decisions made against their suggestions. The whole history lives in one
// JSON file; every mutation rewrites it through a temp file and rename so a
// crash never leaves a half-written history behind.
type HistoryStore struct {
	mu     sync.Mutex
	path   string
	logger *errors.Logger
	now    func() time.Time
}

// NewHistoryStore opens a store at path. The file is created on first
// append.
func NewHistoryStore(path string, logger *errors.Logger) (*HistoryStore, error) {
	if path == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"History store requires a file path", nil)
	}
	return &HistoryStore{
		path:   path,
		logger: logger,
		now:    time.Now,
	}, nil
}

// HistoryEntryFor builds the history entry for a completed orchestration
// result. The entry carries the suggestion IDs so later accept/reject
// decisions can be recorded against the right session.
func HistoryEntryFor(result *types.EnhancementResult, op types.Operation) types.HistoryEntry {
	entry := types.HistoryEntry{
		Operation:  op,
		Provider:   result.Provider,
		Model:      result.Model,
		Success:    result.Success,
		Confidence: result.Confidence,
	}
	for _, sug := range result.Suggestions {
		entry.SuggestionIDs = append(entry.SuggestionIDs, sug.ID)
	}
	return entry
}

// Append records a completed orchestration. A missing ID or timestamp is
// filled in; the stored entry is returned.
func (h *HistoryStore) Append(entry types.HistoryEntry) (types.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = h.now()
	}

	entries, err := h.load()
	if err != nil {
		return types.HistoryEntry{}, err
	}
	entries = append(entries, entry)
	if err := h.save(entries); err != nil {
		return types.HistoryEntry{}, err
	}
	return entry, nil
}

// Entries returns every history entry, oldest first.
func (h *HistoryStore) Entries() ([]types.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load()
}

// Get returns one entry by ID.
func (h *HistoryStore) Get(historyID string) (*types.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.load()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == historyID {
			return &entries[i], nil
		}
	}
	return nil, errors.NewValidationError(errors.ErrCodeHistoryNotFound,
		fmt.Sprintf("No history entry with ID %q", historyID), nil)
}

// RecordSuggestionAction records a single accept/reject decision against an
// entry.
func (h *HistoryStore) RecordSuggestionAction(historyID, suggestionID, action string) error {
	return h.RecordSuggestionActions(historyID, []types.SuggestionAction{{
		SuggestionID: suggestionID,
		Action:       action,
	}})
}

// RecordSuggestionActions records a batch of decisions in one rewrite.
// Decisions already present on the entry are skipped so replayed requests
// do not skew acceptance rates.
func (h *HistoryStore) RecordSuggestionActions(historyID string, actions []types.SuggestionAction) error {
	for _, a := range actions {
		if a.SuggestionID == "" {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest,
				"Suggestion action requires a suggestion ID", nil)
		}
		if a.Action != ActionAccepted && a.Action != ActionRejected {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("Unknown suggestion action %q (expected %q or %q)",
					a.Action, ActionAccepted, ActionRejected), nil)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.load()
	if err != nil {
		return err
	}

	idx := -1
	for i := range entries {
		if entries[i].ID == historyID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return errors.NewValidationError(errors.ErrCodeHistoryNotFound,
			fmt.Sprintf("No history entry with ID %q", historyID), nil)
	}

	appended := 0
	for _, a := range actions {
		if hasAction(entries[idx].Actions, a.SuggestionID, a.Action) {
			continue
		}
		if a.Timestamp.IsZero() {
			a.Timestamp = h.now()
		}
		entries[idx].Actions = append(entries[idx].Actions, a)
		appended++
	}
	if appended == 0 {
		return nil
	}
	return h.save(entries)
}

func hasAction(actions []types.SuggestionAction, suggestionID, action string) bool {
	for _, a := range actions {
		if a.SuggestionID == suggestionID && a.Action == action {
			return true
		}
	}
	return false
}

// AcceptanceSummary aggregates decision outcomes across the whole history.
type AcceptanceSummary struct {
	Entries        int     `json:"entries"`
	Suggestions    int     `json:"suggestions"`
	Accepted       int     `json:"accepted"`
	Rejected       int     `json:"rejected"`
	AcceptanceRate float64 `json:"acceptanceRate"`
}

// Summary computes acceptance-rate figures over every recorded decision.
func (h *HistoryStore) Summary() (*AcceptanceSummary, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.load()
	if err != nil {
		return nil, err
	}

	summary := &AcceptanceSummary{Entries: len(entries)}
	for _, e := range entries {
		summary.Suggestions += len(e.SuggestionIDs)
		for _, a := range e.Actions {
			switch a.Action {
			case ActionAccepted:
				summary.Accepted++
			case ActionRejected:
				summary.Rejected++
			}
		}
	}
	if decided := summary.Accepted + summary.Rejected; decided > 0 {
		summary.AcceptanceRate = float64(summary.Accepted) / float64(decided)
	}
	return summary, nil
}

// load reads the history file. A missing file is an empty history. Caller
// holds the lock.
func (h *HistoryStore) load() ([]types.HistoryEntry, error) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			"History file could not be read", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []types.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			"History file could not be parsed", err)
	}
	return entries, nil
}

// save writes the full history atomically: temp file in the same directory,
// then rename over the target. Caller holds the lock.
func (h *HistoryStore) save(entries []types.HistoryEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeInvalidFormat,
			"History entries failed to serialize", err)
	}

	dir := filepath.Dir(h.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError(errors.ErrCodeFileNotReadable,
				"History directory could not be created", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			"History temp file could not be created", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			"History temp file could not be written", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			"History temp file could not be closed", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			"History temp file permissions could not be set", err)
	}
	if err := os.Rename(tmpName, h.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			"History file could not be replaced", err)
	}
	return nil
}
