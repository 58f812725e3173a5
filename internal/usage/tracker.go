package usage

import (
	"bufio"
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

const defaultWindowDays = 30

// Limits are the advisory spending thresholds checked at query time. A zero
// limit disables that check; ThresholdPct scales where the alert fires
// (100 = at the limit, 80 = at 80% of it).
type Limits struct {
	DailyUSD     float64
	MonthlyUSD   float64
	ThresholdPct float64
}

// Tracker appends usage events to a JSONL log and answers aggregate
// questions over it. Events are immutable once written; all derived figures
// (stats, cost monitoring) are recomputed from the log at query time.
type Tracker struct {
	mu      sync.Mutex
	path    string
	enabled bool
	limits  Limits
	logger  *errors.Logger
	now     func() time.Time
}

// TrackerConfig carries the tracker's collaborators and thresholds.
type TrackerConfig struct {
	Enabled bool
	Path    string
	Limits  Limits
	Logger  *errors.Logger

	// Now is injected by tests to pin calendar arithmetic.
	Now func() time.Time
}

// NewTracker creates a tracker. A disabled tracker accepts every call and
// does nothing, so callers never branch on whether usage logging is on.
func NewTracker(cfg TrackerConfig) (*Tracker, error) {
	if cfg.Enabled && cfg.Path == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"Usage tracking is enabled but no log path is configured", nil)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		path:    cfg.Path,
		enabled: cfg.Enabled,
		limits:  cfg.Limits,
		logger:  cfg.Logger,
		now:     now,
	}, nil
}

// Enabled reports whether events are being persisted.
func (t *Tracker) Enabled() bool {
	return t.enabled
}

// Record appends one event as a single JSONL line. The estimated cost is
// stamped here, at the only moment the pricing table is consulted; the event
// is never touched again.
func (t *Tracker) Record(event types.UsageEvent) error {
	if !t.enabled {
		return nil
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = t.now()
	}
	if event.EstimatedCost == 0 {
		event.EstimatedCost = EstimateCost(event.Provider, event.Model, event.InputTokens, event.OutputTokens)
	}

	line, err := json.Marshal(event)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeUsageLogFailed,
			"Usage event failed to serialize", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError(errors.ErrCodeUsageLogFailed,
				"Usage log directory could not be created", err)
		}
	}

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeUsageLogFailed,
			"Usage log could not be opened", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && t.logger != nil {
			t.logger.Warn("Usage log close failed", "error", cerr.Error())
		}
	}()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return errors.NewIOError(errors.ErrCodeUsageLogFailed,
			"Usage event could not be appended", err)
	}
	return nil
}

// Events loads every event in the log. Corrupt lines are skipped with a
// warning so one bad write never poisons the whole history.
func (t *Tracker) Events() ([]types.UsageEvent, error) {
	if !t.enabled {
		return nil, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewIOError(errors.ErrCodeUsageLogFailed,
			"Usage log could not be read", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && t.logger != nil {
			t.logger.Warn("Usage log close failed", "error", cerr.Error())
		}
	}()

	var events []types.UsageEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event types.UsageEvent
		if err := json.Unmarshal(line, &event); err != nil {
			if t.logger != nil {
				t.logger.Warn("Skipping corrupt usage log line",
					"line", lineNo, "error", err.Error())
			}
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeUsageLogFailed,
			"Usage log scan failed", err)
	}
	return events, nil
}

// Stats aggregates the trailing windowDays of events. windowDays <= 0 uses
// the default 30-day window.
func (t *Tracker) Stats(windowDays int) (*types.UsageStats, error) {
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}

	events, err := t.Events()
	if err != nil {
		return nil, err
	}

	stats := &types.UsageStats{
		WindowDays:        windowDays,
		EventsByProvider:  make(map[string]int),
		EventsByOperation: make(map[string]int),
		CostByProvider:    make(map[string]float64),
	}

	cutoff := t.now().AddDate(0, 0, -windowDays)
	var successes int
	var confidenceSum float64
	var confidenceCount int
	var processingSum int64

	for _, e := range events {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		stats.TotalEvents++
		if e.Success {
			successes++
		}
		stats.TotalTokens += e.TokensUsed
		stats.TotalCost += e.EstimatedCost
		processingSum += e.ProcessingTimeMS
		if e.Confidence > 0 {
			confidenceSum += e.Confidence
			confidenceCount++
		}
		stats.EventsByProvider[e.Provider]++
		stats.EventsByOperation[string(e.Operation)]++
		stats.CostByProvider[e.Provider] += e.EstimatedCost
	}

	if stats.TotalEvents > 0 {
		stats.SuccessRate = float64(successes) / float64(stats.TotalEvents)
		stats.AvgProcessingMS = float64(processingSum) / float64(stats.TotalEvents)
	}
	if confidenceCount > 0 {
		stats.AvgConfidence = confidenceSum / float64(confidenceCount)
	}
	return stats, nil
}

// CostMonitoring derives calendar-period spending, the linear monthly
// projection, and any threshold crossings. Nothing here is stored or
// scheduled; every call recomputes from the log.
func (t *Tracker) CostMonitoring() (*types.CostMonitoring, error) {
	events, err := t.Events()
	if err != nil {
		return nil, err
	}

	now := t.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	monitoring := &types.CostMonitoring{
		DailyLimit:   t.limits.DailyUSD,
		MonthlyLimit: t.limits.MonthlyUSD,
	}

	for _, e := range events {
		if e.Timestamp.Before(monthStart) {
			continue
		}
		monitoring.CurrentSpending.ThisMonth += e.EstimatedCost
		if !e.Timestamp.Before(dayStart) {
			monitoring.CurrentSpending.Today += e.EstimatedCost
		}
	}

	// projected = thisMonth / dayOfMonth * daysInMonth
	dayOfMonth := float64(now.Day())
	daysInMonth := float64(monthStart.AddDate(0, 1, -1).Day())
	if monitoring.CurrentSpending.ThisMonth > 0 {
		monitoring.ProjectedSpending.Monthly = monitoring.CurrentSpending.ThisMonth / dayOfMonth * daysInMonth
	}

	monitoring.Alerts = t.alerts(monitoring)
	return monitoring, nil
}

// alerts evaluates the configured thresholds against current figures.
func (t *Tracker) alerts(m *types.CostMonitoring) []types.CostAlert {
	pct := t.limits.ThresholdPct
	if pct <= 0 || pct > 100 {
		pct = 100
	}
	scale := pct / 100

	var alerts []types.CostAlert
	if t.limits.DailyUSD > 0 && m.CurrentSpending.Today >= t.limits.DailyUSD*scale {
		alerts = append(alerts, types.CostAlert{
			Kind:    "daily_limit",
			Limit:   t.limits.DailyUSD,
			Actual:  m.CurrentSpending.Today,
			Message: formatAlert("Today's spending", m.CurrentSpending.Today, t.limits.DailyUSD, pct),
		})
	}
	if t.limits.MonthlyUSD > 0 && m.CurrentSpending.ThisMonth >= t.limits.MonthlyUSD*scale {
		alerts = append(alerts, types.CostAlert{
			Kind:    "monthly_limit",
			Limit:   t.limits.MonthlyUSD,
			Actual:  m.CurrentSpending.ThisMonth,
			Message: formatAlert("This month's spending", m.CurrentSpending.ThisMonth, t.limits.MonthlyUSD, pct),
		})
	}
	if t.limits.MonthlyUSD > 0 && m.ProjectedSpending.Monthly > t.limits.MonthlyUSD {
		alerts = append(alerts, types.CostAlert{
			Kind:    "monthly_projection",
			Limit:   t.limits.MonthlyUSD,
			Actual:  m.ProjectedSpending.Monthly,
			Message: formatAlert("Projected monthly spending", m.ProjectedSpending.Monthly, t.limits.MonthlyUSD, 100),
		})
	}
	return alerts
}

func formatAlert(subject string, actual, limit, pct float64) string {
	if pct < 100 {
		return fmt.Sprintf("%s of $%.2f has crossed %.0f%% of the $%.2f limit", subject, actual, pct, limit)
	}
	return fmt.Sprintf("%s of $%.2f exceeds the $%.2f limit", subject, actual, limit)
}
