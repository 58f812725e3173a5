package usage

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"resumelift/internal/types"
)

func testTracker(t *testing.T, limits Limits, now func() time.Time) *Tracker {
	t.Helper()
	tracker, err := NewTracker(TrackerConfig{
		Enabled: true,
		Path:    filepath.Join(t.TempDir(), "usage.jsonl"),
		Limits:  limits,
		Now:     now,
	})
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}
	return tracker
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRecordStampsCostAndIdentity(t *testing.T) {
	tracker := testTracker(t, Limits{}, nil)

	err := tracker.Record(types.UsageEvent{
		Provider:     "openai",
		Model:        "gpt-4o-mini",
		Operation:    types.OperationEnhance,
		InputTokens:  1_000_000,
		OutputTokens: 500_000,
		TokensUsed:   1_500_000,
		Success:      true,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	events, err := tracker.Events()
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}

	e := events[0]
	if e.ID == "" {
		t.Error("missing ID should be generated")
	}
	if e.Timestamp.IsZero() {
		t.Error("missing timestamp should be stamped")
	}
	// 1M input at $0.15/M plus 0.5M output at $0.60/M.
	if want := 0.15 + 0.30; !closeTo(e.EstimatedCost, want) {
		t.Errorf("estimated cost = %v, want %v", e.EstimatedCost, want)
	}
}

func TestRecordKeepsPresetCost(t *testing.T) {
	tracker := testTracker(t, Limits{}, nil)

	if err := tracker.Record(types.UsageEvent{
		ID: "evt-1", Provider: "openai", Model: "gpt-4o",
		EstimatedCost: 1.25, Timestamp: time.Now(),
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	events, err := tracker.Events()
	if err != nil || len(events) != 1 {
		t.Fatalf("Events = %v, %v", events, err)
	}
	if !closeTo(events[0].EstimatedCost, 1.25) {
		t.Errorf("preset cost overwritten: %v", events[0].EstimatedCost)
	}
}

func TestDisabledTrackerIsInert(t *testing.T) {
	tracker, err := NewTracker(TrackerConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}

	if err := tracker.Record(types.UsageEvent{Provider: "openai"}); err != nil {
		t.Errorf("disabled Record should be a no-op, got %v", err)
	}
	events, err := tracker.Events()
	if err != nil || len(events) != 0 {
		t.Errorf("disabled Events = %v, %v", events, err)
	}

	stats, err := tracker.Stats(7)
	if err != nil || stats.TotalEvents != 0 {
		t.Errorf("disabled Stats = %+v, %v", stats, err)
	}
}

func TestEnabledTrackerRequiresPath(t *testing.T) {
	if _, err := NewTracker(TrackerConfig{Enabled: true}); err == nil {
		t.Fatal("expected error for enabled tracker without a path")
	}
}

func TestStatsWindow(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	tracker := testTracker(t, Limits{}, func() time.Time { return now })

	events := []types.UsageEvent{
		{ID: "a", Timestamp: now.AddDate(0, 0, -1), Provider: "openai", Operation: types.OperationEnhance,
			TokensUsed: 1000, EstimatedCost: 0.10, Success: true, Confidence: 0.9, ProcessingTimeMS: 400},
		{ID: "b", Timestamp: now.AddDate(0, 0, -2), Provider: "anthropic", Operation: types.OperationEnhance,
			TokensUsed: 2000, EstimatedCost: 0.20, Success: false, ProcessingTimeMS: 800},
		{ID: "c", Timestamp: now.AddDate(0, 0, -3), Provider: "openai", Operation: types.OperationReparse,
			TokensUsed: 3000, EstimatedCost: 0.30, Success: true, Confidence: 0.7, ProcessingTimeMS: 600},
		// Outside the 7-day window, must not count.
		{ID: "d", Timestamp: now.AddDate(0, 0, -10), Provider: "openai", Operation: types.OperationEnhance,
			TokensUsed: 9000, EstimatedCost: 9.99, Success: true, Confidence: 0.9},
	}
	for _, e := range events {
		if err := tracker.Record(e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	stats, err := tracker.Stats(7)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.TotalEvents != 3 {
		t.Errorf("total events = %d, want 3", stats.TotalEvents)
	}
	if !closeTo(stats.SuccessRate, 2.0/3.0) {
		t.Errorf("success rate = %v", stats.SuccessRate)
	}
	if stats.TotalTokens != 6000 {
		t.Errorf("total tokens = %d", stats.TotalTokens)
	}
	if !closeTo(stats.TotalCost, 0.60) {
		t.Errorf("total cost = %v", stats.TotalCost)
	}
	// Confidence averages only over events that carry one.
	if !closeTo(stats.AvgConfidence, 0.8) {
		t.Errorf("avg confidence = %v, want 0.8", stats.AvgConfidence)
	}
	if !closeTo(stats.AvgProcessingMS, 600) {
		t.Errorf("avg processing = %v, want 600", stats.AvgProcessingMS)
	}
	if stats.EventsByProvider["openai"] != 2 || stats.EventsByProvider["anthropic"] != 1 {
		t.Errorf("events by provider = %v", stats.EventsByProvider)
	}
	if stats.EventsByOperation["enhance"] != 2 || stats.EventsByOperation["reparse"] != 1 {
		t.Errorf("events by operation = %v", stats.EventsByOperation)
	}
	if !closeTo(stats.CostByProvider["openai"], 0.40) {
		t.Errorf("cost by provider = %v", stats.CostByProvider)
	}
}

func TestCostMonitoringProjection(t *testing.T) {
	// $3.00 spent by day 10 of a 30-day month projects to $9.00; with an
	// $8.00 monthly limit the projection alert fires.
	now := time.Date(2025, time.April, 10, 12, 0, 0, 0, time.UTC)
	tracker := testTracker(t, Limits{MonthlyUSD: 8.00}, func() time.Time { return now })

	for day := 2; day <= 10; day += 4 {
		err := tracker.Record(types.UsageEvent{
			Provider: "anthropic", Model: "claude-3-5-sonnet-20241022",
			Timestamp:     time.Date(2025, time.April, day, 9, 0, 0, 0, time.UTC),
			EstimatedCost: 1.00,
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	monitoring, err := tracker.CostMonitoring()
	if err != nil {
		t.Fatalf("CostMonitoring failed: %v", err)
	}

	if !closeTo(monitoring.CurrentSpending.ThisMonth, 3.00) {
		t.Errorf("thisMonth = %v, want 3.00", monitoring.CurrentSpending.ThisMonth)
	}
	if !closeTo(monitoring.ProjectedSpending.Monthly, 9.00) {
		t.Errorf("projected = %v, want 9.00", monitoring.ProjectedSpending.Monthly)
	}

	var projectionAlert *types.CostAlert
	for i := range monitoring.Alerts {
		if monitoring.Alerts[i].Kind == "monthly_projection" {
			projectionAlert = &monitoring.Alerts[i]
		}
	}
	if projectionAlert == nil {
		t.Fatalf("alerts = %+v, want a monthly_projection alert", monitoring.Alerts)
	}
	if !closeTo(projectionAlert.Actual, 9.00) || !closeTo(projectionAlert.Limit, 8.00) {
		t.Errorf("alert = %+v", projectionAlert)
	}

	// This month itself is still under the limit.
	for _, a := range monitoring.Alerts {
		if a.Kind == "monthly_limit" {
			t.Errorf("unexpected monthly_limit alert: %+v", a)
		}
	}
}

func TestCostMonitoringTodayAndThreshold(t *testing.T) {
	now := time.Date(2025, time.April, 10, 18, 0, 0, 0, time.UTC)
	tracker := testTracker(t, Limits{DailyUSD: 1.00, ThresholdPct: 80}, func() time.Time { return now })

	record := func(ts time.Time, cost float64) {
		t.Helper()
		if err := tracker.Record(types.UsageEvent{Provider: "openai", Timestamp: ts, EstimatedCost: cost}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	record(time.Date(2025, time.April, 9, 23, 0, 0, 0, time.UTC), 0.50) // yesterday
	record(time.Date(2025, time.April, 10, 8, 0, 0, 0, time.UTC), 0.50)
	record(time.Date(2025, time.April, 10, 12, 0, 0, 0, time.UTC), 0.35)

	monitoring, err := tracker.CostMonitoring()
	if err != nil {
		t.Fatalf("CostMonitoring failed: %v", err)
	}

	if !closeTo(monitoring.CurrentSpending.Today, 0.85) {
		t.Errorf("today = %v, want 0.85", monitoring.CurrentSpending.Today)
	}
	if !closeTo(monitoring.CurrentSpending.ThisMonth, 1.35) {
		t.Errorf("thisMonth = %v, want 1.35", monitoring.CurrentSpending.ThisMonth)
	}

	// 0.85 has crossed 80% of the $1.00 daily limit.
	found := false
	for _, a := range monitoring.Alerts {
		if a.Kind == "daily_limit" {
			found = true
		}
	}
	if !found {
		t.Errorf("alerts = %+v, want a daily_limit threshold alert", monitoring.Alerts)
	}
}

func TestEventsSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.jsonl")
	tracker, err := NewTracker(TrackerConfig{Enabled: true, Path: path})
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}

	if err := tracker.Record(types.UsageEvent{ID: "good-1", Provider: "openai", Timestamp: time.Now()}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := f.WriteString("{not json\n"); err != nil {
		t.Fatalf("write corrupt line: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}
	if err := tracker.Record(types.UsageEvent{ID: "good-2", Provider: "openai", Timestamp: time.Now()}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	events, err := tracker.Events()
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want the 2 valid lines", len(events))
	}
	if events[0].ID != "good-1" || events[1].ID != "good-2" {
		t.Errorf("events = %+v", events)
	}
}

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		provider string
		model    string
		in, out  int64
		want     float64
	}{
		{"openai", "gpt-4o-mini", 1_000_000, 1_000_000, 0.75},
		{"openai", "gpt-4o", 2_000_000, 0, 5.00},
		{"anthropic", "claude-3-5-sonnet-20241022", 1_000_000, 1_000_000, 18.00},
		{"gemini", "gemini-2.0-flash", 10_000_000, 0, 1.00},
		// Unknown models fall back to the default rate.
		{"openai", "mystery-model", 1_000_000, 0, 1.00},
		{"cohere", "command-r", 0, 1_000_000, 3.00},
	}
	for _, tt := range tests {
		if got := EstimateCost(tt.provider, tt.model, tt.in, tt.out); !closeTo(got, tt.want) {
			t.Errorf("EstimateCost(%s, %s, %d, %d) = %v, want %v",
				tt.provider, tt.model, tt.in, tt.out, got, tt.want)
		}
	}
}
