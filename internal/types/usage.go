package types

import "time"

// Operation names the kind of AI call a usage event or history entry records.
type Operation string

const (
	OperationEnhance        Operation = "enhance"
	OperationReparse        Operation = "reparse"
	OperationConnectionTest Operation = "connection_test"
)

// UsageEvent is one append-only record of a completed attempt sequence.
// Events are never mutated after creation.
type UsageEvent struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	Operation        Operation `json:"operation"`
	InputTokens      int64     `json:"inputTokens"`
	OutputTokens     int64     `json:"outputTokens"`
	TokensUsed       int64     `json:"tokensUsed"`
	EstimatedCost    float64   `json:"estimatedCost"`
	Success          bool      `json:"success"`
	ErrorKind        string    `json:"errorKind,omitempty"`
	Confidence       float64   `json:"confidence,omitempty"`
	ProcessingTimeMS int64     `json:"processingTimeMs"`
}

// UsageStats aggregates usage events over a trailing window.
type UsageStats struct {
	WindowDays        int                `json:"windowDays"`
	TotalEvents       int                `json:"totalEvents"`
	SuccessRate       float64            `json:"successRate"`
	TotalTokens       int64              `json:"totalTokens"`
	TotalCost         float64            `json:"totalCost"`
	AvgConfidence     float64            `json:"avgConfidence"`
	AvgProcessingMS   float64            `json:"avgProcessingMs"`
	EventsByProvider  map[string]int     `json:"eventsByProvider"`
	EventsByOperation map[string]int     `json:"eventsByOperation"`
	CostByProvider    map[string]float64 `json:"costByProvider"`
}

// SpendingPeriods holds calendar-period spend totals.
type SpendingPeriods struct {
	Today     float64 `json:"today"`
	ThisMonth float64 `json:"thisMonth"`
}

// ProjectedSpending holds forward-looking spend estimates.
type ProjectedSpending struct {
	Monthly float64 `json:"monthly"`
}

// CostAlert is one threshold crossing detected at query time.
type CostAlert struct {
	Kind    string  `json:"kind"` // "daily_limit", "monthly_limit", "monthly_projection"
	Limit   float64 `json:"limit"`
	Actual  float64 `json:"actual"`
	Message string  `json:"message"`
}

// CostMonitoring is derived on demand from the usage log plus configured
// limits; it is never stored. All figures are advisory local estimates, not
// billed amounts.
type CostMonitoring struct {
	CurrentSpending   SpendingPeriods   `json:"currentSpending"`
	ProjectedSpending ProjectedSpending `json:"projectedSpending"`
	DailyLimit        float64           `json:"dailyLimit,omitempty"`
	MonthlyLimit      float64           `json:"monthlyLimit,omitempty"`
	Alerts            []CostAlert       `json:"alerts,omitempty"`
}

// SuggestionAction records one accept/reject decision against a history entry.
type SuggestionAction struct {
	SuggestionID string    `json:"suggestionId"`
	Action       string    `json:"action"` // "accepted" or "rejected"
	Timestamp    time.Time `json:"timestamp"`
}

// HistoryEntry links a completed orchestration session to the accept/reject
// decisions later made against its suggestions.
type HistoryEntry struct {
	ID            string             `json:"id"`
	Timestamp     time.Time          `json:"timestamp"`
	Operation     Operation          `json:"operation"`
	Provider      string             `json:"provider"`
	Model         string             `json:"model"`
	Success       bool               `json:"success"`
	Confidence    float64            `json:"confidence"`
	SuggestionIDs []string           `json:"suggestionIds,omitempty"`
	Actions       []SuggestionAction `json:"actions,omitempty"`
}
