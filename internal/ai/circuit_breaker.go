package ai

import (
	stderrors "errors"
	"fmt"
	"time"

	"resumelift/internal/errors"
	"resumelift/internal/types"

	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the per-provider circuit breakers.
type BreakerSettings struct {
	Enabled          bool
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	MinRequests      uint32
	FailureThreshold float64
}

// CompletionBreaker wraps one provider's completion calls with the circuit
// breaker pattern.
type CompletionBreaker struct {
	provider ProviderID
	cb       *gobreaker.CircuitBreaker[*CompletionResponse]
}

// NewCompletionBreaker creates a breaker for one provider's completion
// calls. If the breaker is disabled, it returns nil; a nil breaker executes
// calls directly.
func NewCompletionBreaker(provider ProviderID, cfg BreakerSettings, logger *errors.Logger) *CompletionBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("AI-%s", provider),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger != nil {
				logger.Info("Circuit breaker state changed",
					"name", name,
					"provider", provider,
					"from", from.String(),
					"to", to.String(),
					"max_requests", cfg.MaxRequests,
					"failure_threshold", cfg.FailureThreshold)
			}
		},
	}

	return &CompletionBreaker{
		provider: provider,
		cb:       gobreaker.NewCircuitBreaker[*CompletionResponse](settings),
	}
}

// Execute runs fn under the breaker. An open breaker comes back as a
// classified retryable error so the controller can back off or fall back
// instead of seeing a bare gobreaker sentinel.
func (cb *CompletionBreaker) Execute(fn func() (*CompletionResponse, error)) (*CompletionResponse, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}
	resp, err := cb.cb.Execute(fn)
	if err != nil && (stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests)) {
		return nil, &Error{
			Provider: cb.provider,
			Kind:     KindUnknown,
			Message:  "circuit breaker is open",
			Err:      err,
		}
	}
	return resp, err
}

// GetStats returns circuit breaker statistics
func (cb *CompletionBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (cb *CompletionBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true // If no circuit breaker, consider it healthy
	}
	return cb.cb.State() == gobreaker.StateClosed
}

// ModelListBreaker wraps model listing calls with the circuit breaker
// pattern. Listings are less critical than completions, so the trip
// condition is fixed and lenient.
type ModelListBreaker struct {
	provider ProviderID
	cb       *gobreaker.CircuitBreaker[[]types.ModelInfo]
}

// NewModelListBreaker creates a model listing breaker for one provider.
// Returns nil when disabled.
func NewModelListBreaker(provider ProviderID, cfg BreakerSettings, logger *errors.Logger) *ModelListBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("AI-Models-%s", provider),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger != nil {
				logger.Info("Circuit breaker state changed",
					"name", name,
					"provider", provider,
					"from", from.String(),
					"to", to.String(),
					"max_requests", cfg.MaxRequests)
			}
		},
	}

	return &ModelListBreaker{
		provider: provider,
		cb:       gobreaker.NewCircuitBreaker[[]types.ModelInfo](settings),
	}
}

// Execute runs fn under the breaker with the same open-state mapping as
// completion calls.
func (cb *ModelListBreaker) Execute(fn func() ([]types.ModelInfo, error)) ([]types.ModelInfo, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}
	models, err := cb.cb.Execute(fn)
	if err != nil && (stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests)) {
		return nil, &Error{
			Provider: cb.provider,
			Kind:     KindUnknown,
			Message:  "circuit breaker is open",
			Err:      err,
		}
	}
	return models, err
}

// GetStats returns circuit breaker statistics
func (cb *ModelListBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (cb *ModelListBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true
	}
	return cb.cb.State() == gobreaker.StateClosed
}
