package ai

import (
	"context"
	"math"
	"time"

	"resumelift/internal/errors"
)

// RetryPolicy bounds the attempt loop for one provider target.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy returns the standard bounded backoff schedule.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		BaseDelay:     time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.BackoffFactor <= 0 {
		p.BackoffFactor = def.BackoffFactor
	}
	return p
}

// Delay returns the sleep after the given 1-based failed attempt:
// min(base * factor^(attempt-1), max). Delays are deterministic, so the
// worst-case latency of a run is a fixed function of the policy.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := float64(p.BaseDelay) * math.Pow(p.BackoffFactor, float64(attempt-1))
	if ceiling := float64(p.MaxDelay); d > ceiling {
		d = ceiling
	}
	return time.Duration(d)
}

// Target is one provider/model/key combination the controller can attempt.
type Target struct {
	Provider ProviderID
	Model    string
	APIKey   string
}

// Attempt records one adapter call in the trail a run hands back.
type Attempt struct {
	Target Target
	Number int           // 1-based within its target
	Kind   Kind          // classified kind, empty on success
	Err    error         // nil on the successful attempt
	Delay  time.Duration // backoff slept after this attempt
}

// RunOutcome is what the controller hands back. It is populated for both
// success and failure so accounting can always read the attempt trail.
type RunOutcome struct {
	Response *CompletionResponse
	Target   Target
	Attempts []Attempt
}

// Calls returns how many adapter invocations the run made.
func (o *RunOutcome) Calls() int {
	return len(o.Attempts)
}

// UsedFallback reports whether any attempt ran against a provider other
// than the first attempt's.
func (o *RunOutcome) UsedFallback() bool {
	if len(o.Attempts) == 0 {
		return false
	}
	first := o.Attempts[0].Target
	for _, a := range o.Attempts[1:] {
		if a.Target != first {
			return true
		}
	}
	return false
}

// SleepFunc suspends for d or until ctx is done. Injected in tests so the
// backoff schedule can be asserted without waiting it out.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CallFunc performs one adapter call for a target. The orchestrator supplies
// dispatch (registry lookup, breaker, prompt assembly); the controller owns
// only the schedule.
type CallFunc func(ctx context.Context, target Target, attempt int) (*CompletionResponse, error)

// RunWithRetry attempts the primary target under the policy, then engages
// the fallback target exactly once with a fresh attempt budget. A terminal
// failure on the primary skips its remaining budget but still engages the
// fallback; a terminal failure on the fallback ends the run. Cancellation
// aborts between attempts and during backoff.
func RunWithRetry(ctx context.Context, policy RetryPolicy, primary Target, fallback *Target, sleep SleepFunc, logger *errors.Logger, call CallFunc) (*RunOutcome, error) {
	policy = policy.withDefaults()
	if sleep == nil {
		sleep = sleepWithContext
	}

	outcome := &RunOutcome{Target: primary}

	resp, err := runTarget(ctx, policy, primary, sleep, logger, call, outcome)
	if err == nil {
		outcome.Response = resp
		return outcome, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return outcome, ctxErr
	}

	if fallback == nil {
		return outcome, err
	}

	if logger != nil {
		logger.Warn("Switching to fallback provider",
			"from_provider", primary.Provider,
			"to_provider", fallback.Provider,
			"to_model", fallback.Model,
			"error", err.Error())
	}

	outcome.Target = *fallback
	resp, fbErr := runTarget(ctx, policy, *fallback, sleep, logger, call, outcome)
	if fbErr == nil {
		outcome.Response = resp
		return outcome, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return outcome, ctxErr
	}
	return outcome, fbErr
}

// runTarget drives the bounded attempt loop for a single target.
func runTarget(ctx context.Context, policy RetryPolicy, target Target, sleep SleepFunc, logger *errors.Logger, call CallFunc, outcome *RunOutcome) (*CompletionResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := call(ctx, target, attempt)
		if err == nil {
			outcome.Attempts = append(outcome.Attempts, Attempt{Target: target, Number: attempt})
			if attempt > 1 && logger != nil {
				logger.Info("AI operation succeeded after retry",
					"provider", target.Provider,
					"model", target.Model,
					"successful_attempt", attempt)
			}
			return resp, nil
		}

		lastErr = err
		entry := Attempt{Target: target, Number: attempt, Kind: KindOf(err), Err: err}

		if ctxErr := ctx.Err(); ctxErr != nil {
			outcome.Attempts = append(outcome.Attempts, entry)
			return nil, ctxErr
		}

		if entry.Kind.Terminal() {
			outcome.Attempts = append(outcome.Attempts, entry)
			if logger != nil {
				logger.Debug("Error is terminal, stopping retry attempts",
					"provider", target.Provider,
					"kind", entry.Kind,
					"error", err.Error())
			}
			return nil, err
		}

		if attempt == policy.MaxAttempts {
			outcome.Attempts = append(outcome.Attempts, entry)
			break
		}

		entry.Delay = policy.Delay(attempt)
		outcome.Attempts = append(outcome.Attempts, entry)
		if logger != nil {
			logger.Warn("Retrying AI operation",
				"provider", target.Provider,
				"model", target.Model,
				"attempt", attempt,
				"max_attempts", policy.MaxAttempts,
				"delay_ms", entry.Delay.Milliseconds(),
				"kind", entry.Kind,
				"error", err.Error())
		}
		if serr := sleep(ctx, entry.Delay); serr != nil {
			return nil, serr
		}
	}

	if logger != nil {
		logger.LogError(lastErr, "AI operation failed after all retry attempts",
			"provider", target.Provider,
			"model", target.Model,
			"total_attempts", policy.MaxAttempts)
	}
	return nil, lastErr
}
