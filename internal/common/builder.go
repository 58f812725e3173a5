package common

import (
	"net/http"
	"time"

	"resumelift/internal/ai"
	"resumelift/internal/config"
	"resumelift/internal/errors"
	"resumelift/internal/usage"
)

// BuildRegistry constructs the provider registry honoring per-provider base
// URL overrides from the config. A zero timeout keeps each adapter's default
// HTTP client.
func BuildRegistry(cfg *config.Config, timeout time.Duration, logger *errors.Logger) *ai.Registry {
	var client *http.Client
	if timeout > 0 {
		client = &http.Client{Timeout: timeout}
	}
	providers := cfg.AI.Providers
	return ai.NewRegistry(
		ai.NewOpenAIProvider(providers.OpenAI.BaseURL, client, logger),
		ai.NewAnthropicProvider(providers.Anthropic.BaseURL, client, logger),
		ai.NewGeminiProvider(providers.Gemini.BaseURL, client, logger),
	)
}

// BuildService assembles an orchestration service for one operation block:
// registry with the operation's HTTP timeout, effective prompt overrides,
// breaker settings, and the usage recorder.
func BuildService(cfg *config.Config, opCfg config.OperationAIConfig, recorder ai.UsageRecorder, logger *errors.Logger) (*ai.Service, error) {
	timeout := cfg.AI.Timeout
	if opCfg.Timeout != nil && *opCfg.Timeout > 0 {
		timeout = *opCfg.Timeout
	}

	prompts := BuildPromptConfig(cfg)
	return ai.NewService(ai.ServiceConfig{
		Registry: BuildRegistry(cfg, timeout, logger),
		Prompts:  &prompts,
		Breaker:  BuildBreakerSettings(opCfg),
		Usage:    recorder,
		Logger:   logger,
	})
}

// BuildOptions maps a resolved operation block to per-call orchestrator
// options. Unset pointer fields keep the orchestrator defaults.
func BuildOptions(cfg *config.Config, opCfg config.OperationAIConfig) ai.Options {
	opts := ai.Options{
		Provider: ai.ProviderID(opCfg.Provider),
		Model:    opCfg.Model,
		APIKey:   opCfg.APIKey,
		Retry:    ai.DefaultRetryPolicy(),
	}
	if opCfg.MaxTokens != nil && *opCfg.MaxTokens > 0 {
		opts.MaxTokens = *opCfg.MaxTokens
	}
	if opCfg.Temperature != nil && *opCfg.Temperature > 0 {
		opts.Temperature = *opCfg.Temperature
	}
	if opCfg.MaxAttempts != nil && *opCfg.MaxAttempts > 0 {
		opts.Retry.MaxAttempts = *opCfg.MaxAttempts
	}
	if opCfg.BaseDelay != nil && *opCfg.BaseDelay > 0 {
		opts.Retry.BaseDelay = *opCfg.BaseDelay
	}
	if opCfg.MaxDelay != nil && *opCfg.MaxDelay > 0 {
		opts.Retry.MaxDelay = *opCfg.MaxDelay
	}
	if opCfg.BackoffFactor != nil && *opCfg.BackoffFactor > 0 {
		opts.Retry.BackoffFactor = *opCfg.BackoffFactor
	}

	if opCfg.FallbackProvider != "" {
		key := cfg.ResolveProviderKey(opCfg.FallbackProvider)
		if key == "" && opCfg.FallbackProvider == opCfg.Provider {
			// Same-provider model fallback reuses the primary key.
			key = opCfg.APIKey
		}
		opts.Fallback = &ai.FallbackTarget{
			Provider: ai.ProviderID(opCfg.FallbackProvider),
			Model:    opCfg.FallbackModel,
			APIKey:   key,
		}
	}

	return opts
}

// BuildBreakerSettings maps an operation's circuit breaker block to the
// orchestrator's settings.
func BuildBreakerSettings(opCfg config.OperationAIConfig) ai.BreakerSettings {
	cb := opCfg.CircuitBreaker
	return ai.BreakerSettings{
		Enabled:          cb.Enabled,
		MaxRequests:      cb.MaxRequests,
		Interval:         cb.Interval,
		Timeout:          cb.Timeout,
		MinRequests:      cb.MinRequests,
		FailureThreshold: cb.FailureThreshold,
	}
}

// BuildPromptConfig maps the effective prompt overrides into the
// orchestrator's prompt configuration. Empty slots fall through to the
// built-in prompts downstream.
func BuildPromptConfig(cfg *config.Config) ai.PromptConfig {
	overrides := cfg.PromptOverrides()
	return ai.PromptConfig{
		SystemPrompts: ai.SystemPrompts{
			Enhance: overrides.EnhanceSystem,
			Reparse: overrides.ReparseSystem,
		},
		UserPrompts: ai.UserPrompts{
			Enhance: overrides.EnhanceUser,
			Reparse: overrides.ReparseUser,
		},
	}
}

// BuildUsageTracker constructs the usage tracker from the usage block. The
// tracker doubles as the orchestrator's UsageRecorder.
func BuildUsageTracker(cfg *config.Config, logger *errors.Logger) (*usage.Tracker, error) {
	return usage.NewTracker(usage.TrackerConfig{
		Enabled: cfg.Usage.Enabled,
		Path:    cfg.Usage.Path,
		Limits: usage.Limits{
			DailyUSD:     cfg.Usage.DailyLimitUSD,
			MonthlyUSD:   cfg.Usage.MonthlyLimitUSD,
			ThresholdPct: cfg.Usage.AlertThresholdPct,
		},
		Logger: logger,
	})
}
