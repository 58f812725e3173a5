package ai

import (
	"context"
	"strings"
	"sync"
	"time"

	"resumelift/internal/errors"
	"resumelift/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultMaxTokens   = 4096
	defaultTemperature = float32(0.3)

	// Connection tests spend a handful of tokens and never retry.
	connectionTestMaxTokens = 8
)

// Options configures a single orchestrated run. Configuration is explicit
// per call; the orchestrator holds no ambient settings.
type Options struct {
	Provider    ProviderID
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature float32
	Retry       RetryPolicy
	Fallback    *FallbackTarget
}

// FallbackTarget names the provider the controller may switch to exactly
// once after the primary's attempt budget is spent.
type FallbackTarget struct {
	Provider ProviderID
	Model    string
	APIKey   string
}

// UsageRecorder receives exactly one terminal event per attempt sequence.
// Runs abandoned by cancellation are never recorded.
type UsageRecorder interface {
	Record(event types.UsageEvent) error
}

// Service orchestrates enhancement runs end to end: prompt assembly, the
// retry/fallback schedule over the provider registry, response parsing, and
// result stamping.
type Service struct {
	registry   *Registry
	prompts    PromptConfig
	breakerCfg BreakerSettings
	usage      UsageRecorder
	logger     *errors.Logger

	mu            sync.Mutex
	breakers      map[ProviderID]*CompletionBreaker
	modelBreakers map[ProviderID]*ModelListBreaker

	sleep SleepFunc
	now   func() time.Time
}

// ServiceConfig carries the orchestrator's collaborators. Registry is
// required; everything else has a usable zero value.
type ServiceConfig struct {
	Registry *Registry
	Prompts  *PromptConfig
	Breaker  BreakerSettings
	Usage    UsageRecorder
	Logger   *errors.Logger

	// Sleep and Now are injected by tests to make backoff and timing
	// assertions deterministic.
	Sleep SleepFunc
	Now   func() time.Time
}

// NewService creates a new orchestration service instance
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Registry == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"Provider registry is required", nil)
	}

	prompts := GetDefaultPromptConfig()
	if cfg.Prompts != nil {
		prompts = *cfg.Prompts
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepWithContext
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		registry:      cfg.Registry,
		prompts:       prompts,
		breakerCfg:    cfg.Breaker,
		usage:         cfg.Usage,
		logger:        cfg.Logger,
		breakers:      make(map[ProviderID]*CompletionBreaker),
		modelBreakers: make(map[ProviderID]*ModelListBreaker),
		sleep:         sleep,
		now:           now,
	}, nil
}

// validateOptions fails fast before any network I/O. Missing credentials
// classify as api_key_invalid so callers get the same remediation they would
// for a rejected key.
func (s *Service) validateOptions(opts Options) *Error {
	if opts.Provider == "" {
		return &Error{Kind: KindUnknown, Message: "provider is required"}
	}
	if _, ok := s.registry.Lookup(opts.Provider); !ok {
		return &Error{Provider: opts.Provider, Kind: KindUnknown,
			Message: "no adapter registered for provider"}
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return &Error{Provider: opts.Provider, Kind: KindAPIKeyInvalid,
			Message: "API key is required"}
	}
	if opts.Fallback != nil {
		if _, ok := s.registry.Lookup(opts.Fallback.Provider); !ok {
			return &Error{Provider: opts.Fallback.Provider, Kind: KindUnknown,
				Message: "no adapter registered for fallback provider"}
		}
		if strings.TrimSpace(opts.Fallback.APIKey) == "" {
			return &Error{Provider: opts.Fallback.Provider, Kind: KindAPIKeyInvalid,
				Message: "API key is required for the fallback provider"}
		}
	}
	return nil
}

// withDefaults fills unset generation parameters.
func (s *Service) withDefaults(opts Options) Options {
	if opts.Model == "" {
		opts.Model = DefaultModel(opts.Provider)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = defaultTemperature
	}
	opts.Retry = opts.Retry.withDefaults()
	return opts
}

// targets resolves the primary and optional fallback call targets.
func targets(opts Options) (Target, *Target) {
	primary := Target{Provider: opts.Provider, Model: opts.Model, APIKey: opts.APIKey}
	if opts.Fallback == nil {
		return primary, nil
	}
	model := opts.Fallback.Model
	if model == "" {
		model = DefaultModel(opts.Fallback.Provider)
	}
	fb := Target{Provider: opts.Fallback.Provider, Model: model, APIKey: opts.Fallback.APIKey}
	return primary, &fb
}

// Enhance runs one orchestration: build prompts, call through the retry
// controller, parse, and stamp. Parse failures degrade inside the parser;
// provider failures surface as classified errors.
func (s *Service) Enhance(ctx context.Context, req types.EnhancementRequest, opts Options) (*types.EnhancementResult, error) {
	tracer := otel.Tracer("resumelift.ai")
	ctx, span := tracer.Start(ctx, "ai.enhance")
	defer span.End()

	start := s.now()

	if !req.Mode.Valid() {
		req.Mode = types.ModeEnhance
	}
	if verr := s.validateOptions(opts); verr != nil {
		span.RecordError(verr)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, verr
	}
	opts = s.withDefaults(opts)

	span.SetAttributes(
		attribute.String("ai.provider", string(opts.Provider)),
		attribute.String("ai.model", opts.Model),
		attribute.String("ai.mode", string(req.Mode)),
		attribute.String("ai.level", string(req.Level)),
	)

	systemPrompt, userPrompt, err := BuildPrompts(s.prompts, req, start)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	primary, fallback := targets(opts)
	outcome, runErr := RunWithRetry(ctx, opts.Retry, primary, fallback, s.sleep, s.logger, func(ctx context.Context, target Target, attempt int) (*CompletionResponse, error) {
		return s.complete(ctx, target, CompletionRequest{
			Model:        target.Model,
			SystemPrompt: systemPrompt,
			UserPrompt:   userPrompt,
			MaxTokens:    opts.MaxTokens,
			Temperature:  opts.Temperature,
			APIKey:       target.APIKey,
		})
	})
	if runErr != nil {
		span.RecordError(runErr)
		span.SetAttributes(attribute.Bool("success", false))
		s.recordUsage(ctx, operationFor(req.Mode), outcome, nil, runErr, start)
		return nil, runErr
	}

	result := ParseResponse(req.Mode, outcome.Response.Text, req.ParsedData, start, s.logger)
	result.Provider = string(outcome.Target.Provider)
	result.Model = outcome.Target.Model
	result.ProcessingTimeMS = s.now().Sub(start).Milliseconds()
	result.Timestamp = s.now()

	if usage := outcome.Response.Usage; usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Float64("ai.confidence", result.Confidence),
		attribute.Int("ai.suggestions", len(result.Suggestions)),
	)

	s.recordUsage(ctx, operationFor(req.Mode), outcome, result, nil, start)
	return result, nil
}

// TestConnection validates credentials with a trivial fixed prompt and a
// tiny token budget: same provider and error machinery as Enhance, one
// attempt, no fallback.
func (s *Service) TestConnection(ctx context.Context, provider ProviderID, apiKey, model string) (*types.ConnectionTestResult, error) {
	tracer := otel.Tracer("resumelift.ai")
	ctx, span := tracer.Start(ctx, "ai.test_connection")
	defer span.End()

	start := s.now()
	opts := Options{Provider: provider, Model: model, APIKey: apiKey}
	if verr := s.validateOptions(opts); verr != nil {
		span.RecordError(verr)
		return nil, verr
	}
	opts = s.withDefaults(opts)

	span.SetAttributes(
		attribute.String("ai.provider", string(provider)),
		attribute.String("ai.model", opts.Model),
	)

	primary, _ := targets(opts)
	policy := opts.Retry
	policy.MaxAttempts = 1
	outcome, runErr := RunWithRetry(ctx, policy, primary, nil, s.sleep, s.logger, func(ctx context.Context, target Target, attempt int) (*CompletionResponse, error) {
		return s.complete(ctx, target, CompletionRequest{
			Model:        target.Model,
			SystemPrompt: connectionTestSystemPrompt,
			UserPrompt:   connectionTestUserPrompt,
			MaxTokens:    connectionTestMaxTokens,
			Temperature:  opts.Temperature,
			APIKey:       target.APIKey,
		})
	})

	s.recordUsage(ctx, types.OperationConnectionTest, outcome, nil, runErr, start)

	result := &types.ConnectionTestResult{
		Provider:  string(provider),
		Model:     opts.Model,
		LatencyMS: s.now().Sub(start).Milliseconds(),
		Timestamp: s.now(),
	}
	if runErr != nil {
		span.RecordError(runErr)
		span.SetAttributes(attribute.Bool("success", false))
		result.OK = false
		if aiErr, ok := AsError(runErr); ok {
			result.Message = aiErr.Remediation()
		} else {
			result.Message = runErr.Error()
		}
		return result, runErr
	}

	span.SetAttributes(attribute.Bool("success", true))
	result.OK = true
	return result, nil
}

// ListModels returns the provider's catalog-filtered model listing.
func (s *Service) ListModels(ctx context.Context, provider ProviderID, apiKey string) (*types.ModelList, error) {
	tracer := otel.Tracer("resumelift.ai")
	ctx, span := tracer.Start(ctx, "ai.list_models")
	defer span.End()

	span.SetAttributes(attribute.String("ai.provider", string(provider)))

	adapter, ok := s.registry.Lookup(provider)
	if !ok {
		err := &Error{Provider: provider, Kind: KindUnknown, Message: "no adapter registered for provider"}
		span.RecordError(err)
		return nil, err
	}
	if strings.TrimSpace(apiKey) == "" {
		err := &Error{Provider: provider, Kind: KindAPIKeyInvalid, Message: "API key is required"}
		span.RecordError(err)
		return nil, err
	}

	models, err := s.modelBreakerFor(provider).Execute(func() ([]types.ModelInfo, error) {
		return adapter.ListModels(ctx, apiKey)
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("ai.models", len(models)),
	)
	return &types.ModelList{Provider: string(provider), Models: models}, nil
}

// complete dispatches one adapter call through the provider's breaker.
func (s *Service) complete(ctx context.Context, target Target, req CompletionRequest) (*CompletionResponse, error) {
	provider, ok := s.registry.Lookup(target.Provider)
	if !ok {
		return nil, &Error{Provider: target.Provider, Kind: KindUnknown,
			Message: "no adapter registered for provider"}
	}
	return s.breakerFor(target.Provider).Execute(func() (*CompletionResponse, error) {
		return provider.Complete(ctx, req)
	})
}

func (s *Service) breakerFor(id ProviderID) *CompletionBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cb, ok := s.breakers[id]; ok {
		return cb
	}
	cb := NewCompletionBreaker(id, s.breakerCfg, s.logger)
	s.breakers[id] = cb
	return cb
}

func (s *Service) modelBreakerFor(id ProviderID) *ModelListBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cb, ok := s.modelBreakers[id]; ok {
		return cb
	}
	cb := NewModelListBreaker(id, s.breakerCfg, s.logger)
	s.modelBreakers[id] = cb
	return cb
}

// operationFor maps a request mode to its usage operation.
func operationFor(mode types.Mode) types.Operation {
	if mode == types.ModeReparse {
		return types.OperationReparse
	}
	return types.OperationEnhance
}

// recordUsage emits the single terminal usage event for one attempt
// sequence. Runs abandoned by cancellation are excluded so they never bill.
func (s *Service) recordUsage(ctx context.Context, op types.Operation, outcome *RunOutcome, result *types.EnhancementResult, runErr error, start time.Time) {
	if s.usage == nil || outcome == nil {
		return
	}
	if ctx.Err() != nil {
		return
	}

	event := types.UsageEvent{
		ID:               uuid.New().String(),
		Timestamp:        start,
		Provider:         string(outcome.Target.Provider),
		Model:            outcome.Target.Model,
		Operation:        op,
		Success:          runErr == nil,
		ProcessingTimeMS: s.now().Sub(start).Milliseconds(),
	}
	if outcome.Response != nil && outcome.Response.Usage != nil {
		event.InputTokens = outcome.Response.Usage.InputTokens
		event.OutputTokens = outcome.Response.Usage.OutputTokens
		event.TokensUsed = outcome.Response.Usage.TotalTokens
	}
	if runErr != nil {
		event.ErrorKind = string(KindOf(runErr))
	}
	if result != nil {
		event.Confidence = result.Confidence
	}

	if err := s.usage.Record(event); err != nil && s.logger != nil {
		s.logger.Warn("Usage event failed to record", "error", err.Error())
	}
}

// GetCircuitBreakerStats returns per-provider circuit breaker statistics.
func (s *Service) GetCircuitBreakerStats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[string]any)
	healthy := true
	for id, cb := range s.breakers {
		stats[string(id)] = cb.GetStats()
		healthy = healthy && cb.IsHealthy()
	}
	for id, cb := range s.modelBreakers {
		stats[string(id)+"_models"] = cb.GetStats()
		healthy = healthy && cb.IsHealthy()
	}
	stats["overall_healthy"] = healthy
	return stats
}
