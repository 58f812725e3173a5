package server

import (
	"context"
	"sync"
	"time"

	"resumelift/internal/ai"
	"resumelift/internal/common"
	"resumelift/internal/config"
	"resumelift/internal/errors"
	"resumelift/internal/observability"
	"resumelift/internal/review"
	"resumelift/internal/types"
	"resumelift/internal/usage"
)

// EnhanceRequest is the request body for the enhance endpoint.
type EnhanceRequest struct {
	ParsedData       types.ResumeData `json:"parsedData"`
	OriginalText     string           `json:"originalText,omitempty"`
	JobDescription   string           `json:"jobDescription,omitempty"`
	UserInstructions string           `json:"userInstructions,omitempty"`
	FocusAreas       []string         `json:"focusAreas,omitempty"`
	Level            string           `json:"level,omitempty"`
	Provider         string           `json:"provider,omitempty"`
	Model            string           `json:"model,omitempty"`
}

// ReparseRequest is the request body for the reparse endpoint. ParsedData is
// an optional best-effort parse the provider can correct against.
type ReparseRequest struct {
	SourceText string            `json:"sourceText"`
	ParsedData *types.ResumeData `json:"parsedData,omitempty"`
	Provider   string            `json:"provider,omitempty"`
	Model      string            `json:"model,omitempty"`
}

// CheckRequest is the request body for the connection test endpoint.
type CheckRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// ReviewRequest opens a review session over an enhancement result. HistoryID
// links the session to the history entry created when the result was
// produced; without it the session's decisions are not recorded.
type ReviewRequest struct {
	Result    *types.EnhancementResult `json:"result"`
	HistoryID string                   `json:"historyId,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *LimiterManager

	// Live review sessions and their persisted decision history
	Sessions *review.Manager
	History  *review.HistoryStore

	// Usage and cost tracking
	Usage *usage.Tracker

	// Set once observability is initialized in Start
	observability *observability.ObservabilityManager

	// Per-operation AI services, rebuilt when prompt files reload
	svcMu      sync.RWMutex
	enhanceSvc *ai.Service
	reparseSvc *ai.Service

	promptWatcher *config.PromptWatcher

	// Logger
	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host             string
	Port             string
	Version          string
	TLSConfig        config.TLSConfig
	APIKeys          []string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxRequestSize   int64
	ReviewSessionTTL time.Duration
	RateLimit        *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *errors.Logger) (*Server, error) {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *LimiterManager
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewLimiterManager(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	tracker, err := common.BuildUsageTracker(appCfg, logger)
	if err != nil {
		return nil, err
	}

	var history *review.HistoryStore
	if appCfg.Usage.HistoryPath != "" {
		history, err = review.NewHistoryStore(appCfg.Usage.HistoryPath, logger)
		if err != nil {
			return nil, err
		}
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Sessions:       review.NewManager(cfg.ReviewSessionTTL, logger),
		History:        history,
		Usage:          tracker,
		Logger:         logger,
	}, nil
}

// rebuildServices constructs the per-operation AI services from the current
// configuration. Called at startup and again after a prompt reload so new
// prompt content takes effect while circuit breaker state survives between
// reloads.
func (s *Server) rebuildServices() error {
	recorder := s.usageRecorder()

	enhanceSvc, err := common.BuildService(s.AppConfig, s.AppConfig.GetEnhanceConfig(), recorder, s.Logger)
	if err != nil {
		return err
	}
	reparseSvc, err := common.BuildService(s.AppConfig, s.AppConfig.GetReparseConfig(), recorder, s.Logger)
	if err != nil {
		return err
	}

	s.svcMu.Lock()
	s.enhanceSvc = enhanceSvc
	s.reparseSvc = reparseSvc
	s.svcMu.Unlock()
	return nil
}

// usageRecorder returns the recorder the AI services report through. With
// observability up, events tee into the metrics pipeline as well.
func (s *Server) usageRecorder() ai.UsageRecorder {
	if s.observability != nil {
		return &meteredUsageRecorder{
			inner:   s.Usage,
			metrics: s.observability.GetMetrics(),
		}
	}
	return s.Usage
}

func (s *Server) enhanceService() *ai.Service {
	s.svcMu.RLock()
	defer s.svcMu.RUnlock()
	return s.enhanceSvc
}

func (s *Server) reparseService() *ai.Service {
	s.svcMu.RLock()
	defer s.svcMu.RUnlock()
	return s.reparseSvc
}

// meteredUsageRecorder tees usage events into the tracker and the metrics
// pipeline, so token and cost counters reflect every attempt sequence even
// though the orchestrator reports them out of band.
type meteredUsageRecorder struct {
	inner   ai.UsageRecorder
	metrics *observability.Metrics
}

func (r *meteredUsageRecorder) Record(event types.UsageEvent) error {
	err := r.inner.Record(event)

	ctx := context.Background()
	cost := event.EstimatedCost
	if cost == 0 {
		cost = usage.EstimateCost(event.Provider, event.Model, event.InputTokens, event.OutputTokens)
	}
	r.metrics.RecordUsageCost(ctx, cost, event.Provider, string(event.Operation))
	r.metrics.RecordTokenUsage(ctx, string(event.Operation), observability.TokenUsage{
		InputTokens:  event.InputTokens,
		OutputTokens: event.OutputTokens,
		TotalTokens:  event.TokensUsed,
	})

	return err
}
