package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"resumelift/internal/ai"
	"resumelift/internal/common"
	"resumelift/internal/config"
	"resumelift/internal/observability"
	"resumelift/internal/review"
	"resumelift/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// createEnhanceHandler wraps the enhance handler with observability
func (s *Server) createEnhanceHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumelift.api")
		ctx, span := tracer.Start(ctx, "api.enhance")
		defer span.End()

		// Parse request
		var req EnhanceRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		// Validation
		if emptyDocument(req.ParsedData) {
			err := fmt.Errorf("missing parsed resume data")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing resume data", "parsedData field is required", http.StatusBadRequest)
			return
		}
		if err := common.ValidateEnhancementLevel(req.Level); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid enhancement level", err.Error(), http.StatusBadRequest)
			return
		}
		if err := common.ValidateProvider(req.Provider); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid provider", err.Error(), http.StatusBadRequest)
			return
		}

		level := types.EnhancementLevel(req.Level)
		if req.Level == "" {
			level = types.EnhancementLevel(s.AppConfig.AI.EnhancementLevel)
		}

		// Add request attributes to span
		span.SetAttributes(
			attribute.Bool("request.has_job_description", req.JobDescription != ""),
			attribute.Int("request.focus_areas", len(req.FocusAreas)),
			attribute.String("request.level", string(level)),
			attribute.String("operation", "enhance"),
		)

		input := types.EnhancementRequest{
			OriginalText:     req.OriginalText,
			ParsedData:       req.ParsedData,
			JobDescription:   req.JobDescription,
			UserInstructions: req.UserInstructions,
			FocusAreas:       req.FocusAreas,
			Level:            level,
			Mode:             types.ModeEnhance,
		}

		aiService := s.enhanceService()
		if aiService == nil {
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "AI service not ready", "The server is still starting up", http.StatusServiceUnavailable)
			return
		}
		opts := s.requestOptions(s.AppConfig.GetEnhanceConfig(), req.Provider, req.Model)

		// Track AI operation with observability
		metrics := om.GetMetrics()
		var result *types.EnhancementResult
		err := metrics.TrackAIOperation(ctx, "enhance", func(ctx context.Context) *observability.AIOperationResult {
			output, aiErr := aiService.Enhance(ctx, input, opts)
			result = output
			return &observability.AIOperationResult{
				Error:     aiErr,
				ErrorKind: errorKind(aiErr),
			}
		})

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "enhancement", false,
				attribute.String("error", err.Error()))
			writeErrorResponse(w, "Failed to enhance resume", err.Error(), http.StatusInternalServerError)
			return
		}

		// Record success metrics
		metrics.RecordBusinessMetric(ctx, "enhancement", true,
			attribute.Int("suggestions", len(result.Suggestions)),
			attribute.String("provider", result.Provider))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.suggestions", len(result.Suggestions)),
			attribute.Float64("response.confidence", result.Confidence),
		)

		s.appendHistory(w, result, types.OperationEnhance)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createReparseHandler wraps the reparse handler with observability
func (s *Server) createReparseHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumelift.api")
		ctx, span := tracer.Start(ctx, "api.reparse")
		defer span.End()

		var req ReparseRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.SourceText) == "" {
			err := fmt.Errorf("missing source text")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing source text", "sourceText field is required", http.StatusBadRequest)
			return
		}
		if err := common.ValidateProvider(req.Provider); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid provider", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.source_length", len(req.SourceText)),
			attribute.Bool("request.has_parsed_data", req.ParsedData != nil),
			attribute.String("operation", "reparse"),
		)

		input := types.EnhancementRequest{
			OriginalText: req.SourceText,
			Mode:         types.ModeReparse,
		}
		if req.ParsedData != nil {
			input.ParsedData = *req.ParsedData
		}

		aiService := s.reparseService()
		if aiService == nil {
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "AI service not ready", "The server is still starting up", http.StatusServiceUnavailable)
			return
		}
		opts := s.requestOptions(s.AppConfig.GetReparseConfig(), req.Provider, req.Model)

		metrics := om.GetMetrics()
		var result *types.EnhancementResult
		err := metrics.TrackAIOperation(ctx, "reparse", func(ctx context.Context) *observability.AIOperationResult {
			output, aiErr := aiService.Enhance(ctx, input, opts)
			result = output
			return &observability.AIOperationResult{
				Error:     aiErr,
				ErrorKind: errorKind(aiErr),
			}
		})

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "reparse", false,
				attribute.String("error", err.Error()))
			writeErrorResponse(w, "Failed to reparse resume", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics.RecordBusinessMetric(ctx, "reparse", true,
			attribute.String("provider", result.Provider))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Float64("response.confidence", result.Confidence),
		)

		s.appendHistory(w, result, types.OperationReparse)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createCheckHandler wraps the connection test handler with observability
func (s *Server) createCheckHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumelift.api")
		ctx, span := tracer.Start(ctx, "api.check")
		defer span.End()

		var req CheckRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.Provider) == "" {
			err := fmt.Errorf("missing provider")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing provider", "provider field is required", http.StatusBadRequest)
			return
		}
		if err := common.ValidateProvider(req.Provider); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid provider", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("request.provider", req.Provider),
			attribute.String("operation", "check"),
		)

		aiService := s.enhanceService()
		if aiService == nil {
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "AI service not ready", "The server is still starting up", http.StatusServiceUnavailable)
			return
		}
		apiKey := s.AppConfig.ResolveProviderKey(req.Provider)

		// A failed connection test still yields a populated result; only a
		// missing result is a server error.
		metrics := om.GetMetrics()
		var result *types.ConnectionTestResult
		_ = metrics.TrackAIOperation(ctx, "connection_test", func(ctx context.Context) *observability.AIOperationResult {
			output, aiErr := aiService.TestConnection(ctx, ai.ProviderID(req.Provider), apiKey, req.Model)
			result = output
			return &observability.AIOperationResult{
				Error:     aiErr,
				ErrorKind: errorKind(aiErr),
			}
		})

		if result == nil {
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			writeErrorResponse(w, "Failed to test connection", "No result from the provider check", http.StatusInternalServerError)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", result.OK),
			attribute.Int64("latency_ms", result.LatencyMS),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createModelsHandler lists the models available for a provider
func (s *Server) createModelsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ctx := r.Context()

		provider := r.URL.Query().Get("provider")
		if provider == "" {
			writeErrorResponse(w, "Missing provider", "provider query parameter is required", http.StatusBadRequest)
			return
		}
		if err := common.ValidateProvider(provider); err != nil {
			writeErrorResponse(w, "Invalid provider", err.Error(), http.StatusBadRequest)
			return
		}

		aiService := s.enhanceService()
		if aiService == nil {
			writeErrorResponse(w, "AI service not ready", "The server is still starting up", http.StatusServiceUnavailable)
			return
		}
		apiKey := s.AppConfig.ResolveProviderKey(provider)

		metrics := om.GetMetrics()
		var list *types.ModelList
		err := metrics.TrackAIOperation(ctx, "list_models", func(ctx context.Context) *observability.AIOperationResult {
			output, aiErr := aiService.ListModels(ctx, ai.ProviderID(provider), apiKey)
			list = output
			return &observability.AIOperationResult{
				Error:     aiErr,
				ErrorKind: errorKind(aiErr),
			}
		})
		if err != nil {
			writeErrorResponse(w, "Failed to list models", err.Error(), http.StatusInternalServerError)
			return
		}

		if family := r.URL.Query().Get("family"); family != "" {
			list.Models = ai.FilterModelsByFamily(list.Models, family)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(list); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// requestOptions resolves the effective AI options for one request, honoring
// per-request provider and model overrides. An overridden provider drops the
// configured model and fallback, which belong to the configured chain.
func (s *Server) requestOptions(opCfg config.OperationAIConfig, provider, model string) ai.Options {
	opts := common.BuildOptions(s.AppConfig, opCfg)
	if provider != "" && provider != string(opts.Provider) {
		opts.Provider = ai.ProviderID(provider)
		opts.APIKey = s.AppConfig.ResolveProviderKey(provider)
		opts.Model = ""
		opts.Fallback = nil
	}
	if model != "" {
		opts.Model = model
	}
	return opts
}

// appendHistory records the completed orchestration and exposes the entry ID
// so the client can link a later review session to it.
func (s *Server) appendHistory(w http.ResponseWriter, result *types.EnhancementResult, op types.Operation) {
	if s.History == nil {
		return
	}
	entry, err := s.History.Append(review.HistoryEntryFor(result, op))
	if err != nil {
		s.Logger.Warn("History entry could not be recorded", "error", err.Error())
		return
	}
	w.Header().Set("X-History-ID", entry.ID)
}

// emptyDocument reports whether a resume document carries no content at all.
func emptyDocument(doc types.ResumeData) bool {
	return doc.PersonalInfo == (types.PersonalInfo{}) &&
		len(doc.Skills) == 0 &&
		len(doc.Experience) == 0 &&
		len(doc.Education) == 0 &&
		len(doc.Projects) == 0
}

// errorKind extracts the classified kind for metric labels.
func errorKind(err error) string {
	if err == nil {
		return ""
	}
	return string(ai.KindOf(err))
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
