package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"resumelift/internal/ai"
	"resumelift/internal/config"
)

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	return s.AppConfig.Observability.HealthCheck.Timeout
}

// healthHandler provides a comprehensive health check endpoint including AI model status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"service": "resumelift",
		"version": s.Version,
	}

	// Check AI model availability for all operations
	aiStatus := s.checkAIModelsHealth()
	response["ai_models"] = aiStatus

	// Check circuit breaker status
	response["circuit_breakers"] = s.checkCircuitBreakerHealth()

	// Check prompt hot-reload status
	response["prompt_reload"] = s.checkPromptReloadStatus()

	// Determine overall health status
	overallHealthy := true
	for _, modelStatus := range aiStatus {
		if modelInfo, ok := modelStatus.(map[string]any); ok {
			if available, exists := modelInfo["available"]; exists {
				if avail, ok := available.(bool); ok && !avail {
					overallHealthy = false
					break
				}
			}
		}
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// checkAIModelsHealth checks the health of the AI models used by each operation
func (s *Server) checkAIModelsHealth() map[string]any {
	// Use configurable health check timeout
	timeout := s.getHealthCheckTimeout()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return map[string]any{
		"enhance": s.probeOperation(ctx, s.AppConfig.GetEnhanceConfig(), s.enhanceService()),
		"reparse": s.probeOperation(ctx, s.AppConfig.GetReparseConfig(), s.reparseService()),
	}
}

// probeOperation verifies that one operation's provider answers a model list
// request. The listing is free and runs through the lenient model-list
// breaker, so a probe never burns tokens or trips the chat breaker.
func (s *Server) probeOperation(ctx context.Context, opCfg config.OperationAIConfig, svc *ai.Service) map[string]any {
	model := opCfg.Model
	if model == "" {
		model = ai.DefaultModel(ai.ProviderID(opCfg.Provider))
	}
	status := map[string]any{
		"provider": opCfg.Provider,
		"model":    model,
	}

	if svc == nil {
		status["available"] = false
		status["error"] = "AI service not initialized"
		return status
	}

	if _, err := svc.ListModels(ctx, ai.ProviderID(opCfg.Provider), opCfg.APIKey); err != nil {
		status["available"] = false
		status["error"] = fmt.Sprintf("Provider unreachable: %v", err)
		status["error_kind"] = errorKind(err)
		return status
	}

	status["available"] = true
	return status
}

// checkCircuitBreakerHealth reports breaker state for the live AI services
func (s *Server) checkCircuitBreakerHealth() map[string]any {
	circuitBreakerStatus := make(map[string]any)

	if svc := s.enhanceService(); svc != nil {
		circuitBreakerStatus["enhance"] = svc.GetCircuitBreakerStats()
	} else {
		circuitBreakerStatus["enhance"] = map[string]any{
			"available": false,
			"error":     "AI service not initialized",
		}
	}

	if svc := s.reparseService(); svc != nil {
		circuitBreakerStatus["reparse"] = svc.GetCircuitBreakerStats()
	} else {
		circuitBreakerStatus["reparse"] = map[string]any{
			"available": false,
			"error":     "AI service not initialized",
		}
	}

	return circuitBreakerStatus
}

// checkPromptReloadStatus reports whether prompt files are being watched
func (s *Server) checkPromptReloadStatus() map[string]any {
	if s.promptWatcher == nil {
		return map[string]any{"enabled": false}
	}

	return map[string]any{
		"enabled":       true,
		"running":       s.promptWatcher.IsRunning(),
		"watched_files": s.promptWatcher.WatchedFiles(),
	}
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "resumelift",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	// Add configuration info
	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	// Add review session stats
	if s.Sessions != nil {
		response["review_sessions"] = s.Sessions.GetStats()
	}

	// Add usage tracking and acceptance analytics
	usageInfo := map[string]any{
		"enabled": s.Usage != nil && s.Usage.Enabled(),
	}
	if s.History != nil {
		if summary, err := s.History.Summary(); err == nil {
			usageInfo["acceptance"] = summary
		}
	}
	response["usage"] = usageInfo

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
