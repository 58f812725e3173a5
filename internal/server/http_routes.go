package server

import (
	"net/http"
	"strings"

	"resumelift/internal/observability"
	"resumelift/internal/review"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	// Add middleware layers with observability
	rateLimitHandler := s.createRateLimitMiddleware(om)
	requestLimitHandler := s.requestSizeLimitMiddleware()

	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/stats", s.statsHandler)

	// AI-backed routes carry the full middleware stack
	mux.HandleFunc("/enhance",
		rateLimitHandler(
			s.authMiddleware(requestLimitHandler(s.createEnhanceHandler(om))),
		),
	)
	mux.HandleFunc("/reparse",
		rateLimitHandler(
			s.authMiddleware(requestLimitHandler(s.createReparseHandler(om))),
		),
	)
	mux.HandleFunc("/check",
		rateLimitHandler(
			s.authMiddleware(requestLimitHandler(s.createCheckHandler(om))),
		),
	)
	mux.HandleFunc("/models", s.authMiddleware(s.createModelsHandler(om)))

	// Review session routes use method patterns so path values resolve
	mux.HandleFunc("POST /review",
		s.authMiddleware(requestLimitHandler(s.reviewCreateHandler)))
	mux.HandleFunc("GET /review/{id}",
		s.authMiddleware(s.reviewGetHandler))
	mux.HandleFunc("POST /review/{id}/suggestions/{sid}/accept",
		s.authMiddleware(s.createReviewDecisionHandler(om, review.ActionAccepted)))
	mux.HandleFunc("POST /review/{id}/suggestions/{sid}/reject",
		s.authMiddleware(s.createReviewDecisionHandler(om, review.ActionRejected)))
	mux.HandleFunc("POST /review/{id}/accept-all",
		s.authMiddleware(s.createReviewBulkHandler(om, review.ActionAccepted)))
	mux.HandleFunc("POST /review/{id}/reject-all",
		s.authMiddleware(s.createReviewBulkHandler(om, review.ActionRejected)))

	// Usage analytics routes
	mux.HandleFunc("/usage/stats", s.authMiddleware(s.usageStatsHandler))
	mux.HandleFunc("/usage/cost", s.authMiddleware(s.usageCostHandler))
	mux.HandleFunc("/usage/export", s.authMiddleware(s.usageExportHandler))

	return mux
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		// Check for API key in X-API-Key header
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			// Check for Bearer token in Authorization header as fallback
			authHeader := r.Header.Get("Authorization")
			if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
				apiKey = after
			}
		}

		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		// Validate API key
		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		// Log successful authentication
		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"client_ip", r.RemoteAddr,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				// Limit the request body size
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
