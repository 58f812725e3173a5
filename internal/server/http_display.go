package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
	s.displayPromptReloadInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health        - Health check")
	fmt.Println("  GET  /stats         - Server statistics")
	fmt.Println("  GET  /models        - List provider models (requires API key)")
	fmt.Println("  POST /enhance       - Enhance resume (requires API key)")
	fmt.Println("  POST /reparse       - Reparse resume text (requires API key)")
	fmt.Println("  POST /check         - Test provider connection (requires API key)")
	fmt.Println("  POST /review        - Open review session (requires API key)")
	fmt.Println("  GET  /review/{id}   - Review session snapshot (requires API key)")
	fmt.Println("  GET  /usage/stats   - Usage statistics (requires API key)")
	fmt.Println("  GET  /usage/cost    - Cost monitoring (requires API key)")
	fmt.Println("  GET  /usage/export  - Usage log export (requires API key)")
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to protected endpoints")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}

// displayPromptReloadInfo shows prompt hot-reload configuration
func (s *Server) displayPromptReloadInfo() {
	if s.promptWatcher != nil {
		fmt.Printf("Prompt hot reload: ENABLED (%d files watched)\n", len(s.promptWatcher.WatchedFiles()))
	} else {
		fmt.Println("Prompt hot reload: DISABLED")
	}
}
