package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.model", "") // Empty means the provider's catalog default
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.fallbackProvider", "")
	v.SetDefault("ai.fallbackModel", "")
	v.SetDefault("ai.timeout", 120*time.Second)
	v.SetDefault("ai.maxAttempts", 3)
	v.SetDefault("ai.baseDelay", time.Second)
	v.SetDefault("ai.maxDelay", 10*time.Second)
	v.SetDefault("ai.backoffFactor", 2.0)
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.maxTokens", 4096)
	v.SetDefault("ai.enhancementLevel", "moderate")

	// Prompt hot-reload defaults (serve mode)
	v.SetDefault("ai.promptReload.enabled", true)
	v.SetDefault("ai.promptReload.debounce", time.Second)

	// AI Configuration - Enhance operation defaults
	v.SetDefault("ai.enhance.timeout", 120*time.Second)
	v.SetDefault("ai.enhance.temperature", 0.3)

	// AI Configuration - Reparse operation defaults
	v.SetDefault("ai.reparse.timeout", 90*time.Second) // Reparse payloads are smaller
	v.SetDefault("ai.reparse.temperature", 0.1)        // Low temperature for faithful extraction

	// Circuit Breaker Configuration defaults for all operations
	v.SetDefault("ai.enhance.circuitBreaker.enabled", true)
	v.SetDefault("ai.enhance.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.enhance.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.enhance.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.enhance.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.enhance.circuitBreaker.failureThreshold", 0.6)

	v.SetDefault("ai.reparse.circuitBreaker.enabled", true)
	v.SetDefault("ai.reparse.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.reparse.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.reparse.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.reparse.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.reparse.circuitBreaker.failureThreshold", 0.6)

	// Usage tracking defaults
	v.SetDefault("usage.enabled", true)
	v.SetDefault("usage.path", defaultUsagePath())
	v.SetDefault("usage.dailyLimitUSD", 0.0)   // 0 disables the limit
	v.SetDefault("usage.monthlyLimitUSD", 0.0) // 0 disables the limit
	v.SetDefault("usage.alertThresholdPct", 100.0)
	v.SetDefault("usage.historyPath", defaultHistoryPath())

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 120*time.Second) // AI calls can run long
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 1024*1024) // 1MB
	v.SetDefault("server.reviewSessionTTL", 30*time.Minute)
	// TLS Configuration defaults
	v.SetDefault("server.tls.mode", "disabled") // disabled, server, mutual
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")           // TLS 1.2 minimum
	v.SetDefault("server.tls.cipherSuites", []string{})    // Use Go defaults
	v.SetDefault("server.tls.clientAuthPolicy", "require") // require, request, verify
	v.SetDefault("server.tls.insecureSkipVerify", false)
	v.SetDefault("server.tls.serverName", "")
	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})
	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.openaiKey", "")
	v.SetDefault("vault.secrets.anthropicKey", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumelift")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Tracing Configuration
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Console Configuration
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})

	// Health Check Configuration
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
}

// defaultUsagePath places the usage log under the user's home directory,
// falling back to the working directory when home cannot be resolved.
func defaultUsagePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "usage.jsonl"
	}
	return filepath.Join(home, ".resumelift", "usage.jsonl")
}

// defaultHistoryPath places the enhancement history beside the usage log.
func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "history.json"
	}
	return filepath.Join(home, ".resumelift", "history.json")
}
