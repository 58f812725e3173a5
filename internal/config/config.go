package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
// API key precedence:
// 1. Vault (if configured) - highest priority
// 2. Config file values
// 3. Environment variables (OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY)
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Usage         UsageConfig         `mapstructure:"usage"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds the global AI orchestration configuration. Operation
// blocks override it field by field.
type AIConfig struct {
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	APIKey           string        `mapstructure:"apiKey"`
	FallbackProvider string        `mapstructure:"fallbackProvider"`
	FallbackModel    string        `mapstructure:"fallbackModel"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxAttempts      int           `mapstructure:"maxAttempts"`
	BaseDelay        time.Duration `mapstructure:"baseDelay"`
	MaxDelay         time.Duration `mapstructure:"maxDelay"`
	BackoffFactor    float64       `mapstructure:"backoffFactor"`
	Temperature      float32       `mapstructure:"temperature"`
	MaxTokens        int           `mapstructure:"maxTokens"`
	EnhancementLevel string        `mapstructure:"enhancementLevel"`
	CustomPrompts    PromptConfig  `mapstructure:"customPrompts"`

	// Per-provider settings (keys, self-hosted gateway URLs)
	Providers ProvidersConfig `mapstructure:"providers"`

	// Prompt override hot-reload (serve mode)
	PromptReload PromptReloadConfig `mapstructure:"promptReload"`

	// Operation-specific configurations
	Enhance OperationAIConfig `mapstructure:"enhance"`
	Reparse OperationAIConfig `mapstructure:"reparse"`
}

// ProvidersConfig carries per-provider overrides keyed by provider ID.
type ProvidersConfig struct {
	OpenAI    ProviderConfig `mapstructure:"openai"`
	Anthropic ProviderConfig `mapstructure:"anthropic"`
	Gemini    ProviderConfig `mapstructure:"gemini"`
}

// ProviderConfig holds one provider's key and optional base URL override.
type ProviderConfig struct {
	APIKey  string `mapstructure:"apiKey"`
	BaseURL string `mapstructure:"baseURL"`
}

// ForID returns the block for a provider ID, zero for unknown providers.
func (p ProvidersConfig) ForID(provider string) ProviderConfig {
	switch provider {
	case "openai":
		return p.OpenAI
	case "anthropic":
		return p.Anthropic
	case "gemini":
		return p.Gemini
	default:
		return ProviderConfig{}
	}
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// OperationAIConfig holds AI configuration for a specific operation.
// Pointer fields distinguish "not set" from an explicit zero.
type OperationAIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	APIKey           string               `mapstructure:"apiKey"`
	FallbackProvider string               `mapstructure:"fallbackProvider"`
	FallbackModel    string               `mapstructure:"fallbackModel"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	MaxAttempts      *int                 `mapstructure:"maxAttempts"`
	BaseDelay        *time.Duration       `mapstructure:"baseDelay"`
	MaxDelay         *time.Duration       `mapstructure:"maxDelay"`
	BackoffFactor    *float64             `mapstructure:"backoffFactor"`
	Temperature      *float32             `mapstructure:"temperature"`
	MaxTokens        *int                 `mapstructure:"maxTokens"`
	CustomPrompts    PromptConfig         `mapstructure:"customPrompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts SystemPrompts `mapstructure:"systemPrompts"`
	UserPrompts   UserPrompts   `mapstructure:"userPrompts"`
}

// SystemPrompts contains system-level instructions, inline or from files
type SystemPrompts struct {
	Enhance     string `mapstructure:"enhance"`
	EnhanceFile string `mapstructure:"enhanceFile"`
	Reparse     string `mapstructure:"reparse"`
	ReparseFile string `mapstructure:"reparseFile"`
}

// UserPrompts contains user-level prompt templates, inline or from files
type UserPrompts struct {
	Enhance     string `mapstructure:"enhance"`
	EnhanceFile string `mapstructure:"enhanceFile"`
	Reparse     string `mapstructure:"reparse"`
	ReparseFile string `mapstructure:"reparseFile"`
}

// PromptReloadConfig controls prompt file hot-reload in serve mode.
type PromptReloadConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// UsageConfig holds usage and cost tracking configuration.
type UsageConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	Path              string  `mapstructure:"path"`
	DailyLimitUSD     float64 `mapstructure:"dailyLimitUSD"`
	MonthlyLimitUSD   float64 `mapstructure:"monthlyLimitUSD"`
	AlertThresholdPct float64 `mapstructure:"alertThresholdPct"`

	// HistoryPath is the enhancement history file that acceptance-rate
	// analytics are computed from. Empty disables history recording.
	HistoryPath string `mapstructure:"historyPath"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	// Request body cap for the JSON endpoints
	MaxRequestSize int64 `mapstructure:"maxRequestSize"`

	// Idle lifetime of interactive review sessions
	ReviewSessionTTL time.Duration `mapstructure:"reviewSessionTTL"`

	// TLS Configuration
	TLS TLSConfig `mapstructure:"tls"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`     // TLS mode: "disabled", "server", "mutual"
	CertFile string `mapstructure:"certFile"` // Server certificate file (PEM)
	KeyFile  string `mapstructure:"keyFile"`  // Server private key file (PEM)
	CAFile   string `mapstructure:"caFile"`   // CA certificate file for client cert verification (PEM, mutual mode)

	// Certificate content (used when loaded from Vault instead of files)
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string   `mapstructure:"minVersion"`       // Minimum TLS version: "1.2", "1.3"
	CipherSuites     []string `mapstructure:"cipherSuites"`     // Allowed cipher suites (optional)
	ClientAuthPolicy string   `mapstructure:"clientAuthPolicy"` // Client auth policy for mutual mode: "require", "request", "verify"

	InsecureSkipVerify bool   `mapstructure:"insecureSkipVerify"` // Skip certificate verification (dev only)
	ServerName         string `mapstructure:"serverName"`         // Expected server name for client connections
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	ServiceName     string            `mapstructure:"serviceName"`
	ServiceVersion  string            `mapstructure:"serviceVersion"`
	ServiceInstance string            `mapstructure:"serviceInstance"`
	ConsoleOutput   bool              `mapstructure:"consoleOutput"`
	SampleRate      float64           `mapstructure:"sampleRate"`
	Tracing         TracingConfig     `mapstructure:"tracing"`
	Metrics         MetricsConfig     `mapstructure:"metrics"`
	Console         ConsoleConfig     `mapstructure:"console"`
	Prometheus      PrometheusConfig  `mapstructure:"prometheus"`
	OTLP            OTLPConfig        `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig `mapstructure:"healthCheck"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console exporter configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoadConfig loads configuration from defaults, an optional resumelift.yaml
// config file, and RESUMELIFT_-prefixed environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("RESUMELIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("resumelift")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.resumelift")
	v.AddConfigPath("/etc/resumelift/")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.validatePromptFiles(); err != nil {
		return nil, fmt.Errorf("prompt file validation failed: %w", err)
	}
	if err := config.loadPromptsFromFiles(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}
	if c.AI.MaxAttempts < 1 {
		return fmt.Errorf("AI maxAttempts must be at least 1")
	}

	switch c.AI.EnhancementLevel {
	case "", "light", "moderate", "comprehensive":
	default:
		return fmt.Errorf("invalid enhancement level: %s (must be 'light', 'moderate', or 'comprehensive')", c.AI.EnhancementLevel)
	}

	if c.Usage.Enabled && c.Usage.Path == "" {
		return fmt.Errorf("usage tracking is enabled but usage.path is empty")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}
