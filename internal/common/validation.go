package common

import (
	"fmt"
	"slices"

	"resumelift/internal/ai"
	"resumelift/internal/types"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// GetSupportedFormats returns the list of supported formats
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}

// ValidateEnhancementLevel validates an enhancement level flag. An empty
// level is valid and defers to the configured default.
func ValidateEnhancementLevel(level string) error {
	if level == "" || types.EnhancementLevel(level).Valid() {
		return nil
	}
	return fmt.Errorf("invalid enhancement level '%s'. Valid levels: [light moderate comprehensive]", level)
}

// ValidateProvider validates a provider flag. An empty provider is valid and
// defers to the configured default.
func ValidateProvider(provider string) error {
	if provider == "" || ai.ProviderID(provider).Valid() {
		return nil
	}
	return fmt.Errorf("unsupported provider '%s'. Supported providers: [openai anthropic gemini]", provider)
}
