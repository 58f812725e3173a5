package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	// The global model and key only apply when the operation targets the
	// same provider. A different provider keeps an empty model (its catalog
	// default) and resolves its key through the providers block or
	// environment instead.
	if opCfg.Model == "" && opCfg.Provider == c.AI.Provider {
		opCfg.Model = c.AI.Model
	}
	if opCfg.APIKey == "" && opCfg.Provider == c.AI.Provider {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.FallbackProvider == "" {
		opCfg.FallbackProvider = c.AI.FallbackProvider
	}
	if opCfg.FallbackModel == "" {
		opCfg.FallbackModel = c.AI.FallbackModel
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.MaxAttempts == nil {
		opCfg.MaxAttempts = &c.AI.MaxAttempts
	}
	if opCfg.BaseDelay == nil {
		opCfg.BaseDelay = &c.AI.BaseDelay
	}
	if opCfg.MaxDelay == nil {
		opCfg.MaxDelay = &c.AI.MaxDelay
	}
	if opCfg.BackoffFactor == nil {
		opCfg.BackoffFactor = &c.AI.BackoffFactor
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.MaxTokens == nil {
		opCfg.MaxTokens = &c.AI.MaxTokens
	}
}

// GetEnhanceConfig returns the AI configuration for enhance operations with fallback to global config
func (c *Config) GetEnhanceConfig() OperationAIConfig {
	config := c.AI.Enhance

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Resolve the key through the providers block and environment
	if config.APIKey == "" {
		config.APIKey = c.ResolveProviderKey(config.Provider)
	}

	// Apply enhance-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.Enhance == "" {
		config.CustomPrompts.SystemPrompts.Enhance = c.AI.CustomPrompts.SystemPrompts.Enhance
	}
	if config.CustomPrompts.UserPrompts.Enhance == "" {
		config.CustomPrompts.UserPrompts.Enhance = c.AI.CustomPrompts.UserPrompts.Enhance
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.EnhanceFile == "" {
		config.CustomPrompts.SystemPrompts.EnhanceFile = c.AI.CustomPrompts.SystemPrompts.EnhanceFile
	}
	if config.CustomPrompts.UserPrompts.EnhanceFile == "" {
		config.CustomPrompts.UserPrompts.EnhanceFile = c.AI.CustomPrompts.UserPrompts.EnhanceFile
	}

	return config
}

// GetReparseConfig returns the AI configuration for reparse operations with fallback to global config
func (c *Config) GetReparseConfig() OperationAIConfig {
	config := c.AI.Reparse

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Resolve the key through the providers block and environment
	if config.APIKey == "" {
		config.APIKey = c.ResolveProviderKey(config.Provider)
	}

	// Apply reparse-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.Reparse == "" {
		config.CustomPrompts.SystemPrompts.Reparse = c.AI.CustomPrompts.SystemPrompts.Reparse
	}
	if config.CustomPrompts.UserPrompts.Reparse == "" {
		config.CustomPrompts.UserPrompts.Reparse = c.AI.CustomPrompts.UserPrompts.Reparse
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.ReparseFile == "" {
		config.CustomPrompts.SystemPrompts.ReparseFile = c.AI.CustomPrompts.SystemPrompts.ReparseFile
	}
	if config.CustomPrompts.UserPrompts.ReparseFile == "" {
		config.CustomPrompts.UserPrompts.ReparseFile = c.AI.CustomPrompts.UserPrompts.ReparseFile
	}

	return config
}

// PromptOverrides holds the effective custom prompt for each operation slot.
// Empty slots mean the built-in prompt applies downstream.
type PromptOverrides struct {
	EnhanceSystem string
	EnhanceUser   string
	ReparseSystem string
	ReparseUser   string
}

// PromptOverrides resolves each prompt slot in priority order:
// 1. Content loaded from the operation's prompt file.
// 2. The operation's inline config prompt.
// 3. Content loaded from the global prompt file.
// 4. The global inline config prompt.
func (c *Config) PromptOverrides() PromptOverrides {
	loaded := snapshotLoadedPrompts()
	return PromptOverrides{
		EnhanceSystem: firstNonEmpty(
			loaded.Enhance.SystemPrompts.Enhance,
			c.AI.Enhance.CustomPrompts.SystemPrompts.Enhance,
			loaded.Global.SystemPrompts.Enhance,
			c.AI.CustomPrompts.SystemPrompts.Enhance,
		),
		EnhanceUser: firstNonEmpty(
			loaded.Enhance.UserPrompts.Enhance,
			c.AI.Enhance.CustomPrompts.UserPrompts.Enhance,
			loaded.Global.UserPrompts.Enhance,
			c.AI.CustomPrompts.UserPrompts.Enhance,
		),
		ReparseSystem: firstNonEmpty(
			loaded.Reparse.SystemPrompts.Reparse,
			c.AI.Reparse.CustomPrompts.SystemPrompts.Reparse,
			loaded.Global.SystemPrompts.Reparse,
			c.AI.CustomPrompts.SystemPrompts.Reparse,
		),
		ReparseUser: firstNonEmpty(
			loaded.Reparse.UserPrompts.Reparse,
			c.AI.Reparse.CustomPrompts.UserPrompts.Reparse,
			loaded.Global.UserPrompts.Reparse,
			c.AI.CustomPrompts.UserPrompts.Reparse,
		),
	}
}

// GetLoadedEnhancePrompts returns a copy of the loaded prompts for the enhance operation
func (c *Config) GetLoadedEnhancePrompts() OperationLoadedPrompts {
	return snapshotLoadedPrompts().Enhance
}

// GetLoadedReparsePrompts returns a copy of the loaded prompts for the reparse operation
func (c *Config) GetLoadedReparsePrompts() OperationLoadedPrompts {
	return snapshotLoadedPrompts().Reparse
}

// GetLoadedGlobalPrompts returns a copy of the loaded global prompts
func (c *Config) GetLoadedGlobalPrompts() LoadedPrompts {
	return snapshotLoadedPrompts().Global
}
