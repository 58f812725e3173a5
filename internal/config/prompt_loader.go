package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadPromptsFromFiles loads custom prompts from external files if file paths
// are specified, replacing the loaded prompt store wholesale on success.
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	var all AllLoadedPrompts

	// Load global prompts
	if err := c.loadSystemPromptsFromFiles(&c.AI.CustomPrompts.SystemPrompts, &all.Global.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load global system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.CustomPrompts.UserPrompts, &all.Global.UserPrompts); err != nil {
		return fmt.Errorf("failed to load global user prompts: %w", err)
	}

	// Load operation-specific prompts
	if err := c.loadSystemPromptsFromFiles(&c.AI.Enhance.CustomPrompts.SystemPrompts, &all.Enhance.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load enhance system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.Enhance.CustomPrompts.UserPrompts, &all.Enhance.UserPrompts); err != nil {
		return fmt.Errorf("failed to load enhance user prompts: %w", err)
	}

	if err := c.loadSystemPromptsFromFiles(&c.AI.Reparse.CustomPrompts.SystemPrompts, &all.Reparse.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load reparse system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.Reparse.CustomPrompts.UserPrompts, &all.Reparse.UserPrompts); err != nil {
		return fmt.Errorf("failed to load reparse user prompts: %w", err)
	}

	setLoadedPrompts(all)
	logPromptLoadingSummary(all)

	return nil
}

// ReloadPrompts revalidates and reloads every configured prompt file. The
// previous prompts stay in effect when any file fails to load.
func (c *Config) ReloadPrompts() error {
	if err := c.validatePromptFiles(); err != nil {
		return fmt.Errorf("prompt file validation failed: %w", err)
	}
	if err := c.loadPromptsFromFiles(); err != nil {
		return err
	}
	log.Println("[CONFIG] Reloaded custom prompts from files")
	return nil
}

// PromptFilePaths returns every configured prompt file path, deduplicated,
// in global-then-operation order.
func (c *Config) PromptFilePaths() []string {
	candidates := []string{
		c.AI.CustomPrompts.SystemPrompts.EnhanceFile,
		c.AI.CustomPrompts.SystemPrompts.ReparseFile,
		c.AI.CustomPrompts.UserPrompts.EnhanceFile,
		c.AI.CustomPrompts.UserPrompts.ReparseFile,
		c.AI.Enhance.CustomPrompts.SystemPrompts.EnhanceFile,
		c.AI.Enhance.CustomPrompts.UserPrompts.EnhanceFile,
		c.AI.Reparse.CustomPrompts.SystemPrompts.ReparseFile,
		c.AI.Reparse.CustomPrompts.UserPrompts.ReparseFile,
	}

	seen := make(map[string]bool)
	var paths []string
	for _, p := range candidates {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	return paths
}

// loadSystemPromptsFromFiles loads system prompts from files if file paths are specified
func (c *Config) loadSystemPromptsFromFiles(prompts *SystemPrompts, target *LoadedSystemPrompts) error {
	if prompts.EnhanceFile != "" {
		content, err := loadPromptFromFile(prompts.EnhanceFile, "system", "enhance")
		if err != nil {
			return err
		}
		target.Enhance = content
	}

	if prompts.ReparseFile != "" {
		content, err := loadPromptFromFile(prompts.ReparseFile, "system", "reparse")
		if err != nil {
			return err
		}
		target.Reparse = content
	}

	return nil
}

// loadUserPromptsFromFiles loads user prompts from files if file paths are specified
func (c *Config) loadUserPromptsFromFiles(prompts *UserPrompts, target *LoadedUserPrompts) error {
	if prompts.EnhanceFile != "" {
		content, err := loadPromptFromFile(prompts.EnhanceFile, "user", "enhance")
		if err != nil {
			return err
		}
		target.Enhance = content
	}

	if prompts.ReparseFile != "" {
		content, err := loadPromptFromFile(prompts.ReparseFile, "user", "reparse")
		if err != nil {
			return err
		}
		target.Reparse = content
	}

	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	// Resolve relative paths
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	// Check if file exists
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	// Read file content
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	// Validate content is not empty
	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist and are readable before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	// Helper function to validate a file path
	validateFile := func(filePath, promptType, operation string) {
		if filePath == "" {
			return // No file specified, skip validation
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, operation, filePath))
			return
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, operation, absPath))
		}
	}

	// Validate global prompt files
	validateFile(c.AI.CustomPrompts.SystemPrompts.EnhanceFile, "system", "enhance")
	validateFile(c.AI.CustomPrompts.SystemPrompts.ReparseFile, "system", "reparse")
	validateFile(c.AI.CustomPrompts.UserPrompts.EnhanceFile, "user", "enhance")
	validateFile(c.AI.CustomPrompts.UserPrompts.ReparseFile, "user", "reparse")

	// Validate operation-specific prompt files
	validateFile(c.AI.Enhance.CustomPrompts.SystemPrompts.EnhanceFile, "enhance system", "enhance")
	validateFile(c.AI.Enhance.CustomPrompts.UserPrompts.EnhanceFile, "enhance user", "enhance")
	validateFile(c.AI.Reparse.CustomPrompts.SystemPrompts.ReparseFile, "reparse system", "reparse")
	validateFile(c.AI.Reparse.CustomPrompts.UserPrompts.ReparseFile, "reparse user", "reparse")

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// logPromptLoadingSummary logs a summary of loaded prompts
func logPromptLoadingSummary(all AllLoadedPrompts) {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	promptChecks := []struct {
		content string
		message string
	}{
		{all.Global.SystemPrompts.Enhance, "[CONFIG] Global system enhance prompt: loaded from file"},
		{all.Global.SystemPrompts.Reparse, "[CONFIG] Global system reparse prompt: loaded from file"},
		{all.Global.UserPrompts.Enhance, "[CONFIG] Global user enhance prompt: loaded from file"},
		{all.Global.UserPrompts.Reparse, "[CONFIG] Global user reparse prompt: loaded from file"},
		{all.Enhance.SystemPrompts.Enhance, "[CONFIG] Enhance-specific system prompt: loaded from file"},
		{all.Enhance.UserPrompts.Enhance, "[CONFIG] Enhance-specific user prompt: loaded from file"},
		{all.Reparse.SystemPrompts.Reparse, "[CONFIG] Reparse-specific system prompt: loaded from file"},
		{all.Reparse.UserPrompts.Reparse, "[CONFIG] Reparse-specific user prompt: loaded from file"},
	}

	promptCount := 0
	for _, check := range promptChecks {
		if check.content != "" {
			log.Println(check.message)
			promptCount++
		}
	}

	if promptCount == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", promptCount)
	}

	log.Println("[CONFIG] ==========================================")
}
