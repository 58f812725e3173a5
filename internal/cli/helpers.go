package cli

import (
	"encoding/json"
	"fmt"

	"resumelift/internal/ai"
	"resumelift/internal/common"
	"resumelift/internal/config"
	"resumelift/internal/document"
	"resumelift/internal/errors"
	"resumelift/internal/review"
	"resumelift/internal/types"
)

// parseResumeDocument validates and decodes a structured resume document.
func parseResumeDocument(content string) (types.ResumeData, error) {
	if err := document.ValidateBytes([]byte(content)); err != nil {
		return types.ResumeData{}, err
	}
	var data types.ResumeData
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return types.ResumeData{}, fmt.Errorf("failed to parse resume document: %w", err)
	}
	return data, nil
}

// commandOptions resolves the effective per-call options from the operation
// block plus any provider and model flag overrides. A provider override
// re-resolves the API key and drops the configured model and fallback chain,
// since both are provider-specific.
func commandOptions(cfg *config.Config, opCfg config.OperationAIConfig, provider, model string) ai.Options {
	opts := common.BuildOptions(cfg, opCfg)
	if provider != "" && provider != string(opts.Provider) {
		opts.Provider = ai.ProviderID(provider)
		opts.APIKey = cfg.ResolveProviderKey(provider)
		opts.Model = ""
		opts.Fallback = nil
	}
	if model != "" {
		opts.Model = model
	}
	return opts
}

// appendCommandHistory records a completed orchestration in the history file
// so later review decisions can be linked back to it. History failures never
// fail the command.
func appendCommandHistory(cfg *config.Config, logger *errors.Logger, result *types.EnhancementResult, op types.Operation) {
	if cfg.Usage.HistoryPath == "" {
		return
	}
	store, err := review.NewHistoryStore(cfg.Usage.HistoryPath, logger)
	if err != nil {
		logger.Warn("History store unavailable", "error", err.Error())
		return
	}
	entry, err := store.Append(review.HistoryEntryFor(result, op))
	if err != nil {
		logger.Warn("History entry not recorded", "error", err.Error())
		return
	}
	logger.Info("History entry recorded", "history_id", entry.ID)
}
