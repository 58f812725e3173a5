package cli

import (
	"fmt"

	"resumelift/internal/ai"
	"resumelift/internal/common"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models for an AI provider",
	Long: `List the chat-capable models a provider currently offers, annotated
with which one is the configured default. Use --family to narrow the listing
to a model family substring, for example --family gpt-4o.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		// Apply default format if not specified
		if modelsConfig.OutputFormat == "" {
			modelsConfig.OutputFormat = cfg.App.DefaultFormat
		}
		if err := common.ValidateOutputFormat(modelsConfig.OutputFormat, cfg.App.SupportedFormats); err != nil {
			return err
		}
		return common.ValidateProvider(modelsProvider)
	},
	RunE: runModels,
}

var modelsConfig common.CommandConfig

var (
	modelsProvider string
	modelsFamily   string
)

func init() {
	modelsCmd.Flags().StringVarP(&modelsConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	modelsCmd.Flags().StringVar(&modelsConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	modelsCmd.Flags().StringVar(&modelsProvider, "provider", "", "AI provider: openai, anthropic, or gemini")
	modelsCmd.Flags().StringVar(&modelsFamily, "family", "", "Only list models whose ID contains this substring")
	_ = modelsCmd.MarkFlagRequired("provider")
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	// Model listing records no usage, so no tracker is wired in.
	aiService, err := common.BuildService(cfg, cfg.GetEnhanceConfig(), nil, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	key := cfg.ResolveProviderKey(modelsProvider)
	list, err := aiService.ListModels(cmd.Context(), ai.ProviderID(modelsProvider), key)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if modelsFamily != "" {
		list.Models = ai.FilterModelsByFamily(list.Models, modelsFamily)
	}

	outputHandler := common.NewOutputHandler(logger)
	return outputHandler.HandleOutput(list, modelsConfig)
}
