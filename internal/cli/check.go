package cli

import (
	"fmt"

	"resumelift/internal/ai"
	"resumelift/internal/common"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test connectivity to an AI provider",
	Long: `Test connectivity and credentials for an AI provider with a trivial
fixed prompt and a tiny token budget. On failure the result carries a
remediation hint matched to the error kind. The attempt is recorded in the
usage log like any other AI call.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		// Apply default format if not specified
		if checkConfig.OutputFormat == "" {
			checkConfig.OutputFormat = cfg.App.DefaultFormat
		}
		if err := common.ValidateOutputFormat(checkConfig.OutputFormat, cfg.App.SupportedFormats); err != nil {
			return err
		}
		return common.ValidateProvider(checkProvider)
	},
	RunE: runCheck,
}

var checkConfig common.CommandConfig

var (
	checkProvider string
	checkModel    string
)

func init() {
	checkCmd.Flags().StringVarP(&checkConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	checkCmd.Flags().StringVar(&checkConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	checkCmd.Flags().StringVar(&checkProvider, "provider", "", "AI provider: openai, anthropic, or gemini")
	checkCmd.Flags().StringVar(&checkModel, "model", "", "Model to test (default: provider default)")
	_ = checkCmd.MarkFlagRequired("provider")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	tracker, err := common.BuildUsageTracker(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize usage tracking: %w", err)
	}

	aiService, err := common.BuildService(cfg, cfg.GetEnhanceConfig(), tracker, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	key := cfg.ResolveProviderKey(checkProvider)
	result, err := aiService.TestConnection(cmd.Context(), ai.ProviderID(checkProvider), key, checkModel)
	if result == nil {
		return fmt.Errorf("connection test failed: %w", err)
	}

	// A failed test still produces a result with a remediation message, so
	// print it before reporting failure through the exit status.
	outputHandler := common.NewOutputHandler(logger)
	if outErr := outputHandler.HandleOutput(result, checkConfig); outErr != nil {
		return outErr
	}
	if !result.OK {
		return fmt.Errorf("connection test failed: %s", result.Message)
	}
	return nil
}
