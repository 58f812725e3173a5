package cli

import (
	"context"
	"fmt"
	"strings"

	"resumelift/internal/common"
	"resumelift/internal/types"

	"github.com/spf13/cobra"
)

var reparseCmd = &cobra.Command{
	Use:   "reparse [source-file]",
	Short: "Re-derive structured resume data from raw source text",
	Long: `Re-derive structured resume data from raw source text using AI.
The command takes the path to a plain text file containing the original
resume. Pass --parsed with a previous best-effort parse to give the model a
starting point to correct.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		// Apply default format if not specified
		if reparseConfig.OutputFormat == "" {
			reparseConfig.OutputFormat = cfg.App.DefaultFormat
		}
		if err := common.ValidateOutputFormat(reparseConfig.OutputFormat, cfg.App.SupportedFormats); err != nil {
			return err
		}
		return common.ValidateProvider(reparseProvider)
	},
	RunE: runReparse,
}

var reparseConfig common.CommandConfig

var (
	reparseParsedFile string
	reparseProvider   string
	reparseModel      string
)

func init() {
	reparseCmd.Flags().StringVarP(&reparseConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	reparseCmd.Flags().StringVar(&reparseConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	reparseCmd.Flags().StringVar(&reparseParsedFile, "parsed", "", "Previous best-effort parse (JSON) to correct")
	reparseCmd.Flags().StringVar(&reparseProvider, "provider", "", "AI provider override: openai, anthropic, or gemini")
	reparseCmd.Flags().StringVar(&reparseModel, "model", "", "Model override for the selected provider")

	// Add completion for format flag
	_ = reparseCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runReparse(cmd *cobra.Command, args []string) error {
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

	// Create AI service for the reparse operation
	reparseAIConfig := cfg.GetReparseConfig()
	aiService, err := common.BuildService(cfg, reparseAIConfig, tracker, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	opts := commandOptions(cfg, reparseAIConfig, reparseProvider, reparseModel)

	files := []string{args[0]}
	if reparseParsedFile != "" {
		files = append(files, reparseParsedFile)
	}

	createInput := func(contents []string) (types.EnhancementRequest, error) {
		if strings.TrimSpace(contents[0]) == "" {
			return types.EnhancementRequest{}, fmt.Errorf("source file %s is empty", args[0])
		}
		req := types.EnhancementRequest{
			OriginalText: contents[0],
			Mode:         types.ModeReparse,
		}
		if len(contents) > 1 {
			data, err := parseResumeDocument(contents[1])
			if err != nil {
				return types.EnhancementRequest{}, err
			}
			req.ParsedData = data
		}
		return req, nil
	}

	logDetails := func(input types.EnhancementRequest, cfg common.CommandConfig) {
		logger.Info("Starting resume reparse",
			"source_chars", len(input.OriginalText),
			"has_previous_parse", reparseParsedFile != "",
			"output_format", cfg.OutputFormat)
	}

	// Run the orchestration and record the result in history on success
	reparseOperation := func(ctx context.Context, input types.EnhancementRequest) (*types.EnhancementResult, error) {
		result, err := aiService.Enhance(ctx, input, opts)
		if err != nil {
			return nil, err
		}
		appendCommandHistory(cfg, logger, result, types.OperationReparse)
		return result, nil
	}

	reparseConfig.MaxFileSize = cfg.App.MaxFileSize
	err = common.RunAICommand(
		cmd.Context(),
		logger,
		reparseConfig,
		files,
		createInput,
		reparseOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to reparse resume: %w", err)
	}
	logger.Info("Resume reparse completed successfully")
	return nil
}
