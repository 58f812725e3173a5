package cli

import (
	"context"
	"fmt"

	"resumelift/internal/common"
	"resumelift/internal/types"

	"github.com/spf13/cobra"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance [resume-file]",
	Short: "Enhance structured resume data using AI",
	Long: `Enhance a structured resume document using AI. The command takes the
path to a resume JSON file and produces an enhancement result: the improved
document plus per-field suggestions that can later be reviewed with the apply
command. Pass --job-description to target the enhancement at a specific
posting.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		// Apply default format if not specified
		if enhanceConfig.OutputFormat == "" {
			enhanceConfig.OutputFormat = cfg.App.DefaultFormat
		}
		if err := common.ValidateOutputFormat(enhanceConfig.OutputFormat, cfg.App.SupportedFormats); err != nil {
			return err
		}
		if err := common.ValidateEnhancementLevel(enhanceLevel); err != nil {
			return err
		}
		return common.ValidateProvider(enhanceProvider)
	},
	RunE: runEnhance,
}

var enhanceConfig common.CommandConfig

var (
	enhanceJobFile      string
	enhanceInstructions string
	enhanceFocus        []string
	enhanceLevel        string
	enhanceProvider     string
	enhanceModel        string
)

func init() {
	enhanceCmd.Flags().StringVarP(&enhanceConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	enhanceCmd.Flags().StringVar(&enhanceConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	enhanceCmd.Flags().StringVar(&enhanceJobFile, "job-description", "", "Job description file to target the enhancement at")
	enhanceCmd.Flags().StringVar(&enhanceInstructions, "instructions", "", "Free-form user instructions for the enhancement")
	enhanceCmd.Flags().StringArrayVar(&enhanceFocus, "focus", nil, "Focus area to emphasize (repeatable)")
	enhanceCmd.Flags().StringVar(&enhanceLevel, "level", "", "Enhancement level: light, moderate, or comprehensive (default from config)")
	enhanceCmd.Flags().StringVar(&enhanceProvider, "provider", "", "AI provider override: openai, anthropic, or gemini")
	enhanceCmd.Flags().StringVar(&enhanceModel, "model", "", "Model override for the selected provider")

	// Add completion for format flag
	_ = enhanceCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runEnhance(cmd *cobra.Command, args []string) error {
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

	// Create AI service for the enhance operation
	enhanceAIConfig := cfg.GetEnhanceConfig()
	aiService, err := common.BuildService(cfg, enhanceAIConfig, tracker, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	opts := commandOptions(cfg, enhanceAIConfig, enhanceProvider, enhanceModel)

	level := enhanceLevel
	if level == "" {
		level = cfg.AI.EnhancementLevel
	}

	files := []string{args[0]}
	if enhanceJobFile != "" {
		files = append(files, enhanceJobFile)
	}

	createInput := func(contents []string) (types.EnhancementRequest, error) {
		data, err := parseResumeDocument(contents[0])
		if err != nil {
			return types.EnhancementRequest{}, err
		}
		req := types.EnhancementRequest{
			ParsedData:       data,
			UserInstructions: enhanceInstructions,
			FocusAreas:       enhanceFocus,
			Level:            types.EnhancementLevel(level),
			Mode:             types.ModeEnhance,
		}
		if len(contents) > 1 {
			req.JobDescription = contents[1]
		}
		return req, nil
	}

	logDetails := func(input types.EnhancementRequest, cfg common.CommandConfig) {
		logger.Info("Starting resume enhancement",
			"level", string(input.Level),
			"focus_areas", len(input.FocusAreas),
			"targeted", input.JobDescription != "",
			"output_format", cfg.OutputFormat)
	}

	// Run the orchestration and record the result in history on success
	enhanceOperation := func(ctx context.Context, input types.EnhancementRequest) (*types.EnhancementResult, error) {
		result, err := aiService.Enhance(ctx, input, opts)
		if err != nil {
			return nil, err
		}
		appendCommandHistory(cfg, logger, result, types.OperationEnhance)
		return result, nil
	}

	enhanceConfig.MaxFileSize = cfg.App.MaxFileSize
	err = common.RunAICommand(
		cmd.Context(),
		logger,
		enhanceConfig,
		files,
		createInput,
		enhanceOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to enhance resume: %w", err)
	}
	logger.Info("Resume enhancement completed successfully")
	return nil
}
