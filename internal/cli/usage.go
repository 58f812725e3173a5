package cli

import (
	"fmt"

	"resumelift/internal/common"
	"resumelift/internal/config"
	"resumelift/internal/errors"
	"resumelift/internal/usage"

	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Inspect AI usage and cost accounting",
	Long: `Inspect the local AI usage log: aggregated statistics over a trailing
window, current spending against configured limits, and full-log exports.
All cost figures are advisory local estimates, not billed amounts.`,
}

var usageStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated usage statistics",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if usageStatsConfig.OutputFormat == "" {
			usageStatsConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(usageStatsConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runUsageStats,
}

var usageCostCmd = &cobra.Command{
	Use:   "cost",
	Short: "Show current spending against configured limits",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if usageCostConfig.OutputFormat == "" {
			usageCostConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(usageCostConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runUsageCost,
}

var usageExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full usage log",
	Long: `Export every recorded usage event. Supported formats are json, csv,
and xlsx. The xlsx format is binary and requires --output.`,
	Args: cobra.NoArgs,
	RunE: runUsageExport,
}

var (
	usageStatsConfig common.CommandConfig
	usageCostConfig  common.CommandConfig

	usageWindowDays   int
	usageExportFormat string
	usageExportOutput string
)

func init() {
	usageStatsCmd.Flags().StringVarP(&usageStatsConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	usageStatsCmd.Flags().StringVar(&usageStatsConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	usageStatsCmd.Flags().IntVar(&usageWindowDays, "window-days", 0, "Trailing window in days (default 30)")

	usageCostCmd.Flags().StringVarP(&usageCostConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	usageCostCmd.Flags().StringVar(&usageCostConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	usageExportCmd.Flags().StringVarP(&usageExportOutput, "output", "o", "", "Output file path (default: stdout; required for xlsx)")
	usageExportCmd.Flags().StringVar(&usageExportFormat, "format", "json", "Export format: json, csv, or xlsx")

	usageCmd.AddCommand(usageStatsCmd)
	usageCmd.AddCommand(usageCostCmd)
	usageCmd.AddCommand(usageExportCmd)
}

// usageTracker builds the tracker and rejects the command early when tracking
// is disabled, since an empty report would be indistinguishable from no use.
func usageTracker(cfg *config.Config, logger *errors.Logger) (*usage.Tracker, error) {
	tracker, err := common.BuildUsageTracker(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize usage tracking: %w", err)
	}
	if !tracker.Enabled() {
		return nil, fmt.Errorf("usage tracking is disabled; set usage.enabled and usage.path in the configuration")
	}
	return tracker, nil
}

func runUsageStats(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	tracker, err := usageTracker(cfg, logger)
	if err != nil {
		return err
	}
	stats, err := tracker.Stats(usageWindowDays)
	if err != nil {
		return fmt.Errorf("failed to aggregate usage statistics: %w", err)
	}

	outputHandler := common.NewOutputHandler(logger)
	return outputHandler.HandleOutput(stats, usageStatsConfig)
}

func runUsageCost(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	tracker, err := usageTracker(cfg, logger)
	if err != nil {
		return err
	}
	monitoring, err := tracker.CostMonitoring()
	if err != nil {
		return fmt.Errorf("failed to compute cost monitoring: %w", err)
	}

	outputHandler := common.NewOutputHandler(logger)
	return outputHandler.HandleOutput(monitoring, usageCostConfig)
}

func runUsageExport(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	if usageExportFormat == "xlsx" && usageExportOutput == "" {
		return fmt.Errorf("xlsx export is binary; use --output to write it to a file")
	}

	tracker, err := usageTracker(cfg, logger)
	if err != nil {
		return err
	}
	data, err := tracker.Export(usageExportFormat)
	if err != nil {
		return fmt.Errorf("failed to export usage log: %w", err)
	}

	if usageExportOutput == "" {
		fmt.Print(string(data))
		return nil
	}

	fileProcessor := common.NewFileProcessor(logger)
	if err := fileProcessor.WriteFile(usageExportOutput, string(data)); err != nil {
		return err
	}
	logger.Info("Usage log exported",
		"file", usageExportOutput, "format", usageExportFormat)
	return nil
}
