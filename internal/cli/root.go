package cli

import (
	"context"
	"fmt"

	"resumelift/internal/config"
	"resumelift/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "resumelift",
	Short: "A CLI tool for AI-assisted resume enhancement",
	Long: `Resumelift enhances structured resume data using AI. It can rewrite
and improve an existing resume, re-derive structured data from raw source
text, and reconcile AI-proposed suggestions into the canonical document.
Usage and cost of every AI call are tracked locally.`,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg, nil
	}
	return nil, fmt.Errorf("config not found in command context")
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) (*errors.Logger, error) {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger, nil
	}
	return nil, fmt.Errorf("logger not found in command context")
}

func init() {
	rootCmd.AddCommand(enhanceCmd)
	rootCmd.AddCommand(reparseCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
