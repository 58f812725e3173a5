package cli

import (
	"fmt"

	"resumelift/internal/config"
	"resumelift/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for resume enhancement and review",
	Long: `Start an HTTP server that provides REST API endpoints for resume
enhancement, reparse, suggestion review, and usage reporting.

Available endpoints:
- POST /enhance: Enhance structured resume data
- POST /reparse: Re-derive structured data from raw source text
- POST /check: Test connectivity to an AI provider
- GET /models: List available models for a provider
- POST /review, GET /review/{id}, ...: Interactive suggestion review
- GET /usage/stats, /usage/cost, /usage/export: Usage reporting
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tls.mode", "tls-mode")
	bindFlag("server.tls.certfile", "cert-file")
	bindFlag("server.tls.keyfile", "key-file")
	bindFlag("server.tls.cafile", "ca-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	// Validate TLS configuration after applying overrides
	tempConfig := &config.Config{Server: cfg.Server}
	if err := tempConfig.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	maxRequestSize := cfg.Server.MaxRequestSize
	if maxRequestSize <= 0 {
		maxRequestSize = cfg.App.MaxFileSize
	}

	serverCfg := server.ServerConfig{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		Version:          Version,
		TLSConfig:        cfg.Server.TLS,
		APIKeys:          cfg.Server.APIKeys,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		IdleTimeout:      cfg.Server.IdleTimeout,
		MaxRequestSize:   maxRequestSize,
		ReviewSessionTTL: cfg.Server.ReviewSessionTTL,
		RateLimit:        &cfg.Server.RateLimit,
	}
	srv, err := server.NewServer(cfg, serverCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	return srv.Start()
}
