package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"txd/pkg/config"
	"txd/pkg/logger"
	"txd/pkg/scraper"
	"txd/pkg/store"
)

// downloadCmd runs the harvest for every account in the config file.
var downloadCmd = &cobra.Command{
	Use:   "download <config.toml>",
	Short: "Download media for all accounts in a config file",
	Long: `Download all media posted by the accounts listed in the given TOML
configuration file.

Credentials (auth_token, ct0) must be pre-obtained from an authenticated
browser session; they can also be supplied via the TXD_AUTH_TOKEN and
TXD_CT0 environment variables. The catalog database is created next to the
config file unless database_path says otherwise.

The exit code is non-zero only on fatal errors (bad credentials, unexpected
API responses, unusable config); individual media download failures are
logged and do not change the exit code.`,
	Example: `  # Download with a config file
  txd download config.toml

  # Verbose run
  txd download config.toml --log-level debug`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return err
	}
	log := logger.GetLogger()

	log.InfoWithFields("starting download", map[string]interface{}{
		"config":   configPath,
		"accounts": len(cfg.Accounts),
	})

	catalog, err := store.Open(cfg.DatabasePath, log)
	if err != nil {
		return fmt.Errorf("failed to open catalog database: %w", err)
	}
	defer catalog.Close()

	if ctx == nil {
		ctx = context.Background()
	}

	return scraper.New(cfg, catalog, log).Run(ctx)
}
