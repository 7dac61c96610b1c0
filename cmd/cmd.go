package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/subfrost/runicbtcfederation/internal/config"
	"github.com/subfrost/runicbtcfederation/pkg/logger"
	"github.com/subfrost/runicbtcfederation/pkg/logger/slogx"
)

var cmd = &cobra.Command{
	Use:   "protorune",
	Long:  `Protorune indexer: runes ledger with sub-protocol tables over Bitcoin blocks`,
	Short: "Protorune indexer",
}

func Execute(ctx context.Context) {
	var configFile string

	// Add global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file, E.g. `./config.yaml`")
	flags.String("network", "mainnet", "network to connect to, E.g. `mainnet`, `testnet` or `regtest`")

	// Bind flags to configuration
	config.BindPFlag("network", flags.Lookup("network"))

	// Initialize configuration and logger on start command
	cobra.OnInitialize(func() {
		// Initialize configuration
		config := config.Parse(configFile)

		// Initialize logger
		if err := logger.Init(config.Logger); err != nil {
			logger.Panic("Failed to initialize logger", slogx.Error(err), slog.Any("config", config.Logger))
		}
	})

	// Register sub-commands
	cmd.AddCommand(
		NewRunCommand(),
		NewVersionCommand(),
		NewMigrateCommand(),
	)

	// Execute command
	if err := cmd.ExecuteContext(ctx); err != nil {
		// use cobra to log error message by default
		logger.Debug("Failed to execute root command", slogx.Error(err))
	}
}
