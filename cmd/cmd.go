package cmd

import (
	"context"

	"github.com/ovl-network/ido-engine/internal/config"
	"github.com/ovl-network/ido-engine/pkg/logger"
	"github.com/ovl-network/ido-engine/pkg/logger/slogx"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:  "ido-engine",
	Long: `IDO token-sale contract engine: simulated chain host, scenario replay, permit signing, and the read-only view API.`,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file, E.g. `./config.yaml`")
	flags.String("network", "mainnet", "network to target, E.g. `mainnet` or `testnet`")

	config.BindPFlag("config", flags.Lookup("config"))
	config.BindPFlag("network", flags.Lookup("network"))

	cobra.OnInitialize(func() {
		conf := config.Load()
		if err := logger.Init(conf.Logger); err != nil {
			logger.Panic("Failed to initialize logger", slogx.Error(err))
		}
	})
}

func Execute(ctx context.Context) error {
	rootCmd.AddCommand(
		NewRunCommand(),
		NewSimulateCommand(),
		NewSignPermitCommand(),
		NewGenerateKeypairCommand(),
		NewVersionCommand(),
	)
	return rootCmd.ExecuteContext(ctx)
}
