// Command shopfront serves the storefront API and answers one-off catalog
// queries from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/shopfront/configs"
	"github.com/yourusername/shopfront/internal/logging"
)

var (
	configFile string
	envFile    string
	verbose    bool

	vc          *configs.ViperConfig
	logger      *zap.Logger
	atomicLevel zap.AtomicLevel
)

var rootCmd = &cobra.Command{
	Use:   "shopfront",
	Short: "Storefront API over a remote product catalog with local overrides",
	Long: `shopfront merges products created or edited through its admin API with
pages of a remote product catalog, and serves browsing, search, categories,
carts and a mock login over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := configs.LoadDotEnv(envFile); err != nil {
			return err
		}

		var err error
		vc, err = configs.LoadViperConfig(configFile, nil)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, atomicLevel, err = logging.New(vc.Get().Log, verbose)
		if err != nil {
			return err
		}
		vc.SetLogger(logging.Named(logger, "config"))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if vc != nil {
			vc.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd, queryCmd, categoriesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
