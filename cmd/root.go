package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hotleads/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "hotleads",
	Short: "Find newly opened local businesses to call",
	Long: `Hotleads geocodes a ZIP code, asks OpenStreetMap for businesses that opened
recently and list a phone but no website, ranks them by freshness and keeps a
log of call outcomes.

Settings come from ./config.yaml and HOTLEADS_* environment variables
(HOTLEADS_STORE_DATABASE_URL, HOTLEADS_CACHE_DRIVER, ...). Each command checks
only the settings it needs, so "hotleads outcomes" works without Notion
credentials.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "hotleads: load config")
		}
		applyLogFlags(cmd, &c.Log)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "hotleads: init logger")
		}
		zap.L().Debug("config loaded",
			zap.String("command", cmd.Name()),
			zap.String("store_driver", cfg.Store.Driver),
			zap.String("cache_driver", cfg.Cache.Driver),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// applyLogFlags lets --log-level and --log-format override the config file
// for a single invocation.
func applyLogFlags(cmd *cobra.Command, log *config.LogConfig) {
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		log.Level = f.Value.String()
	}
	if f := cmd.Flags().Lookup("log-format"); f != nil && f.Changed {
		log.Format = f.Value.String()
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "json", "log encoding (json or console)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
