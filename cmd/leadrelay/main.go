package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/common"
)

var (
	// Command-line flags
	configFiles    []string // repeatable; later files override earlier ones
	modeFlag       string
	dateFilterFlag string
	logLevelFlag   string

	// Global state, set in PersistentPreRunE
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:           "leadrelay",
	Short:         "Relay new portal leads to a webhook",
	Long:          `LeadRelay logs into the lead portal, pages through the lead listing, and delivers records newer than the stored cursor to a webhook in a single batch.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "Harvest mode: incremental or full (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dateFilterFlag, "date-filter", "", `Verbatim dateFilter, e.g. "01/01/2024 - 01/31/2024" (overrides config)`)
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cursorCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves configuration in order:
// defaults -> file1 -> file2 -> ... -> env -> CLI flags
func loadConfig() error {
	if len(configFiles) == 0 {
		if _, err := os.Stat("leadrelay.toml"); err == nil {
			configFiles = append(configFiles, "leadrelay.toml")
		} else if _, err := os.Stat("deployments/local/leadrelay.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/leadrelay.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	common.ApplyFlagOverrides(config, common.FlagOverrides{
		Mode:       modeFlag,
		DateFilter: dateFilterFlag,
		LogLevel:   logLevelFlag,
	})

	logger = common.InitLogger(config)
	common.InstallCrashHandler(config.Logging.Dir)
	common.PrintBanner(config, logger)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("storage_type", config.Storage.Type).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Msg("Resolved configuration (sanitized)")

	return nil
}

func main() {
	defer common.RecoverWithCrashFile()

	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error().Err(err).Msg("LeadRelay failed")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
