package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/witanlabs/gridcalc/config"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "gridcalc",
	Short: "gridcalc: formula engine and session server for grid editors",
	Long: `gridcalc evaluates a small spreadsheet formula language over grids stored
as xlsx, csv or JSON snapshots, and serves live editing sessions to browser
front ends over websockets.`,
	Version:           Version,
	SilenceErrors:     true,
	PersistentPreRunE: setupEnvironment,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, disabled (env: GRIDCALC_LOG_LEVEL)")
}

// setupEnvironment loads .env, then the config file, then configures the
// global logger. Flags win over the environment, which wins over the file.
func setupEnvironment(cmd *cobra.Command, args []string) error {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	configureLogging(level, cfg.Log.Format)

	// report on .env only now that logging is set up
	if envErr == nil {
		log.Debug().Msg("loaded environment variables from .env")
	}
	return nil
}

func configureLogging(level, format string) {
	if format == "json" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("unknown log level %q, defaulting to info", level)
	}
}

// loadConfig returns the config for commands that need defaults. Commands
// run from tests skip setupEnvironment, so this reads the file itself.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("using default config")
		return config.DefaultConfig()
	}
	return cfg
}

func Execute() error {
	return rootCmd.Execute()
}
