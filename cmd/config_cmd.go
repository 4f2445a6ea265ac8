package cmd

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/witanlabs/gridcalc/config"
)

var (
	configForce bool
	jsonConfig  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage the config file",
	Long: `Inspect and manage config.toml.

The file lives in $GRIDCALC_CONFIG_DIR, else $XDG_CONFIG_HOME/gridcalc, else
~/.config/gridcalc. GRIDCALC_LOG_LEVEL and GRIDCALC_ADDR override it.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if jsonConfig {
			return jsonPrint(cfg)
		}
		out, err := toml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.Path()
		if err != nil {
			return err
		}
		fmt.Println(p)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.Path()
		if err != nil {
			return err
		}
		if _, err := os.Stat(p); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", p)
		}
		if err := config.Save(config.DefaultConfig()); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", p)
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Delete(); err != nil {
			return fmt.Errorf("failed to delete config: %w", err)
		}
		fmt.Fprintln(os.Stderr, "✓ Config reset to defaults")
		return nil
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&jsonConfig, "json", false, "Print JSON instead of TOML")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	for _, c := range []*cobra.Command{configShowCmd, configPathCmd, configInitCmd, configResetCmd} {
		c.SilenceUsage = true
	}
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd, configResetCmd)
	rootCmd.AddCommand(configCmd)
}
