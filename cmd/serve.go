package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/witanlabs/gridcalc/server"
	"github.com/witanlabs/gridcalc/workbook"
)

var (
	serveAddr string
	serveFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve editing sessions to browser front ends",
	Long: `Start the session server.

Each websocket connection to /ws gets its own copy of the starting grid: the
grid in --file, or an empty grid sized by the [sheet] config section. The
file is only read; sessions are not written back.

Endpoints:
  GET  /healthz              Liveness and open session count
  POST /api/evaluate         {"formula", "rows"} -> {"value", "kind", ...}
  POST /api/adjust           {"formula", "row_delta", "col_delta"} -> {"formula"}
  POST /api/references       {"formula"} -> {"refs"}
  GET  /api/columns/:index   Column number <-> letters
  GET  /ws                   Websocket session

Browser origins other than the server's own must be listed in
serve.allowed_origins in the config file.

Examples:
  gridcalc serve
  gridcalc serve --addr 127.0.0.1:9000 --file budget.xlsx`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, env: GRIDCALC_ADDR)")
	serveCmd.Flags().StringVar(&serveFile, "file", "", "Grid file every session starts from")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cfg := loadConfig()
	if serveAddr != "" {
		cfg.Serve.Addr = serveAddr
	}

	seed := workbook.New(cfg.Sheet.Rows, cfg.Sheet.Cols)
	if serveFile != "" {
		d, err := loadDocument(serveFile)
		if err != nil {
			return err
		}
		seed = d
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().
		Str("addr", cfg.Serve.Addr).
		Int("rows", seed.Grid.Rows()).
		Int("cols", seed.Grid.Cols()).
		Strs("origins", cfg.Serve.AllowedOrigins).
		Msg("starting session server")
	if err := server.New(cfg.Serve, seed).Run(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
