// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs the stdio MCP server over the tracker service.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/djtroymx1/PepMetrics-sub000/internal/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout and exposes the same tracker the
CLI uses.

CLAUDE DESKTOP CONFIGURATION:

  {
    "mcpServers": {
      "pepmetrics": {
        "command": "pepmetrics",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  import_garmin_file     Import a Garmin export file from disk
  list_daily_summaries   List recent daily biometric rows
  log_dose               Mark a scheduled dose taken or skipped
  undo_dose              Remove a logged dose
  list_due_doses         Doses due today and overdue protocols
  analyze_week           Weekly dose/biometric analysis report
  validate_data          Check whether there is enough data to analyze
  list_protocols         List dosing protocols

AVAILABLE RESOURCES:

  pepmetrics://today     Today's biometrics and dose status
  pepmetrics://summary   Recent days, protocols and data quality`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(svc, importOptions())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Debug("starting mcp server", zap.String("version", mcp.Version))
		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
