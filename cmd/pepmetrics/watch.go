// ABOUTME: CLI command for watching a directory for new Garmin exports.
// ABOUTME: Imports each supported file once it stops changing.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/djtroymx1/PepMetrics-sub000/internal/importer"
	"github.com/djtroymx1/PepMetrics-sub000/internal/watcher"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var watchExisting bool

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Import Garmin exports as they appear in a directory",
	Long: `Watch a directory (for example ~/Downloads) and import every new .zip,
.csv, .fit or .json file once it has finished writing. Stop with Ctrl-C.

EXAMPLES:

  pepmetrics watch ~/Downloads
  pepmetrics watch ~/garmin --existing   # Also import files already there`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		im := importer.New(db, importOptions())

		w := watcher.New(dir, im, watcher.Options{
			Existing: watchExisting,
			Logger:   logger,
			OnImport: func(path string, res *importer.Result, err error) {
				if err != nil {
					color.Red("✗ %s: %v", path, err)
					return
				}
				printImportResult(cmd, res)
			},
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		color.Cyan("Watching %s (Ctrl-C to stop)", dir)
		return w.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "import files already in the directory first")
	rootCmd.AddCommand(watchCmd)
}
