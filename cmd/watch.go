package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tiff2bit/internal/history"
	"tiff2bit/internal/processor"
	"tiff2bit/internal/watch"
)

var watchOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Convert new TIFFs in a folder on a schedule",
	Long: "Scan a folder on a cron schedule and convert every TIFF that has not been converted\n" +
		"at its current modification time. With --history the record survives restarts.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var hist *history.DB
		if cfg.HistoryDB != "" {
			db, err := history.Open(cfg.HistoryDB)
			if err != nil {
				return err
			}
			defer db.Close()
			hist = db
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w := watch.New(args[0], processor.New(cfg.Options(), logger), hist, logger)
		if watchOnce {
			_, err := w.Tick(ctx)
			return err
		}
		if err := w.Start(cfg.Schedule); err != nil {
			return err
		}
		<-ctx.Done()
		logger.Info("Stopping watcher")
		w.Stop()
		return nil
	},
}

func init() {
	bindConversionFlags(watchCmd.Flags())
	watchCmd.Flags().StringVar(&cfg.Schedule, "schedule", cfg.Schedule, "cron expression or descriptor such as \"@every 5m\"")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "scan and convert once, then exit")
	rootCmd.AddCommand(watchCmd)
}
