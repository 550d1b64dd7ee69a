package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tiff2bit/internal/history"
	"tiff2bit/internal/processor"
	"tiff2bit/internal/tui"
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <file|dir>...",
	Short: "Convert TIFF files to 2 bits per pixel",
	Long: "Convert 1, 2 and 8-bit single-channel TIFFs to 2 bits per pixel.\n" +
		"Without --output each result is written to an Output_2Bit folder next to its source.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := processor.Discover(args, cfg.OutputDir)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			logger.Warn("No TIFF files found in %v", args)
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := cfg.Options()
		d := processor.New(opts, logger)
		summary := runWithProgress(ctx, d, sources)

		if cfg.HistoryDB != "" {
			if err := recordHistory(opts, summary); err != nil {
				logger.Warn("Could not record history: %v", err)
			}
		}

		fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.BatchRows(summary)))
		for _, dir := range summary.Folders {
			outPath := dir
			if abs, absErr := filepath.Abs(dir); absErr == nil {
				outPath = abs
			}
			fmt.Fprintf(os.Stdout, "Output written to: %s\n", outPath)
		}
		if path := logger.Path(); path != "" {
			fmt.Fprintf(os.Stdout, "Log written to: %s\n", path)
		}

		if bad := summary.Failed + summary.Unsupported; bad > 0 {
			return fmt.Errorf("%d of %d file(s) were not converted", bad, summary.Total)
		}
		return nil
	},
}

// bindConversionFlags registers the flags shared by convert and watch.
func bindConversionFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&cfg.OutputDir, "output", "o", cfg.OutputDir, "write results to `DIR` instead of Output_2Bit beside each source")
	fs.StringVarP(&cfg.Target, "target", "t", cfg.Target, "2-bit code for 1-bit ink pixels: low, high, both or a number")
	fs.BoolVarP(&cfg.Invert, "invert", "n", cfg.Invert, "complement the output codes")
	fs.StringVarP(&cfg.Resolution, "resolution", "r", cfg.Resolution, "override output resolution, `X` or XxY")
	fs.IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "files converted in parallel")
	fs.BoolVar(&cfg.Atomic, "atomic", cfg.Atomic, "write through a temp file so failures leave no partial output")
}

func runWithProgress(ctx context.Context, d *processor.Dispatcher, sources []string) processor.Summary {
	updates := make(chan processor.ProgressUpdate, 64)

	if cfg.NoProgress || !isatty.IsTerminal(os.Stdout.Fd()) {
		done := make(chan struct{})
		go func() {
			defer close(done)
			for u := range updates {
				if u.Kind == processor.UpdateProgress {
					logger.Info("[%3d%%] %s", u.Percent, u.Path)
				}
			}
		}()
		summary := d.Run(ctx, sources, updates)
		close(updates)
		<-done
		return summary
	}

	logger.SetConsole(false)
	defer logger.SetConsole(true)

	program := tea.NewProgram(tui.NewModel(updates, d.Stop), tea.WithContext(ctx))
	uiDone := make(chan struct{})
	go func() {
		defer close(uiDone)
		if _, err := program.Run(); err != nil {
			logger.Debug("progress view: %v", err)
		}
		// Keep the dispatcher unblocked once the view has gone.
		for range updates {
		}
	}()

	summary := d.Run(ctx, sources, updates)
	close(updates)
	<-uiDone
	return summary
}

func recordHistory(opts processor.Options, summary processor.Summary) error {
	db, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.RecordBatch(opts, summary, time.Now())
	return err
}

func init() {
	bindConversionFlags(convertCmd.Flags())
	convertCmd.Flags().BoolVar(&cfg.OpenOutput, "open", cfg.OpenOutput, "open the output folders when done")
	convertCmd.Flags().BoolVar(&cfg.NoProgress, "no-progress", cfg.NoProgress, "print log lines instead of the progress view")
	rootCmd.AddCommand(convertCmd)
}
