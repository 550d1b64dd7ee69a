package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tiff2bit/internal/config"
	"tiff2bit/internal/logging"
)

var (
	cfg    = config.DefaultConfig()
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tiff2bit",
	Short: "tiff2bit - convert 1, 2 and 8-bit TIFFs to 2-bit",
	Long: "tiff2bit converts bilevel and grayscale TIFF images to a 2-bit plane, " +
		"in parallel, with optional inversion and a selectable ink code for 1-bit sources.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg.ApplyEnv(cmd.Flags().Changed)
		if err := cfg.Validate(); err != nil {
			return err
		}
		l, err := logging.New(cfg.LoggingOptions())
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Close()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.LogFile, "log", cfg.LogFile, "append log lines to `FILE`")
	pf.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "log per-file timings and other debug detail")
	pf.StringVar((*string)(&cfg.ColorMode), "color", string(cfg.ColorMode), "color output: auto, always or never")
	pf.StringVar(&cfg.HistoryDB, "history", cfg.HistoryDB, "record batches in the SQLite database at `PATH`")
}
