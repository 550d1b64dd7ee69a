package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"tiff2bit/internal/history"
	"tiff2bit/internal/tui"
)

var (
	historyLimit   int
	historyBatch   int64
	historyCleanup int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded conversion batches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.HistoryDB == "" {
			return errors.New("no history database: pass --history or set TIFF2BIT_HISTORY")
		}
		db, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer db.Close()

		if historyCleanup > 0 {
			if err := db.CleanupOldData(historyCleanup); err != nil {
				return err
			}
			logger.Success("Removed batches older than %d days", historyCleanup)
		}

		if historyBatch > 0 {
			jobs, err := db.ListJobs(historyBatch)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintf(os.Stdout, "No jobs recorded for batch %d\n", historyBatch)
				return nil
			}
			rows := make([][]string, 0, len(jobs))
			for _, j := range jobs {
				note := ""
				if j.ErrorMessage != nil {
					note = *j.ErrorMessage
				}
				rows = append(rows, []string{
					j.Status,
					j.Source,
					strconv.Itoa(j.SourceBits),
					fmt.Sprintf("%dx%d", j.Width, j.Height),
					j.Duration.String(),
					note,
				})
			}
			fmt.Fprintln(os.Stdout, historyTable([]string{"Status", "Source", "Bits", "Size", "Time", "Error"}, rows))
			return nil
		}

		batches, err := db.ListBatches(historyLimit)
		if err != nil {
			return err
		}
		if len(batches) == 0 {
			fmt.Fprintln(os.Stdout, "No batches recorded")
			return nil
		}
		rows := make([][]string, 0, len(batches))
		for _, b := range batches {
			rows = append(rows, []string{
				strconv.FormatInt(b.ID, 10),
				b.FinishedAt.Format("2006-01-02 15:04:05"),
				b.Pattern,
				strconv.FormatBool(b.Invert),
				strconv.Itoa(b.Total),
				strconv.Itoa(b.Converted),
				strconv.Itoa(b.Unsupported),
				strconv.Itoa(b.Failed),
				strconv.Itoa(b.Skipped),
			})
		}
		fmt.Fprintln(os.Stdout, historyTable(
			[]string{"ID", "Finished", "Target", "Invert", "Files", "Converted", "Unsupported", "Failed", "Skipped"}, rows))
		return nil
	},
}

func historyTable(headers []string, rows [][]string) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent).Padding(0, 1)
	cell := lipgloss.NewStyle().Foreground(tui.ColorInk).Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(tui.ColorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		String()
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of batches to list")
	historyCmd.Flags().Int64Var(&historyBatch, "batch", 0, "list the jobs of batch `ID`")
	historyCmd.Flags().IntVar(&historyCleanup, "cleanup", 0, "delete batches older than `DAYS` first")
	rootCmd.AddCommand(historyCmd)
}
