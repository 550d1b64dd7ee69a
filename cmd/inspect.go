package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"tiff2bit/internal/processor"
	"tiff2bit/internal/tiffio"
	"tiff2bit/internal/tui"
)

var showTags bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file|dir>...",
	Short: "Describe TIFF files and the output a conversion would produce",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := processor.Discover(args, cfg.OutputDir)
		if err != nil {
			return err
		}
		opts := cfg.Options()

		for i, path := range files {
			if i > 0 {
				fmt.Fprintln(os.Stdout)
			}
			fmt.Fprintf(os.Stdout, "%s\n", inspectFileStyle.Render(path))

			in, err := processor.Inspect(path, opts)
			if err != nil {
				inspectLine("error", inspectBadStyle.Render(err.Error()))
				continue
			}
			if in.Meta.Width > 0 {
				m := in.Meta
				inspectLine("size", fmt.Sprintf("%d x %d", m.Width, m.Height))
				inspectLine("depth", fmt.Sprintf("%d bit, %d sample(s)", m.BitsPerSample, m.SamplesPerPixel))
				inspectLine("photometric", tiffio.PhotometricName(m.Photometric))
				inspectLine("compression", tiffio.CompressionName(m.Compression))
				if m.Resolution.X > 0 {
					inspectLine("resolution", fmt.Sprintf("%g x %g", m.Resolution.X, m.Resolution.Y))
				}
			}
			if in.Convertible {
				o := in.Output
				inspectLine("output", inspectOKStyle.Render(fmt.Sprintf("2 bit, %s, %s",
					tiffio.PhotometricName(o.Photometric), tiffio.CompressionName(o.Compression))))
			} else {
				inspectLine("output", inspectBadStyle.Render("not convertible: "+in.Reason))
			}

			if !showTags {
				continue
			}
			if len(in.Tags) == 0 {
				fmt.Fprintf(os.Stdout, "  %s %s\n", inspectBulletStyle.Render("-"), inspectDimStyle.Render("no tags"))
				continue
			}
			fmt.Fprintf(os.Stdout, "  %s\n", inspectCategoryStyle.Render("tags:"))
			for _, t := range in.Tags {
				fmt.Fprintf(os.Stdout, "    %s %s %s\n",
					inspectBulletStyle.Render("-"),
					inspectDimStyle.Render(fmt.Sprintf("%s 0x%04x %s", t.IFD, t.ID, t.Name)),
					inspectValueStyle.Render(t.Value),
				)
			}
		}
		return nil
	},
}

func inspectLine(label, value string) {
	fmt.Fprintf(os.Stdout, "  %s %s\n", inspectCategoryStyle.Render(fmt.Sprintf("%-12s", label+":")), inspectValueStyle.Render(value))
}

var (
	inspectFileStyle     = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	inspectCategoryStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	inspectValueStyle    = lipgloss.NewStyle().Foreground(tui.ColorInk)
	inspectOKStyle       = lipgloss.NewStyle().Foreground(tui.ColorSuccess)
	inspectBadStyle      = lipgloss.NewStyle().Foreground(tui.ColorError)
	inspectDimStyle      = lipgloss.NewStyle().Foreground(tui.ColorDim)
	inspectBulletStyle   = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	inspectCmd.Flags().BoolVar(&showTags, "tags", false, "list every IFD tag")
	inspectCmd.Flags().StringVarP(&cfg.Target, "target", "t", cfg.Target, "2-bit code for 1-bit ink pixels: low, high, both or a number")
	inspectCmd.Flags().BoolVarP(&cfg.Invert, "invert", "n", cfg.Invert, "complement the output codes")
	inspectCmd.Flags().StringVarP(&cfg.Resolution, "resolution", "r", cfg.Resolution, "override output resolution, `X` or XxY")
	rootCmd.AddCommand(inspectCmd)
}
