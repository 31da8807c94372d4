package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"epubfit/internal/archive"
	"epubfit/internal/processor"
	"epubfit/internal/profile"
	"epubfit/internal/tui"
)

var inspectProfile string

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] <book.epub>",
	Short: "List the entries of an EPUB without changing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}

		p := a.table.Default()
		if inspectProfile != "" {
			if p, err = a.table.Lookup(inspectProfile); err != nil {
				return err
			}
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		entries, err := archive.Unpack(context.Background(), data, nil)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, tui.Heading(fmt.Sprintf("%s: %d entries (resize check against %s)", args[0], len(entries), p.ID)))
		fmt.Fprintln(out, renderInspect(entries, p))
		return nil
	},
}

var inspectColumns = []column{
	{title: "Path"},
	{title: "Type"},
	{title: "Size", right: true},
	{title: "Image"},
	{title: "EXIF", right: true},
	{title: "Metadata"},
	{title: "Resize"},
}

func renderInspect(entries []archive.Entry, p profile.Profile) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		row := []string{e.Path, e.MediaType, fmt.Sprintf("%.1f KB", float64(e.Size)/1024), "-", "-", "-", "-"}
		if processor.IsRaster(e) {
			info := processor.Describe(e)
			switch {
			case info.Err != nil:
				row[3] = "error: " + info.Err.Error()
			case info.Mismatch:
				row[3] = fmt.Sprintf("%s (extension mismatch)", info.Kind)
			default:
				row[3] = fmt.Sprintf("%s %dx%d", info.Kind, info.Width, info.Height)
			}
			row[4] = fmt.Sprintf("%d", info.Metadata.EXIFTags)
			row[5] = metadataCell(info.Metadata)
			if info.WouldResize(p) {
				row[6] = "yes"
			} else {
				row[6] = "no"
			}
		}
		rows = append(rows, row)
	}
	return renderTable(inspectColumns, rows)
}

// metadataCell lists the privacy-relevant markers found in an image.
func metadataCell(m processor.MetadataReport) string {
	var parts []string
	if m.HasGPS {
		parts = append(parts, "gps")
	}
	if m.HasModel {
		parts = append(parts, "model")
	}
	if m.HasTimestamp {
		parts = append(parts, "time")
	}
	if len(m.TextChunks) > 0 {
		parts = append(parts, "text:"+strings.Join(m.TextChunks, ","))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectProfile, "profile", "p", "", "profile used for the resize column (default: first profile)")

	rootCmd.AddCommand(inspectCmd)
}
