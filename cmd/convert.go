package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"epubfit/internal/pipeline"
	"epubfit/internal/state"
	"epubfit/internal/tui"
)

var (
	convertProfile string
	convertOutput  string
	convertPlain   bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <book.epub>",
	Short: "Convert an EPUB for a device profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}

		source := args[0]
		data, err := os.ReadFile(source)
		if err != nil {
			return err
		}

		orch := pipeline.New(a.table, pipeline.Options{Workers: a.cfg.Processing.Workers, Logger: a.logger})
		sess, err := pipeline.NewSession(orch, state.New(a.cfg.Paths.StateDir))
		if err != nil {
			return err
		}

		var saved string
		if sess.Restored() {
			saved = sess.ProfileID()
		}
		profileID := chooseProfile(convertProfile, saved, a.cfg.Processing.Profile, sess.ProfileID())
		if err := sess.SetProfile(profileID); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		updates := make(chan pipeline.Update, 64)
		var wait func()
		if !convertPlain && isTerminal(os.Stdout) {
			wait = runTUI(updates, cancel, cmd.ErrOrStderr())
		} else {
			wait = printUpdates(cmd.OutOrStdout(), updates)
		}

		res, err := sess.Run(ctx, pipeline.Source{Name: filepath.Base(source), Data: data}, updates)
		close(updates)
		wait()
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), tui.Failure("Conversion failed, no output written."))
			if errors.Is(err, context.Canceled) {
				return errors.New("conversion interrupted")
			}
			return err
		}

		dest := outputPath(convertOutput, a.cfg.Paths.OutputDir, source, res.OutputName)
		if err := writeAtomic(dest, res.Archive); err != nil {
			return fmt.Errorf("write output: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, tui.RenderSummary(summaryRows(res, len(data))))
		fmt.Fprintln(out, tui.Success("Converted book written to: "+dest))
		return nil
	},
}

// chooseProfile picks the profile for a run: the flag, then the last-used
// id, then the configured default, then fallback.
func chooseProfile(flag, saved, configured, fallback string) string {
	for _, id := range []string{flag, saved, configured} {
		if id != "" {
			return id
		}
	}
	return fallback
}

func runTUI(updates <-chan pipeline.Update, cancel context.CancelFunc, errOut io.Writer) func() {
	program := tea.NewProgram(tui.NewModel("epubfit", updates, cancel))
	return superviseView(func() error {
		_, err := program.Run()
		return err
	}, updates, cancel, errOut)
}

// superviseView runs the interactive view and keeps reading updates after
// it exits so the run never blocks on a full channel. A failed view cancels
// the run.
func superviseView(run func() error, updates <-chan pipeline.Update, cancel context.CancelFunc, errOut io.Writer) func() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := run(); err != nil {
			fmt.Fprintln(errOut, tui.Failure("interactive view failed: "+err.Error()))
			cancel()
		}
		for range updates {
		}
	}()
	return func() { <-done }
}

func printUpdates(w io.Writer, updates <-chan pipeline.Update) func() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range updates {
			if u.Message != "" {
				fmt.Fprintln(w, u.Message)
			}
		}
	}()
	return func() { <-done }
}

func summaryRows(res *pipeline.Result, inputSize int) []tui.SummaryRow {
	imageErrors := res.Resize.Errors + res.Quantize.Errors
	return []tui.SummaryRow{
		{Label: "Profile", Value: res.ProfileID},
		{Label: "Entries written", Value: fmt.Sprintf("%d", res.Entries)},
		{Label: "Images resized", Value: fmt.Sprintf("%d of %d", res.Resize.Transformed, res.Resize.Candidates)},
		{Label: "Images grayscaled", Value: fmt.Sprintf("%d of %d", res.Quantize.Transformed, res.Quantize.Candidates)},
		{Label: "Image errors", Value: fmt.Sprintf("%d", imageErrors), Alert: imageErrors > 0},
		{Label: "Warnings", Value: fmt.Sprintf("%d", len(res.Warnings)), Alert: len(res.Warnings) > 0},
		{Label: "Size", Value: fmt.Sprintf("%.1f KB -> %.1f KB", float64(inputSize)/1024, float64(len(res.Archive))/1024)},
		{Label: "Elapsed", Value: res.Elapsed.Round(time.Millisecond).String()},
	}
}

func init() {
	convertCmd.Flags().StringVarP(&convertProfile, "profile", "p", "", "device profile id (default: last used)")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output file (default: repacked-<name> next to the source)")
	convertCmd.Flags().BoolVar(&convertPlain, "plain", false, "print log lines instead of the interactive view")

	rootCmd.AddCommand(convertCmd)
}
