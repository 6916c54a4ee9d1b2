package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mgomes/quill/coverage"
	"github.com/mgomes/quill/coverage/history"
)

func newCoverCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cover",
		Short: "Inspect coverage reports and run history",
	}
	cmd.AddCommand(
		newCoverViewCmd(a),
		newCoverMergeCmd(a),
		newCoverHistoryCmd(a),
	)
	return cmd
}

func newCoverViewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view <report.xml>",
		Short: "Browse a coverage report by class and method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := readReport(args[0])
			if err != nil {
				return err
			}
			p := tea.NewProgram(newCoverModel(report, args[0], a.cfg.Coverage.MinPercentage), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

func newCoverMergeCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "merge <report.xml>...",
		Short: "Sum the visit counts of reports taken from the same program",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged, err := mergeReports(args)
			if err != nil {
				return err
			}
			if output == "" {
				return merged.WriteXML(a.stdout)
			}
			if err := writeReport(output, merged); err != nil {
				return err
			}
			total, covered := merged.Totals()
			fmt.Fprintf(a.stdout, "merged %d reports: %s (%d/%d statements)\n",
				len(args), renderPercent(merged.Percentage(), a.cfg.Coverage.MinPercentage), covered, total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the merged report here instead of stdout")
	return cmd
}

func newCoverHistoryCmd(a *app) *cobra.Command {
	var (
		dbPath    string
		programID string
		runID     string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded coverage runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = a.cfg.Coverage.History
			}
			store, err := history.Open(history.Config{Path: dbPath})
			if err != nil {
				return err
			}
			defer store.Close()

			if runID != "" {
				return a.printRunClasses(cmd.Context(), store, runID)
			}
			return a.printRuns(cmd.Context(), store, history.Filter{Program: programID, Limit: limit})
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "history database (default: coverage.history from config)")
	cmd.Flags().StringVar(&programID, "program", "", "only list runs of this program source")
	cmd.Flags().StringVar(&runID, "run", "", "show the per-class totals of one run")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}

func readReport(path string) (*coverage.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open coverage report: %w", err)
	}
	defer f.Close()
	report, err := coverage.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return report, nil
}

func mergeReports(paths []string) (*coverage.Report, error) {
	merged, err := readReport(paths[0])
	if err != nil {
		return nil, err
	}
	for _, path := range paths[1:] {
		next, err := readReport(path)
		if err != nil {
			return nil, err
		}
		if err := merged.Merge(next); err != nil {
			return nil, fmt.Errorf("merge %s: %w", path, err)
		}
	}
	return merged, nil
}

func (a *app) printRuns(ctx context.Context, store *history.Store, filter history.Filter) error {
	runs, err := store.Runs(ctx, filter)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.stdout, mutedStyle.Render("no recorded runs"))
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tPROGRAM\tTESTS\tCOVERAGE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s (%d/%d)\n",
			run.ID, run.Timestamp.Local().Format("2006-01-02 15:04:05"), run.Program,
			run.Passed, run.Passed+run.Failed,
			coverage.FormatPercentage(run.Percentage), run.Covered, run.Total)
	}
	return w.Flush()
}

func (a *app) printRunClasses(ctx context.Context, store *history.Store, runID string) error {
	classes, err := store.Classes(ctx, runID)
	if err != nil {
		return err
	}
	if len(classes) == 0 {
		return fmt.Errorf("no coverage recorded for run %s", runID)
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CLASS\tSTATEMENTS\tCOVERED\tCOVERAGE")
	for _, class := range classes {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", class.Class, class.Total, class.Covered,
			coverage.FormatPercentage(class.Percentage))
	}
	return w.Flush()
}
