package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgomes/quill/coverage"
	"github.com/mgomes/quill/coverage/history"
	"github.com/mgomes/quill/program"
	"github.com/mgomes/quill/quill"
)

type testResult struct {
	Name    string
	Err     error
	Elapsed time.Duration
}

func (r testResult) Passed() bool { return r.Err == nil }

type testSummary struct {
	Results []testResult
	Report  *coverage.Report
	Passed  int
	Failed  int
}

var errTestReturnedFalse = errors.New("test returned false")

func newTestCmd(a *app) *cobra.Command {
	var (
		output      string
		historyPath string
		minimum     int
	)
	cmd := &cobra.Command{
		Use:   "test <program.yaml>",
		Short: "Run [Test] methods and measure statement coverage",
		Long: `Runs every method carrying the Test attribute. A test fails when it
faults or returns false. Static tests run as-is; instance tests get a freshly
constructed receiver.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("coverage") {
				output = a.cfg.Coverage.Output
			}
			if !cmd.Flags().Changed("history") {
				historyPath = a.cfg.Coverage.History
			}
			if !cmd.Flags().Changed("min") {
				minimum = a.cfg.Coverage.MinPercentage
			}
			return a.test(cmd.Context(), args[0], output, historyPath, minimum)
		},
	}
	cmd.Flags().StringVar(&output, "coverage", "", "write the coverage report to this XML file")
	cmd.Flags().StringVar(&historyPath, "history", "", "record the run in this SQLite history database")
	cmd.Flags().IntVar(&minimum, "min", 0, "fail when statement coverage is below this percentage")
	return cmd
}

func (a *app) test(ctx context.Context, path, output, historyPath string, minimum int) error {
	reg, prog, err := a.load(path)
	if err != nil {
		return err
	}
	summary, err := a.runTests(ctx, reg, prog)
	if err != nil {
		return err
	}
	a.printSummary(summary, minimum)

	if output != "" {
		if err := writeReport(output, summary.Report); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, mutedStyle.Render("coverage report written to "+output))
	}
	if historyPath != "" {
		if err := a.recordRun(ctx, historyPath, prog.Source, summary); err != nil {
			return err
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d tests failed", summary.Failed, len(summary.Results))
	}
	if pct := summary.Report.Percentage(); pct < minimum {
		return fmt.Errorf("coverage %d%% is below the minimum %d%%", pct, minimum)
	}
	return nil
}

// runTests executes the program's tests in declaration order with the
// coverage report subscribed to the engine.
func (a *app) runTests(ctx context.Context, reg *quill.Registry, prog *program.Program) (*testSummary, error) {
	report, err := coverage.NewReport(prog.Classes, coverage.Options{
		ExcludeAttribute: a.cfg.Coverage.ExcludeAttribute,
		Logger:           a.logger,
	})
	if err != nil {
		return nil, err
	}
	engine, err := a.newEngine()
	if err != nil {
		return nil, err
	}
	engine.Subscribe(report.Visit)

	summary := &testSummary{Report: report}
	for _, method := range prog.Tests() {
		result := testResult{Name: method.FullName()}
		start := time.Now()
		if len(method.Args) > 0 {
			result.Err = fmt.Errorf("test methods take no arguments, %s takes %d", method.FullName(), len(method.Args))
		} else {
			result.Err = a.runTest(ctx, engine, reg, method)
		}
		result.Elapsed = time.Since(start)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("test run interrupted at %s: %w", result.Name, ctxErr)
		}
		if result.Passed() {
			summary.Passed++
		} else {
			summary.Failed++
		}
		a.logger.Debug("test finished", "test", result.Name, "passed", result.Passed(), "elapsed", result.Elapsed)
		summary.Results = append(summary.Results, result)
	}
	return summary, nil
}

func (a *app) runTest(ctx context.Context, engine *quill.Engine, reg *quill.Registry, method *quill.Method) error {
	ctx, cancel := a.execContext(ctx)
	defer cancel()

	got, err := engine.Invoke(ctx, reg, method.Class.Name, method.Name, nil)
	if err != nil {
		return err
	}
	if got.Kind() == quill.KindBool && !got.Bool() {
		return errTestReturnedFalse
	}
	return nil
}

func (a *app) printSummary(summary *testSummary, minimum int) {
	for _, result := range summary.Results {
		elapsed := mutedStyle.Render(fmt.Sprintf("(%s)", result.Elapsed.Round(time.Microsecond)))
		if result.Passed() {
			fmt.Fprintf(a.stdout, "%s %s %s\n", passStyle.Render("PASS"), result.Name, elapsed)
			continue
		}
		fmt.Fprintf(a.stdout, "%s %s %s\n", failStyle.Render("FAIL"), result.Name, elapsed)
		for _, line := range strings.Split(result.Err.Error(), "\n") {
			fmt.Fprintln(a.stdout, "     "+errorStyle.Render(line))
		}
	}

	total, covered := summary.Report.Totals()
	pct := coverage.Percentage(covered, total)
	fmt.Fprintf(a.stdout, "\n%s %d passed, %d failed, coverage %s (%d/%d statements)\n",
		headerStyle.Render("quill test:"), summary.Passed, summary.Failed,
		renderPercent(pct, minimum), covered, total)
}

func writeReport(path string, report *coverage.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create coverage report: %w", err)
	}
	if err := report.WriteXML(f); err != nil {
		f.Close()
		return fmt.Errorf("write coverage report: %w", err)
	}
	return f.Close()
}

func (a *app) recordRun(ctx context.Context, path, source string, summary *testSummary) error {
	store, err := history.Open(history.Config{Path: path})
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Record(ctx, history.Run{
		Program: source,
		Passed:  summary.Passed,
		Failed:  summary.Failed,
	}, summary.Report)
	if err != nil {
		return err
	}
	pruned, err := store.Prune(ctx, a.cfg.Coverage.Retention.Duration)
	if err != nil {
		return err
	}
	a.logger.Debug("coverage run recorded", "id", run.ID, "pruned", pruned)
	return nil
}
