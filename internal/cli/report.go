package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/thiagobutignon/spec-kit-clean-archicteture-sub001/internal/learning"
	"github.com/thiagobutignon/spec-kit-clean-archicteture-sub001/internal/render"
)

// ReportCommand handles 'speclearn report': aggregate current state
// into the summary artifact and render it.
func ReportCommand(args []string, configPath string) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	archived := fs.Bool("archived", false, "include archived failure breakdown")
	fs.Usage = printReportHelp
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 0 {
		printReportHelp()
		return 1
	}

	rt, err := setup(configPath)
	if err != nil {
		return fail(err)
	}
	defer rt.close()

	ctx := context.Background()
	reporter := learning.NewReporter(rt.store, rt.counter(), rt.logger)
	rep, err := reporter.Generate(ctx)
	if err != nil {
		return fail(err)
	}

	fmt.Print(render.Report(rep))

	if *archived && rt.archive != nil {
		counts, err := rt.archive.CountByErrorType(ctx)
		if err != nil {
			return fail(err)
		}
		fmt.Print(render.ArchivedErrors(counts))
	}
	return 0
}

func printReportHelp() {
	fmt.Fprint(os.Stderr, `Usage: speclearn report [--archived]

Aggregate stored metrics, patterns, and improvements into a summary,
write it to the state directory, and render it.

Options:
  --archived   also show the archived failure breakdown
`)
}
