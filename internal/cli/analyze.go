package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/thiagobutignon/spec-kit-clean-archicteture-sub001/internal/workflow"
)

// AnalyzeCommand handles 'speclearn analyze <result-file>': the full
// ingest → classify → update → advise pipeline for one workflow
// result.
func AnalyzeCommand(args []string, configPath string) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.Usage = printAnalyzeHelp
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		printAnalyzeHelp()
		return 1
	}

	rt, err := setup(configPath)
	if err != nil {
		return fail(err)
	}
	defer rt.close()

	result, err := workflow.Load(fs.Arg(0))
	if err != nil {
		return fail(err)
	}

	summary, err := rt.engine.Analyze(context.Background(), result)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Analyzed %d step(s): %d failed, %d improvement(s), %d auto-applied\n",
		summary.Recorded, summary.Failures, summary.Improvements, summary.AutoApplied)
	fmt.Printf("Run score: %+.2f\n", summary.RunScore)
	return 0
}

func printAnalyzeHelp() {
	fmt.Fprint(os.Stderr, `Usage: speclearn analyze <result-file>

Ingest a workflow result (JSON or YAML): classify failures, record
execution metrics, update learning patterns, and regenerate template
improvements.

Examples:
  speclearn analyze run-042.json
  speclearn --config speclearn.json analyze results/run-042.yaml
`)
}
