package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// ScoreCommand handles 'speclearn score <step-type> <true|false>':
// compute the reinforcement score for one step outcome from the
// current pattern snapshot.
func ScoreCommand(args []string, configPath string) int {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	fs.Usage = printScoreHelp
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 2 {
		printScoreHelp()
		return 1
	}

	stepType := fs.Arg(0)
	success, err := strconv.ParseBool(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid success flag %q (use true or false)\n", fs.Arg(1))
		printScoreHelp()
		return 1
	}

	rt, err := setup(configPath)
	if err != nil {
		return fail(err)
	}
	defer rt.close()

	score := rt.engine.Scorer().Score(stepType, success)
	fmt.Printf("%+.2f\n", score)
	return 0
}

func printScoreHelp() {
	fmt.Fprint(os.Stderr, `Usage: speclearn score <step-type> <true|false>

Compute the bounded reinforcement score in [-2, 2] for one step
outcome, weighted by the step type's learning-pattern history.

Examples:
  speclearn score create_file true
  speclearn score lint_check false
`)
}
