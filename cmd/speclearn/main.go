// speclearn is the execution feedback engine for the generation
// pipeline: it learns from per-run step outcomes and scores them.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/thiagobutignon/spec-kit-clean-archicteture-sub001/internal/cli"
)

var (
	version   = "0.1.0"
	buildTime = "dev"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := "speclearn.json"
	var subCmd string
	var subCmdIdx int

	// First pass: find the config flag, wherever it sits.
	skipNext := false
	for i := 1; i < len(os.Args); i++ {
		if skipNext {
			skipNext = false
			continue
		}
		arg := os.Args[i]
		if arg == "--config" || arg == "-config" {
			if i+1 < len(os.Args) {
				configPath = os.Args[i+1]
				skipNext = true
			}
		}
	}

	// Second pass: first non-flag arg is the subcommand.
	skipNext = false
	for i := 1; i < len(os.Args); i++ {
		if skipNext {
			skipNext = false
			continue
		}
		arg := os.Args[i]
		if arg == "--config" || arg == "-config" {
			skipNext = true
			continue
		}
		if arg == "--version" || arg == "-version" {
			continue
		}
		if len(arg) > 0 && arg[0] != '-' {
			subCmd = arg
			subCmdIdx = i
			break
		}
	}

	if subCmd != "" {
		rest := os.Args[subCmdIdx+1:]
		switch subCmd {
		case "analyze":
			return cli.AnalyzeCommand(rest, configPath)
		case "report":
			return cli.ReportCommand(rest, configPath)
		case "score":
			return cli.ScoreCommand(rest, configPath)
		case "watch":
			return cli.WatchCommand(rest, configPath)
		case "help", "--help", "-h":
			printUsage()
			return 0
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subCmd)
			printUsage()
			return 1
		}
	}

	fs := flag.NewFlagSet("speclearn", flag.ExitOnError)
	fs.String("config", "speclearn.json", "Path to config file")
	showVersion := fs.Bool("version", false, "Show version")
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing arguments: %v\n", err)
		return 1
	}

	if *showVersion {
		fmt.Printf("speclearn v%s (built %s)\n", version, buildTime)
		fmt.Println("Execution feedback and scoring engine for generation pipelines")
		return 0
	}

	printUsage()
	return 1
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: speclearn [--config <path>] <command> [options]

Commands:
  analyze <result-file>          Ingest a workflow result and learn from it
  report [--archived]            Aggregate and render current state
  score <step-type> <bool>       Score one step outcome in [-2, 2]
  watch                          Watch a results directory as a daemon
  help                           Show this help

Flags:
  --config <path>   Config file (default speclearn.json)
  --version         Show version
`)
}
