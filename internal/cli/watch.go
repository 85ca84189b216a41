package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thiagobutignon/spec-kit-clean-archicteture-sub001/internal/learning"
	"github.com/thiagobutignon/spec-kit-clean-archicteture-sub001/internal/watch"
)

// WatchCommand handles 'speclearn watch': run the engine as a daemon
// over the configured results drop directory until interrupted.
func WatchCommand(args []string, configPath string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.Usage = printWatchHelp
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 0 {
		printWatchHelp()
		return 1
	}

	rt, err := setup(configPath)
	if err != nil {
		return fail(err)
	}
	defer rt.close()

	reporter := learning.NewReporter(rt.store, rt.counter(), rt.logger)
	daemon := watch.New(rt.cfg, rt.engine, reporter, rt.logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := daemon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fail(err)
	}
	rt.logger.Info("watch daemon stopped")
	return 0
}

func printWatchHelp() {
	fmt.Fprint(os.Stderr, `Usage: speclearn watch

Watch the configured results directory and analyze workflow results
as they appear. The summary report is refreshed on the configured
cron schedule. Stop with Ctrl-C.
`)
}
