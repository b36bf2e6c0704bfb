package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/phishingrod/internal/runner"
)

func main() {
	cliOpts := runner.ParseFlags()

	r, err := runner.New(cliOpts)
	if err != nil {
		gologger.Fatal().Msgf("could not create runner: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = r.Run(ctx)
	stop()
	if cerr := r.Close(); cerr != nil {
		gologger.Error().Msgf("failed to close log file: %v", cerr)
	}
	os.Exit(runner.ExitCode(err))
}
