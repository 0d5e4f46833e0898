package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"catalog/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

const (
	exitFailure     = 1
	exitInterrupted = 130
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}

	if cfg.TrustedProjectConfigPath != "" {
		fmt.Fprintf(os.Stderr, "warning: using trusted project config from %s\n", cfg.TrustedProjectConfigPath)
	}

	// Interrupts cancel in-flight requests and stop a running server.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = newRootCmd(cfg).ExecuteContext(ctx)
	interrupted := ctx.Err() != nil
	stop()

	if err != nil {
		for _, line := range formatCLIError(err) {
			fmt.Fprintln(os.Stderr, line)
		}
		os.Exit(exitCode(err, interrupted))
	}
}

func exitCode(err error, interrupted bool) int {
	if interrupted && errors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	return exitFailure
}
