package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"

	"github.com/iudanet/vaultkeeper/internal/cli"
	"github.com/iudanet/vaultkeeper/internal/cli/iocli"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Ключ сессии живет в memguard, при выходе память затирается
	defer memguard.Purge()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.New(iocli.NewStdio(), cli.BuildInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})

	err := app.Execute(ctx, os.Args[1:])
	if err == nil {
		return cli.ExitCodeSuccess
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return cli.ExitCodeGeneric
}
