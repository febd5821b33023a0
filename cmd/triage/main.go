package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mikey/phish-triage/internal/di"
)

// Exit codes
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitPositive = 3
)

func main() {
	flags, err := di.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(exitOK)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitUsage)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(exitFailure)
	}

	cmd, ok := commands[flags.Command]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", flags.Command)
		os.Exit(exitUsage)
	}

	code := exitOK
	if err := container.Invoke(cmd(&code)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if code == exitOK {
			code = exitFailure
		}
	}
	os.Exit(code)
}
