package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/core"
	"github.com/mikey/phish-triage/internal/di"
	"github.com/mikey/phish-triage/internal/ports"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

type runDeps struct {
	dig.In

	Logger   *zap.Logger
	Mailbox  ports.Daemon
	Analyzer core.AnalyzerService
	Ledger   ports.Ledger
}

// run starts the report mailbox and blocks until a shutdown signal
func run(d runDeps) error {
	defer d.Logger.Sync()

	if err := d.Mailbox.Start(); err != nil {
		d.Logger.Error("Failed to start report mailbox", zap.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	d.Logger.Info("Shutting down", zap.String("signal", sig.String()))

	if err := d.Mailbox.Stop(); err != nil {
		d.Logger.Error("Failed to stop report mailbox", zap.Error(err))
	}

	if closer, ok := d.Analyzer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			d.Logger.Error("Failed to close analyzer", zap.Error(err))
		}
	}

	if d.Ledger != nil {
		d.Ledger.Stop()
	}

	d.Logger.Info("Shutdown complete")
	return nil
}
