// Package ports declares the lifecycle contracts the binaries wire together.
// The domain ports themselves live in core.
package ports

import "github.com/mikey/phish-triage/internal/core"

// Daemon is a long-running service owned by cmd/triage-intake
type Daemon interface {
	// Start begins serving in the background
	Start() error

	// Stop stops serving
	Stop() error
}

// Ledger is a report ledger that owns background resources
type Ledger interface {
	core.ReportLedger

	// Stop ends the cleanup task and releases the store
	Stop()
}
