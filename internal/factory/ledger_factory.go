package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/adapters/ledger"
	"github.com/mikey/phish-triage/internal/config"
	"github.com/mikey/phish-triage/internal/ports"
)

// LedgerFactory creates the local escalation ledger
type LedgerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLedgerFactory creates a new ledger factory
func NewLedgerFactory(cfg *config.Config, logger *zap.Logger) *LedgerFactory {
	return &LedgerFactory{cfg: cfg, logger: logger}
}

// CreateLedger creates the configured ledger. It returns nil when the ledger is disabled.
func (f *LedgerFactory) CreateLedger() (ports.Ledger, error) {
	ledgerCfg, err := f.cfg.GetLedger()
	if err != nil {
		return nil, err
	}
	if !ledgerCfg.Enabled {
		f.logger.Info("Escalation ledger disabled")
		return nil, nil
	}

	switch ledgerCfg.Type {
	case "memory":
		return ledger.NewMemoryLedger(f.logger, ledgerCfg.CleanupFrequency), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(ledgerCfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return ledger.NewSQLiteLedger(ledgerCfg.SQLitePath, f.logger, ledgerCfg.CleanupFrequency)
	case "mysql":
		return ledger.NewMySQLLedger(ledgerCfg.MySQLDSN, f.logger, ledgerCfg.CleanupFrequency)
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", ledgerCfg.Type)
	}
}
