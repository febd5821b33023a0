package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// NewSQLiteLedger opens or creates a SQLite ledger at dbPath
func NewSQLiteLedger(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLLedger, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cert_reports (
			id TEXT PRIMARY KEY,
			report_id TEXT NOT NULL,
			report_type TEXT NOT NULL,
			content TEXT NOT NULL,
			prediction TEXT NOT NULL,
			reported_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_cert_reports_expires_at ON cert_reports(expires_at)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return newSQLLedger(db, "sqlite3", logger, cleanupFreq), nil
}
