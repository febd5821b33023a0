package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// NewMySQLLedger connects to MySQL and ensures the ledger table exists
func NewMySQLLedger(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLLedger, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cert_reports (
			id VARCHAR(64) PRIMARY KEY,
			report_id VARCHAR(255) NOT NULL,
			report_type VARCHAR(64) NOT NULL,
			content MEDIUMTEXT NOT NULL,
			prediction VARCHAR(64) NOT NULL,
			reported_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			INDEX idx_cert_reports_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return newSQLLedger(db, "mysql", logger, cleanupFreq), nil
}
