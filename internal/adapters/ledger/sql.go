package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/core"
)

const tableName = "cert_reports"

var recordColumns = []string{
	"id", "report_id", "report_type", "content", "prediction", "reported_at", "expires_at",
}

// SQLLedger stores records in a SQL database. Timestamps are kept as unix
// nanoseconds so the same queries run on SQLite and MySQL.
type SQLLedger struct {
	db       *sql.DB
	driver   string
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

var _ core.ReportLedger = (*SQLLedger)(nil)

func newSQLLedger(db *sql.DB, driver string, logger *zap.Logger, cleanupFreq time.Duration) *SQLLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &SQLLedger{
		db:     db,
		driver: driver,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	go runCleanup(l, cleanupFreq, l.stopCh, logger)

	return l
}

// Record stores rec, replacing any record with the same id
func (l *SQLLedger) Record(ctx context.Context, rec *core.ReportRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("record id is required")
	}

	// REPLACE INTO is understood by both SQLite and MySQL
	query, args, err := sq.Replace(tableName).Columns(recordColumns...).Values(
		rec.ID, rec.ReportID, rec.Type, rec.Content, rec.Prediction,
		rec.ReportedAt.UnixNano(), unixNanoOrZero(rec.ExpiresAt),
	).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert report record: %w", err)
	}
	return nil
}

// Get retrieves an unexpired record
func (l *SQLLedger) Get(ctx context.Context, id string) (*core.ReportRecord, error) {
	query, args, err := l.selectUnexpired(time.Now()).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rec, err := scanRecord(l.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query report record: %w", err)
	}
	return rec, nil
}

// List returns unexpired records, most recent first
func (l *SQLLedger) List(ctx context.Context) ([]*core.ReportRecord, error) {
	query, args, err := l.selectUnexpired(time.Now()).OrderBy("reported_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list report records: %w", err)
	}
	defer rows.Close()

	out := make([]*core.ReportRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Cleanup removes expired records
func (l *SQLLedger) Cleanup(ctx context.Context) error {
	query, args, err := sq.Delete(tableName).Where(sq.And{
		sq.Gt{"expires_at": 0},
		sq.LtOrEq{"expires_at": time.Now().UnixNano()},
	}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := l.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to clean up expired records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		l.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		l.logger.Debug("Cleaned up expired report records", zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

// Stop stops the background cleanup task and closes the database connection
func (l *SQLLedger) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		if err := l.db.Close(); err != nil {
			l.logger.Error("Failed to close ledger database", zap.String("driver", l.driver), zap.Error(err))
		}
	})
}

func (l *SQLLedger) selectUnexpired(now time.Time) sq.SelectBuilder {
	return sq.Select(recordColumns...).From(tableName).Where(sq.Or{
		sq.Eq{"expires_at": 0},
		sq.Gt{"expires_at": now.UnixNano()},
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*core.ReportRecord, error) {
	var (
		rec                   core.ReportRecord
		reportedAt, expiresAt int64
	)
	if err := row.Scan(&rec.ID, &rec.ReportID, &rec.Type, &rec.Content, &rec.Prediction, &reportedAt, &expiresAt); err != nil {
		return nil, err
	}
	rec.ReportedAt = time.Unix(0, reportedAt)
	if expiresAt > 0 {
		rec.ExpiresAt = time.Unix(0, expiresAt)
	}
	return &rec, nil
}

func unixNanoOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
