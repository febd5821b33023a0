// Package ledger keeps acknowledged CERT escalations so operators can list
// what was reported without asking the backend.
package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/core"
)

// ErrNotFound is returned when no unexpired record has the requested id
var ErrNotFound = errors.New("report record not found")

// MemoryLedger is an in-memory implementation of core.ReportLedger
type MemoryLedger struct {
	records     map[string]*core.ReportRecord
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

var _ core.ReportLedger = (*MemoryLedger)(nil)

// NewMemoryLedger creates a new in-memory ledger
func NewMemoryLedger(logger *zap.Logger, cleanupFreq time.Duration) *MemoryLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &MemoryLedger{
		records:     make(map[string]*core.ReportRecord),
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go runCleanup(l, cleanupFreq, l.stopCh, logger)

	return l
}

// Record stores a copy of rec
func (l *MemoryLedger) Record(ctx context.Context, rec *core.ReportRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("record id is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cp := *rec
	l.records[rec.ID] = &cp
	return nil
}

// Get retrieves an unexpired record
func (l *MemoryLedger) Get(ctx context.Context, id string) (*core.ReportRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[id]
	if !ok || expired(rec, time.Now()) {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// List returns unexpired records, most recent first
func (l *MemoryLedger) List(ctx context.Context) ([]*core.ReportRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := time.Now()
	out := make([]*core.ReportRecord, 0, len(l.records))
	for _, rec := range l.records {
		if expired(rec, now) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ReportedAt.After(out[j].ReportedAt)
	})
	return out, nil
}

// Cleanup removes expired records
func (l *MemoryLedger) Cleanup(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	expiredCount := 0
	for id, rec := range l.records {
		if expired(rec, now) {
			delete(l.records, id)
			expiredCount++
		}
	}

	l.logger.Debug("Cleaned up expired report records", zap.Int("expired_count", expiredCount))
	return nil
}

// Stop stops the background cleanup task
func (l *MemoryLedger) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// A zero ExpiresAt never expires
func expired(rec *core.ReportRecord, now time.Time) bool {
	return !rec.ExpiresAt.IsZero() && !now.Before(rec.ExpiresAt)
}

type cleaner interface {
	Cleanup(ctx context.Context) error
}

func runCleanup(c cleaner, freq time.Duration, stopCh <-chan struct{}, logger *zap.Logger) {
	if freq <= 0 {
		return
	}
	ticker := time.NewTicker(freq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				logger.Error("Failed to clean up report ledger", zap.Error(err))
			}
		case <-stopCh:
			return
		}
	}
}
