// Package escalation reports positive verdicts to the CERT authority.
package escalation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/core"
)

// PendingAck is shown when the authority acknowledged without a report id
const PendingAck = "PENDING-ACK"

var (
	ErrNotAvailable    = errors.New("escalation is only offered for positive verdicts")
	ErrInProgress      = errors.New("escalation already in progress")
	ErrAlreadyReported = errors.New("result already reported")
)

// State of an escalation
type State int

const (
	StateNotReported State = iota
	StateReporting
	StateReported
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReporting:
		return "reporting"
	case StateReported:
		return "reported"
	case StateFailed:
		return "failed"
	default:
		return "not_reported"
	}
}

// Status is a read-only view of the workflow
type Status struct {
	State    State
	ReportID string
	Error    string
}

// Retryable reports whether the analyst can press the report action again
func (s Status) Retryable() bool {
	return s.State == StateFailed
}

// Workflow tracks the escalation of one analysis result
type Workflow struct {
	result   *core.AnalysisResult
	reporter core.ReportingService
	ledger   core.ReportLedger
	ttl      time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	state    State
	reportID string
	errMsg   string
}

// New creates a workflow for result. ledger may be nil.
func New(
	result *core.AnalysisResult,
	reporter core.ReportingService,
	ledger core.ReportLedger,
	ledgerTTL time.Duration,
	logger *zap.Logger,
) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		result:   result,
		reporter: reporter,
		ledger:   ledger,
		ttl:      ledgerTTL,
		logger:   logger,
	}
}

// Available reports whether escalation is offered for the owning result
func (w *Workflow) Available() bool {
	return w.result.Positive()
}

// Status returns the current state
func (w *Workflow) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{State: w.state, ReportID: w.reportID, Error: w.errMsg}
}

// Report sends the artifact to the CERT authority. It can be called from
// NotReported or Failed; Reported is terminal.
func (w *Workflow) Report(ctx context.Context, reportType, content string) error {
	if !w.Available() {
		return ErrNotAvailable
	}

	w.mu.Lock()
	switch w.state {
	case StateReporting:
		w.mu.Unlock()
		return ErrInProgress
	case StateReported:
		w.mu.Unlock()
		return ErrAlreadyReported
	}
	w.state = StateReporting
	w.errMsg = ""
	w.mu.Unlock()

	w.logger.Info("Escalating to CERT", zap.String("type", reportType), zap.String("prediction", w.result.Prediction))

	ack, err := w.reporter.NotifyCERT(ctx, core.EscalationReport{Type: reportType, Content: content})
	if err != nil {
		w.logger.Error("CERT notification failed", zap.Error(err), zap.String("type", reportType))
		w.mu.Lock()
		w.state = StateFailed
		w.errMsg = core.MsgEscalationFailed
		w.mu.Unlock()
		return fmt.Errorf("notify cert: %w", err)
	}

	reportID := PendingAck
	if ack != nil && ack.ReportID != "" {
		reportID = ack.ReportID
	}

	w.mu.Lock()
	w.state = StateReported
	w.reportID = reportID
	w.mu.Unlock()

	w.logger.Info("Reported to CERT", zap.String("report_id", reportID))
	w.record(ctx, reportID, reportType, content)

	return nil
}

// record keeps a local copy of the acknowledgement. Failures are logged only.
func (w *Workflow) record(ctx context.Context, reportID, reportType, content string) {
	if w.ledger == nil {
		return
	}

	now := time.Now()
	rec := &core.ReportRecord{
		ID:         uuid.NewString(),
		ReportID:   reportID,
		Type:       reportType,
		Content:    content,
		Prediction: w.result.Prediction,
		ReportedAt: now,
	}
	if w.ttl > 0 {
		rec.ExpiresAt = now.Add(w.ttl)
	}
	if err := w.ledger.Record(ctx, rec); err != nil {
		w.logger.Error("Failed to record escalation", zap.Error(err), zap.String("report_id", reportID))
	}
}
