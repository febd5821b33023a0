package escalation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mikey/phish-triage/internal/core"
)

type fakeReporter struct {
	mu      sync.Mutex
	reports []core.EscalationReport
	acks    []*core.EscalationAck
	errs    []error
}

func (f *fakeReporter) NotifyCERT(ctx context.Context, report core.EscalationReport) (*core.EscalationAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.reports)
	f.reports = append(f.reports, report)
	var ack *core.EscalationAck
	var err error
	if i < len(f.acks) {
		ack = f.acks[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return ack, err
}

type fakeLedger struct {
	records []*core.ReportRecord
	err     error
}

func (l *fakeLedger) Record(ctx context.Context, rec *core.ReportRecord) error {
	if l.err != nil {
		return l.err
	}
	l.records = append(l.records, rec)
	return nil
}

func (l *fakeLedger) Get(ctx context.Context, id string) (*core.ReportRecord, error) {
	return nil, errors.New("not implemented")
}

func (l *fakeLedger) List(ctx context.Context) ([]*core.ReportRecord, error) {
	return l.records, nil
}

func (l *fakeLedger) Cleanup(ctx context.Context) error {
	return nil
}

func phishing() *core.AnalysisResult {
	return &core.AnalysisResult{Prediction: "Phishing", Confidence: 0.93}
}

func TestReportScenario(t *testing.T) {
	t.Parallel()

	reporter := &fakeReporter{acks: []*core.EscalationAck{{ReportID: "CERT-2024-001"}}}
	ledger := &fakeLedger{}
	w := New(phishing(), reporter, ledger, time.Hour, nil)

	if !w.Available() {
		t.Fatalf("phishing result should offer escalation")
	}
	if err := w.Report(context.Background(), "Phishing Email", "Urgent: verify your account now"); err != nil {
		t.Fatalf("Report returned error: %v", err)
	}

	status := w.Status()
	if status.State != StateReported || status.ReportID != "CERT-2024-001" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if len(reporter.reports) != 1 || reporter.reports[0].Type != "Phishing Email" || reporter.reports[0].Content != "Urgent: verify your account now" {
		t.Fatalf("unexpected report body: %+v", reporter.reports)
	}
	if len(ledger.records) != 1 || ledger.records[0].ReportID != "CERT-2024-001" || ledger.records[0].Prediction != "Phishing" {
		t.Fatalf("unexpected ledger records: %+v", ledger.records)
	}
	if !ledger.records[0].ExpiresAt.After(ledger.records[0].ReportedAt) {
		t.Fatalf("expected expiry after report time")
	}
}

func TestReportWithoutIDFallsBackToPendingAck(t *testing.T) {
	t.Parallel()

	for _, ack := range []*core.EscalationAck{nil, {}} {
		w := New(phishing(), &fakeReporter{acks: []*core.EscalationAck{ack}}, nil, 0, nil)
		if err := w.Report(context.Background(), "Malicious URL", "http://x.example"); err != nil {
			t.Fatalf("Report returned error: %v", err)
		}
		if got := w.Status().ReportID; got != PendingAck {
			t.Fatalf("expected %s, got %s", PendingAck, got)
		}
	}
}

func TestReportedIsTerminal(t *testing.T) {
	t.Parallel()

	reporter := &fakeReporter{acks: []*core.EscalationAck{{ReportID: "STIX-1"}, {ReportID: "STIX-2"}}}
	w := New(phishing(), reporter, nil, 0, nil)
	if err := w.Report(context.Background(), "Phishing Email", "x"); err != nil {
		t.Fatalf("Report returned error: %v", err)
	}
	if err := w.Report(context.Background(), "Phishing Email", "x"); !errors.Is(err, ErrAlreadyReported) {
		t.Fatalf("expected ErrAlreadyReported, got %v", err)
	}
	if len(reporter.reports) != 1 || w.Status().ReportID != "STIX-1" {
		t.Fatalf("second report must not reach the service")
	}
}

func TestReportFailureIsVisibleAndRetryable(t *testing.T) {
	t.Parallel()

	reporter := &fakeReporter{
		errs: []error{&core.TransportError{Op: "notify cert", Err: errors.New("connection refused")}, nil},
		acks: []*core.EscalationAck{nil, {ReportID: "STIX-20240101_000000"}},
	}
	ledger := &fakeLedger{}
	w := New(phishing(), reporter, ledger, time.Hour, nil)

	err := w.Report(context.Background(), "Phishing Email", "x")
	if !errors.Is(err, core.ErrServiceUnreachable) {
		t.Fatalf("expected unreachable error, got %v", err)
	}
	status := w.Status()
	if status.State != StateFailed || status.Error != core.MsgEscalationFailed || !status.Retryable() {
		t.Fatalf("unexpected failed status: %+v", status)
	}
	if len(ledger.records) != 0 {
		t.Fatalf("failed escalation must not be recorded")
	}

	if err := w.Report(context.Background(), "Phishing Email", "x"); err != nil {
		t.Fatalf("retry returned error: %v", err)
	}
	if status := w.Status(); status.State != StateReported || status.ReportID != "STIX-20240101_000000" || status.Error != "" {
		t.Fatalf("unexpected status after retry: %+v", status)
	}
}

func TestReportUnavailableForNegativeVerdict(t *testing.T) {
	t.Parallel()

	reporter := &fakeReporter{}
	w := New(&core.AnalysisResult{Prediction: "Ham"}, reporter, nil, 0, nil)
	if w.Available() {
		t.Fatalf("ham must not offer escalation")
	}
	if err := w.Report(context.Background(), "Phishing Email", "x"); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
	if len(reporter.reports) != 0 {
		t.Fatalf("no call expected")
	}
}

func TestLedgerFailureDoesNotUndoReport(t *testing.T) {
	t.Parallel()

	w := New(phishing(), &fakeReporter{acks: []*core.EscalationAck{{ReportID: "R-1"}}}, &fakeLedger{err: errors.New("disk full")}, time.Hour, nil)
	if err := w.Report(context.Background(), "Phishing Email", "x"); err != nil {
		t.Fatalf("Report returned error: %v", err)
	}
	if w.Status().State != StateReported {
		t.Fatalf("expected reported state")
	}
}

type blockingReporter struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingReporter) NotifyCERT(ctx context.Context, report core.EscalationReport) (*core.EscalationAck, error) {
	close(b.entered)
	<-b.release
	return &core.EscalationAck{ReportID: "R-9"}, nil
}

func TestReportWhileReportingIsRejected(t *testing.T) {
	t.Parallel()

	reporter := &blockingReporter{entered: make(chan struct{}), release: make(chan struct{})}
	w := New(phishing(), reporter, nil, 0, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- w.Report(context.Background(), "Phishing Email", "x") }()

	<-reporter.entered
	if w.Status().State != StateReporting {
		t.Fatalf("expected reporting state")
	}
	if err := w.Report(context.Background(), "Phishing Email", "x"); !errors.Is(err, ErrInProgress) {
		t.Fatalf("expected ErrInProgress, got %v", err)
	}

	close(reporter.release)
	if err := <-errCh; err != nil {
		t.Fatalf("first report returned error: %v", err)
	}
}

func TestZeroRetentionRecordNeverExpires(t *testing.T) {
	t.Parallel()

	reporter := &fakeReporter{acks: []*core.EscalationAck{{ReportID: "CERT-7"}}}
	ledger := &fakeLedger{}
	w := New(phishing(), reporter, ledger, 0, nil)

	if err := w.Report(context.Background(), "Malicious URL", "http://login-verify.example"); err != nil {
		t.Fatalf("Report returned error: %v", err)
	}
	if len(ledger.records) != 1 {
		t.Fatalf("expected one ledger record, got %d", len(ledger.records))
	}
	if rec := ledger.records[0]; !rec.ExpiresAt.IsZero() {
		t.Fatalf("expected no expiry with zero retention, got %v", rec.ExpiresAt)
	}
}
