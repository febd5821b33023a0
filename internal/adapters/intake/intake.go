// Package intake runs the report mailbox: an SMTP listener that analysts and
// users forward suspicious mail to. Every message is analyzed as an email,
// its links as URLs, and positive verdicts can be escalated automatically.
package intake

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/core"
	"github.com/mikey/phish-triage/internal/escalation"
	"github.com/mikey/phish-triage/internal/session"
	"github.com/mikey/phish-triage/internal/utils"
	"github.com/mikey/phish-triage/internal/whitelist"
)

// ErrUnparseable is returned for messages that are not valid RFC 5322
var ErrUnparseable = errors.New("message could not be parsed")

// Settings configures the mailbox
type Settings struct {
	ListenAddress   string
	Domain          string
	MaxMessageBytes int64
	MaxBodySize     int
	MaxLinks        int
	AutoEscalate    bool
	AnalysisTimeout time.Duration
	LedgerTTL       time.Duration
}

// Verdict is the outcome for one analyzed artifact
type Verdict struct {
	Mode       core.Mode
	Target     string
	Analysis   session.Snapshot
	Escalation *escalation.Status
}

// Outcome summarizes what the mailbox did with one message
type Outcome struct {
	Sender  string
	Subject string
	Trusted bool
	Email   *Verdict
	Links   []Verdict
}

// Intake is the report mailbox service
type Intake struct {
	analyzer      core.AnalyzerService
	reporter      core.ReportingService
	ledger        core.ReportLedger
	checker       *whitelist.Checker
	textProcessor *utils.TextProcessor
	settings      Settings
	logger        *zap.Logger

	server   *smtp.Server
	listener net.Listener
}

// New creates the mailbox. ledger may be nil.
func New(
	analyzer core.AnalyzerService,
	reporter core.ReportingService,
	ledger core.ReportLedger,
	checker *whitelist.Checker,
	textProcessor *utils.TextProcessor,
	settings Settings,
	logger *zap.Logger,
) *Intake {
	if logger == nil {
		logger = zap.NewNop()
	}
	if textProcessor == nil {
		textProcessor = utils.NewTextProcessor(logger)
	}
	if settings.AnalysisTimeout <= 0 {
		settings.AnalysisTimeout = 30 * time.Second
	}
	return &Intake{
		analyzer:      analyzer,
		reporter:      reporter,
		ledger:        ledger,
		checker:       checker,
		textProcessor: textProcessor,
		settings:      settings,
		logger:        logger,
	}
}

// Process analyzes one raw message received from sender
func (in *Intake) Process(ctx context.Context, sender string, raw []byte) (*Outcome, error) {
	report, err := ParseReport(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if report.From == "" {
		report.From = sender
	}

	outcome := &Outcome{Sender: sender, Subject: report.Subject}
	logger := in.logger.With(
		zap.String("sender", sender),
		zap.String("message_id", report.MessageID))

	if in.checker != nil && in.checker.IsTrusted(sender) {
		outcome.Trusted = true
		logger.Info("Skipping report from trusted sender")
		return outcome, nil
	}

	content := in.textProcessor.ProcessText(report.Content(), in.settings.MaxBodySize)
	email, err := in.analyze(ctx, core.AnalysisRequest{Mode: core.ModeEmail, Content: content}, logger)
	if err != nil {
		return nil, err
	}
	outcome.Email = email

	links := report.Links
	if in.settings.MaxLinks >= 0 && len(links) > in.settings.MaxLinks {
		links = links[:in.settings.MaxLinks]
	}
	for _, link := range links {
		verdict, err := in.analyze(ctx, core.AnalysisRequest{Mode: core.ModeURL, Content: link}, logger)
		if err != nil {
			return nil, err
		}
		outcome.Links = append(outcome.Links, *verdict)
	}

	return outcome, nil
}

func (in *Intake) analyze(ctx context.Context, req core.AnalysisRequest, logger *zap.Logger) (*Verdict, error) {
	verdict := &Verdict{Mode: req.Mode, Target: req.Content}

	actx, cancel := context.WithTimeout(ctx, in.settings.AnalysisTimeout)
	defer cancel()

	snap, accepted := session.New(in.analyzer, logger).Run(actx, req)
	verdict.Analysis = snap
	if !accepted {
		return verdict, nil
	}
	if snap.State == session.StateSubmitting {
		return nil, fmt.Errorf("analysis of %s did not finish: %w", req.Mode, actx.Err())
	}

	if snap.State == session.StateSucceeded {
		logger.Info("Report analyzed",
			zap.String("mode", string(req.Mode)),
			zap.String("prediction", snap.Result.Prediction),
			zap.Float64("confidence", snap.Result.Confidence))
	}

	if !in.settings.AutoEscalate || !snap.Escalatable() {
		return verdict, nil
	}

	wf := escalation.New(snap.Result, in.reporter, in.ledger, in.settings.LedgerTTL, logger)
	if err := wf.Report(ctx, core.EscalationType(req.Mode), req.Content); err != nil && !errors.Is(err, escalation.ErrAlreadyReported) {
		logger.Warn("Automatic escalation failed", zap.String("mode", string(req.Mode)), zap.Error(err))
	}
	status := wf.Status()
	verdict.Escalation = &status

	return verdict, nil
}

// Start binds the listener and serves SMTP in the background
func (in *Intake) Start() error {
	in.server = smtp.NewServer(&smtpBackend{intake: in})

	in.server.Addr = in.settings.ListenAddress
	in.server.Domain = in.settings.Domain
	in.server.ReadTimeout = 30 * time.Second
	in.server.WriteTimeout = 30 * time.Second
	in.server.MaxMessageBytes = in.settings.MaxMessageBytes
	in.server.MaxRecipients = 50

	l, err := net.Listen("tcp", in.settings.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", in.settings.ListenAddress, err)
	}
	in.listener = l

	in.logger.Info("Report mailbox starting",
		zap.String("address", l.Addr().String()),
		zap.Bool("auto_escalate", in.settings.AutoEscalate))

	go func() {
		if err := in.server.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			in.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound listener address, or nil before Start
func (in *Intake) Addr() net.Addr {
	if in.listener == nil {
		return nil
	}
	return in.listener.Addr()
}

// Stop stops the SMTP listener
func (in *Intake) Stop() error {
	if in.server != nil {
		return in.server.Close()
	}
	return nil
}
