package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mikey/phish-triage/internal/attribution"
	"github.com/mikey/phish-triage/internal/config"
	"github.com/mikey/phish-triage/internal/console"
	"github.com/mikey/phish-triage/internal/core"
	"github.com/mikey/phish-triage/internal/di"
	"github.com/mikey/phish-triage/internal/escalation"
	"github.com/mikey/phish-triage/internal/feed"
	"github.com/mikey/phish-triage/internal/ports"
	"github.com/mikey/phish-triage/internal/session"
)

// command builds a dig invoke target that stores the process exit code in code
type command func(code *int) any

var commands = map[string]command{
	"analyze-email": analyzeCommand(core.ModeEmail),
	"analyze-url":   analyzeCommand(core.ModeURL),
	"history":       historyCommand,
	"show":          showCommand,
	"feed":          feedCommand,
	"dashboard":     dashboardCommand,
	"reports":       reportsCommand,
}

type analyzeDeps struct {
	dig.In

	Flags    *di.CLIFlags
	Config   *config.Config
	Logger   *zap.Logger
	Printer  *console.Printer
	Session  *session.Session
	Analyzer core.AnalyzerService
	Reporter core.ReportingService
	Ledger   ports.Ledger
}

func analyzeCommand(mode core.Mode) command {
	return func(code *int) any {
		return func(d analyzeDeps) error {
			defer d.Logger.Sync()
			defer closeAnalyzer(d.Analyzer, d.Logger)
			if d.Ledger != nil {
				defer d.Ledger.Stop()
			}

			content, err := readArtifact(mode, d.Flags.Args)
			if err != nil {
				return err
			}

			ctx := context.Background()
			snap, accepted := d.Session.Run(ctx, core.AnalysisRequest{Mode: mode, Content: content})
			if !accepted {
				*code = exitUsage
				return fmt.Errorf("nothing to analyze")
			}
			if snap.State != session.StateSucceeded {
				*code = exitFailure
				return d.Printer.Analysis(snap, nil)
			}

			if d.Flags.HTMLOut != "" {
				if err := writeOverlay(d.Flags.HTMLOut, snap.Result); err != nil {
					return err
				}
			}

			var status *escalation.Status
			if snap.Escalatable() {
				status, err = escalate(ctx, d, snap)
				if err != nil {
					*code = exitFailure
				}
			}

			if err := d.Printer.Analysis(snap, status); err != nil {
				return err
			}
			if *code == exitOK && snap.Result.Positive() {
				*code = exitPositive
			}
			return nil
		}
	}
}

// escalate runs the escalation workflow when -report was given. Without it the
// printer only offers escalation.
func escalate(ctx context.Context, d analyzeDeps, snap session.Snapshot) (*escalation.Status, error) {
	if !d.Flags.Report {
		return nil, nil
	}

	retention, err := d.Config.GetDuration("ledger.retention")
	if err != nil {
		return nil, err
	}

	var ledger core.ReportLedger
	if d.Ledger != nil {
		ledger = d.Ledger
	}

	wf := escalation.New(snap.Result, d.Reporter, ledger, retention, d.Logger)
	err = wf.Report(ctx, core.EscalationType(snap.Request.Mode), snap.Request.Content)
	status := wf.Status()
	return &status, err
}

func readArtifact(mode core.Mode, args []string) (string, error) {
	if mode == core.ModeURL {
		if len(args) != 1 {
			return "", fmt.Errorf("analyze-url takes exactly one URL")
		}
		return args[0], nil
	}

	var r io.Reader = os.Stdin
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read email: %w", err)
	}
	return string(data), nil
}

func writeOverlay(path string, result *core.AnalysisResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create overlay file: %w", err)
	}
	if err := attribution.WriteHTML(f, attribution.Render(result.Attributions)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write overlay: %w", err)
	}
	return f.Close()
}

func closeAnalyzer(analyzer core.AnalyzerService, logger *zap.Logger) {
	if closer, ok := analyzer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close analyzer", zap.Error(err))
		}
	}
}

func historyCommand(code *int) any {
	return func(history *feed.HistoryFeed, printer *console.Printer) error {
		snap := history.Activate(context.Background())
		if snap.State == feed.StateLoadFailed {
			*code = exitFailure
		}
		return printer.History(snap)
	}
}

func showCommand(code *int) any {
	return func(flags *di.CLIFlags, history *feed.HistoryFeed, printer *console.Printer) error {
		if len(flags.Args) != 1 {
			*code = exitUsage
			return fmt.Errorf("show takes exactly one incident id")
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(flags.Args[0], "#"), 10, 64)
		if err != nil {
			*code = exitUsage
			return fmt.Errorf("invalid incident id %q", flags.Args[0])
		}

		snap := history.Activate(context.Background())
		if snap.State == feed.StateLoadFailed {
			*code = exitFailure
			return printer.History(snap)
		}

		detail, err := history.Select(id)
		if errors.Is(err, feed.ErrIncidentNotFound) {
			*code = exitFailure
			return fmt.Errorf("incident #%d not found", id)
		}
		if err != nil {
			return err
		}
		return printer.Incident(detail)
	}
}

func feedCommand(code *int) any {
	return func(threats *feed.ThreatFeed, printer *console.Printer) error {
		snap := threats.Activate(context.Background())
		if snap.State == feed.StateLoadFailed {
			*code = exitFailure
		}
		return printer.ThreatFeed(snap)
	}
}

func dashboardCommand(code *int) any {
	return func(history *feed.HistoryFeed, threats *feed.ThreatFeed, printer *console.Printer) error {
		g, ctx := errgroup.WithContext(context.Background())
		g.Go(func() error {
			history.Activate(ctx)
			return nil
		})
		g.Go(func() error {
			threats.Activate(ctx)
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}

		historySnap, threatSnap := history.Snapshot(), threats.Snapshot()
		if historySnap.State == feed.StateLoadFailed || threatSnap.State == feed.StateLoadFailed {
			*code = exitFailure
		}
		if err := printer.History(historySnap); err != nil {
			return err
		}
		return printer.ThreatFeed(threatSnap)
	}
}

func reportsCommand(code *int) any {
	return func(ledger ports.Ledger, printer *console.Printer) error {
		if ledger == nil {
			*code = exitFailure
			return fmt.Errorf("the escalation ledger is disabled")
		}
		defer ledger.Stop()

		records, err := ledger.List(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list reports: %w", err)
		}
		return printer.Reports(records)
	}
}
