package console

import (
	"fmt"
	"strings"

	"github.com/mikey/phish-triage/internal/attribution"
	"github.com/mikey/phish-triage/internal/core"
	"github.com/mikey/phish-triage/internal/escalation"
	"github.com/mikey/phish-triage/internal/session"
)

type escalationView struct {
	State    string `json:"state" yaml:"state"`
	ReportID string `json:"report_id,omitempty" yaml:"report_id,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

type analysisView struct {
	State      string               `json:"state" yaml:"state"`
	Mode       core.Mode            `json:"mode" yaml:"mode"`
	Target     string               `json:"target" yaml:"target"`
	Positive   bool                 `json:"positive" yaml:"positive"`
	Result     *core.AnalysisResult `json:"result,omitempty" yaml:"result,omitempty"`
	Error      string               `json:"error,omitempty" yaml:"error,omitempty"`
	Escalation *escalationView      `json:"escalation,omitempty" yaml:"escalation,omitempty"`
}

// Analysis prints a settled session and, when present, its escalation status
func (p *Printer) Analysis(snap session.Snapshot, esc *escalation.Status) error {
	view := analysisView{
		State:    snap.State.String(),
		Mode:     snap.Request.Mode,
		Target:   snap.Request.Content,
		Positive: snap.Result.Positive(),
		Result:   snap.Result,
		Error:    snap.Error,
	}
	if esc != nil {
		view.Escalation = &escalationView{State: esc.State.String(), ReportID: esc.ReportID, Error: esc.Error}
	}
	if ok, err := p.structured(view); ok {
		return err
	}

	switch snap.State {
	case session.StateFailed:
		return p.errorLine(snap.Error)
	case session.StateSucceeded:
	default:
		_, err := fmt.Fprintf(p.w, "No result (%s)\n", snap.State)
		return err
	}

	var b strings.Builder
	result := snap.Result

	b.WriteString("Risk Assessment\n")
	fmt.Fprintf(&b, "  Verdict:     %s\n", p.verdict(result.Prediction, result.Positive()))
	fmt.Fprintf(&b, "  Confidence:  %.2f%%\n", result.Confidence*100)
	if result.RawModelPrediction != "" {
		fmt.Fprintf(&b, "  Model:       %s\n", p.dim(result.RawModelPrediction))
	}

	if tp := result.ThirdPartyAnalysis; tp != nil {
		b.WriteString("\nLive Forensics & Intel\n")
		fmt.Fprintf(&b, "  Threat Database:  %s (%s)\n", p.status(tp.Status, tp.Clean()), tp.Source)
		if tp.Details != "" {
			fmt.Fprintf(&b, "                    %s\n", p.dim(tp.Details))
		}
		if f := tp.Forensics; f != nil {
			if f.DNS != nil {
				fmt.Fprintf(&b, "  DNS Resolution:   %s %s\n", p.status(f.DNS.Status, f.DNS.Active()), f.DNS.IP)
			}
			if f.SSL != nil {
				validity := "Invalid"
				if f.SSL.Valid {
					validity = "Valid"
				}
				fmt.Fprintf(&b, "  SSL Certificate:  %s %s\n", p.status(validity, f.SSL.Valid), f.SSL.IssuerOrNA())
			}
		}
	}

	if highlights := attribution.Render(result.Attributions); len(highlights) > 0 {
		b.WriteString("\nModel Explanation\n  ")
		b.WriteString(attribution.ANSI(highlights, p.color))
		b.WriteString("\n")
	}

	if esc != nil {
		b.WriteString("\n")
		b.WriteString(p.escalationLine(*esc))
	} else if snap.Escalatable() {
		fmt.Fprintf(&b, "\nCERT escalation available as %q\n", core.EscalationType(snap.Request.Mode))
	}

	_, err := fmt.Fprint(p.w, b.String())
	return err
}

func (p *Printer) escalationLine(esc escalation.Status) string {
	switch esc.State {
	case escalation.StateReported:
		return fmt.Sprintf("CERT escalation: %s (report id %s)\n", p.status("reported", true), esc.ReportID)
	case escalation.StateFailed:
		return fmt.Sprintf("CERT escalation: %s\n", p.status(esc.Error, false))
	default:
		return fmt.Sprintf("CERT escalation: %s\n", esc.State)
	}
}
