package console

import (
	"fmt"
	"strconv"

	"github.com/mikey/phish-triage/internal/core"
	"github.com/mikey/phish-triage/internal/feed"
	"github.com/mikey/phish-triage/internal/utils"
)

const targetWidth = 60

type listView[T any] struct {
	State string `json:"state" yaml:"state"`
	Items []T    `json:"items" yaml:"items"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newListView[T any](snap feed.Snapshot[T]) listView[T] {
	items := snap.Items
	if items == nil {
		items = []T{}
	}
	return listView[T]{State: snap.State.String(), Items: items, Error: snap.Error}
}

// History prints the audit history list
func (p *Printer) History(snap feed.Snapshot[core.IncidentLogEntry]) error {
	if ok, err := p.structured(newListView(snap)); ok {
		return err
	}
	if snap.State == feed.StateLoadFailed {
		return p.errorLine(snap.Error)
	}
	if snap.Empty() {
		_, err := fmt.Fprintln(p.w, "No incidents recorded yet. Run an analysis to populate logs.")
		return err
	}

	rows := make([][]string, 0, len(snap.Items))
	for _, e := range snap.Items {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			string(e.Type),
			p.verdict(e.Prediction, e.Positive()),
			fmt.Sprintf("%.1f%%", e.Confidence*100),
			e.Timestamp,
			utils.Preview(e.Target, targetWidth),
		})
	}
	return p.table([]string{"ID", "TYPE", "PREDICTION", "CONFIDENCE", "TIMESTAMP", "TARGET"}, rows)
}

type incidentView struct {
	core.IncidentLogEntry `yaml:",inline"`
	Positive              bool   `json:"positive" yaml:"positive"`
	ConfidencePercent     string `json:"confidence_percent" yaml:"confidence_percent"`
}

// Incident prints the detail view of one audit entry
func (p *Printer) Incident(detail *feed.IncidentDetail) error {
	view := incidentView{
		IncidentLogEntry:  detail.Entry,
		Positive:          detail.Positive,
		ConfidencePercent: detail.ConfidencePercent,
	}
	if ok, err := p.structured(view); ok {
		return err
	}

	e := detail.Entry
	_, err := fmt.Fprintf(p.w, `Incident #%d
  Type:        %s
  Target:      %s
  Prediction:  %s
  Confidence:  %s
  Timestamp:   %s

Technical metadata
%s
`, e.ID, e.Type, e.Target, p.verdict(e.Prediction, detail.Positive), detail.ConfidencePercent, e.Timestamp, detail.Metadata)
	return err
}

// ThreatFeed prints the external threat feed
func (p *Printer) ThreatFeed(snap feed.Snapshot[core.ThreatFeedEntry]) error {
	if ok, err := p.structured(newListView(snap)); ok {
		return err
	}
	if snap.State == feed.StateLoadFailed {
		return p.errorLine(snap.Error)
	}
	if snap.Empty() {
		_, err := fmt.Fprintln(p.w, "No active threats in the feed.")
		return err
	}

	rows := make([][]string, 0, len(snap.Items))
	for _, e := range snap.Items {
		rows = append(rows, []string{e.Source, utils.Preview(e.URL, targetWidth), e.Type, e.Severity, e.Timestamp})
	}
	return p.table([]string{"SOURCE", "INDICATOR", "TYPE", "SEVERITY", "TIMESTAMP"}, rows)
}
