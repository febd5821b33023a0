package console

import (
	"fmt"
	"time"

	"github.com/mikey/phish-triage/internal/core"
	"github.com/mikey/phish-triage/internal/utils"
)

type reportView struct {
	ID         string    `json:"id" yaml:"id"`
	ReportID   string    `json:"report_id" yaml:"report_id"`
	Type       string    `json:"type" yaml:"type"`
	Prediction string    `json:"prediction" yaml:"prediction"`
	Content    string    `json:"content" yaml:"content"`
	ReportedAt time.Time `json:"reported_at" yaml:"reported_at"`
}

// Reports prints the local escalation ledger
func (p *Printer) Reports(records []*core.ReportRecord) error {
	views := make([]reportView, 0, len(records))
	for _, r := range records {
		views = append(views, reportView{
			ID:         r.ID,
			ReportID:   r.ReportID,
			Type:       r.Type,
			Prediction: r.Prediction,
			Content:    r.Content,
			ReportedAt: r.ReportedAt,
		})
	}
	if ok, err := p.structured(views); ok {
		return err
	}
	if len(views) == 0 {
		_, err := fmt.Fprintln(p.w, "No escalations recorded.")
		return err
	}

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		id := v.ID
		if len(id) > 8 {
			id = id[:8]
		}
		rows = append(rows, []string{
			id,
			v.ReportID,
			v.Type,
			v.Prediction,
			v.ReportedAt.Local().Format(core.TimestampLayout),
			utils.Preview(v.Content, targetWidth),
		})
	}
	return p.table([]string{"ID", "REPORT ID", "TYPE", "PREDICTION", "REPORTED AT", "CONTENT"}, rows)
}
