package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/assembler"
	"github.com/mikey/phish-triage/internal/core"
)

// ErrIncidentNotFound is returned when selecting an id that is not in the loaded list
var ErrIncidentNotFound = errors.New("incident not found")

// IncidentDetail is the read-only detail view of one audit entry
type IncidentDetail struct {
	Entry             core.IncidentLogEntry
	Positive          bool
	ConfidencePercent string
	Metadata          string
}

// HistoryFeed is the audit history list with a detail view
type HistoryFeed struct {
	*Loader[core.IncidentLogEntry]

	selMu    sync.Mutex
	selected *IncidentDetail
}

// NewHistoryFeed creates a history loader backed by svc
func NewHistoryFeed(svc core.IncidentLogService, logger *zap.Logger) *HistoryFeed {
	fetch := func(ctx context.Context) ([]core.IncidentLogEntry, error) {
		raw, err := svc.FetchIncidentLogs(ctx)
		if err != nil {
			return nil, err
		}
		return assembler.AssembleIncidentLogs(raw)
	}
	return &HistoryFeed{
		Loader: NewLoader("incident-logs", core.MsgHistoryFailed, fetch, logger),
	}
}

// Select opens the detail view for the entry with the given id
func (h *HistoryFeed) Select(id int64) (*IncidentDetail, error) {
	snap := h.Snapshot()
	for _, entry := range snap.Items {
		if entry.ID != id {
			continue
		}
		detail, err := newIncidentDetail(entry)
		if err != nil {
			return nil, err
		}
		h.selMu.Lock()
		h.selected = detail
		h.selMu.Unlock()
		return detail, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrIncidentNotFound, id)
}

// Selected returns the open detail view, or nil
func (h *HistoryFeed) Selected() *IncidentDetail {
	h.selMu.Lock()
	defer h.selMu.Unlock()
	return h.selected
}

// Dismiss closes the detail view
func (h *HistoryFeed) Dismiss() {
	h.selMu.Lock()
	defer h.selMu.Unlock()
	h.selected = nil
}

func newIncidentDetail(entry core.IncidentLogEntry) (*IncidentDetail, error) {
	meta, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal incident metadata: %w", err)
	}
	return &IncidentDetail{
		Entry:             entry,
		Positive:          entry.Positive(),
		ConfidencePercent: fmt.Sprintf("%.4f%%", entry.Confidence*100),
		Metadata:          string(meta),
	}, nil
}
