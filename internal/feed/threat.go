package feed

import (
	"context"

	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/assembler"
	"github.com/mikey/phish-triage/internal/core"
)

// ThreatFeed is the external threat indicator list
type ThreatFeed struct {
	*Loader[core.ThreatFeedEntry]
}

// NewThreatFeed creates a threat feed loader backed by svc
func NewThreatFeed(svc core.ThreatFeedService, logger *zap.Logger) *ThreatFeed {
	fetch := func(ctx context.Context) ([]core.ThreatFeedEntry, error) {
		raw, err := svc.FetchThreatFeed(ctx)
		if err != nil {
			return nil, err
		}
		return assembler.AssembleThreatFeed(raw)
	}
	return &ThreatFeed{
		Loader: NewLoader("threat-feed", core.MsgThreatFeedFailed, fetch, logger),
	}
}
