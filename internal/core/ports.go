package core

import (
	"context"
)

// AnalyzerService classifies one artifact. It returns the raw response body,
// which is normalized by the result assembler.
type AnalyzerService interface {
	Analyze(ctx context.Context, req AnalysisRequest) ([]byte, error)
}

// ReportingService escalates a positive verdict to the CERT authority
type ReportingService interface {
	NotifyCERT(ctx context.Context, report EscalationReport) (*EscalationAck, error)
}

// IncidentLogService returns the raw audit history payload
type IncidentLogService interface {
	FetchIncidentLogs(ctx context.Context) ([]byte, error)
}

// ThreatFeedService returns the raw threat feed payload
type ThreatFeedService interface {
	FetchThreatFeed(ctx context.Context) ([]byte, error)
}

// ReportLedger keeps acknowledged escalations locally
type ReportLedger interface {
	// Record stores an acknowledged escalation
	Record(ctx context.Context, rec *ReportRecord) error

	// Get retrieves a record by its local id
	Get(ctx context.Context, id string) (*ReportRecord, error)

	// List returns unexpired records, most recent first
	List(ctx context.Context) ([]*ReportRecord, error)

	// Cleanup removes expired records
	Cleanup(ctx context.Context) error
}
