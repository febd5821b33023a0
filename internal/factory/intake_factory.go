package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/adapters/intake"
	"github.com/mikey/phish-triage/internal/config"
	"github.com/mikey/phish-triage/internal/core"
	"github.com/mikey/phish-triage/internal/ports"
	"github.com/mikey/phish-triage/internal/utils"
	"github.com/mikey/phish-triage/internal/whitelist"
)

// IntakeFactory creates the SMTP report mailbox
type IntakeFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	analyzer      core.AnalyzerService
	reporter      core.ReportingService
	ledger        ports.Ledger
	textProcessor *utils.TextProcessor
}

// NewIntakeFactory creates a new intake factory. ledger may be nil.
func NewIntakeFactory(
	cfg *config.Config,
	logger *zap.Logger,
	analyzer core.AnalyzerService,
	reporter core.ReportingService,
	ledger ports.Ledger,
	textProcessor *utils.TextProcessor,
) *IntakeFactory {
	return &IntakeFactory{
		cfg:           cfg,
		logger:        logger,
		analyzer:      analyzer,
		reporter:      reporter,
		ledger:        ledger,
		textProcessor: textProcessor,
	}
}

// CreateIntake creates the mailbox from the intake.* keys
func (f *IntakeFactory) CreateIntake() (*intake.Intake, error) {
	intakeCfg, err := f.cfg.GetIntake()
	if err != nil {
		return nil, err
	}
	retention, err := f.cfg.GetDuration("ledger.retention")
	if err != nil {
		return nil, err
	}

	var reportLedger core.ReportLedger
	if f.ledger != nil {
		reportLedger = f.ledger
	}

	return intake.New(
		f.analyzer,
		f.reporter,
		reportLedger,
		whitelist.NewChecker(intakeCfg.TrustedDomains, f.logger),
		f.textProcessor,
		intake.Settings{
			ListenAddress:   intakeCfg.ListenAddress,
			Domain:          intakeCfg.Domain,
			MaxMessageBytes: intakeCfg.MaxMessageBytes,
			MaxBodySize:     intakeCfg.MaxBodySize,
			MaxLinks:        intakeCfg.MaxLinks,
			AutoEscalate:    intakeCfg.AutoEscalate,
			AnalysisTimeout: intakeCfg.AnalysisTimeout,
			LedgerTTL:       retention,
		},
		f.logger,
	), nil
}
