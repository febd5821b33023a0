package di

import (
	"go.uber.org/dig"

	"github.com/mikey/phish-triage/internal/adapters/httpapi"
	"github.com/mikey/phish-triage/internal/core"
	"github.com/mikey/phish-triage/internal/factory"
	"github.com/mikey/phish-triage/internal/ports"
	"github.com/mikey/phish-triage/internal/utils"
)

// provideServices registers the pieces shared by the console and the daemon.
// The container must already provide *config.Config and *zap.Logger.
func provideServices(container *dig.Container) error {
	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register factories
	if err := container.Provide(factory.NewAPIClientFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewAnalyzerFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewLedgerFactory); err != nil {
		return err
	}

	// Register backend client and the ports it serves
	if err := container.Provide(func(f *factory.APIClientFactory) (*httpapi.Client, error) {
		return f.CreateClient()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(c *httpapi.Client) core.ReportingService { return c }); err != nil {
		return err
	}
	if err := container.Provide(func(c *httpapi.Client) core.IncidentLogService { return c }); err != nil {
		return err
	}
	if err := container.Provide(func(c *httpapi.Client) core.ThreatFeedService { return c }); err != nil {
		return err
	}

	// Register analyzer
	if err := container.Provide(func(f *factory.AnalyzerFactory) (core.AnalyzerService, error) {
		return f.CreateAnalyzer()
	}); err != nil {
		return err
	}

	// Register ledger, nil when disabled
	return container.Provide(func(f *factory.LedgerFactory) (ports.Ledger, error) {
		return f.CreateLedger()
	})
}
