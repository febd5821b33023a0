package di

import (
	"go.uber.org/dig"

	"github.com/mikey/phish-triage/internal/adapters/intake"
	"github.com/mikey/phish-triage/internal/config"
	"github.com/mikey/phish-triage/internal/factory"
	"github.com/mikey/phish-triage/internal/logging"
	"github.com/mikey/phish-triage/internal/ports"
)

// BuildContainer creates the dependency injection container for the intake daemon
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideServices(container); err != nil {
		return nil, err
	}

	// Register the report mailbox
	if err := container.Provide(factory.NewIntakeFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.IntakeFactory) (*intake.Intake, error) {
		return f.CreateIntake()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(in *intake.Intake) ports.Daemon { return in }); err != nil {
		return nil, err
	}

	return container, nil
}
