package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/adapters/httpapi"
	"github.com/mikey/phish-triage/internal/config"
	"github.com/mikey/phish-triage/internal/core"
	"github.com/mikey/phish-triage/internal/utils"
)

// AnalyzerFactory picks the Analyzer Service implementation from analyzer.backend
type AnalyzerFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	api           *httpapi.Client
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor, api *httpapi.Client) *AnalyzerFactory {
	return &AnalyzerFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
		api:           api,
	}
}

// CreateAnalyzer creates the configured analyzer
func (f *AnalyzerFactory) CreateAnalyzer() (core.AnalyzerService, error) {
	backend := f.cfg.GetAnalyzerBackend()
	f.logger.Debug("Creating analyzer", zap.String("backend", backend))

	switch backend {
	case "http", "":
		return f.api, nil
	case "bedrock":
		return f.createBedrock()
	case "gemini":
		return f.createGemini()
	case "openai":
		return f.createOpenAI()
	default:
		return nil, fmt.Errorf("unsupported analyzer backend: %s", backend)
	}
}
