package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/adapters/httpapi"
	"github.com/mikey/phish-triage/internal/config"
)

// APIClientFactory creates the analysis backend client
type APIClientFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAPIClientFactory creates a new API client factory
func NewAPIClientFactory(cfg *config.Config, logger *zap.Logger) *APIClientFactory {
	return &APIClientFactory{cfg: cfg, logger: logger}
}

// CreateClient creates the backend client from the api.* keys
func (f *APIClientFactory) CreateClient() (*httpapi.Client, error) {
	apiCfg, err := f.cfg.GetAPI()
	if err != nil {
		return nil, err
	}
	if apiCfg.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is required")
	}
	return httpapi.NewClient(apiCfg.BaseURL, apiCfg.UserAgent, apiCfg.Timeout, f.logger), nil
}
