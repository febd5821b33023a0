package factory

import (
	"fmt"

	"github.com/mikey/phish-triage/internal/adapters/llm"
	"github.com/mikey/phish-triage/internal/adapters/llm/openai"
)

func (f *AnalyzerFactory) createOpenAI() (*openai.Analyzer, error) {
	openaiCfg := f.cfg.GetOpenAI()
	if openaiCfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	return openai.NewAnalyzer(
		openaiCfg.APIKey,
		openaiCfg.BaseURL,
		llm.Settings{
			ModelName:   openaiCfg.ModelName,
			MaxTokens:   openaiCfg.MaxTokens,
			Temperature: openaiCfg.Temperature,
			TopP:        openaiCfg.TopP,
			MaxBodySize: openaiCfg.MaxBodySize,
		},
		f.logger,
		f.textProcessor,
	), nil
}
