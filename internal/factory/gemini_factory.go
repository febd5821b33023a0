package factory

import (
	"context"
	"fmt"

	"github.com/mikey/phish-triage/internal/adapters/llm"
	"github.com/mikey/phish-triage/internal/adapters/llm/gemini"
)

func (f *AnalyzerFactory) createGemini() (*gemini.Analyzer, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	return gemini.NewAnalyzer(
		context.Background(),
		geminiCfg.APIKey,
		llm.Settings{
			ModelName:   geminiCfg.ModelName,
			MaxTokens:   geminiCfg.MaxTokens,
			Temperature: geminiCfg.Temperature,
			TopP:        geminiCfg.TopP,
			MaxBodySize: geminiCfg.MaxBodySize,
		},
		f.logger,
		f.textProcessor,
	)
}
