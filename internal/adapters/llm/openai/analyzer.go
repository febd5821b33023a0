// Package openai classifies artifacts with an OpenAI chat model.
package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/adapters/llm"
	"github.com/mikey/phish-triage/internal/core"
	"github.com/mikey/phish-triage/internal/utils"
)

// Analyzer implements core.AnalyzerService on the OpenAI chat API
type Analyzer struct {
	client        *openai.Client
	settings      llm.Settings
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

var _ core.AnalyzerService = (*Analyzer)(nil)

// NewAnalyzer creates an OpenAI analyzer. An empty baseURL uses the public API.
func NewAnalyzer(apiKey, baseURL string, settings llm.Settings, logger *zap.Logger, textProcessor *utils.TextProcessor) *Analyzer {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	return &Analyzer{
		client:        openai.NewClientWithConfig(clientCfg),
		settings:      settings,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Analyze asks the model for a verdict and returns it in wire shape
func (a *Analyzer) Analyze(ctx context.Context, req core.AnalysisRequest) ([]byte, error) {
	content := a.textProcessor.ProcessText(req.Content, a.settings.MaxBodySize)

	chatReq := openai.ChatCompletionRequest{
		Model: a.settings.ModelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: llm.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: llm.BuildPrompt(req.Mode, content)},
		},
		MaxTokens:   a.settings.MaxTokens,
		Temperature: a.settings.Temperature,
		TopP:        a.settings.TopP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := a.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, &core.TransportError{Op: "openai chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	a.logger.Debug("OpenAI completion received",
		zap.String("model", a.settings.ModelName),
		zap.String("mode", string(req.Mode)),
		zap.String("completion_id", resp.ID))

	return llm.Normalize(resp.Choices[0].Message.Content, a.settings.ModelName)
}
