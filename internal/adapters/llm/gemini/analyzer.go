// Package gemini classifies artifacts with Google Gemini.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/phish-triage/internal/adapters/llm"
	"github.com/mikey/phish-triage/internal/core"
	"github.com/mikey/phish-triage/internal/utils"
)

// Analyzer implements core.AnalyzerService on Gemini
type Analyzer struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	settings      llm.Settings
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

var _ core.AnalyzerService = (*Analyzer)(nil)

// NewAnalyzer creates a Gemini analyzer
func NewAnalyzer(ctx context.Context, apiKey string, settings llm.Settings, logger *zap.Logger, textProcessor *utils.TextProcessor) (*Analyzer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(settings.ModelName)
	model.SetTemperature(settings.Temperature)
	model.SetTopP(settings.TopP)
	model.SetMaxOutputTokens(int32(settings.MaxTokens))
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(llm.SystemPrompt))

	return &Analyzer{
		client:        client,
		model:         model,
		settings:      settings,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (a *Analyzer) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// Analyze asks the model for a verdict and returns it in wire shape
func (a *Analyzer) Analyze(ctx context.Context, req core.AnalysisRequest) ([]byte, error) {
	content := a.textProcessor.ProcessText(req.Content, a.settings.MaxBodySize)

	resp, err := a.model.GenerateContent(ctx, genai.Text(llm.BuildPrompt(req.Mode, content)))
	if err != nil {
		return nil, &core.TransportError{Op: "gemini generate content", Err: err}
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Gemini completion received",
		zap.String("model", a.settings.ModelName),
		zap.String("mode", string(req.Mode)),
		zap.Int("response_size", len(text)))

	return llm.Normalize(text, a.settings.ModelName)
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return sb.String(), nil
}
