// Package bedrock classifies artifacts with a model hosted on Amazon Bedrock.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/adapters/llm"
	"github.com/mikey/phish-triage/internal/core"
	"github.com/mikey/phish-triage/internal/utils"
)

const anthropicVersion = "bedrock-2023-05-31"

// ModelInvoker is the part of the Bedrock runtime client the analyzer uses
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Analyzer implements core.AnalyzerService on Bedrock
type Analyzer struct {
	client        ModelInvoker
	settings      llm.Settings
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

var _ core.AnalyzerService = (*Analyzer)(nil)

// NewAnalyzer creates a Bedrock analyzer
func NewAnalyzer(client ModelInvoker, settings llm.Settings, logger *zap.Logger, textProcessor *utils.TextProcessor) *Analyzer {
	return &Analyzer{
		client:        client,
		settings:      settings,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Analyze asks the model for a verdict and returns it in wire shape
func (a *Analyzer) Analyze(ctx context.Context, req core.AnalysisRequest) ([]byte, error) {
	content := a.textProcessor.ProcessText(req.Content, a.settings.MaxBodySize)
	prompt := llm.BuildPrompt(req.Mode, content)

	payload, err := a.requestBody(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(a.settings.ModelName),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, &core.TransportError{Op: "bedrock invoke model", Err: err}
	}

	text, err := a.responseText(resp.Body)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Bedrock completion received",
		zap.String("model", a.settings.ModelName),
		zap.String("mode", string(req.Mode)),
		zap.Int("response_size", len(text)))

	return llm.Normalize(text, a.settings.ModelName)
}

func (a *Analyzer) requestBody(prompt string) ([]byte, error) {
	switch {
	case a.isAnthropicModel():
		return json.Marshal(map[string]any{
			"anthropic_version": anthropicVersion,
			"max_tokens":        a.settings.MaxTokens,
			"temperature":       a.settings.Temperature,
			"top_p":             a.settings.TopP,
			"system":            llm.SystemPrompt,
			"messages": []map[string]any{
				{"role": "user", "content": prompt},
			},
		})
	case a.isAmazonTitanModel():
		return json.Marshal(map[string]any{
			"inputText": prompt,
			"textGenerationConfig": map[string]any{
				"maxTokenCount": a.settings.MaxTokens,
				"temperature":   a.settings.Temperature,
				"topP":          a.settings.TopP,
			},
		})
	default:
		return json.Marshal(map[string]any{
			"prompt":      prompt,
			"max_tokens":  a.settings.MaxTokens,
			"temperature": a.settings.Temperature,
			"top_p":       a.settings.TopP,
		})
	}
}

func (a *Analyzer) responseText(body []byte) (string, error) {
	switch {
	case a.isAnthropicModel():
		var resp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		var sb strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		if sb.Len() == 0 {
			return "", fmt.Errorf("empty response from Claude model")
		}
		return sb.String(), nil
	case a.isAmazonTitanModel():
		var resp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(resp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return resp.Results[0].OutputText, nil
	default:
		var resp struct {
			Output     string `json:"output"`
			Text       string `json:"text"`
			Generation string `json:"generation"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return string(body), nil
		}
		for _, candidate := range []string{resp.Output, resp.Text, resp.Generation} {
			if candidate != "" {
				return candidate, nil
			}
		}
		return string(body), nil
	}
}

func (a *Analyzer) isAnthropicModel() bool {
	return strings.Contains(a.settings.ModelName, "anthropic.claude")
}

func (a *Analyzer) isAmazonTitanModel() bool {
	return strings.HasPrefix(a.settings.ModelName, "amazon.titan")
}
