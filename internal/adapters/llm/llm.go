// Package llm holds what the language-model analyzers share: the prompt,
// generation settings and the extraction of the verdict object from free text.
package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/phish-triage/internal/core"
)

// Settings are the generation parameters common to every provider
type Settings struct {
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// ErrNoJSON is returned when a completion contains no JSON object
var ErrNoJSON = errors.New("no JSON object in model response")

// Labels returns the positive and negative verdict labels for a mode
func Labels(mode core.Mode) (positive, negative string) {
	if mode == core.ModeURL {
		return "Phishing", "Safe"
	}
	return "Spam", "Ham"
}

const promptFormat = `You are a phishing triage system. Classify the following %s.
Respond with a JSON object containing:
- prediction: string, exactly "%s" or "%s"
- confidence: number between 0 and 1 (how confident you are in the prediction)
- attributions: array of [token, score] pairs for the tokens that most influenced
  the prediction; positive scores push towards "%s", negative towards "%s"

%s:
%s

Respond only with the JSON object and nothing else.`

// BuildPrompt formats the classification prompt for already processed content
func BuildPrompt(mode core.Mode, content string) string {
	positive, negative := Labels(mode)
	subject, heading := "email", "Email"
	if mode == core.ModeURL {
		subject, heading = "URL", "URL"
	}
	return fmt.Sprintf(promptFormat, subject, positive, negative, positive, negative, heading, content)
}

// SystemPrompt is sent as the system role by providers that support one
const SystemPrompt = "You are a phishing triage system. Respond only with JSON."

// ExtractJSON returns the outermost {...} span of text
func ExtractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}

// Normalize turns a completion into the wire shape the result assembler
// reads. The model name is recorded as raw_model_prediction unless the
// model supplied one.
func Normalize(text, modelName string) ([]byte, error) {
	candidate, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}
	if _, ok := fields["raw_model_prediction"]; !ok && modelName != "" {
		encoded, err := json.Marshal(modelName)
		if err != nil {
			return nil, err
		}
		fields["raw_model_prediction"] = encoded
	}
	return json.Marshal(fields)
}
