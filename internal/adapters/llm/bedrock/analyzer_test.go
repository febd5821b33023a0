package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/adapters/llm"
	"github.com/mikey/phish-triage/internal/assembler"
	"github.com/mikey/phish-triage/internal/core"
	"github.com/mikey/phish-triage/internal/utils"
)

type fakeInvoker struct {
	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func newAnalyzer(model string, inv *fakeInvoker) *Analyzer {
	return NewAnalyzer(inv, llm.Settings{ModelName: model, MaxTokens: 256, MaxBodySize: 1024}, zap.NewNop(), utils.NewTextProcessor(zap.NewNop()))
}

func TestClaudeMessagesRoundTrip(t *testing.T) {
	t.Parallel()

	inv := &fakeInvoker{body: `{"content": [{"type": "text", "text": "{\"prediction\": \"Phishing\", \"confidence\": 0.88, \"attributions\": [[\"login\", 0.7]]}"}]}`}
	a := newAnalyzer("anthropic.claude-3-haiku-20240307-v1:0", inv)

	raw, err := a.Analyze(context.Background(), core.AnalysisRequest{Mode: core.ModeURL, Content: "http://login.example"})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	var sent map[string]any
	if err := json.Unmarshal(inv.input.Body, &sent); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if sent["anthropic_version"] != anthropicVersion || sent["messages"] == nil {
		t.Fatalf("expected messages payload, got %v", sent)
	}
	if *inv.input.ModelId != "anthropic.claude-3-haiku-20240307-v1:0" {
		t.Fatalf("unexpected model id %q", *inv.input.ModelId)
	}

	result, err := assembler.AssembleResult(raw)
	if err != nil {
		t.Fatalf("AssembleResult returned error: %v", err)
	}
	if result.Prediction != "Phishing" || !result.Positive() {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestTitanPayloadAndResponse(t *testing.T) {
	t.Parallel()

	inv := &fakeInvoker{body: `{"results": [{"outputText": "{\"prediction\": \"Ham\", \"confidence\": 0.7, \"attributions\": []}"}]}`}
	a := newAnalyzer("amazon.titan-text-express-v1", inv)

	raw, err := a.Analyze(context.Background(), core.AnalysisRequest{Mode: core.ModeEmail, Content: "lunch?"})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if !strings.Contains(string(inv.input.Body), `"inputText"`) {
		t.Fatalf("expected titan payload, got %s", inv.input.Body)
	}
	if !strings.Contains(string(raw), `"Ham"`) {
		t.Fatalf("unexpected output: %s", raw)
	}
}

func TestInvokeFailureIsTransportError(t *testing.T) {
	t.Parallel()

	a := newAnalyzer("meta.llama3", &fakeInvoker{err: errors.New("throttled")})
	_, err := a.Analyze(context.Background(), core.AnalysisRequest{Mode: core.ModeEmail, Content: "x"})
	if !errors.Is(err, core.ErrServiceUnreachable) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestEmptyClaudeResponse(t *testing.T) {
	t.Parallel()

	a := newAnalyzer("anthropic.claude-v2", &fakeInvoker{body: `{"content": []}`})
	if _, err := a.Analyze(context.Background(), core.AnalysisRequest{Mode: core.ModeEmail, Content: "x"}); err == nil {
		t.Fatalf("expected error for empty completion")
	}
}
