package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestResponseTextJoinsTextParts(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text(`{"prediction": "Spam",`),
				genai.Blob{MIMEType: "image/png"},
				genai.Text(` "confidence": 0.9, "attributions": []}`),
			}},
		}},
	}

	got, err := responseText(resp)
	if err != nil {
		t.Fatalf("responseText returned error: %v", err)
	}
	if got != `{"prediction": "Spam", "confidence": 0.9, "attributions": []}` {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestResponseTextEmpty(t *testing.T) {
	t.Parallel()

	for _, resp := range []*genai.GenerateContentResponse{
		nil,
		{},
		{Candidates: []*genai.Candidate{{}}},
		{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}},
	} {
		if _, err := responseText(resp); err == nil {
			t.Fatalf("expected error for %+v", resp)
		}
	}
}
