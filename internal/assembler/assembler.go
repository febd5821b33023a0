// Package assembler validates raw backend payloads and turns them into core types.
// Required fields are enforced; optional nested blocks that are missing or
// unreadable are dropped instead of failing the whole result.
package assembler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mikey/phish-triage/internal/core"
)

type rawResult struct {
	Prediction   json.RawMessage `json:"prediction"`
	Confidence   json.RawMessage `json:"confidence"`
	Attributions json.RawMessage `json:"attributions"`
	ThirdParty   json.RawMessage `json:"third_party_analysis"`
	RawModel     json.RawMessage `json:"raw_model_prediction"`
}

type rawThirdParty struct {
	Source    string          `json:"source"`
	Status    string          `json:"status"`
	Details   string          `json:"details"`
	Forensics json.RawMessage `json:"forensics"`
}

type rawForensics struct {
	DNS json.RawMessage `json:"dns"`
	SSL json.RawMessage `json:"ssl"`
}

type rawTokenObject struct {
	Token *string  `json:"token"`
	Score *float64 `json:"score"`
}

// AssembleResult normalizes an analyzer response body into an AnalysisResult
func AssembleResult(raw []byte) (*core.AnalysisResult, error) {
	if !isObject(raw) {
		return nil, malformed("body", "expected a JSON object")
	}

	var rr rawResult
	if err := json.Unmarshal(raw, &rr); err != nil {
		return nil, malformed("body", err.Error())
	}

	result := &core.AnalysisResult{}

	if isNull(rr.Prediction) {
		return nil, malformed("prediction", "missing")
	}
	if err := json.Unmarshal(rr.Prediction, &result.Prediction); err != nil {
		return nil, malformed("prediction", "expected a string")
	}
	if result.Prediction == "" {
		return nil, malformed("prediction", "empty")
	}

	if isNull(rr.Confidence) {
		return nil, malformed("confidence", "missing")
	}
	if err := json.Unmarshal(rr.Confidence, &result.Confidence); err != nil {
		return nil, malformed("confidence", "expected a number")
	}
	if math.IsNaN(result.Confidence) || result.Confidence < 0 || result.Confidence > 1 {
		return nil, malformed("confidence", fmt.Sprintf("%v is outside [0,1]", result.Confidence))
	}

	tokens, err := assembleAttributions(rr.Attributions)
	if err != nil {
		return nil, err
	}
	result.Attributions = tokens

	result.ThirdPartyAnalysis = assembleThirdParty(rr.ThirdParty)

	if !isNull(rr.RawModel) {
		var rawModel string
		if err := json.Unmarshal(rr.RawModel, &rawModel); err == nil {
			result.RawModelPrediction = rawModel
		}
	}

	return result, nil
}

func assembleAttributions(raw json.RawMessage) ([]core.AttributionToken, error) {
	if isNull(raw) {
		return nil, malformed("attributions", "missing")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformed("attributions", "expected an array")
	}

	tokens := make([]core.AttributionToken, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("attributions[%d]", i)
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 {
			return nil, malformed(field, "empty element")
		}

		switch trimmed[0] {
		case '[':
			var pair []json.RawMessage
			if err := json.Unmarshal(trimmed, &pair); err != nil || len(pair) != 2 {
				return nil, malformed(field, "expected a [token, score] pair")
			}
			if isNull(pair[0]) || isNull(pair[1]) {
				return nil, malformed(field, "token and score are required")
			}
			var tok core.AttributionToken
			if err := json.Unmarshal(pair[0], &tok.Token); err != nil {
				return nil, malformed(field, "token is not a string")
			}
			if err := json.Unmarshal(pair[1], &tok.Score); err != nil {
				return nil, malformed(field, "score is not a number")
			}
			tokens = append(tokens, tok)
		case '{':
			var obj rawTokenObject
			if err := json.Unmarshal(trimmed, &obj); err != nil {
				return nil, malformed(field, err.Error())
			}
			if obj.Token == nil || obj.Score == nil {
				return nil, malformed(field, "token and score are required")
			}
			tokens = append(tokens, core.AttributionToken{Token: *obj.Token, Score: *obj.Score})
		default:
			return nil, malformed(field, "expected a pair or an object")
		}
	}

	return tokens, nil
}

func assembleThirdParty(raw json.RawMessage) *core.ThirdPartyAnalysis {
	if !isObject(raw) {
		return nil
	}

	var rtp rawThirdParty
	if err := json.Unmarshal(raw, &rtp); err != nil {
		return nil
	}

	return &core.ThirdPartyAnalysis{
		Source:    rtp.Source,
		Status:    rtp.Status,
		Details:   rtp.Details,
		Forensics: assembleForensics(rtp.Forensics),
	}
}

func assembleForensics(raw json.RawMessage) *core.ForensicsRecord {
	if !isObject(raw) {
		return nil
	}

	var rf rawForensics
	if err := json.Unmarshal(raw, &rf); err != nil {
		return nil
	}

	rec := &core.ForensicsRecord{}
	if isObject(rf.DNS) {
		var dns core.DNSRecord
		if err := json.Unmarshal(rf.DNS, &dns); err == nil {
			rec.DNS = &dns
		}
	}
	if isObject(rf.SSL) {
		var ssl core.SSLRecord
		if err := json.Unmarshal(rf.SSL, &ssl); err == nil {
			rec.SSL = &ssl
		}
	}

	if rec.DNS == nil && rec.SSL == nil {
		return nil
	}
	return rec
}

func malformed(field, reason string) error {
	return &core.MalformedResultError{Field: field, Reason: reason}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func isObject(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func isArray(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
