package assembler

import (
	"errors"
	"testing"

	"github.com/mikey/phish-triage/internal/core"
)

const fullURLResult = `{
  "prediction": "Phishing",
  "confidence": 0.99,
  "attributions": [["http", 0.2], ["login", 1.7], ["verification", -0.4]],
  "third_party_analysis": {
    "source": "URLHaus (Abuse.ch)",
    "status": "Malicious",
    "details": "Listed in URLHaus database as online malware URL.",
    "forensics": {
      "dns": {"status": "Active", "ip": "203.0.113.7", "details": "Domain resolves to IP."},
      "ssl": {"valid": true, "issuer": "Let's Encrypt", "subject": "evil.example", "expiry": "Jan  1 00:00:00 2030 GMT"}
    }
  },
  "raw_model_prediction": "Safe"
}`

func TestAssembleResultAllFields(t *testing.T) {
	t.Parallel()

	result, err := AssembleResult([]byte(fullURLResult))
	if err != nil {
		t.Fatalf("AssembleResult returned error: %v", err)
	}

	if result.Prediction != "Phishing" || result.Confidence != 0.99 {
		t.Fatalf("unexpected verdict: %+v", result)
	}
	if len(result.Attributions) != 3 || result.Attributions[1].Token != "login" || result.Attributions[1].Score != 1.7 {
		t.Fatalf("unexpected attributions: %+v", result.Attributions)
	}
	if result.RawModelPrediction != "Safe" {
		t.Fatalf("unexpected raw model prediction: %s", result.RawModelPrediction)
	}

	tp := result.ThirdPartyAnalysis
	if tp == nil || tp.Source != "URLHaus (Abuse.ch)" || tp.Clean() {
		t.Fatalf("unexpected third party analysis: %+v", tp)
	}
	if tp.Forensics == nil || tp.Forensics.DNS == nil || tp.Forensics.SSL == nil {
		t.Fatalf("expected both forensics halves, got %+v", tp.Forensics)
	}
	if !tp.Forensics.DNS.Active() || tp.Forensics.DNS.IP != "203.0.113.7" {
		t.Fatalf("unexpected dns record: %+v", tp.Forensics.DNS)
	}
	if !tp.Forensics.SSL.Valid || tp.Forensics.SSL.IssuerOrNA() != "Let's Encrypt" {
		t.Fatalf("unexpected ssl record: %+v", tp.Forensics.SSL)
	}
}

func TestAssembleResultOptionalFieldsAbsent(t *testing.T) {
	t.Parallel()

	bodies := []string{
		`{"prediction": "Ham", "confidence": 0.6, "attributions": []}`,
		`{"prediction": "Ham", "confidence": 0.6, "attributions": [], "third_party_analysis": null}`,
		`{"prediction": "Ham", "confidence": 0.6, "attributions": [], "third_party_analysis": "n/a"}`,
	}

	for _, body := range bodies {
		result, err := AssembleResult([]byte(body))
		if err != nil {
			t.Fatalf("AssembleResult(%s) returned error: %v", body, err)
		}
		if result.ThirdPartyAnalysis != nil {
			t.Fatalf("expected nil third party analysis for %s", body)
		}
		if result.Attributions == nil || len(result.Attributions) != 0 {
			t.Fatalf("expected empty attributions for %s", body)
		}
	}
}

func TestAssembleResultForensicsAbsent(t *testing.T) {
	t.Parallel()

	body := `{"prediction": "Safe", "confidence": 0.99, "attributions": [],
	  "third_party_analysis": {"source": "Allowed List", "status": "Clean", "forensics": null}}`

	result, err := AssembleResult([]byte(body))
	if err != nil {
		t.Fatalf("AssembleResult returned error: %v", err)
	}
	if result.ThirdPartyAnalysis == nil || !result.ThirdPartyAnalysis.Clean() {
		t.Fatalf("expected clean third party analysis, got %+v", result.ThirdPartyAnalysis)
	}
	if result.ThirdPartyAnalysis.Forensics != nil {
		t.Fatalf("expected nil forensics")
	}
}

func TestAssembleResultSSLWithoutIssuer(t *testing.T) {
	t.Parallel()

	body := `{"prediction": "Phishing", "confidence": 0.8, "attributions": [],
	  "third_party_analysis": {"source": "Heuristic Analysis", "status": "Suspicious",
	    "forensics": {"dns": {"status": "NXDOMAIN", "ip": "N/A"}, "ssl": {"valid": false, "error": "timed out"}}}}`

	result, err := AssembleResult([]byte(body))
	if err != nil {
		t.Fatalf("AssembleResult returned error: %v", err)
	}
	f := result.ThirdPartyAnalysis.Forensics
	if f.DNS.Active() {
		t.Fatalf("NXDOMAIN must not be active")
	}
	if f.SSL.Valid || f.SSL.Issuer != nil || f.SSL.IssuerOrNA() != "N/A" || f.SSL.Error != "timed out" {
		t.Fatalf("unexpected ssl record: %+v", f.SSL)
	}
}

func TestAssembleResultObjectTokens(t *testing.T) {
	t.Parallel()

	body := `{"prediction": "Spam", "confidence": 1, "attributions": [{"token": "win", "score": 0.9}, {"token": "prize", "score": 0}]}`
	result, err := AssembleResult([]byte(body))
	if err != nil {
		t.Fatalf("AssembleResult returned error: %v", err)
	}
	if len(result.Attributions) != 2 || result.Attributions[0].Token != "win" || result.Attributions[1].Score != 0 {
		t.Fatalf("unexpected attributions: %+v", result.Attributions)
	}
}

func TestAssembleResultMalformed(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		body  string
		field string
	}{
		"not an object":         {`[1,2]`, "body"},
		"invalid json":          {`{"prediction":`, "body"},
		"missing prediction":    {`{"confidence": 0.5, "attributions": []}`, "prediction"},
		"numeric prediction":    {`{"prediction": 1, "confidence": 0.5, "attributions": []}`, "prediction"},
		"empty prediction":      {`{"prediction": "", "confidence": 0.5, "attributions": []}`, "prediction"},
		"missing confidence":    {`{"prediction": "Ham", "attributions": []}`, "confidence"},
		"string confidence":     {`{"prediction": "Ham", "confidence": "high", "attributions": []}`, "confidence"},
		"confidence too big":    {`{"prediction": "Ham", "confidence": 1.5, "attributions": []}`, "confidence"},
		"missing attributions":  {`{"prediction": "Ham", "confidence": 0.5}`, "attributions"},
		"attributions object":   {`{"prediction": "Ham", "confidence": 0.5, "attributions": {}}`, "attributions"},
		"short pair":            {`{"prediction": "Ham", "confidence": 0.5, "attributions": [["a"]]}`, "attributions[0]"},
		"score not number":      {`{"prediction": "Ham", "confidence": 0.5, "attributions": [["a", 1], ["b", "x"]]}`, "attributions[1]"},
		"token not string":      {`{"prediction": "Ham", "confidence": 0.5, "attributions": [[3, 1]]}`, "attributions[0]"},
		"null score in pair":    {`{"prediction": "Ham", "confidence": 0.5, "attributions": [["a", null]]}`, "attributions[0]"},
		"null token in pair":    {`{"prediction": "Ham", "confidence": 0.5, "attributions": [["a", 1], [null, 1.0]]}`, "attributions[1]"},
		"object missing score":  {`{"prediction": "Ham", "confidence": 0.5, "attributions": [{"token": "a"}]}`, "attributions[0]"},
		"scalar element":        {`{"prediction": "Ham", "confidence": 0.5, "attributions": [42]}`, "attributions[0]"},
		"backend error payload": {`{"error": "Email model not loaded"}`, "prediction"},
	}

	for name, tc := range cases {
		_, err := AssembleResult([]byte(tc.body))
		var me *core.MalformedResultError
		if !errors.As(err, &me) {
			t.Fatalf("%s: expected MalformedResultError, got %v", name, err)
		}
		if me.Field != tc.field {
			t.Fatalf("%s: expected field %s, got %s", name, tc.field, me.Field)
		}
	}
}

func TestAssembleResultPreservesOrder(t *testing.T) {
	t.Parallel()

	body := `{"prediction": "Spam", "confidence": 0.7, "attributions": [["c", 1], ["a", 2], ["b", 3], ["a", -1]]}`
	result, err := AssembleResult([]byte(body))
	if err != nil {
		t.Fatalf("AssembleResult returned error: %v", err)
	}
	want := []string{"c", "a", "b", "a"}
	for i, tok := range result.Attributions {
		if tok.Token != want[i] {
			t.Fatalf("token %d: expected %s, got %s", i, want[i], tok.Token)
		}
	}
}

func TestAssembleResultIgnoresNonStringRawModel(t *testing.T) {
	t.Parallel()

	result, err := AssembleResult([]byte(`{"prediction": "Ham", "confidence": 0.7, "attributions": [], "raw_model_prediction": {"label": 1}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RawModelPrediction != "" {
		t.Fatalf("expected raw model prediction to be dropped, got %q", result.RawModelPrediction)
	}
}
