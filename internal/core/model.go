package core

import (
	"strings"
	"time"
)

// Mode selects which analyzer endpoint an artifact is sent to
type Mode string

const (
	ModeEmail Mode = "email"
	ModeURL   Mode = "url"
)

// Valid reports whether the mode is one the analyzer understands
func (m Mode) Valid() bool {
	return m == ModeEmail || m == ModeURL
}

// AnalysisRequest is a single artifact submitted by the analyst
type AnalysisRequest struct {
	Mode    Mode
	Content string
}

// Empty reports whether the artifact is blank after trimming
func (r AnalysisRequest) Empty() bool {
	return strings.TrimSpace(r.Content) == ""
}

// AttributionToken is one classifier token with its raw attribution score.
// A positive score pushes towards the malicious class, a negative one towards benign.
type AttributionToken struct {
	Token string  `json:"token" yaml:"token"`
	Score float64 `json:"score" yaml:"score"`
}

// DNSRecord is the DNS part of the forensics block
type DNSRecord struct {
	Status  string `json:"status" yaml:"status"`
	IP      string `json:"ip" yaml:"ip"`
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

// Active reports whether the domain resolved
func (d DNSRecord) Active() bool {
	return d.Status == "Active"
}

// SSLRecord is the certificate part of the forensics block
type SSLRecord struct {
	Valid   bool    `json:"valid" yaml:"valid"`
	Issuer  *string `json:"issuer" yaml:"issuer"`
	Subject string  `json:"subject,omitempty" yaml:"subject,omitempty"`
	Expiry  string  `json:"expiry,omitempty" yaml:"expiry,omitempty"`
	Error   string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// IssuerOrNA returns the issuer or "N/A" when the backend sent none
func (s SSLRecord) IssuerOrNA() string {
	if s.Issuer == nil || *s.Issuer == "" {
		return "N/A"
	}
	return *s.Issuer
}

// ForensicsRecord holds live DNS and SSL indicators for a URL verdict.
// Either half may be missing.
type ForensicsRecord struct {
	DNS *DNSRecord `json:"dns,omitempty" yaml:"dns,omitempty"`
	SSL *SSLRecord `json:"ssl,omitempty" yaml:"ssl,omitempty"`
}

// ThirdPartyAnalysis is the threat-intelligence verdict attached to URL results
type ThirdPartyAnalysis struct {
	Source    string           `json:"source" yaml:"source"`
	Status    string           `json:"status" yaml:"status"`
	Details   string           `json:"details,omitempty" yaml:"details,omitempty"`
	Forensics *ForensicsRecord `json:"forensics" yaml:"forensics"`
}

// Clean reports whether the threat database found nothing
func (t ThirdPartyAnalysis) Clean() bool {
	return t.Status == "Clean"
}

// AnalysisResult is the normalized classifier verdict
type AnalysisResult struct {
	Prediction         string              `json:"prediction" yaml:"prediction"`
	Confidence         float64             `json:"confidence" yaml:"confidence"`
	Attributions       []AttributionToken  `json:"attributions" yaml:"attributions"`
	ThirdPartyAnalysis *ThirdPartyAnalysis `json:"third_party_analysis" yaml:"third_party_analysis"`
	RawModelPrediction string              `json:"raw_model_prediction,omitempty" yaml:"raw_model_prediction,omitempty"`
}

// Positive reports whether the verdict is malicious
func (r *AnalysisResult) Positive() bool {
	return r != nil && IsPositive(r.Prediction)
}

// IncidentType labels an audit log entry
type IncidentType string

const (
	IncidentEmail IncidentType = "Email Analysis"
	IncidentURL   IncidentType = "URL Analysis"
	// incidentURLScan is what the audit store writes for URL submissions
	incidentURLScan IncidentType = "URL Scan"
)

// IsEmail reports whether the incident came from an email analysis
func (t IncidentType) IsEmail() bool {
	return t == IncidentEmail
}

// IsURL reports whether the incident came from a URL analysis
func (t IncidentType) IsURL() bool {
	return t == IncidentURL || t == incidentURLScan
}

// TimestampLayout is the layout the backend uses for audit and feed timestamps
const TimestampLayout = "2006-01-02 15:04:05"

// IncidentLogEntry is one row of the remote audit history
type IncidentLogEntry struct {
	ID         int64        `json:"id" yaml:"id"`
	Type       IncidentType `json:"type" yaml:"type"`
	Target     string       `json:"target" yaml:"target"`
	Prediction string       `json:"prediction" yaml:"prediction"`
	Confidence float64      `json:"confidence" yaml:"confidence"`
	Timestamp  string       `json:"timestamp" yaml:"timestamp"`
	RecordedAt time.Time    `json:"-" yaml:"-"`
}

// Positive reports whether the logged verdict was malicious
func (e IncidentLogEntry) Positive() bool {
	return IsPositive(e.Prediction)
}

// ThreatFeedEntry is one external threat indicator
type ThreatFeedEntry struct {
	Source     string    `json:"source" yaml:"source"`
	URL        string    `json:"url" yaml:"url"`
	Type       string    `json:"type" yaml:"type"`
	Severity   string    `json:"severity" yaml:"severity"`
	Timestamp  string    `json:"timestamp" yaml:"timestamp"`
	RecordedAt time.Time `json:"-" yaml:"-"`
}

// EscalationReport is the body sent to the CERT notification endpoint
type EscalationReport struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// EscalationAck is the acknowledgement returned by the CERT endpoint
type EscalationAck struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ReportRecord is a locally kept copy of an acknowledged escalation
type ReportRecord struct {
	ID         string
	ReportID   string
	Type       string
	Content    string
	Prediction string
	ReportedAt time.Time
	ExpiresAt  time.Time
}
