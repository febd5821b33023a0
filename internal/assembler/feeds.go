package assembler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mikey/phish-triage/internal/core"
)

type rawIncident struct {
	ID         json.Number `json:"id"`
	Type       string      `json:"type"`
	Target     string      `json:"target"`
	Prediction *string     `json:"prediction"`
	Confidence float64     `json:"confidence"`
	Timestamp  string      `json:"timestamp"`
}

// AssembleIncidentLogs validates the audit history payload. Server order is kept.
func AssembleIncidentLogs(raw []byte) ([]core.IncidentLogEntry, error) {
	if !isArray(raw) {
		return nil, malformed("incident-logs", "expected a JSON array")
	}

	var items []rawIncident
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformed("incident-logs", err.Error())
	}

	entries := make([]core.IncidentLogEntry, 0, len(items))
	for i, item := range items {
		if item.ID == "" {
			return nil, malformed(fmt.Sprintf("incident-logs[%d].id", i), "missing")
		}
		id, err := item.ID.Int64()
		if err != nil {
			return nil, malformed(fmt.Sprintf("incident-logs[%d].id", i), "expected an integer")
		}
		if item.Prediction == nil {
			return nil, malformed(fmt.Sprintf("incident-logs[%d].prediction", i), "missing")
		}

		entries = append(entries, core.IncidentLogEntry{
			ID:         id,
			Type:       core.IncidentType(item.Type),
			Target:     item.Target,
			Prediction: *item.Prediction,
			Confidence: item.Confidence,
			Timestamp:  item.Timestamp,
			RecordedAt: parseTimestamp(item.Timestamp),
		})
	}

	return entries, nil
}

type rawThreat struct {
	Source    string `json:"source"`
	URL       string `json:"url"`
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	Timestamp string `json:"timestamp"`
}

// AssembleThreatFeed validates the threat feed payload. Server order is kept.
func AssembleThreatFeed(raw []byte) ([]core.ThreatFeedEntry, error) {
	if !isArray(raw) {
		return nil, malformed("threat-feed", "expected a JSON array")
	}

	var items []rawThreat
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformed("threat-feed", err.Error())
	}

	entries := make([]core.ThreatFeedEntry, 0, len(items))
	for i, item := range items {
		if item.URL == "" {
			return nil, malformed(fmt.Sprintf("threat-feed[%d].url", i), "missing")
		}
		entries = append(entries, core.ThreatFeedEntry{
			Source:     item.Source,
			URL:        item.URL,
			Type:       item.Type,
			Severity:   item.Severity,
			Timestamp:  item.Timestamp,
			RecordedAt: parseTimestamp(item.Timestamp),
		})
	}

	return entries, nil
}

// parseTimestamp accepts the backend layout and RFC 3339; anything else yields the zero time
func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.ParseInLocation(core.TimestampLayout, value, time.Local); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}
