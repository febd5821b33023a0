package core

// positiveLabels are the predictions treated as malicious
var positiveLabels = map[string]struct{}{
	"Spam":     {},
	"Phishing": {},
}

// IsPositive is the single predicate deciding whether a prediction is malicious.
// Risk coloring, escalation availability and feed row styling all go through it.
func IsPositive(prediction string) bool {
	_, ok := positiveLabels[prediction]
	return ok
}

// EscalationType returns the report type used when escalating an artifact of the given mode
func EscalationType(mode Mode) string {
	if mode == ModeEmail {
		return "Phishing Email"
	}
	return "Malicious URL"
}
