package core

import (
	"errors"
	"fmt"
)

// ErrServiceUnreachable is matched by every transport-level failure
var ErrServiceUnreachable = errors.New("service unreachable")

// Messages shown to the analyst. Causes go to the operator log only.
const (
	MsgAnalysisFailed   = "Analysis failed. Please check the backend connection."
	MsgHistoryFailed    = "Failed to load incident history."
	MsgThreatFeedFailed = "Failed to load threat feed. Ensure backend is running."
	MsgEscalationFailed = "Reporting to CERT failed. Please retry."
)

// TransportError is a network failure or a non-2xx response
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes every TransportError match ErrServiceUnreachable
func (e *TransportError) Is(target error) bool {
	return target == ErrServiceUnreachable
}

// MalformedResultError is returned when a payload lacks a required field or has the wrong shape
type MalformedResultError struct {
	Field  string
	Reason string
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("malformed result: %s: %s", e.Field, e.Reason)
}
