// Package session owns the lifecycle of a single analysis request.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/assembler"
	"github.com/mikey/phish-triage/internal/core"
)

// State is the position of a session in its lifecycle
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is a read-only view of the session
type Snapshot struct {
	State   State
	Request core.AnalysisRequest
	Result  *core.AnalysisResult
	Error   string
	Seq     uint64
}

// Escalatable reports whether the escalation workflow should be offered
func (s Snapshot) Escalatable() bool {
	return s.State == StateSucceeded && s.Result.Positive()
}

// Session drives one analysis at a time. Each analysis tab constructs its own.
type Session struct {
	id       string
	analyzer core.AnalyzerService
	logger   *zap.Logger

	mu      sync.Mutex
	state   State
	request core.AnalysisRequest
	result  *core.AnalysisResult
	errMsg  string
	issued  uint64
}

// New creates an idle session
func New(analyzer core.AnalyzerService, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		analyzer: analyzer,
		logger:   logger.With(zap.String("session_id", id)),
	}
}

// ID returns the session identifier used in logs
func (s *Session) ID() string {
	return s.id
}

// Submit dispatches the request to the analyzer. It returns accepted=false without
// any network call when the content is blank or a submission is already in flight.
// The returned channel is closed once the response has been applied or discarded.
func (s *Session) Submit(ctx context.Context, req core.AnalysisRequest) (<-chan struct{}, bool) {
	if req.Empty() {
		s.logger.Debug("Skipping blank submission", zap.String("mode", string(req.Mode)))
		return nil, false
	}

	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		s.logger.Debug("Submission already in flight")
		return nil, false
	}
	s.issued++
	seq := s.issued
	s.state = StateSubmitting
	s.request = req
	s.result = nil
	s.errMsg = ""
	done := make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("Submitting artifact",
		zap.String("mode", string(req.Mode)),
		zap.Int("content_length", len(req.Content)),
		zap.Uint64("seq", seq))

	go s.dispatch(ctx, seq, req, done)

	return done, true
}

// Run submits the request and waits for it to settle or for ctx to end
func (s *Session) Run(ctx context.Context, req core.AnalysisRequest) (Snapshot, bool) {
	done, ok := s.Submit(ctx, req)
	if !ok {
		return s.Snapshot(), false
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
	return s.Snapshot(), true
}

// Reset returns the session to idle. A response still in flight is discarded when it arrives.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.issued++
	s.state = StateIdle
	s.request = core.AnalysisRequest{}
	s.result = nil
	s.errMsg = ""
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		State:   s.state,
		Request: s.request,
		Result:  s.result,
		Error:   s.errMsg,
		Seq:     s.issued,
	}
}

func (s *Session) dispatch(ctx context.Context, seq uint64, req core.AnalysisRequest, done chan struct{}) {
	defer close(done)

	raw, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		s.finish(seq, nil, err)
		return
	}

	result, err := assembler.AssembleResult(raw)
	s.finish(seq, result, err)
}

func (s *Session) finish(seq uint64, result *core.AnalysisResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.issued {
		s.logger.Info("Discarding stale analysis response",
			zap.Uint64("seq", seq),
			zap.Uint64("latest", s.issued))
		return
	}

	if err != nil {
		s.logger.Error("Analysis failed",
			zap.Error(err),
			zap.String("mode", string(s.request.Mode)),
			zap.Uint64("seq", seq))
		s.state = StateFailed
		s.errMsg = core.MsgAnalysisFailed
		return
	}

	s.logger.Info("Analysis completed",
		zap.String("prediction", result.Prediction),
		zap.Float64("confidence", result.Confidence),
		zap.Int("tokens", len(result.Attributions)),
		zap.Bool("positive", result.Positive()),
		zap.Uint64("seq", seq))
	s.state = StateSucceeded
	s.result = result
}
