// Package feed loads the read-only audit history and threat indicator lists.
package feed

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// State of a one-shot load
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateLoadFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateLoadFailed:
		return "load_failed"
	default:
		return "idle"
	}
}

// Snapshot is a read-only view of a loader
type Snapshot[T any] struct {
	State State
	Items []T
	Error string
}

// Empty reports a successful load that returned nothing
func (s Snapshot[T]) Empty() bool {
	return s.State == StateLoaded && len(s.Items) == 0
}

// FetchFunc retrieves and validates the list
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Loader fetches a list once per activation. Items keep server order.
type Loader[T any] struct {
	name    string
	failMsg string
	fetch   FetchFunc[T]
	logger  *zap.Logger

	mu     sync.Mutex
	state  State
	items  []T
	errMsg string
	issued uint64
}

// NewLoader creates an idle loader
func NewLoader[T any](name, failMsg string, fetch FetchFunc[T], logger *zap.Logger) *Loader[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader[T]{
		name:    name,
		failMsg: failMsg,
		fetch:   fetch,
		logger:  logger.With(zap.String("feed", name)),
	}
}

// Activate fetches the list and returns the settled snapshot. Only the most
// recent activation may update the loader.
func (l *Loader[T]) Activate(ctx context.Context) Snapshot[T] {
	l.mu.Lock()
	l.issued++
	seq := l.issued
	l.state = StateLoading
	l.items = nil
	l.errMsg = ""
	l.mu.Unlock()

	items, err := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if seq != l.issued {
		l.logger.Debug("Discarding stale feed load", zap.Uint64("seq", seq), zap.Uint64("latest", l.issued))
		return l.snapshotLocked()
	}

	if err != nil {
		l.logger.Error("Feed load failed", zap.Error(err))
		l.state = StateLoadFailed
		l.errMsg = l.failMsg
		return l.snapshotLocked()
	}

	if items == nil {
		items = []T{}
	}
	l.state = StateLoaded
	l.items = items
	l.logger.Info("Feed loaded", zap.Int("count", len(items)))
	return l.snapshotLocked()
}

// Snapshot returns the current state
func (l *Loader[T]) Snapshot() Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Loader[T]) snapshotLocked() Snapshot[T] {
	items := make([]T, len(l.items))
	copy(items, l.items)
	return Snapshot[T]{State: l.state, Items: items, Error: l.errMsg}
}
