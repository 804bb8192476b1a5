// Package schedule converts bursty per-key triggers into at most one
// in-flight operation per key.
//
// Each key (typically a document path) cycles through idle, scheduled, and
// running. A trigger arms a quiet-period timer; further triggers within the
// quiet period re-arm it and overwrite the payload, so only the last
// trigger's payload is ever dispatched. A trigger arriving while an
// operation is in flight cancels that operation's context and queues a
// follow-up dispatch for when it returns. Cancellation is cooperative: the
// dispatched function decides how quickly it honors its context.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DispatchFunc performs one operation for a key. The context is cancelled
// when the operation is superseded or the key is torn down.
type DispatchFunc func(ctx context.Context, payload string)

// DefaultDelay is the quiet period used when none is configured.
const DefaultDelay = 500 * time.Millisecond

// Scheduler debounces and single-flights operations per key.
// All methods are safe for concurrent use.
type Scheduler struct {
	mu     sync.Mutex
	delay  time.Duration
	log    *slog.Logger
	ops    map[string]*operation
	closed bool
}

// operation is the per-key bookkeeping entry. It exists only while a timer
// is armed or a dispatch is in flight; idle entries are removed.
type operation struct {
	timer    *time.Timer
	seq      uint64 // timer generation, invalidates stale AfterFunc callbacks
	runID    uint64 // dispatch generation, ties completions to the run that produced them
	latest   string
	dispatch DispatchFunc
	cancel   context.CancelFunc
	running  bool
	queued   bool // timer fired while running; dispatch again on completion
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for trace output.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a scheduler with the given quiet period.
func New(delay time.Duration, opts ...Option) *Scheduler {
	if delay <= 0 {
		delay = DefaultDelay
	}
	s := &Scheduler{
		delay: delay,
		log:   slog.Default(),
		ops:   make(map[string]*operation),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule records a trigger for key. The dispatch runs with the payload of
// the last trigger once no further trigger arrives for a full quiet period.
// If an operation for key is already in flight its context is cancelled.
func (s *Scheduler) Schedule(key, payload string, dispatch DispatchFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	op := s.ops[key]
	if op == nil {
		op = &operation{}
		s.ops[key] = op
	}

	op.latest = payload
	op.dispatch = dispatch
	op.seq++
	seq := op.seq

	if op.running && op.cancel != nil {
		op.cancel()
	}
	if op.timer != nil {
		op.timer.Stop()
	}
	op.timer = time.AfterFunc(s.delay, func() {
		s.timerFired(key, seq)
	})
}

// ExecuteNow dispatches for key immediately, bypassing the quiet period.
// Any armed timer is disarmed and any in-flight operation's context is
// cancelled first. If the superseded operation resolves anyway, both
// results reach the consumer and its version gate decides which applies.
func (s *Scheduler) ExecuteNow(key, payload string, dispatch DispatchFunc) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return
	}

	op := s.ops[key]
	if op == nil {
		op = &operation{}
		s.ops[key] = op
	}

	op.seq++ // invalidate any armed timer callback
	if op.timer != nil {
		op.timer.Stop()
		op.timer = nil
	}
	if op.running && op.cancel != nil {
		op.cancel()
	}

	op.latest = payload
	op.dispatch = dispatch
	op.queued = false
	run := s.beginLocked(key, op)
	s.mu.Unlock()

	go run()
}

// Teardown discards all state for key: the armed timer, if any, is stopped
// and an in-flight operation's context is cancelled. Repeated teardown of
// the same key is a no-op.
func (s *Scheduler) Teardown(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked(key)
}

// Close tears down every key and rejects further scheduling.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for key := range s.ops {
		s.teardownLocked(key)
	}
}

// Pending reports whether key has a timer armed but not yet fired.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.ops[key]
	return ok && op.timer != nil
}

// Running reports whether an operation for key is in flight.
func (s *Scheduler) Running(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.ops[key]
	return ok && op.running
}

func (s *Scheduler) teardownLocked(key string) {
	op, ok := s.ops[key]
	if !ok {
		return
	}
	op.seq++
	if op.timer != nil {
		op.timer.Stop()
		op.timer = nil
	}
	if op.cancel != nil {
		op.cancel()
		op.cancel = nil
	}
	delete(s.ops, key)
	s.log.Debug("scheduler key torn down", "key", key)
}

// timerFired handles quiet-period expiry. A stale sequence number means the
// timer was re-armed or torn down after this callback was scheduled.
func (s *Scheduler) timerFired(key string, seq uint64) {
	s.mu.Lock()

	op, ok := s.ops[key]
	if !ok || op.seq != seq {
		s.mu.Unlock()
		return
	}

	op.timer = nil
	if op.running {
		// Follow-up runs as soon as the in-flight dispatch returns.
		op.queued = true
		s.mu.Unlock()
		return
	}

	run := s.beginLocked(key, op)
	s.mu.Unlock()
	go run()
}

// beginLocked marks op running and returns the closure that performs the
// dispatch and post-completion bookkeeping. The caller holds s.mu.
func (s *Scheduler) beginLocked(key string, op *operation) func() {
	ctx, cancel := context.WithCancel(context.Background())
	op.runID++
	id := op.runID
	op.running = true
	op.queued = false
	op.cancel = cancel

	payload := op.latest
	dispatch := op.dispatch
	s.log.Debug("dispatching", "key", key, "run", id)

	return func() {
		defer cancel()
		if dispatch != nil {
			dispatch(ctx, payload)
		}
		s.finished(key, id)
	}
}

// finished transitions a completed run back to idle, or straight into the
// next dispatch when a trigger queued one. Completions of superseded runs
// carry a stale runID and are ignored.
func (s *Scheduler) finished(key string, id uint64) {
	s.mu.Lock()

	op, ok := s.ops[key]
	if !ok || op.runID != id {
		s.mu.Unlock()
		return
	}

	op.running = false
	op.cancel = nil

	if op.queued && !s.closed {
		run := s.beginLocked(key, op)
		s.mu.Unlock()
		go run()
		return
	}

	if op.timer == nil {
		// Idle with nothing armed: drop the entry entirely.
		delete(s.ops, key)
	}
	s.mu.Unlock()
}
