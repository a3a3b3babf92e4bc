// Package state holds the single request state shared by the coordinator and the display views.
package state

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extract/internal/entity"
)

// Listener receives every state transition. It runs on the goroutine that made the
// transition and must not call back into the store's transition methods.
type Listener func(RequestState)

// Source is the read-only view of a Store handed to display views and other consumers.
type Source interface {
	State() RequestState
	Subscribe(l Listener) (unsubscribe func())
}

type subscription struct {
	id uint64
	fn Listener
}

// Store owns the RequestState. Transitions are serialized: each one is delivered to
// every listener before the next one is applied.
type Store struct {
	logger     *slog.Logger
	fenceStale bool
	now        func() time.Time

	dispatch sync.Mutex // held across apply + notify

	mu        sync.RWMutex
	state     RequestState
	latestSeq uint64
	subs      []subscription
	nextSubID uint64
}

type Option func(*Store)

// WithStaleFencing drops outcomes of submissions older than the latest one started.
// Without it the last response to arrive wins.
func WithStaleFencing() Option {
	return func(s *Store) { s.fenceStale = true }
}

// WithClock overrides the clock used for submission timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a store in the Idle state.
func NewStore(logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{logger: logger, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() RequestState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers l for future transitions. The returned func removes it and is safe to call twice.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscription{id: id, fn: l})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Begin moves to Pending for a new submission. The prior result is kept, any prior error is cleared.
func (s *Store) Begin(fileName string) Submission {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	s.latestSeq++
	sub := Submission{
		ID:        uuid.New(),
		Seq:       s.latestSeq,
		FileName:  fileName,
		StartedAt: s.now(),
	}
	s.state.Status = Pending
	s.state.Submission = sub
	s.state.Error = nil
	snap, subs := s.state, s.snapshotSubs()
	s.mu.Unlock()

	s.notify(snap, subs)
	return sub
}

// Fulfill moves to Fulfilled with res and returns the resulting snapshot. When the outcome
// is discarded as stale it returns the current state and false.
func (s *Store) Fulfill(sub Submission, res entity.Extraction) (RequestState, bool) {
	return s.finish(sub, func(st *RequestState) {
		st.Status = Fulfilled
		st.Result = &res
		st.Error = nil
	})
}

// Reject moves to Rejected with info. Return values are as for Fulfill.
func (s *Store) Reject(sub Submission, info ErrorInfo) (RequestState, bool) {
	return s.finish(sub, func(st *RequestState) {
		st.Status = Rejected
		st.Result = nil
		st.Error = &info
	})
}

func (s *Store) finish(sub Submission, apply func(*RequestState)) (RequestState, bool) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	if s.fenceStale && sub.Seq < s.latestSeq {
		latest, current := s.latestSeq, s.state
		s.mu.Unlock()
		s.logger.Warn("state.stale_outcome_discarded",
			"submission_id", sub.ID.String(),
			"seq", sub.Seq,
			"latest_seq", latest,
		)
		return current, false
	}
	if sub.Seq < s.latestSeq {
		s.logger.Warn("state.stale_outcome_applied",
			"submission_id", sub.ID.String(),
			"seq", sub.Seq,
			"latest_seq", s.latestSeq,
		)
	}
	apply(&s.state)
	s.state.Submission = sub
	snap, subs := s.state, s.snapshotSubs()
	s.mu.Unlock()

	s.notify(snap, subs)
	return snap, true
}

// snapshotSubs must be called with mu held.
func (s *Store) snapshotSubs() []subscription {
	out := make([]subscription, len(s.subs))
	copy(out, s.subs)
	return out
}

func (s *Store) notify(snap RequestState, subs []subscription) {
	s.logger.Debug("state.transition",
		"status", snap.Status.String(),
		"submission_id", snap.Submission.ID.String(),
		"seq", snap.Submission.Seq,
		"listeners", len(subs),
	)
	for _, sub := range subs {
		sub.fn(snap)
	}
}
