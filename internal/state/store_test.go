package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extract/internal/entity"
)

type recorder struct {
	mu     sync.Mutex
	states []RequestState
}

func (r *recorder) listen(st RequestState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, st)
}

func (r *recorder) statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, len(r.states))
	for i, st := range r.states {
		out[i] = st.Status
	}
	return out
}

func TestNewStoreIsIdle(t *testing.T) {
	s := NewStore(nil)
	st := s.State()
	assert.Equal(t, Idle, st.Status)
	assert.Nil(t, st.Result)
	assert.Nil(t, st.Error)
	assert.True(t, st.Consistent())
}

func TestTransitionsNotifyInOrder(t *testing.T) {
	s := NewStore(nil)
	rec := &recorder{}
	s.Subscribe(rec.listen)

	sub := s.Begin("a.pdf")
	_, ok := s.Fulfill(sub, entity.Extraction{})
	assert.True(t, ok)
	sub = s.Begin("b.pdf")
	_, ok = s.Reject(sub, ErrorInfo{Kind: KindServer, Message: "bad format"})
	assert.True(t, ok)

	assert.Equal(t, []Status{Pending, Fulfilled, Pending, Rejected}, rec.statuses())
	for _, st := range rec.states {
		assert.True(t, st.Consistent(), "inconsistent state %+v", st)
	}
}

func TestBeginKeepsResultAndClearsError(t *testing.T) {
	s := NewStore(nil)
	res := entity.Extraction{Customers: []entity.Customer{{CustomerName: "Acme"}}}

	sub := s.Begin("a.pdf")
	s.Fulfill(sub, res)
	sub = s.Begin("b.pdf")

	st := s.State()
	assert.Equal(t, Pending, st.Status)
	require.NotNil(t, st.Result, "prior result stays visible while pending")
	assert.Equal(t, "Acme", st.Result.Customers[0].CustomerName)

	s.Reject(sub, ErrorInfo{Kind: KindTransport, Message: GenericFailure})
	st = s.State()
	assert.Nil(t, st.Result, "rejection clears the result")
	require.NotNil(t, st.Error)

	s.Begin("c.pdf")
	st = s.State()
	assert.Nil(t, st.Error, "pending clears the error")
	assert.True(t, st.Consistent())
}

func TestSubmissionMetadata(t *testing.T) {
	at := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	s := NewStore(nil, WithClock(func() time.Time { return at }))

	first := s.Begin("a.pdf")
	second := s.Begin("b.pdf")

	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "b.pdf", s.State().Submission.FileName)
	assert.Equal(t, at, second.StartedAt)
}

func TestStaleResponseLastWriterWins(t *testing.T) {
	s := NewStore(nil)
	older := s.Begin("old.pdf")
	newer := s.Begin("new.pdf")

	s.Fulfill(newer, entity.Extraction{Customers: []entity.Customer{{CustomerName: "New"}}})
	_, applied := s.Reject(older, ErrorInfo{Kind: KindTransport, Message: GenericFailure})

	assert.True(t, applied)
	st := s.State()
	assert.Equal(t, Rejected, st.Status, "stale response overwrites the newer result")
	assert.Equal(t, older.ID, st.Submission.ID)
}

func TestStaleResponseFenced(t *testing.T) {
	s := NewStore(nil, WithStaleFencing())
	rec := &recorder{}
	s.Subscribe(rec.listen)

	older := s.Begin("old.pdf")
	newer := s.Begin("new.pdf")
	s.Fulfill(newer, entity.Extraction{Customers: []entity.Customer{{CustomerName: "New"}}})
	_, applied := s.Reject(older, ErrorInfo{Kind: KindTransport, Message: GenericFailure})

	assert.False(t, applied)
	st := s.State()
	assert.Equal(t, Fulfilled, st.Status)
	assert.Equal(t, newer.ID, st.Submission.ID)
	assert.Equal(t, []Status{Pending, Pending, Fulfilled}, rec.statuses(), "discarded outcome is not broadcast")
}

func TestFinishReturnsOwnSnapshot(t *testing.T) {
	s := NewStore(nil)
	older := s.Begin("old.pdf")
	newer := s.Begin("new.pdf")

	st, ok := s.Fulfill(newer, entity.Extraction{})
	require.True(t, ok)
	assert.Equal(t, Fulfilled, st.Status)
	assert.Equal(t, newer.ID, st.Submission.ID)

	st, ok = s.Reject(older, ErrorInfo{Kind: KindServer, Message: "late"})
	require.True(t, ok)
	assert.Equal(t, Rejected, st.Status)
	assert.Equal(t, older.ID, st.Submission.ID)
	assert.Equal(t, "late", st.Error.Message)

	fenced := NewStore(nil, WithStaleFencing())
	first := fenced.Begin("a.pdf")
	second := fenced.Begin("b.pdf")
	st, ok = fenced.Reject(first, ErrorInfo{Kind: KindTransport, Message: GenericFailure})
	assert.False(t, ok)
	assert.Equal(t, Pending, st.Status)
	assert.Equal(t, second.ID, st.Submission.ID)
}

func TestUnsubscribe(t *testing.T) {
	s := NewStore(nil)
	a, b := &recorder{}, &recorder{}
	unsubA := s.Subscribe(a.listen)
	s.Subscribe(b.listen)

	s.Begin("a.pdf")
	unsubA()
	unsubA()
	s.Begin("b.pdf")

	assert.Len(t, a.states, 1)
	assert.Len(t, b.states, 2)
}

func TestListenerMayReadState(t *testing.T) {
	s := NewStore(nil)
	var seen []Status
	s.Subscribe(func(RequestState) {
		seen = append(seen, s.State().Status)
	})
	sub := s.Begin("a.pdf")
	s.Fulfill(sub, entity.Extraction{})
	assert.Equal(t, []Status{Pending, Fulfilled}, seen)
}

func TestConcurrentTransitionsAreSerialized(t *testing.T) {
	s := NewStore(nil)
	rec := &recorder{}
	s.Subscribe(rec.listen)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := s.Begin("f.pdf")
			s.Fulfill(sub, entity.Extraction{})
		}()
	}
	wg.Wait()

	statuses := rec.statuses()
	require.Len(t, statuses, 100)
	pending := 0
	var lastSeq uint64
	for _, st := range rec.states {
		assert.True(t, st.Consistent())
		if st.Status == Pending {
			pending++
			assert.Greater(t, st.Submission.Seq, lastSeq, "pending notifications arrive in begin order")
			lastSeq = st.Submission.Seq
		}
	}
	assert.Equal(t, 50, pending)
	assert.Equal(t, Fulfilled, s.State().Status)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "IDLE", Idle.String())
	assert.Equal(t, "PENDING", Pending.String())
	assert.Equal(t, "FULFILLED", Fulfilled.String())
	assert.Equal(t, "REJECTED", Rejected.String())
	assert.Equal(t, "Status(9)", Status(9).String())
}
