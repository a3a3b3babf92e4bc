package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-extract/internal/async"
	"github.com/joseph-ayodele/invoice-extract/internal/state"
)

type RecorderConfig struct {
	Workers      int
	QueueSize    int
	WriteTimeout time.Duration

	// EnqueueTimeout bounds how long a transition waits for room in a full queue.
	EnqueueTimeout time.Duration
}

const defaultEnqueueTimeout = time.Second

// Recorder writes every terminal transition of a state.Source to a Repository.
type Recorder struct {
	repo           Repository
	queue          *async.Queue[Record]
	logger         *slog.Logger
	now            func() time.Time
	enqueueTimeout time.Duration
	unsubscribe    func()
}

func NewRecorder(repo Repository, cfg RecorderConfig, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{repo: repo, logger: logger, now: time.Now, enqueueTimeout: cfg.EnqueueTimeout}
	if r.enqueueTimeout <= 0 {
		r.enqueueTimeout = defaultEnqueueTimeout
	}
	r.queue = async.NewQueue("history", r.save, logger,
		async.WithWorkers(cfg.Workers),
		async.WithQueueSize(cfg.QueueSize),
		async.WithProcessTimeout(cfg.WriteTimeout),
	)
	return r
}

// Attach subscribes to src. Call Close to detach and drain pending writes.
func (r *Recorder) Attach(src state.Source) {
	r.unsubscribe = src.Subscribe(r.observe)
}

func (r *Recorder) observe(st state.RequestState) {
	if st.Status != state.Fulfilled && st.Status != state.Rejected {
		return
	}
	rec := RecordFrom(st, r.now())
	// Called under the store's dispatch lock.
	ctx, cancel := context.WithTimeout(context.Background(), r.enqueueTimeout)
	defer cancel()
	if err := r.queue.Enqueue(ctx, rec); err != nil {
		r.logger.Warn("history.enqueue_failed", "submission_id", rec.SubmissionID, "error", err)
	}
}

func (r *Recorder) save(ctx context.Context, rec Record) error {
	if err := r.repo.Save(ctx, rec); err != nil {
		return err
	}
	r.logger.Debug("history.saved", "submission_id", rec.SubmissionID, "status", rec.Status)
	return nil
}

// Close stops observing and waits for queued writes until ctx expires.
func (r *Recorder) Close(ctx context.Context) {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	r.queue.Shutdown(ctx)
}

// RecordFrom flattens a terminal state into a Record.
func RecordFrom(st state.RequestState, at time.Time) Record {
	rec := Record{
		SubmissionID: st.Submission.ID,
		Seq:          st.Submission.Seq,
		FileName:     st.Submission.FileName,
		Status:       st.Status.String(),
		StartedAt:    st.Submission.StartedAt,
		RecordedAt:   at,
	}
	if st.Error != nil {
		rec.ErrorKind = string(st.Error.Kind)
		rec.Message = st.Error.Message
		rec.StatusCode = st.Error.StatusCode
	}
	if st.Result != nil {
		rec.Customers = len(st.Result.Customers)
		rec.Invoices = len(st.Result.Invoices)
		rec.Products = len(st.Result.Products)
		if b, err := json.Marshal(st.Result); err == nil {
			rec.ResultJSON = string(b)
		}
	}
	return rec
}
