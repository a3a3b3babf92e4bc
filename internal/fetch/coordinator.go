// Package fetch drives one submission through the request lifecycle.
package fetch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-extract/internal/common"
	"github.com/joseph-ayodele/invoice-extract/internal/encoder"
	"github.com/joseph-ayodele/invoice-extract/internal/entity"
	"github.com/joseph-ayodele/invoice-extract/internal/extraction"
	"github.com/joseph-ayodele/invoice-extract/internal/state"
)

// Encoder turns a file into an upload payload.
type Encoder interface {
	Encode(f encoder.File) (entity.UploadPayload, error)
}

// Extractor performs the remote round trip.
type Extractor interface {
	Extract(ctx context.Context, p entity.UploadPayload) (entity.Extraction, error)
}

// Coordinator is the only writer of the shared request state.
type Coordinator struct {
	Logger  *slog.Logger
	Store   *state.Store
	Encoder Encoder
	API     Extractor
}

func NewCoordinator(logger *slog.Logger, store *state.Store, enc Encoder, api Extractor) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{Logger: logger, Store: store, Encoder: enc, API: api}
}

// Submit encodes f, posts it and records the outcome. Subscribers see Pending before
// the file is read. Concurrent calls are allowed; each performs its own round trip.
// It returns the snapshot produced by this submission's final transition, or the
// current state when that outcome was discarded as stale.
func (c *Coordinator) Submit(ctx context.Context, f encoder.File) state.RequestState {
	start := time.Now()
	sub := c.Store.Begin(f.Name())
	ctx = common.WithSubmissionID(ctx, sub.ID.String())
	ctx = common.WithFileName(ctx, sub.FileName)
	log := c.Logger.With("submission_id", sub.ID.String(), "seq", sub.Seq, "file", sub.FileName)
	log.Info("fetch.submit.start")

	payload, err := c.Encoder.Encode(f)
	if err != nil {
		log.Error("fetch.submit.encode_failed", "error", err)
		st, _ := c.Store.Reject(sub, ErrorInfoFrom(err))
		return st
	}

	res, err := c.API.Extract(ctx, payload)
	if err != nil {
		info := ErrorInfoFrom(err)
		log.Error("fetch.submit.rejected",
			"kind", string(info.Kind),
			"status", info.StatusCode,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		st, _ := c.Store.Reject(sub, info)
		return st
	}

	log.Info("fetch.submit.fulfilled",
		"customers", len(res.Customers),
		"invoices", len(res.Invoices),
		"products", len(res.Products),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	st, _ := c.Store.Fulfill(sub, res)
	return st
}

// ErrorInfoFrom maps a submission failure to the diagnostic stored on Rejected.
// Only a server-provided message replaces the generic marker.
func ErrorInfoFrom(err error) state.ErrorInfo {
	info := state.ErrorInfo{
		Kind:    state.KindTransport,
		Message: state.GenericFailure,
		Detail:  err.Error(),
	}
	var sErr *extraction.ServerError
	switch {
	case errors.As(err, &sErr):
		info.Kind = state.KindServer
		info.StatusCode = sErr.StatusCode
		if sErr.Message != "" {
			info.Message = sErr.Message
		}
	case errors.Is(err, common.ErrEncoding):
		info.Kind = state.KindEncoding
	case errors.Is(err, common.ErrMalformedResponse):
		info.Kind = state.KindMalformedResponse
	}
	return info
}
