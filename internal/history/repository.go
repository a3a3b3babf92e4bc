package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extract/internal/common"
)

var ErrNotFound = errors.New("submission not found")

// Record is one terminal outcome.
type Record struct {
	SubmissionID uuid.UUID
	Seq          uint64
	FileName     string
	Status       string
	ErrorKind    string
	Message      string
	StatusCode   int
	Customers    int
	Invoices     int
	Products     int
	ResultJSON   string
	StartedAt    time.Time
	RecordedAt   time.Time
}

type Repository interface {
	Save(ctx context.Context, r Record) error
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
}

type repository struct {
	db *DB
}

func NewRepository(db *DB) Repository {
	return &repository{db: db}
}

var columns = []string{
	"id", "seq", "file_name", "status", "error_kind", "message", "status_code",
	"customers", "invoices", "products", "result_json", "started_at", "recorded_at",
}

// Save upserts by submission id.
func (r *repository) Save(ctx context.Context, rec Record) error {
	q, args := entsql.Dialect(r.db.dialect).
		Insert(table).
		Columns(columns...).
		Values(
			rec.SubmissionID.String(),
			int64(rec.Seq),
			rec.FileName,
			rec.Status,
			rec.ErrorKind,
			rec.Message,
			rec.StatusCode,
			rec.Customers,
			rec.Invoices,
			rec.Products,
			rec.ResultJSON,
			rec.StartedAt.UTC().Format(time.RFC3339Nano),
			rec.RecordedAt.UTC().Format(time.RFC3339Nano),
		).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if err := r.db.drv.Exec(ctx, q, args, nil); err != nil {
		r.db.logger.Error("failed to save submission", "submission_id", rec.SubmissionID, "error", err)
		return common.WrapError(err, "save submission")
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	d := entsql.Dialect(r.db.dialect)
	q, args := d.Select(columns...).
		From(d.Table(table)).
		Where(entsql.EQ("id", id.String())).
		Query()

	recs, err := r.query(ctx, q, args)
	if err != nil {
		return Record{}, common.WrapError(err, "get submission")
	}
	if len(recs) == 0 {
		return Record{}, ErrNotFound
	}
	return recs[0], nil
}

// List returns the newest records first.
func (r *repository) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	d := entsql.Dialect(r.db.dialect)
	q, args := d.Select(columns...).
		From(d.Table(table)).
		OrderBy(entsql.Desc("recorded_at"), entsql.Desc("seq")).
		Limit(limit).
		Query()

	recs, err := r.query(ctx, q, args)
	if err != nil {
		return nil, common.WrapError(err, "list submissions")
	}
	return recs, nil
}

func (r *repository) query(ctx context.Context, q string, args []any) ([]Record, error) {
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(&rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec                 Record
		id                  string
		seq                 int64
		started, recordedAt string
	)
	err := s.Scan(&id, &seq, &rec.FileName, &rec.Status, &rec.ErrorKind, &rec.Message, &rec.StatusCode,
		&rec.Customers, &rec.Invoices, &rec.Products, &rec.ResultJSON, &started, &recordedAt)
	if err != nil {
		return Record{}, err
	}
	if rec.SubmissionID, err = uuid.Parse(id); err != nil {
		return Record{}, fmt.Errorf("parse submission id: %w", err)
	}
	rec.Seq = uint64(seq)
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Record{}, fmt.Errorf("parse started_at: %w", err)
	}
	if rec.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
		return Record{}, fmt.Errorf("parse recorded_at: %w", err)
	}
	return rec, nil
}
