package tracestore

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/doug-martin/goqu/v9"

	"github.com/bucketrun/bucketrun/common/gerror"
	"github.com/bucketrun/bucketrun/engine"
)

const stepTraceTable = "step_trace"

// StepTrace is one recorded step invocation.
type StepTrace struct {
	ID         int64     `db:"id" goqu:"skipinsert"`
	BucketID   string    `db:"bucket_id"`
	StepID     int       `db:"step_id"`
	Kind       string    `db:"kind"`
	Detail     string    `db:"detail"`
	RecordedAt time.Time `db:"recorded_at"`
}

// Store persists StepTrace rows and reads them back by bucket.
type Store struct {
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Record inserts a single step trace.
func (s *Store) Record(ctx context.Context, trace StepTrace) error {
	insert := s.db.dialect.Insert(stepTraceTable).Rows(trace)
	query, args, err := insert.ToSQL()
	if err != nil {
		return gerror.NewErrInternal().Wrap(err)
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return gerror.NewErrInternal().Wrap(err)
	}
	return nil
}

// ListByBucket returns every trace recorded for bucketID, oldest first.
func (s *Store) ListByBucket(ctx context.Context, bucketID string) ([]StepTrace, error) {
	sel := s.db.dialect.From(stepTraceTable).
		Where(goqu.Ex{"bucket_id": bucketID}).
		Order(goqu.C("recorded_at").Asc())
	query, args, err := sel.ToSQL()
	if err != nil {
		return nil, gerror.NewErrInternal().Wrap(err)
	}

	var traces []StepTrace
	if err := s.db.SelectContext(ctx, &traces, query, args...); err != nil {
		return nil, gerror.NewErrInternal().Wrap(err)
	}
	return traces, nil
}

// Recorder adapts a Store into a diagnostics.Subscriber bound to a single
// bucket execution, so every engine.Event emitted during that run is
// persisted under the same bucketID.
type Recorder struct {
	store    *Store
	bucketID string
	clk      clock.Clock
}

// NewRecorder builds a Recorder. clk is normally clock.New(); a test
// supplies a clock.Mock instead so RecordedAt is deterministic.
func NewRecorder(store *Store, bucketID string, clk clock.Clock) *Recorder {
	return &Recorder{store: store, bucketID: bucketID, clk: clk}
}

// OnEvent implements diagnostics.Subscriber.
func (r *Recorder) OnEvent(ev engine.Event) {
	// Best-effort: a trace store outage must never take down a bucket
	// execution, so a failed write is dropped rather than propagated.
	_ = r.store.Record(context.Background(), StepTrace{
		BucketID:   r.bucketID,
		StepID:     int(ev.StepID),
		Kind:       ev.Kind,
		Detail:     ev.Detail,
		RecordedAt: r.clk.Now(),
	})
}
