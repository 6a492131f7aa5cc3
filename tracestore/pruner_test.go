package tracestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPrunerDeletesOnlyOldTraces(t *testing.T) {
	store := NewStore(openTestDB(t))

	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Now().Add(-time.Minute)

	require.NoError(t, store.Record(context.Background(), StepTrace{BucketID: "b1", StepID: 1, Kind: "step_done", RecordedAt: old}))
	require.NoError(t, store.Record(context.Background(), StepTrace{BucketID: "b1", StepID: 2, Kind: "step_done", RecordedAt: recent}))

	pruner := NewPruner(store, time.Hour, time.Hour, testLogFactory())
	pruner.Start()
	defer pruner.Stop()

	deleted := pruner.PruneNow()
	require.Equal(t, 1, deleted)

	traces, err := store.ListByBucket(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, traces, 1)
	require.Equal(t, 2, traces[0].StepID)
}
