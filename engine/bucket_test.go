package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBucketCommitAndHasErrorsIsMonotonic(t *testing.T) {
	b := NewBucket(2)
	require.False(t, b.HasErrors())

	b.commit(1, ConstantColumn(2, "ok"), false)
	require.False(t, b.HasErrors())

	b.commit(2, broadcastErrorColumn(2, errors.New("boom"), 2), true)
	require.True(t, b.HasErrors())

	// A later, clean commit must not clear the flag.
	b.commit(3, ConstantColumn(2, "ok"), false)
	require.True(t, b.HasErrors())
}

func TestBucketColumnsLooksUpByID(t *testing.T) {
	b := NewBucket(1)
	b.commit(1, Column{"a"}, false)
	b.commit(2, Column{"b"}, false)

	cols := b.Columns([]StepID{2, 1})
	require.Equal(t, Column{"b"}, cols[0])
	require.Equal(t, Column{"a"}, cols[1])
}
