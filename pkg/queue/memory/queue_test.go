package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueOrdering(t *testing.T) {
	q := NewQueue()
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, []byte("first")))
	require.NoError(t, q.Push(ctx, []byte("second")))
	require.NoError(t, q.Push(ctx, []byte("third")))

	n, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	entries, err := q.PeekRange(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []byte("first"), entries[0])
	assert.Equal(t, []byte("second"), entries[1])

	// Peek does not consume
	n, err = q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, q.PopFront(ctx))

	entries, err = q.PeekRange(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []byte("second"), entries[0])
}

func TestQueuePopFrontEmpty(t *testing.T) {
	q := NewQueue()

	assert.NoError(t, q.PopFront(context.Background()))
}

func TestQueuePeekRangeBeyondLength(t *testing.T) {
	q := NewQueue()
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, []byte("only")))

	entries, err := q.PeekRange(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
