package memory

import (
	"context"
	"sync"

	"github.com/Plantigo/plantigo-backend/pkg/queue"
)

// NewQueue creates a memory-based intake queue, primarily for tests and
// running the service without a Redis instance.
func NewQueue() queue.Queue {
	return &memoryQueue{
		entries: make([][]byte, 0),
	}
}

type memoryQueue struct {
	entries [][]byte
	sync.Mutex
}

func (q *memoryQueue) Length(ctx context.Context) (int64, error) {
	q.Lock()
	defer q.Unlock()

	return int64(len(q.entries)), nil
}

func (q *memoryQueue) PeekRange(ctx context.Context, n int64) ([][]byte, error) {
	q.Lock()
	defer q.Unlock()

	if n > int64(len(q.entries)) {
		n = int64(len(q.entries))
	}

	out := make([][]byte, 0, n)
	for _, e := range q.entries[:n] {
		out = append(out, e)
	}

	return out, nil
}

func (q *memoryQueue) PopFront(ctx context.Context) error {
	q.Lock()
	defer q.Unlock()

	if len(q.entries) > 0 {
		q.entries = q.entries[1:]
	}

	return nil
}

func (q *memoryQueue) Push(ctx context.Context, entry []byte) error {
	q.Lock()
	defer q.Unlock()

	q.entries = append(q.entries, entry)

	return nil
}
