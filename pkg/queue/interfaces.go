package queue

import "context"

// Queue is the raw telemetry intake queue shared between the MQTT listener
// (append only) and the batch processor (peek, then remove after commit).
// Implementations must make each operation individually atomic; callers do
// not hold a lock across a peek/pop sequence.
type Queue interface {
	// Length returns the number of entries currently queued.
	Length(ctx context.Context) (int64, error)

	// PeekRange returns up to n entries from the front of the queue
	// without removing them.
	PeekRange(ctx context.Context, n int64) ([][]byte, error)

	// PopFront removes the oldest entry.
	PopFront(ctx context.Context) error

	// Push appends an entry to the back of the queue.
	Push(ctx context.Context, entry []byte) error
}
