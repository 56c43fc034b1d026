package transport

import (
	"context"
	"sync"

	"github.com/robotalks/linkstack/pkg/buffer"
)

// Queue is a bounded byte FIFO safe for concurrent use. Producers block in
// Put when full, consumers never block.
type Queue struct {
	buf     *buffer.Buffer
	lock    sync.Mutex
	spaceCh chan struct{}
	closed  bool
}

// NewQueue creates a Queue holding at most size bytes.
func NewQueue(size int) *Queue {
	return &Queue{
		buf:     buffer.NewSized(size),
		spaceCh: make(chan struct{}, 1),
	}
}

// Available returns the number of bytes queued.
func (q *Queue) Available() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.buf.Len()
}

// Read takes at most len(p) queued bytes without blocking.
func (q *Queue) Read(p []byte) (int, error) {
	q.lock.Lock()
	n := copy(p, q.buf.Bytes())
	q.buf.Discard(n)
	q.lock.Unlock()
	if n > 0 {
		select {
		case q.spaceCh <- struct{}{}:
		default:
		}
	}
	return n, nil
}

// Offer queues as much of p as fits and returns the count.
func (q *Queue) Offer(p []byte) int {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		return 0
	}
	n, _ := q.buf.Append(p, true)
	return n
}

// Put queues all of p, waiting for space when full.
func (q *Queue) Put(ctx context.Context, p []byte) error {
	for {
		p = p[q.Offer(p):]
		if len(p) == 0 {
			return nil
		}
		q.lock.Lock()
		closed := q.closed
		q.lock.Unlock()
		if closed {
			return ErrClosed
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.spaceCh:
		}
	}
}

// Close drops queued bytes and rejects further Put.
func (q *Queue) Close() error {
	q.lock.Lock()
	q.closed = true
	q.buf.Clear(false)
	q.lock.Unlock()
	select {
	case q.spaceCh <- struct{}{}:
	default:
	}
	return nil
}
