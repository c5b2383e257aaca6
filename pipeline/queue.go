package pipeline

import (
	"container/heap"
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrQueueClosed is returned by Pop once the queue is closed and drained.
var ErrQueueClosed = errors.New("dispatch queue closed")

// messageHeap orders messages by timestamp, breaking ties by arrival
// sequence so equal-timestamp messages pop in FIFO order.
type messageHeap []*Message

func (h messageHeap) Len() int { return len(h) }

func (h messageHeap) Less(i, j int) bool {
	if h[i].ts.Equal(h[j].ts) {
		return h[i].seq < h[j].seq
	}
	return h[i].ts.Before(h[j].ts)
}

func (h messageHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *messageHeap) Push(x any) { *h = append(*h, x.(*Message)) }

func (h *messageHeap) Pop() any {
	old := *h
	n := len(old)
	msg := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return msg
}

// Queue is the thread-safe, timestamp-ordered multiset of pending messages.
// Enqueue never blocks; the queue grows without bound if producers outpace
// the consumer.
type Queue struct {
	mu      sync.Mutex
	heap    messageHeap
	nextSeq uint64
	closed  bool
	// notify has capacity 1; a send is attempted on every Enqueue/Close
	notify chan struct{}
}

// NewQueue returns an empty open queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Enqueue inserts a message. Safe for concurrent use by any number of
// producers.
func (q *Queue) Enqueue(msg *Message) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	msg.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.heap, msg)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Pop blocks until the earliest-timestamped message is available, the
// context is canceled, or the queue is closed and empty.
func (q *Queue) Pop(ctx context.Context) (*Message, error) {
	for {
		q.mu.Lock()
		if q.heap.Len() > 0 {
			msg := heap.Pop(&q.heap).(*Message)
			q.mu.Unlock()
			return msg, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, ErrQueueClosed
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		}
	}
}

// Len returns the number of pending messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// Close rejects further enqueues. Pending messages can still be popped;
// afterwards Pop returns ErrQueueClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
