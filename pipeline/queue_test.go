package pipeline

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"go.viam.com/test"
	goutils "go.viam.com/utils"
)

func visualAt(tsNanos int64) *Message {
	return NewVisualMessage(time.Unix(0, tsNanos), image.NewGray(image.Rect(0, 0, 8, 8)), false)
}

func TestQueueOrdersByTimestamp(t *testing.T) {
	q := NewQueue()
	// enqueue out of order, including a late message older than the rest
	for _, ts := range []int64{100, 50, 200, 99} {
		test.That(t, q.Enqueue(visualAt(ts)), test.ShouldBeNil)
	}
	test.That(t, q.Len(), test.ShouldEqual, 4)

	ctx := context.Background()
	var got []int64
	for i := 0; i < 4; i++ {
		msg, err := q.Pop(ctx)
		test.That(t, err, test.ShouldBeNil)
		got = append(got, msg.TS().UnixNano())
	}
	test.That(t, got, test.ShouldResemble, []int64{50, 99, 100, 200})
}

func TestQueueEqualTimestampsPopFIFO(t *testing.T) {
	q := NewQueue()
	first := visualAt(100)
	second := visualAt(100)
	third := visualAt(100)
	test.That(t, q.Enqueue(first), test.ShouldBeNil)
	test.That(t, q.Enqueue(second), test.ShouldBeNil)
	test.That(t, q.Enqueue(third), test.ShouldBeNil)

	ctx := context.Background()
	for _, want := range []*Message{first, second, third} {
		msg, err := q.Pop(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, msg, test.ShouldEqual, want)
	}
}

func TestQueueOlderMessagePopsBeforeTies(t *testing.T) {
	q := NewQueue()
	test.That(t, q.Enqueue(visualAt(100)), test.ShouldBeNil)
	test.That(t, q.Enqueue(visualAt(100)), test.ShouldBeNil)
	test.That(t, q.Enqueue(visualAt(99)), test.ShouldBeNil)

	msg, err := q.Pop(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, msg.TS().UnixNano(), test.ShouldEqual, int64(99))
}

func TestQueuePopBlocksUntilEnqueue(t *testing.T) {
	q := NewQueue()
	done := make(chan *Message)
	goutils.PanicCapturingGo(func() {
		msg, err := q.Pop(context.Background())
		test.That(t, err, test.ShouldBeNil)
		done <- msg
	})
	time.Sleep(10 * time.Millisecond)
	test.That(t, q.Enqueue(visualAt(7)), test.ShouldBeNil)
	msg := <-done
	test.That(t, msg.TS().UnixNano(), test.ShouldEqual, int64(7))
}

func TestQueuePopContextCancel(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Pop(ctx)
	test.That(t, err, test.ShouldBeError, context.Canceled)
}

func TestQueueClose(t *testing.T) {
	q := NewQueue()
	test.That(t, q.Enqueue(visualAt(1)), test.ShouldBeNil)
	q.Close()

	// enqueues are rejected after close
	err := q.Enqueue(visualAt(2))
	test.That(t, err, test.ShouldBeError, ErrQueueClosed)

	// pending messages still drain
	msg, err := q.Pop(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, msg.TS().UnixNano(), test.ShouldEqual, int64(1))

	_, err = q.Pop(context.Background())
	test.That(t, err, test.ShouldBeError, ErrQueueClosed)
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := NewQueue()
	const perProducer = 50
	var producers sync.WaitGroup
	for p := 0; p < 4; p++ {
		p := p
		producers.Add(1)
		goutils.PanicCapturingGo(func() {
			defer producers.Done()
			for i := 0; i < perProducer; i++ {
				// interleaved timestamps across producers
				test.That(t, q.Enqueue(visualAt(int64(i*4+p))), test.ShouldBeNil)
			}
		})
	}
	producers.Wait()
	q.Close()

	ctx := context.Background()
	var last int64 = -1
	count := 0
	for {
		msg, err := q.Pop(ctx)
		if err != nil {
			test.That(t, err, test.ShouldBeError, ErrQueueClosed)
			break
		}
		test.That(t, msg.TS().UnixNano(), test.ShouldBeGreaterThanOrEqualTo, last)
		last = msg.TS().UnixNano()
		count++
	}
	test.That(t, count, test.ShouldEqual, 4*perProducer)
}
