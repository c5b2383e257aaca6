package pipeline

import (
	"context"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/Ador2/xivo/estimator"
	"github.com/Ador2/xivo/publish"
)

// Process owns the dispatch queue and the single consumer loop applying
// messages to the estimator. The estimator and fan-out are injected at
// construction; nothing is reachable through globals.
type Process struct {
	queue  *Queue
	est    estimator.Estimator
	fanout *publish.Fanout
	logger golog.Logger
}

// NewProcess wires a dispatch process around an estimator and a fan-out.
func NewProcess(est estimator.Estimator, fanout *publish.Fanout, logger golog.Logger) *Process {
	return &Process{
		queue:  NewQueue(),
		est:    est,
		fanout: fanout,
		logger: logger,
	}
}

// Enqueue inserts a message into the dispatch queue. Never blocks; safe for
// concurrent producers.
func (p *Process) Enqueue(msg *Message) error {
	return p.queue.Enqueue(msg)
}

// Queue exposes the underlying queue, e.g. for closing after all producers
// finished.
func (p *Process) Queue() *Queue {
	return p.queue
}

// Wait enqueues a barrier and blocks until the consumer has applied every
// message ordered before it.
func (p *Process) Wait(ctx context.Context) error {
	msg := newBarrierMessage(time.Now())
	if err := p.queue.Enqueue(msg); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-msg.barrier:
		return nil
	}
}

// RunLoop consumes messages in timestamp order until the context is
// canceled or the queue is closed and drained. Sensor errors from the
// estimator are fatal and returned; publishing errors are not.
func (p *Process) RunLoop(ctx context.Context) error {
	for {
		msg, err := p.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if err := p.handle(ctx, msg); err != nil {
			p.logger.Errorw("dispatch terminated", "kind", msg.Kind().String(), "ts", msg.TS(), "error", err)
			return err
		}
	}
}

// handle runs the generic control path first; sensor handling only proceeds
// if the generic path declines the message.
func (p *Process) handle(ctx context.Context, msg *Message) error {
	if p.handleGeneric(msg) {
		return nil
	}
	switch msg.Kind() {
	case KindVisual:
		payload := msg.Visual()
		if err := p.est.ApplyVisualObservation(ctx, payload.Frame, msg.TS()); err != nil {
			return errors.Wrap(err, "visual observation")
		}
		p.fanout.AfterVisual(msg.TS(), payload.Frame, payload.Visualize, p.est)
		return nil
	case KindInertial:
		payload := msg.Inertial()
		if err := p.est.ApplyInertialObservation(ctx, payload.Sample, msg.TS()); err != nil {
			return errors.Wrap(err, "inertial observation")
		}
		p.fanout.AfterInertial(msg.TS(), payload.Visualize, p.est)
		return nil
	default:
		p.logger.Warnw("unhandled message kind", "kind", msg.Kind().String())
		return nil
	}
}

// handleGeneric consumes non-sensor control messages. Returns true if the
// message was consumed.
func (p *Process) handleGeneric(msg *Message) bool {
	if msg.Kind() != KindControl {
		return false
	}
	if msg.barrier != nil {
		close(msg.barrier)
	}
	return true
}
