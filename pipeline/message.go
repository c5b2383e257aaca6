// Package pipeline serializes concurrently produced sensor events into one
// timestamp-ordered stream of estimator updates.
package pipeline

import (
	"image"
	"time"

	"github.com/Ador2/xivo/sensor/imu"
)

// Kind discriminates the message variants.
type Kind int

const (
	// KindControl is a non-sensor message handled by the generic dispatch
	// path, e.g. a synchronous barrier.
	KindControl Kind = iota
	// KindVisual carries a camera frame.
	KindVisual
	// KindInertial carries an inertial sample.
	KindInertial
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindControl:
		return "control"
	case KindVisual:
		return "visual"
	case KindInertial:
		return "inertial"
	default:
		return "unknown"
	}
}

// VisualPayload is the payload of a visual message.
type VisualPayload struct {
	Frame     *image.Gray
	Visualize bool
}

// InertialPayload is the payload of an inertial message.
type InertialPayload struct {
	Sample    imu.Sample
	Visualize bool
}

// Message is a tagged variant: exactly the payload matching its kind is set.
// Timestamp and kind are immutable after construction.
type Message struct {
	ts   time.Time
	kind Kind
	// seq is assigned at Enqueue and breaks timestamp ties in arrival order.
	seq uint64

	visual   *VisualPayload
	inertial *InertialPayload
	barrier  chan struct{}
}

// NewVisualMessage constructs a visual sensor message.
func NewVisualMessage(ts time.Time, frame *image.Gray, visualize bool) *Message {
	return &Message{
		ts:     ts,
		kind:   KindVisual,
		visual: &VisualPayload{Frame: frame, Visualize: visualize},
	}
}

// NewInertialMessage constructs an inertial sensor message.
func NewInertialMessage(ts time.Time, sample imu.Sample, visualize bool) *Message {
	return &Message{
		ts:       ts,
		kind:     KindInertial,
		inertial: &InertialPayload{Sample: sample, Visualize: visualize},
	}
}

// newBarrierMessage constructs a control message whose barrier channel is
// closed when the consumer reaches it.
func newBarrierMessage(ts time.Time) *Message {
	return &Message{
		ts:      ts,
		kind:    KindControl,
		barrier: make(chan struct{}),
	}
}

// TS returns the message timestamp.
func (m *Message) TS() time.Time {
	return m.ts
}

// Kind returns the message kind.
func (m *Message) Kind() Kind {
	return m.kind
}

// Visual returns the visual payload, nil unless Kind is KindVisual.
func (m *Message) Visual() *VisualPayload {
	return m.visual
}

// Inertial returns the inertial payload, nil unless Kind is KindInertial.
func (m *Message) Inertial() *InertialPayload {
	return m.inertial
}
