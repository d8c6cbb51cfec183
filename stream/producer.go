package stream

import "context"

// Producer delivers events to a single downstream consumer as a pull-based
// sequence. The channel is unbuffered: the producer suspends in Emit until
// the consumer takes the event, which is the system's backpressure point.
// A disconnecting consumer cancels the context, and Emit returns its error.
type Producer struct {
	events chan Event
}

// NewProducer creates a producer for one turn's event stream.
func NewProducer() *Producer {
	return &Producer{events: make(chan Event)}
}

// Events is the consumer side. It is closed after the terminal event.
func (p *Producer) Events() <-chan Event {
	return p.events
}

// Emit blocks until the consumer pulls the event or ctx is cancelled.
func (p *Producer) Emit(ctx context.Context, event Event) error {
	select {
	case p.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the stream. Call exactly once, after the terminal event.
func (p *Producer) Close() {
	close(p.events)
}
