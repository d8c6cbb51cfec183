package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_DeliversInOrderAndCloses(t *testing.T) {
	t.Parallel()

	p := NewProducer()
	go func() {
		ctx := context.Background()
		_ = p.Emit(ctx, Event{Type: EventThinking, Data: EventData{Node: "role_detector"}})
		_ = p.Emit(ctx, Event{Type: EventChunk, Data: EventData{Content: "Hel"}})
		_ = p.Emit(ctx, Event{Type: EventChunk, Data: EventData{Content: "lo"}})
		_ = p.Emit(ctx, Event{Type: EventComplete, Data: EventData{IsDone: true}})
		p.Close()
	}()

	var received []Event
	for event := range p.Events() {
		received = append(received, event)
	}

	require.Len(t, received, 4)
	assert.Equal(t, EventThinking, received[0].Type)
	assert.Equal(t, "Hel", received[1].Data.Content)
	assert.Equal(t, "lo", received[2].Data.Content)
	assert.True(t, received[3].Terminal())
	assert.True(t, received[3].Data.IsDone)
}

func TestProducer_EmitBlocksUntilConsumed(t *testing.T) {
	t.Parallel()

	p := NewProducer()
	emitted := make(chan struct{})
	go func() {
		_ = p.Emit(context.Background(), Event{Type: EventChunk})
		close(emitted)
	}()

	select {
	case <-emitted:
		t.Fatal("emit returned before the consumer pulled the event")
	case <-time.After(20 * time.Millisecond):
	}

	<-p.Events()
	select {
	case <-emitted:
	case <-time.After(time.Second):
		t.Fatal("emit did not return after the consumer pulled the event")
	}
}

func TestProducer_ConsumerDisconnectCancelsEmit(t *testing.T) {
	t.Parallel()

	p := NewProducer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Emit(ctx, Event{Type: EventChunk})
	assert.ErrorIs(t, err, context.Canceled)
}
