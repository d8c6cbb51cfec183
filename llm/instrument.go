package llm

import (
	"context"
	"time"

	"github.com/connectcareer/careerflow/internal/metrics"
	"github.com/connectcareer/careerflow/types"
)

// InstrumentedClient records request counts and latencies for every call it
// forwards. Stream latency covers the call setup, not chunk delivery.
type InstrumentedClient struct {
	next      Client
	collector *metrics.Collector
}

// NewInstrumentedClient wraps next with metrics recording. A nil collector
// returns next unchanged.
func NewInstrumentedClient(next Client, collector *metrics.Collector) Client {
	if collector == nil {
		return next
	}
	return &InstrumentedClient{next: next, collector: collector}
}

// Chat implements Client.
func (c *InstrumentedClient) Chat(ctx context.Context, messages []types.Message, opts ChatOptions) (*Response, error) {
	start := time.Now()
	resp, err := c.next.Chat(ctx, messages, opts)
	c.collector.RecordLLMRequest("chat", outcomeOf(err), time.Since(start))
	return resp, err
}

// Generate implements Client.
func (c *InstrumentedClient) Generate(ctx context.Context, prompt string) (*Response, error) {
	start := time.Now()
	resp, err := c.next.Generate(ctx, prompt)
	c.collector.RecordLLMRequest("generate", outcomeOf(err), time.Since(start))
	return resp, err
}

// ChatStream implements Client.
func (c *InstrumentedClient) ChatStream(ctx context.Context, messages []types.Message, opts ChatOptions) (<-chan string, error) {
	start := time.Now()
	chunks, err := c.next.ChatStream(ctx, messages, opts)
	c.collector.RecordLLMRequest("chat_stream", outcomeOf(err), time.Since(start))
	return chunks, err
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
