package llm

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/connectcareer/careerflow/llm/retry"
	"github.com/connectcareer/careerflow/types"
)

// ResilientClient wraps a Client with backoff retry on every call path.
type ResilientClient struct {
	inner   Client
	retryer retry.Retryer
	logger  *zap.Logger
}

// NewResilientClient wraps client with the given retry policy.
func NewResilientClient(client Client, policy *retry.Policy, logger *zap.Logger) *ResilientClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResilientClient{
		inner:   client,
		retryer: retry.NewBackoffRetryer(policy, logger),
		logger:  logger.With(zap.String("component", "resilient_client")),
	}
}

// Chat implements Client.
func (c *ResilientClient) Chat(ctx context.Context, messages []types.Message, opts ChatOptions) (*Response, error) {
	var resp *Response
	err := c.retryer.Do(ctx, func() error {
		var callErr error
		resp, callErr = c.inner.Chat(ctx, messages, opts)
		return callErr
	})
	return resp, err
}

// Generate implements Client.
func (c *ResilientClient) Generate(ctx context.Context, prompt string) (*Response, error) {
	var resp *Response
	err := c.retryer.Do(ctx, func() error {
		var callErr error
		resp, callErr = c.inner.Generate(ctx, prompt)
		return callErr
	})
	return resp, err
}

// ChatStream implements Client. Streams are not retried mid-flight; only
// the initial call is covered by the retry policy.
func (c *ResilientClient) ChatStream(ctx context.Context, messages []types.Message, opts ChatOptions) (<-chan string, error) {
	var ch <-chan string
	err := c.retryer.Do(ctx, func() error {
		var callErr error
		ch, callErr = c.inner.ChatStream(ctx, messages, opts)
		return callErr
	})
	return ch, err
}

// RateLimitedClient throttles calls to the underlying model with a token
// bucket, so one conversation cannot starve the rest of the process.
type RateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

// NewRateLimitedClient allows rps requests per second with the given burst.
func NewRateLimitedClient(client Client, rps float64, burst int) *RateLimitedClient {
	return &RateLimitedClient{
		inner:   client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Chat implements Client.
func (c *RateLimitedClient) Chat(ctx context.Context, messages []types.Message, opts ChatOptions) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.Chat(ctx, messages, opts)
}

// Generate implements Client.
func (c *RateLimitedClient) Generate(ctx context.Context, prompt string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.Generate(ctx, prompt)
}

// ChatStream implements Client.
func (c *RateLimitedClient) ChatStream(ctx context.Context, messages []types.Message, opts ChatOptions) (<-chan string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.ChatStream(ctx, messages, opts)
}
