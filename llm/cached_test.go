package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectcareer/careerflow/types"
)

type mapCache struct {
	values map[string]any
}

func newMapCache() *mapCache { return &mapCache{values: map[string]any{}} }

func (c *mapCache) GetJSON(ctx context.Context, key string, dest any) error {
	val, ok := c.values[key]
	if !ok {
		return errors.New("cache miss")
	}
	*dest.(*Response) = *val.(*Response)
	return nil
}

func (c *mapCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.values[key] = value
	return nil
}

type countingClient struct {
	chats     int
	generates int
	err       error
}

func (c *countingClient) Chat(ctx context.Context, messages []types.Message, opts ChatOptions) (*Response, error) {
	c.chats++
	if c.err != nil {
		return nil, c.err
	}
	return &Response{Content: "chat response"}, nil
}

func (c *countingClient) Generate(ctx context.Context, prompt string) (*Response, error) {
	c.generates++
	if c.err != nil {
		return nil, c.err
	}
	return &Response{Content: "generated response"}, nil
}

func (c *countingClient) ChatStream(ctx context.Context, messages []types.Message, opts ChatOptions) (<-chan string, error) {
	ch := make(chan string, 1)
	ch <- "streamed"
	close(ch)
	return ch, nil
}

func TestCachedClient_ChatHitSkipsUpstream(t *testing.T) {
	t.Parallel()

	upstream := &countingClient{}
	client := NewCachedClient(upstream, newMapCache(), time.Minute)
	messages := []types.Message{types.NewUserMessage("classify this")}

	first, err := client.Chat(context.Background(), messages, ChatOptions{})
	require.NoError(t, err)
	second, err := client.Chat(context.Background(), messages, ChatOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, 1, upstream.chats)
}

func TestCachedClient_DistinctPromptsMiss(t *testing.T) {
	t.Parallel()

	upstream := &countingClient{}
	client := NewCachedClient(upstream, newMapCache(), time.Minute)

	_, err := client.Generate(context.Background(), "first prompt")
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), "second prompt")
	require.NoError(t, err)

	assert.Equal(t, 2, upstream.generates)
}

func TestCachedClient_ErrorsNotCached(t *testing.T) {
	t.Parallel()

	upstream := &countingClient{err: errors.New("model down")}
	cache := newMapCache()
	client := NewCachedClient(upstream, cache, time.Minute)

	_, err := client.Chat(context.Background(), []types.Message{types.NewUserMessage("hi")}, ChatOptions{})
	require.Error(t, err)
	assert.Empty(t, cache.values)

	upstream.err = nil
	resp, err := client.Chat(context.Background(), []types.Message{types.NewUserMessage("hi")}, ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "chat response", resp.Content)
	assert.Equal(t, 2, upstream.chats)
}

func TestCachedClient_StreamPassesThrough(t *testing.T) {
	t.Parallel()

	upstream := &countingClient{}
	client := NewCachedClient(upstream, newMapCache(), time.Minute)

	ch, err := client.ChatStream(context.Background(), nil, ChatOptions{})
	require.NoError(t, err)

	var got string
	for chunk := range ch {
		got += chunk
	}
	assert.Equal(t, "streamed", got)
}

func TestNewCachedClient_NilCacheReturnsNext(t *testing.T) {
	t.Parallel()

	upstream := &countingClient{}
	assert.Same(t, Client(upstream), NewCachedClient(upstream, nil, time.Minute))
	assert.Same(t, Client(upstream), NewCachedClient(upstream, newMapCache(), 0))
}
