package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/connectcareer/careerflow/types"
)

// ResponseCache stores serialized model responses under derived keys.
// internal/cache.Manager satisfies it.
type ResponseCache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedClient memoizes Chat and Generate responses. Classification calls
// repeat the same prompts across turns, so a short TTL saves real model
// traffic. ChatStream is never cached; answer generation stays live.
type CachedClient struct {
	next  Client
	cache ResponseCache
	ttl   time.Duration
}

// NewCachedClient wraps next with response caching. A nil cache returns
// next unchanged.
func NewCachedClient(next Client, cache ResponseCache, ttl time.Duration) Client {
	if cache == nil || ttl <= 0 {
		return next
	}
	return &CachedClient{next: next, cache: cache, ttl: ttl}
}

// Chat implements Client.
func (c *CachedClient) Chat(ctx context.Context, messages []types.Message, opts ChatOptions) (*Response, error) {
	key := chatCacheKey(messages, opts)

	var cached Response
	if err := c.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	resp, err := c.next.Chat(ctx, messages, opts)
	if err != nil {
		return nil, err
	}
	// Cache write failures are invisible to callers; the response stands.
	_ = c.cache.SetJSON(ctx, key, resp, c.ttl)
	return resp, nil
}

// Generate implements Client.
func (c *CachedClient) Generate(ctx context.Context, prompt string) (*Response, error) {
	key := "llm:generate:" + hashKey([]byte(prompt))

	var cached Response
	if err := c.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	resp, err := c.next.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	_ = c.cache.SetJSON(ctx, key, resp, c.ttl)
	return resp, nil
}

// ChatStream implements Client. Streams pass through uncached.
func (c *CachedClient) ChatStream(ctx context.Context, messages []types.Message, opts ChatOptions) (<-chan string, error) {
	return c.next.ChatStream(ctx, messages, opts)
}

func chatCacheKey(messages []types.Message, opts ChatOptions) string {
	payload, err := json.Marshal(struct {
		Messages []types.Message `json:"messages"`
		Opts     ChatOptions     `json:"opts"`
	}{messages, opts})
	if err != nil {
		payload = []byte(fmt.Sprintf("%v|%v", messages, opts))
	}
	return "llm:chat:" + hashKey(payload)
}

func hashKey(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
