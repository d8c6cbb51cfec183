package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/connectcareer/careerflow/llm"
	"github.com/connectcareer/careerflow/types"
)

// LLMCall records one invocation of the stub, for assertion.
type LLMCall struct {
	Method   string // "chat", "generate", "chat_stream"
	Messages []types.Message
	Prompt   string
}

type scripted struct {
	content string
	chunks  []string
	err     error
}

// StubLLM is a scripted llm.Client. Responses are consumed in FIFO order
// across Chat, Generate, and ChatStream; an exhausted queue yields a fixed
// placeholder so tests only script what they assert on.
type StubLLM struct {
	mu     sync.Mutex
	queue  []scripted
	calls  []LLMCall
	router func(systemPrompt string) (string, error)
}

// NewStubLLM creates an empty stub.
func NewStubLLM() *StubLLM {
	return &StubLLM{}
}

// QueueResponse schedules a successful response.
func (s *StubLLM) QueueResponse(content string) *StubLLM {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, scripted{content: content})
	return s
}

// QueueError schedules a failing call.
func (s *StubLLM) QueueError(err error) *StubLLM {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, scripted{err: err})
	return s
}

// QueueStream schedules a ChatStream response delivered as chunks.
func (s *StubLLM) QueueStream(chunks ...string) *StubLLM {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, scripted{chunks: chunks})
	return s
}

// RouteBySystemPrompt installs a handler consulted before the queue: it
// receives the system prompt of each Chat call and may return a response.
// Returning an empty content with a nil error falls through to the queue.
func (s *StubLLM) RouteBySystemPrompt(fn func(systemPrompt string) (string, error)) *StubLLM {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.router = fn
	return s
}

// Calls returns a copy of the recorded invocations.
func (s *StubLLM) Calls() []LLMCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LLMCall, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *StubLLM) pop() scripted {
	if len(s.queue) == 0 {
		return scripted{content: "stub response"}
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	return next
}

// Chat implements llm.Client.
func (s *StubLLM) Chat(ctx context.Context, messages []types.Message, opts llm.ChatOptions) (*llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, LLMCall{Method: "chat", Messages: messages})

	if s.router != nil {
		system := systemPromptOf(messages)
		if content, err := s.router(system); err != nil {
			return nil, err
		} else if content != "" {
			return &llm.Response{Content: content}, nil
		}
	}

	next := s.pop()
	if next.err != nil {
		return nil, next.err
	}
	content := next.content
	if content == "" {
		content = strings.Join(next.chunks, "")
	}
	return &llm.Response{Content: content}, nil
}

// Generate implements llm.Client.
func (s *StubLLM) Generate(ctx context.Context, prompt string) (*llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, LLMCall{Method: "generate", Prompt: prompt})

	next := s.pop()
	if next.err != nil {
		return nil, next.err
	}
	content := next.content
	if content == "" {
		content = strings.Join(next.chunks, "")
	}
	return &llm.Response{Content: content}, nil
}

// ChatStream implements llm.Client.
func (s *StubLLM) ChatStream(ctx context.Context, messages []types.Message, opts llm.ChatOptions) (<-chan string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, LLMCall{Method: "chat_stream", Messages: messages})
	next := s.pop()
	s.mu.Unlock()

	if next.err != nil {
		return nil, next.err
	}
	chunks := next.chunks
	if len(chunks) == 0 && next.content != "" {
		chunks = []string{next.content}
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for _, c := range chunks {
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func systemPromptOf(messages []types.Message) string {
	for _, m := range messages {
		if m.Role == types.RoleSystem {
			return m.Content
		}
	}
	return ""
}
