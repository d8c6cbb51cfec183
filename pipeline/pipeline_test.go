package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectcareer/careerflow/agent"
	"github.com/connectcareer/careerflow/classify"
	"github.com/connectcareer/careerflow/memory"
	"github.com/connectcareer/careerflow/testutil"
	"github.com/connectcareer/careerflow/types"
)

// collectingListener records notifications for assertions.
type collectingListener struct {
	mu     sync.Mutex
	nodes  []Stage
	chunks []string
}

func (l *collectingListener) NodeStarted(stage Stage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nodes = append(l.nodes, stage)
}

func (l *collectingListener) AnswerChunk(chunk string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chunks = append(l.chunks, chunk)
}

// scriptedAgent is a minimal responder for pipeline tests.
type scriptedAgent struct {
	name         string
	capabilities []string
	tools        []types.ToolSchema
	result       *types.AgentResult
	err          error
}

func (s *scriptedAgent) Name() string                           { return s.name }
func (s *scriptedAgent) Description() string                    { return "scripted " + s.name }
func (s *scriptedAgent) Capabilities() []string                 { return s.capabilities }
func (s *scriptedAgent) Tools() []types.ToolSchema              { return s.tools }
func (s *scriptedAgent) RequiredMemory() []types.MemoryCategory { return nil }
func (s *scriptedAgent) CanHandle(intent string, entities map[string]any) bool {
	for _, c := range s.capabilities {
		if c == intent {
			return true
		}
	}
	return false
}
func (s *scriptedAgent) Execute(ctx context.Context, agentCtx types.AgentContext) (*types.AgentResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &types.AgentResult{Success: true, Data: "data from " + s.name, AgentName: s.name}, nil
}

func newTestPipeline(stub *testutil.StubLLM, agents ...agent.Agent) (*Pipeline, *MemoryCheckpointStore) {
	router := agent.NewRouter(nil)
	for _, a := range agents {
		router.Register(a)
	}
	checkpoints := NewMemoryCheckpointStore()
	p := New(
		classify.NewRoleDetector(stub, nil),
		classify.NewIntentDetector(stub, nil),
		router,
		stub,
		nil,
		checkpoints,
		nil,
	)
	return p, checkpoints
}

func TestPipeline_HappyPath(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM().
		// Intent classification; role resolves via phrase matching.
		QueueResponse(`{"intent":"cv_review","entities":{"focus":"summary"},"confidence":0.9}`).
		// Streamed answer.
		QueueStream("Here is ", "your CV feedback.")
	p, checkpoints := newTestPipeline(stub, &scriptedAgent{
		name:         "cv_enhancement",
		capabilities: []string{"cv_review"},
		tools:        []types.ToolSchema{{Name: "parse_cv"}},
	})

	listener := &collectingListener{}
	state := &State{
		ThreadID: "thread-1",
		TurnID:   "turn-1",
		UserID:   "user-1",
		// Three candidate phrases keep role detection on the pattern path.
		Messages: []types.Message{types.NewUserMessage("please improve my cv, my resume needs a review")},
	}

	final, err := p.Run(testutil.TestContext(t), state, nil, listener)
	require.NoError(t, err)

	assert.Equal(t, Stages, listener.nodes, "one notification per stage, in order")
	assert.Equal(t, types.RoleCandidate, final.Role)
	require.NotNil(t, final.Intent)
	assert.Equal(t, "cv_review", final.Intent.Intent)
	assert.Equal(t, "cv_enhancement", final.AgentName)
	require.NotNil(t, final.AgentResult)
	assert.True(t, final.AgentResult.Success)
	assert.Equal(t, "Here is your CV feedback.", final.Answer)
	assert.Equal(t, []string{"Here is ", "your CV feedback."}, listener.chunks)

	// Last message is the appended assistant answer.
	last := final.Messages[len(final.Messages)-1]
	assert.Equal(t, types.RoleAssistant, last.Role)
	assert.Equal(t, "Here is your CV feedback.", last.Content)

	// Every stage was checkpointed.
	saved, err := checkpoints.Load(context.Background(), "thread-1")
	require.NoError(t, err)
	assert.Len(t, saved.CompletedStages, len(Stages))
}

func TestPipeline_ResumeSkipsCompletedStages(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM().QueueStream("resumed answer")
	p, checkpoints := newTestPipeline(stub, &scriptedAgent{
		name:         "faq",
		capabilities: []string{"faq"},
	})

	// A turn that died after agent_executor.
	state := &State{
		ThreadID: "thread-2",
		Messages: []types.Message{types.NewUserMessage("what is a cover letter")},
		Role:     types.RoleCandidate,
		Intent:   &types.IntentResult{Intent: "faq", Entities: map[string]any{}, Confidence: 0.8},
		Context: &types.AgentContext{
			SessionID: "thread-2",
			Task:      "what is a cover letter",
			Intent:    "faq",
		},
		AgentResult: &types.AgentResult{Success: true, Data: "cached"},
		AgentName:   "faq",
	}
	for _, stage := range []Stage{StageRoleDetector, StageIntentRouter, StageContextBuilder, StageAgentExecutor} {
		state.MarkCompleted(stage)
	}
	require.NoError(t, checkpoints.Save(context.Background(), "thread-2", state))

	resumed, err := p.Resume(testutil.TestContext(t), "thread-2")
	require.NoError(t, err)

	listener := &collectingListener{}
	final, err := p.Run(testutil.TestContext(t), resumed, nil, listener)
	require.NoError(t, err)

	// Only the answer stage ran; classification was not redone.
	assert.Equal(t, []Stage{StageAnswerGenerator}, listener.nodes)
	assert.Equal(t, "resumed answer", final.Answer)
	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "chat_stream", calls[0].Method)
}

func TestPipeline_FailSoftEndsInApology(t *testing.T) {
	t.Parallel()

	// Every model call fails and no agent is registered.
	stub := testutil.NewStubLLM()
	for i := 0; i < 8; i++ {
		stub.QueueError(errors.New("model down"))
	}
	p, _ := newTestPipeline(stub)

	listener := &collectingListener{}
	state := &State{
		ThreadID: "thread-3",
		Messages: []types.Message{types.NewUserMessage("zzz qqq")},
	}

	final, err := p.Run(testutil.TestContext(t), state, nil, listener)
	require.NoError(t, err, "node failures must not escape the pipeline")

	assert.Equal(t, Stages, listener.nodes)
	assert.Equal(t, types.RoleCandidate, final.Role)
	require.NotNil(t, final.Intent)
	assert.Equal(t, types.IntentFAQ, final.Intent.Intent)
	require.NotNil(t, final.AgentResult)
	assert.False(t, final.AgentResult.Success)
	assert.Equal(t, Apology, final.Answer)
	assert.NotEmpty(t, final.Error)
	assert.Equal(t, []string{Apology}, listener.chunks)
}

func TestPipeline_ContextBuilderWithoutIntentIsFatalForTurn(t *testing.T) {
	t.Parallel()

	p, _ := newTestPipeline(testutil.NewStubLLM().QueueStream("answer anyway"))

	state := &State{
		ThreadID: "thread-4",
		Messages: []types.Message{types.NewUserMessage("hello")},
		Role:     types.RoleCandidate,
	}
	// Skip classification stages so no intent is present.
	state.MarkCompleted(StageRoleDetector)
	state.MarkCompleted(StageIntentRouter)

	final, err := p.Run(testutil.TestContext(t), state, nil, nil)
	require.NoError(t, err)

	assert.Nil(t, final.Context)
	require.NotNil(t, final.AgentResult)
	assert.False(t, final.AgentResult.Success)
	assert.NotEmpty(t, final.Error)
}

func TestPipeline_ProfileRoleShortCircuitsClassification(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM().
		QueueResponse(`{"intent":"job_posting","entities":{},"confidence":0.85}`).
		QueueStream("posting advice")
	p, _ := newTestPipeline(stub, &scriptedAgent{
		name:         "posting_helper",
		capabilities: []string{"job_posting"},
	})

	state := &State{
		ThreadID: "thread-5",
		Messages: []types.Message{types.NewUserMessage("improve this posting")},
	}
	final, err := p.Run(testutil.TestContext(t), state, &classify.Profile{Role: types.RoleRecruiter}, nil)
	require.NoError(t, err)

	assert.Equal(t, types.RoleRecruiter, final.Role)
	assert.Equal(t, 1.0, final.RoleConfidence)
	assert.Equal(t, "posting_helper", final.AgentName)
}

func TestPipeline_ContextCarriesRelevantMemories(t *testing.T) {
	t.Parallel()

	episodic := memory.NewInMemoryEpisodic()
	require.NoError(t, episodic.StoreEvent(context.Background(), "user-7", types.MemoryEvent{
		Type:    "assistant_message",
		Content: "User prefers remote backend roles",
	}))

	stub := testutil.NewStubLLM().
		QueueResponse(`{"intent":"cv_review","entities":{},"confidence":0.9}`).
		QueueStream("Noted.")
	router := agent.NewRouter(nil)
	router.Register(&scriptedAgent{name: "cv_enhancement", capabilities: []string{"cv_review"}})
	p := New(
		classify.NewRoleDetector(stub, nil),
		classify.NewIntentDetector(stub, nil),
		router,
		stub,
		&memory.Bag{Episodic: episodic},
		NewMemoryCheckpointStore(),
		nil,
	)

	state := &State{
		ThreadID: "thread-7",
		TurnID:   "turn-7",
		UserID:   "user-7",
		Messages: []types.Message{types.NewUserMessage("backend")},
	}
	profile := &classify.Profile{Role: types.RoleCandidate}

	final, err := p.Run(testutil.TestContext(t), state, profile, NopListener{})
	require.NoError(t, err)

	require.NotNil(t, final.Context)
	hits, ok := final.Context.Metadata["relevant_memories"].([]types.MemoryHit)
	require.True(t, ok, "execution context must carry the merged memory hits")
	require.Len(t, hits, 1)
	assert.Equal(t, types.MemoryEpisodic, hits[0].Category)
	assert.Equal(t, "User prefers remote backend roles", hits[0].Content)
}
