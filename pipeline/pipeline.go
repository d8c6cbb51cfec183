package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/agent"
	"github.com/connectcareer/careerflow/classify"
	"github.com/connectcareer/careerflow/internal/metrics"
	"github.com/connectcareer/careerflow/llm"
	"github.com/connectcareer/careerflow/memory"
	"github.com/connectcareer/careerflow/types"
)

// Apology is the fixed answer emitted when every generation path failed.
const Apology = "I apologize, but I encountered an issue while processing your request. Please try again."

// relevantMemoryLimit caps the memory hits attached to an execution context.
const relevantMemoryLimit = 5

// Listener observes pipeline progress: one NodeStarted per stage that runs,
// and AnswerChunk for each streamed piece of the generated answer.
type Listener interface {
	NodeStarted(stage Stage)
	AnswerChunk(chunk string)
}

// NopListener discards all notifications.
type NopListener struct{}

func (NopListener) NodeStarted(Stage)  {}
func (NopListener) AnswerChunk(string) {}

// Pipeline runs the five-stage turn sequence. Stages are strictly
// sequential; each stage's patch is merged and checkpointed before the next
// stage starts.
type Pipeline struct {
	roles       *classify.RoleDetector
	intents     *classify.IntentDetector
	router      *agent.Router
	llm         llm.Client
	memories    *memory.Bag
	checkpoints CheckpointStore
	logger      *zap.Logger
	tracer      trace.Tracer
	metrics     *metrics.Collector
}

// New creates a pipeline. The memory bag may be nil; execution contexts are
// then built without memory.
func New(
	roles *classify.RoleDetector,
	intents *classify.IntentDetector,
	router *agent.Router,
	client llm.Client,
	memories *memory.Bag,
	checkpoints CheckpointStore,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if checkpoints == nil {
		checkpoints = NewMemoryCheckpointStore()
	}
	return &Pipeline{
		roles:       roles,
		intents:     intents,
		router:      router,
		llm:         client,
		memories:    memories,
		checkpoints: checkpoints,
		logger:      logger.With(zap.String("component", "turn_pipeline")),
		tracer:      otel.Tracer("careerflow/pipeline"),
	}
}

// WithMetrics attaches a collector recording stage durations and
// checkpoint write outcomes.
func (p *Pipeline) WithMetrics(collector *metrics.Collector) *Pipeline {
	p.metrics = collector
	return p
}

// Resume loads the checkpointed state for a thread, or returns
// ErrNoCheckpoint.
func (p *Pipeline) Resume(ctx context.Context, threadID string) (*State, error) {
	return p.checkpoints.Load(ctx, threadID)
}

// ClearCheckpoint drops the thread's checkpoint once a turn has fully
// completed, so the next turn starts fresh.
func (p *Pipeline) ClearCheckpoint(ctx context.Context, threadID string) error {
	return p.checkpoints.Delete(ctx, threadID)
}

// Run advances the turn through every stage not already completed,
// checkpointing after each one. It never returns a node failure as an
// error; failures are recorded on the state. The returned error covers
// checkpoint persistence only.
func (p *Pipeline) Run(ctx context.Context, state *State, profile *classify.Profile, listener Listener) (*State, error) {
	if listener == nil {
		listener = NopListener{}
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("thread_id", state.ThreadID),
			attribute.String("turn_id", state.TurnID),
		))
	defer span.End()

	for _, stage := range Stages {
		if state.HasCompleted(stage) {
			continue
		}
		listener.NodeStarted(stage)

		stageStart := time.Now()
		stageCtx, stageSpan := p.tracer.Start(ctx, "pipeline."+string(stage))
		patch := p.runStage(stageCtx, stage, state, profile, listener)
		stageSpan.End()
		if p.metrics != nil {
			p.metrics.RecordStage(string(stage), time.Since(stageStart))
		}

		state.Apply(patch)
		state.MarkCompleted(stage)
		if err := p.checkpoints.Save(ctx, state.ThreadID, state); err != nil {
			if p.metrics != nil {
				p.metrics.RecordCheckpointWrite("error")
			}
			return state, fmt.Errorf("failed to checkpoint after %s: %w", stage, err)
		}
		if p.metrics != nil {
			p.metrics.RecordCheckpointWrite("ok")
		}
	}
	return state, nil
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage, state *State, profile *classify.Profile, listener Listener) Patch {
	switch stage {
	case StageRoleDetector:
		return p.detectRole(ctx, state, profile)
	case StageIntentRouter:
		return p.routeIntent(ctx, state)
	case StageContextBuilder:
		return p.buildContext(ctx, state)
	case StageAgentExecutor:
		return p.executeAgent(ctx, state)
	case StageAnswerGenerator:
		return p.generateAnswer(ctx, state, listener)
	}
	return Patch{}
}

func (p *Pipeline) detectRole(ctx context.Context, state *State, profile *classify.Profile) (patch Patch) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("role detection panicked", zap.Any("panic", r))
			patch = Patch{Role: types.RoleCandidate, Error: fmt.Sprintf("role detection failed: %v", r)}
		}
	}()

	result := p.roles.Detect(ctx, state.LastUserText(), state.Messages, profile)
	return Patch{Role: result.Role, RoleConfidence: result.Confidence}
}

func (p *Pipeline) routeIntent(ctx context.Context, state *State) (patch Patch) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("intent routing panicked", zap.Any("panic", r))
			patch = Patch{
				Intent: &types.IntentResult{
					Intent:                types.IntentFAQ,
					Entities:              map[string]any{},
					Confidence:            0.3,
					RequiresClarification: true,
				},
				Error: fmt.Sprintf("intent routing failed: %v", r),
			}
		}
	}()

	result := p.intents.Detect(ctx, state.Role, state.LastUserText(), state.Messages)
	return Patch{Intent: &result}
}

func (p *Pipeline) buildContext(ctx context.Context, state *State) Patch {
	if state.Intent == nil {
		// Leaves Context nil; the executor treats that as fatal for the
		// turn.
		return Patch{Error: "cannot build execution context without an intent"}
	}

	agentCtx := types.AgentContext{
		UserID:              state.UserID,
		SessionID:           state.ThreadID,
		Task:                state.LastUserText(),
		Intent:              state.Intent.Intent,
		Entities:            state.Intent.Entities,
		ConversationHistory: state.Messages,
		Metadata:            map[string]any{"turn_id": state.TurnID},
	}
	if p.memories != nil {
		agentCtx.Memory = p.memories.Categories()
		hits, err := p.memories.SearchRelevant(ctx, state.UserID, agentCtx.Task, relevantMemoryLimit)
		switch {
		case err != nil:
			// Memory is an enrichment; the turn proceeds without it.
			p.logger.Warn("relevant memory search failed", zap.Error(err))
		case len(hits) > 0:
			agentCtx.Metadata["relevant_memories"] = hits
		}
	}
	return Patch{Context: &agentCtx}
}

func (p *Pipeline) executeAgent(ctx context.Context, state *State) Patch {
	if state.Context == nil {
		return Patch{
			AgentResult: &types.AgentResult{
				Success:     false,
				Explanation: "no execution context available for this turn",
			},
			Error: "agent execution skipped: no execution context",
		}
	}

	selected, err := p.router.Route(state.Context.Intent, *state.Context)
	if err != nil {
		return Patch{
			AgentResult: &types.AgentResult{
				Success:     false,
				Explanation: "no responder available for this request",
				Errors:      []error{err},
			},
			Error: err.Error(),
		}
	}

	result, err := selected.Execute(ctx, *state.Context)
	if err != nil {
		return Patch{
			AgentResult: &types.AgentResult{
				Success:     false,
				Explanation: "responder execution failed",
				Errors:      []error{err},
				AgentName:   selected.Name(),
			},
			AgentName: selected.Name(),
			Error:     err.Error(),
		}
	}
	return Patch{AgentResult: result, AgentName: selected.Name()}
}

func (p *Pipeline) generateAnswer(ctx context.Context, state *State, listener Listener) Patch {
	systemPrompt := answerSystemPrompt(state.Role)

	var contextInfo string
	if state.AgentResult != nil && state.AgentResult.Data != nil {
		contextInfo = "\n\nContext:\n" + mustJSON(state.AgentResult.Data)
	}
	prompt := fmt.Sprintf("User: %s%s\n\nGenerate a helpful response.", state.LastUserText(), contextInfo)

	// Tool-augmented attempt first, then the same prompt without tools.
	answer, err := p.streamAnswer(ctx, p.toolAugmentedPrompt(systemPrompt, state.AgentName), prompt, listener)
	if err != nil {
		p.logger.Warn("tool-augmented generation failed, retrying without tools", zap.Error(err))
		answer, err = p.streamAnswer(ctx, systemPrompt, prompt, listener)
	}
	if err != nil {
		p.logger.Error("answer generation failed", zap.Error(err))
		listener.AnswerChunk(Apology)
		return Patch{
			Messages: []types.Message{types.NewAssistantMessage(Apology)},
			Answer:   Apology,
			Error:    err.Error(),
		}
	}

	return Patch{
		Messages: []types.Message{types.NewAssistantMessage(answer)},
		Answer:   answer,
	}
}

// toolAugmentedPrompt appends the cached responder's tool declarations to
// the system prompt.
func (p *Pipeline) toolAugmentedPrompt(systemPrompt, agentName string) string {
	if agentName == "" {
		return systemPrompt
	}
	cached, ok := p.router.Get(agentName)
	if !ok || len(cached.Tools()) == 0 {
		return systemPrompt
	}

	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\nAvailable tools:\n")
	for _, tool := range cached.Tools() {
		fmt.Fprintf(&sb, "- %s: %s\n", tool.Name, tool.Description)
	}
	return sb.String()
}

func (p *Pipeline) streamAnswer(ctx context.Context, systemPrompt, prompt string, listener Listener) (string, error) {
	messages := []types.Message{
		types.NewSystemMessage(systemPrompt),
		types.NewUserMessage(prompt),
	}
	opts := llm.ChatOptions{Temperature: 0.7, MaxTokens: 2048}

	chunks, err := p.llm.ChatStream(ctx, messages, opts)
	if err != nil {
		// Not every client streams; degrade to a single completion.
		resp, chatErr := p.llm.Chat(ctx, messages, opts)
		if chatErr != nil {
			return "", chatErr
		}
		listener.AnswerChunk(resp.Content)
		return resp.Content, nil
	}

	var sb strings.Builder
	for chunk := range chunks {
		sb.WriteString(chunk)
		listener.AnswerChunk(chunk)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("model stream produced no content")
	}
	return sb.String(), nil
}

func answerSystemPrompt(role types.UserRole) string {
	guidance := "You help job seekers find jobs, improve their CVs, and advance their careers."
	if role == types.RoleRecruiter {
		guidance = "You help recruiters with hiring tasks, candidate screening, and job posting."
	}
	return fmt.Sprintf(`You are a helpful career assistant.
%s

Generate a helpful, natural response based on the context provided.`, guidance)
}

func mustJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
