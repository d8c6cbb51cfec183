// Package pipeline advances one conversational turn through a fixed
// five-stage sequence with externally persisted checkpoints. Every stage is
// fail-soft: node-local failures degrade to safe defaults recorded on the
// state, never propagating out of the pipeline.
package pipeline

import (
	"github.com/connectcareer/careerflow/types"
)

// Stage names one pipeline node. The five stages run strictly in order.
type Stage string

const (
	StageRoleDetector    Stage = "role_detector"
	StageIntentRouter    Stage = "intent_router"
	StageContextBuilder  Stage = "context_builder"
	StageAgentExecutor   Stage = "agent_executor"
	StageAnswerGenerator Stage = "answer_generator"
)

// Stages is the fixed execution order.
var Stages = []Stage{
	StageRoleDetector,
	StageIntentRouter,
	StageContextBuilder,
	StageAgentExecutor,
	StageAnswerGenerator,
}

// State is the checkpointed per-turn state. It is never shared across
// turns; a resumed turn loads it from the checkpoint store by thread ID.
type State struct {
	ThreadID string `json:"thread_id"`
	TurnID   string `json:"turn_id"`
	UserID   string `json:"user_id"`

	Messages       []types.Message     `json:"messages"`
	Role           types.UserRole      `json:"role,omitempty"`
	RoleConfidence float64             `json:"role_confidence,omitempty"`
	Intent         *types.IntentResult `json:"intent,omitempty"`
	Context        *types.AgentContext `json:"context,omitempty"`
	AgentResult    *types.AgentResult  `json:"agent_result,omitempty"`
	// AgentName caches the routed responder so the answer stage can attach
	// its tools without re-routing.
	AgentName string `json:"agent_name,omitempty"`
	Answer    string `json:"answer,omitempty"`
	Error     string `json:"error,omitempty"`

	CompletedStages []Stage `json:"completed_stages,omitempty"`
}

// Patch is one node's partial contribution, merged into the state before
// the checkpoint is written. Messages append; scalars replace only when
// set; pointers replace only when non-nil.
type Patch struct {
	Messages       []types.Message
	Role           types.UserRole
	RoleConfidence float64
	Intent         *types.IntentResult
	Context        *types.AgentContext
	AgentResult    *types.AgentResult
	AgentName      string
	Answer         string
	Error          string
}

// Apply merges a patch into the state.
func (s *State) Apply(p Patch) {
	s.Messages = append(s.Messages, p.Messages...)
	if p.Role != "" {
		s.Role = p.Role
	}
	if p.RoleConfidence != 0 {
		s.RoleConfidence = p.RoleConfidence
	}
	if p.Intent != nil {
		s.Intent = p.Intent
	}
	if p.Context != nil {
		s.Context = p.Context
	}
	if p.AgentResult != nil {
		s.AgentResult = p.AgentResult
	}
	if p.AgentName != "" {
		s.AgentName = p.AgentName
	}
	if p.Answer != "" {
		s.Answer = p.Answer
	}
	if p.Error != "" {
		s.Error = p.Error
	}
}

// MarkCompleted records a stage as checkpointed.
func (s *State) MarkCompleted(stage Stage) {
	if s.HasCompleted(stage) {
		return
	}
	s.CompletedStages = append(s.CompletedStages, stage)
}

// HasCompleted reports whether the stage already ran, which a resumed turn
// uses to skip straight to the next pending stage.
func (s *State) HasCompleted(stage Stage) bool {
	for _, done := range s.CompletedStages {
		if done == stage {
			return true
		}
	}
	return false
}

// LastUserText returns the content of the most recent user message.
func (s *State) LastUserText() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == types.RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}
