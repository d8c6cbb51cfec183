package agent

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/types"
)

// OrchestratorName is the registry key of the general-purpose fallback
// agent consulted when no registered agent accepts an intent.
const OrchestratorName = "orchestrator"

// Router holds the name-to-agent registry and selects a responder per
// intent with a deterministic capability score. The registry is populated
// once at startup and read-mostly afterwards.
type Router struct {
	mu     sync.RWMutex
	agents map[string]Agent
	order  []string // registration order, breaks score ties
	logger *zap.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		agents: make(map[string]Agent),
		logger: logger.With(zap.String("component", "agent_router")),
	}
}

// Register adds an agent to the registry. Re-registering a name replaces
// the agent but keeps its original position in tie-break order.
func (r *Router) Register(a Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[a.Name()]; !exists {
		r.order = append(r.order, a.Name())
	}
	r.agents[a.Name()] = a
	r.logger.Info("registered agent", zap.String("name", a.Name()))
}

// Get returns the agent registered under name.
func (r *Router) Get(name string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	return a, ok
}

// Agents returns all registered agents in registration order.
func (r *Router) Agents() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Agent, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.agents[name])
	}
	return out
}

// Route selects the best agent for the intent. Candidates are the agents
// whose CanHandle accepts the intent; the highest score wins, first
// registration winning ties. With no candidates the orchestrator is
// returned when registered, otherwise an error.
//
// Deterministic: identical registry state and inputs always select the
// same agent.
func (r *Router) Route(intent string, agentCtx types.AgentContext) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best      Agent
		bestScore float64
	)
	for _, name := range r.order {
		a := r.agents[name]
		if !a.CanHandle(intent, agentCtx.Entities) {
			continue
		}
		score := scoreAgent(a, intent, agentCtx)
		if best == nil || score > bestScore {
			best = a
			bestScore = score
		}
	}

	if best == nil {
		if orchestrator, ok := r.agents[OrchestratorName]; ok {
			r.logger.Info("no agent accepted intent, falling back to orchestrator",
				zap.String("intent", intent))
			return orchestrator, nil
		}
		return nil, fmt.Errorf("no agent found to handle intent: %s", intent)
	}

	r.logger.Info("routed intent",
		zap.String("intent", intent),
		zap.String("agent", best.Name()),
		zap.Float64("score", bestScore))
	return best, nil
}

// scoreAgent computes the routing score: base 0.5, +0.3 for a literal
// capability match, +0.1 for declaring at least one tool, +0.1 when all
// required memory categories are present, clamped to 1.0.
func scoreAgent(a Agent, intent string, agentCtx types.AgentContext) float64 {
	score := 0.5

	for _, capability := range a.Capabilities() {
		if capability == intent {
			score += 0.3
			break
		}
	}

	if len(a.Tools()) > 0 {
		score += 0.1
	}

	if required := a.RequiredMemory(); len(required) > 0 && agentCtx.Memory != nil {
		hasAll := true
		for _, category := range required {
			if !agentCtx.HasMemory(category) {
				hasAll = false
				break
			}
		}
		if hasAll {
			score += 0.1
		}
	}

	if score > 1.0 {
		return 1.0
	}
	return score
}
