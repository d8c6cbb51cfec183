// Package agent defines the responder contract, the shared responder base,
// and the capability router that picks a responder for a classified intent.
package agent

import (
	"context"

	"github.com/connectcareer/careerflow/types"
)

// Agent is a responder: a named unit that handles a family of intents.
// Implementations must be safe for concurrent use; the router shares one
// instance across turns.
type Agent interface {
	// Name is the registry key; unique per registry.
	Name() string

	// Description is a one-line summary used in workflow decomposition
	// prompts.
	Description() string

	// Capabilities lists the intent strings this agent is best at. A
	// literal capability match earns a routing bonus.
	Capabilities() []string

	// Execute handles one turn. Failures are returned as an unsuccessful
	// result where possible; an error return means the agent could not
	// produce a result at all.
	Execute(ctx context.Context, agentCtx types.AgentContext) (*types.AgentResult, error)

	// CanHandle reports whether the agent accepts the intent. Consulted
	// before Execute, always.
	CanHandle(intent string, entities map[string]any) bool

	// Tools lists the tool schemas the agent exposes for tool-augmented
	// generation.
	Tools() []types.ToolSchema

	// RequiredMemory lists the memory categories the agent wants present
	// in the context.
	RequiredMemory() []types.MemoryCategory
}
