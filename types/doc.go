/*
Package types provides the shared type contracts of the careerflow engine.

types is the lowest-level package and depends on no other careerflow
package, so every upper module (classify, agent, workflow, pipeline,
stream, chat) can import it without circular imports.

Core types:

  - Message             — conversation message (role, content, timestamp)
  - AgentContext        — immutable per-turn execution context handed to agents
  - AgentResult         — result of a single agent invocation
  - RoleResult          — user role classification output
  - IntentResult        — intent classification output with entities
  - Task / WorkflowState — units owned by the workflow engine
  - Error / ErrorKind   — structured errors with the turn-level taxonomy
  - RetryDecision       — manual retry eligibility under the attempt ceiling

Context propagation helpers (WithTraceID, WithUserID, ...) follow the
same pattern for values that must travel with a turn.
*/
package types
