package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/llm"
	"github.com/connectcareer/careerflow/types"
)

// JobDiscovery finds and recommends jobs matching the user's stated
// criteria.
type JobDiscovery struct {
	Base
}

// NewJobDiscovery creates the job discovery agent.
func NewJobDiscovery(client llm.Client, logger *zap.Logger) *JobDiscovery {
	return &JobDiscovery{
		Base: NewBase(
			"job_discovery",
			"Discovers and recommends jobs based on user preferences and skills",
			[]string{types.IntentJobSearch, "job_discovery", "find_jobs"},
			client, logger,
		),
	}
}

// Execute implements Agent.
func (a *JobDiscovery) Execute(ctx context.Context, agentCtx types.AgentContext) (*types.AgentResult, error) {
	criteria := searchCriteria(agentCtx)

	prompt := fmt.Sprintf(`Based on the user's search criteria, provide personalized job recommendations.

Search criteria: %s
User context: %s

Provide:
1. Top 3 recommended jobs with reasons
2. Skills gap analysis if applicable
3. Suggestions for improving the job search`,
		mustJSON(criteria), mustJSON(agentCtx.Entities))

	recommendations, err := a.callLLM(ctx, prompt, CallOptions{
		SystemPrompt: "You are a career advisor helping users find the best job matches.",
	})
	if err != nil {
		return a.errorResult("Failed to discover jobs.", err), nil
	}

	return a.successResult(
		map[string]any{"criteria": criteria, "recommendations": recommendations},
		recommendations,
		"View job details", "Refine search criteria", "Get skill gap analysis",
	), nil
}

// CanHandle implements Agent.
func (a *JobDiscovery) CanHandle(intent string, entities map[string]any) bool {
	switch intent {
	case types.IntentJobSearch, "find_jobs", "job_discovery":
		return true
	}
	return strings.Contains(intent, "job") && strings.Contains(intent, "search")
}

// Tools implements Agent.
func (a *JobDiscovery) Tools() []types.ToolSchema {
	return []types.ToolSchema{
		{Name: "search_jobs", Description: "Search job listings by query, location, and skills"},
		{Name: "get_job_details", Description: "Fetch the full description of a job listing"},
	}
}

// RequiredMemory implements Agent.
func (a *JobDiscovery) RequiredMemory() []types.MemoryCategory {
	return []types.MemoryCategory{types.MemoryEpisodic, types.MemorySemantic}
}

func searchCriteria(agentCtx types.AgentContext) map[string]any {
	criteria := map[string]any{"query": agentCtx.Task, "limit": 10}
	for _, key := range []string{"query", "jobTitles", "location", "workMode", "skills"} {
		if v, ok := agentCtx.Entities[key]; ok {
			criteria[key] = v
		}
	}
	return criteria
}

// JobMatching scores jobs against the user's profile rather than searching
// broadly.
type JobMatching struct {
	Base
}

// NewJobMatching creates the job matching agent.
func NewJobMatching(client llm.Client, logger *zap.Logger) *JobMatching {
	return &JobMatching{
		Base: NewBase(
			"job_matching",
			"Matches jobs to the user's profile and explains fit",
			[]string{types.IntentJobMatch, "profile_match"},
			client, logger,
		),
	}
}

// Execute implements Agent.
func (a *JobMatching) Execute(ctx context.Context, agentCtx types.AgentContext) (*types.AgentResult, error) {
	profile := agentCtx.Memory[types.MemorySemantic]

	prompt := fmt.Sprintf(`Match the user against suitable roles and explain the fit.

Request: %s
Entities: %s
Known profile facts: %s

Provide a ranked list of matching roles with a fit score (0-100) and the
top reasons for each, plus what would raise weaker scores.`,
		agentCtx.Task, mustJSON(agentCtx.Entities), mustJSON(profile))

	analysis, err := a.callLLM(ctx, prompt, CallOptions{
		SystemPrompt: "You are a job matching specialist scoring fit between people and roles.",
	})
	if err != nil {
		return a.errorResult("Failed to match jobs.", err), nil
	}

	return a.successResult(
		map[string]any{"matches": analysis},
		analysis,
		"Apply to a matched role", "Improve profile for better matches",
	), nil
}

// CanHandle implements Agent.
func (a *JobMatching) CanHandle(intent string, entities map[string]any) bool {
	return intent == types.IntentJobMatch || intent == "profile_match"
}

// Tools implements Agent.
func (a *JobMatching) Tools() []types.ToolSchema {
	return []types.ToolSchema{
		{Name: "score_job_fit", Description: "Score a job listing against the user profile"},
	}
}

// RequiredMemory implements Agent.
func (a *JobMatching) RequiredMemory() []types.MemoryCategory {
	return []types.MemoryCategory{types.MemorySemantic}
}

func mustJSON(v any) string {
	if v == nil {
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
