// Package classify labels conversation turns: the persona behind a message
// and the intent it expresses. Both classifiers degrade through pattern
// matching to safe defaults and never return an error to the caller.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/llm"
	"github.com/connectcareer/careerflow/types"
)

// Profile carries what is already known about the user before classification.
type Profile struct {
	Role types.UserRole
}

var candidatePhrases = []string{
	"find job",
	"looking for job",
	"apply for",
	"my cv",
	"my resume",
	"job search",
	"career advice",
	"interview prep",
	"application status",
	"match me with jobs",
	"show me jobs",
	"career path",
	"skill gap",
	"improve my cv",
	"job",
}

var recruiterPhrases = []string{
	"hire",
	"recruit",
	"candidate",
	"job posting",
	"job description",
	"screen candidate",
	"shortlist",
	"talent pool",
	"create job",
	"post a job",
	"find candidates",
	"compare candidates",
	"score candidate",
	"generate interview questions",
}

// RoleDetector classifies the persona behind a message. Explicit profile
// roles short-circuit; otherwise phrase matching decides, with a model call
// as the tie-breaker.
type RoleDetector struct {
	llm    llm.Client
	logger *zap.Logger
}

// NewRoleDetector creates a role detector backed by the given model client.
func NewRoleDetector(client llm.Client, logger *zap.Logger) *RoleDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleDetector{
		llm:    client,
		logger: logger.With(zap.String("component", "role_detector")),
	}
}

// Detect classifies message into candidate or recruiter. It never returns
// an error: every failure path degrades to candidate with low confidence.
func (d *RoleDetector) Detect(ctx context.Context, message string, history []types.Message, profile *Profile) types.RoleResult {
	if profile != nil && profile.Role != "" {
		return types.RoleResult{Role: profile.Role, Confidence: 1.0}
	}

	match, matched := matchRolePhrases(message)
	if matched && match.Confidence > 0.8 {
		return match
	}

	fallback := types.RoleResult{Role: types.RoleCandidate, Confidence: 0.5}
	if matched {
		// A weak phrase match still beats the blind default when the
		// model path fails.
		fallback = match
	}
	return d.detectWithModel(ctx, message, history, fallback)
}

func matchRolePhrases(message string) (types.RoleResult, bool) {
	lower := strings.ToLower(message)

	candidateMatches := countPhraseMatches(lower, candidatePhrases)
	recruiterMatches := countPhraseMatches(lower, recruiterPhrases)

	if candidateMatches > recruiterMatches && candidateMatches > 0 {
		return types.RoleResult{
			Role:       types.RoleCandidate,
			Confidence: phraseConfidence(0.6, candidateMatches),
		}, true
	}
	if recruiterMatches > candidateMatches && recruiterMatches > 0 {
		return types.RoleResult{
			Role:       types.RoleRecruiter,
			Confidence: phraseConfidence(0.6, recruiterMatches),
		}, true
	}
	return types.RoleResult{}, false
}

func countPhraseMatches(lower string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			n++
		}
	}
	return n
}

func phraseConfidence(base float64, matches int) float64 {
	c := base + 0.1*float64(matches)
	if c > 0.9 {
		return 0.9
	}
	return c
}

const roleSystemPrompt = `You are a role classifier for a career assistant AI system.
Analyze the user's message and determine if they are a:
- candidate: Someone looking for jobs, career advice, or job-related help
- recruiter: Someone hiring, managing job postings, or screening candidates

Return JSON with: { "role": "candidate" | "recruiter", "confidence": 0.0-1.0, "reasoning": "brief explanation" }`

func (d *RoleDetector) detectWithModel(ctx context.Context, message string, history []types.Message, fallback types.RoleResult) types.RoleResult {
	prompt := fmt.Sprintf("User message: %q", message)
	if tail := formatHistory(history, 3); tail != "" {
		prompt += "\n\nRecent conversation:\n" + tail
	}
	prompt += "\n\nClassify the user's role."

	resp, err := d.llm.Chat(ctx, []types.Message{
		types.NewSystemMessage(roleSystemPrompt),
		types.NewUserMessage(prompt),
	}, llm.ChatOptions{Temperature: 0.2, MaxTokens: 256})
	if err != nil {
		d.logger.Warn("model role classification failed, defaulting to candidate", zap.Error(err))
		return fallback
	}

	var parsed types.RoleResult
	if err := json.Unmarshal([]byte(stripCodeFences(resp.Content)), &parsed); err != nil {
		d.logger.Warn("failed to parse model role response, defaulting to candidate", zap.Error(err))
		return fallback
	}
	if parsed.Role != types.RoleCandidate && parsed.Role != types.RoleRecruiter {
		return fallback
	}
	if parsed.Confidence <= 0 {
		parsed.Confidence = 0.7
	}
	return parsed
}

func formatHistory(history []types.Message, tail int) string {
	if len(history) > tail {
		history = history[len(history)-tail:]
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}

// stripCodeFences removes a leading/trailing markdown code fence so that
// fenced model output still parses as JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
