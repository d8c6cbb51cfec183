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

type intentVocabulary struct {
	intent  string
	hint    string
	phrases []string
}

// Ordered slices keep the pattern fallback deterministic on tied scores.
var candidateIntents = []intentVocabulary{
	{types.IntentJobSearch, "User wants to find jobs",
		[]string{"find job", "search job", "looking for", "job opening", "position", "find me a", "remote"}},
	{types.IntentJobMatch, "User wants job recommendations based on their profile",
		[]string{"match", "suitable", "fit", "recommend job"}},
	{types.IntentCareerPath, "User wants career planning advice",
		[]string{"career path", "career plan", "career guidance", "career advice"}},
	{types.IntentSkillGap, "User wants to know what skills they need",
		[]string{"skill gap", "missing skills", "need to learn", "improve skills"}},
	{types.IntentInterviewPrep, "User wants interview preparation help",
		[]string{"interview", "mock interview", "prepare interview", "interview questions"}},
	{types.IntentCVReview, "User wants CV/resume feedback",
		[]string{"review cv", "cv feedback", "resume review", "improve cv"}},
	{types.IntentCompanyResearch, "User wants information about companies",
		[]string{"company info", "about company", "company culture", "company research"}},
	{types.IntentApplicationStatus, "User wants to check application status",
		[]string{"application status", "my application", "application update"}},
	{types.IntentLearningPath, "User wants learning resources",
		[]string{"learn", "course", "training", "tutorial", "study"}},
	{types.IntentComparison, "User wants to compare jobs/companies/offers",
		[]string{"compare", "difference between", "vs", "versus", "which is better"}},
	{types.IntentFAQ, "General questions",
		[]string{"what is", "how to", "explain", "tell me about"}},
}

var recruiterIntents = []intentVocabulary{
	{types.IntentCandidateSearch, "Recruiter wants to find candidates",
		[]string{"find candidates", "search candidates", "talent pool", "source candidates"}},
	{types.IntentCandidateScreening, "Recruiter wants to screen or score candidates",
		[]string{"screen", "shortlist", "score candidate", "evaluate candidate"}},
	{types.IntentJobPosting, "Recruiter wants to create or improve a job posting",
		[]string{"job posting", "post a job", "create job", "job description"}},
	{types.IntentInterviewQuestions, "Recruiter wants interview questions generated",
		[]string{"interview questions", "generate questions", "interview kit"}},
	{types.IntentTalentAnalytics, "Recruiter wants hiring metrics or pipeline analytics",
		[]string{"analytics", "hiring metrics", "pipeline report", "time to hire"}},
	{types.IntentFAQ, "General questions",
		[]string{"what is", "how to", "explain", "tell me about"}},
}

func intentsForRole(role types.UserRole) []intentVocabulary {
	if role == types.RoleRecruiter {
		return recruiterIntents
	}
	return candidateIntents
}

// IntentDetector classifies an utterance into an intent with extracted
// entities. The vocabulary is selected by the caller's role. Degrade chain:
// model call, then phrase matching, then a default FAQ result.
type IntentDetector struct {
	llm    llm.Client
	logger *zap.Logger
}

// NewIntentDetector creates an intent detector backed by the given model client.
func NewIntentDetector(client llm.Client, logger *zap.Logger) *IntentDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntentDetector{
		llm:    client,
		logger: logger.With(zap.String("component", "intent_detector")),
	}
}

// Detect classifies message under the role's intent vocabulary. It never
// returns an error to its caller.
func (d *IntentDetector) Detect(ctx context.Context, role types.UserRole, message string, history []types.Message) types.IntentResult {
	vocab := intentsForRole(role)

	result, err := d.detectWithModel(ctx, vocab, message, history)
	if err == nil {
		result.ClampClarification()
		return result
	}
	d.logger.Warn("model intent classification failed, falling back to phrase matching",
		zap.String("role", string(role)), zap.Error(err))

	if match, ok := matchIntentPhrases(vocab, message); ok {
		match.ClampClarification()
		return match
	}

	return types.IntentResult{
		Intent:                types.IntentFAQ,
		Entities:              map[string]any{},
		Confidence:            0.3,
		RequiresClarification: true,
	}
}

func matchIntentPhrases(vocab []intentVocabulary, message string) (types.IntentResult, bool) {
	lower := strings.ToLower(message)

	best := ""
	bestConfidence := 0.0
	for _, v := range vocab {
		matches := countPhraseMatches(lower, v.phrases)
		if matches == 0 {
			continue
		}
		confidence := phraseConfidence(0.5, matches)
		if confidence > bestConfidence {
			best = v.intent
			bestConfidence = confidence
		}
	}
	if best == "" {
		return types.IntentResult{}, false
	}

	return types.IntentResult{
		Intent:                best,
		Entities:              ExtractEntities(message),
		Confidence:            bestConfidence,
		RequiresClarification: bestConfidence < 0.7,
	}, true
}

func (d *IntentDetector) detectWithModel(ctx context.Context, vocab []intentVocabulary, message string, history []types.Message) (types.IntentResult, error) {
	var sb strings.Builder
	sb.WriteString("You are an intent classifier for a career assistant AI system.\n")
	sb.WriteString("Analyze the user's message and classify it into one of these intents:\n")
	for _, v := range vocab {
		fmt.Fprintf(&sb, "- %s: %s\n", v.intent, v.hint)
	}
	sb.WriteString("\nAlso extract relevant entities like: job titles, skills, companies, locations, etc.\n")
	sb.WriteString("\nReturn strict JSON with: { \"intent\", \"entities\": {}, \"confidence\": 0.0-1.0, \"requiresClarification\": boolean }")

	prompt := fmt.Sprintf("User message: %q", message)
	if tail := formatHistory(history, 5); tail != "" {
		prompt += "\n\nRecent conversation:\n" + tail
	}
	prompt += "\n\nClassify the intent and extract entities."

	resp, err := d.llm.Chat(ctx, []types.Message{
		types.NewSystemMessage(sb.String()),
		types.NewUserMessage(prompt),
	}, llm.ChatOptions{Temperature: 0.3, MaxTokens: 512})
	if err != nil {
		return types.IntentResult{}, err
	}

	var parsed types.IntentResult
	if err := json.Unmarshal([]byte(stripCodeFences(resp.Content)), &parsed); err != nil {
		return types.IntentResult{}, fmt.Errorf("failed to parse intent response: %w", err)
	}
	if parsed.Intent == "" {
		parsed.Intent = types.IntentFAQ
	}
	if parsed.Entities == nil {
		parsed.Entities = map[string]any{}
	}
	if parsed.Confidence <= 0 {
		parsed.Confidence = 0.7
	}
	return parsed, nil
}
