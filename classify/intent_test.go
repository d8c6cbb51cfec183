package classify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectcareer/careerflow/testutil"
	"github.com/connectcareer/careerflow/types"
)

func TestIntentDetector_ModelPath(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM().
		QueueResponse(`{"intent":"job_search","entities":{"workMode":"remote"},"confidence":0.92,"requiresClarification":false}`)
	detector := NewIntentDetector(stub, nil)

	result := detector.Detect(testutil.TestContext(t), types.RoleCandidate, "find me a remote backend job", nil)
	assert.Equal(t, types.IntentJobSearch, result.Intent)
	assert.Equal(t, 0.92, result.Confidence)
	assert.False(t, result.RequiresClarification)
	assert.Equal(t, "remote", result.Entities["workMode"])
}

func TestIntentDetector_ModelFailureFallsBackToPhrases(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM().QueueError(errors.New("model unavailable"))
	detector := NewIntentDetector(stub, nil)

	result := detector.Detect(testutil.TestContext(t), types.RoleCandidate, "review cv and give cv feedback please", nil)
	assert.Equal(t, types.IntentCVReview, result.Intent)
	// Two phrase matches: 0.5 + 2*0.1.
	assert.InDelta(t, 0.7, result.Confidence, 1e-9)
	assert.False(t, result.RequiresClarification)
}

func TestIntentDetector_NoPhraseMatchDefaultsToFAQ(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM().QueueError(errors.New("model unavailable"))
	detector := NewIntentDetector(stub, nil)

	result := detector.Detect(testutil.TestContext(t), types.RoleCandidate, "zzz qqq", nil)
	assert.Equal(t, types.IntentFAQ, result.Intent)
	assert.Equal(t, 0.3, result.Confidence)
	assert.True(t, result.RequiresClarification)
	assert.NotNil(t, result.Entities)
}

func TestIntentDetector_LowConfidenceForcesClarification(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM().
		QueueResponse(`{"intent":"career_path","entities":{},"confidence":0.55,"requiresClarification":false}`)
	detector := NewIntentDetector(stub, nil)

	result := detector.Detect(testutil.TestContext(t), types.RoleCandidate, "not sure what to do next", nil)
	assert.Equal(t, types.IntentCareerPath, result.Intent)
	assert.True(t, result.RequiresClarification)
}

func TestIntentDetector_RoleSelectsVocabulary(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM().QueueError(errors.New("down")).QueueError(errors.New("down"))
	detector := NewIntentDetector(stub, nil)
	ctx := testutil.TestContext(t)

	// "shortlist" and "evaluate candidate" both hit the screening vocabulary.
	asRecruiter := detector.Detect(ctx, types.RoleRecruiter, "help me shortlist and evaluate candidates from the talent pool", nil)
	assert.Equal(t, types.IntentCandidateScreening, asRecruiter.Intent)

	asCandidate := detector.Detect(ctx, types.RoleCandidate, "help me shortlist and evaluate candidates from the talent pool", nil)
	assert.NotContains(t, []string{
		types.IntentCandidateSearch,
		types.IntentCandidateScreening,
		types.IntentJobPosting,
		types.IntentInterviewQuestions,
		types.IntentTalentAnalytics,
	}, asCandidate.Intent)
}

func TestIntentDetector_FencedModelOutputParses(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM().
		QueueResponse("```json\n{\"intent\":\"interview_prep\",\"entities\":{},\"confidence\":0.8}\n```")
	detector := NewIntentDetector(stub, nil)

	result := detector.Detect(testutil.TestContext(t), types.RoleCandidate, "mock interview tomorrow", nil)
	assert.Equal(t, types.IntentInterviewPrep, result.Intent)
}

func TestIntentDetector_NeverRaises(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM().QueueResponse("not json at all")
	detector := NewIntentDetector(stub, nil)

	result := detector.Detect(testutil.TestContext(t), types.RoleCandidate, "tell me about your service", nil)
	require.NotEmpty(t, result.Intent)
	assert.Equal(t, types.IntentFAQ, result.Intent)
}

func TestExtractEntities(t *testing.T) {
	t.Parallel()

	entities := ExtractEntities("I am a senior software engineer looking for remote Go and Kubernetes work")
	assert.Equal(t, "remote", entities["workMode"])
	assert.Contains(t, entities["skills"], "go")
	assert.Contains(t, entities["skills"], "kubernetes")
	titles, ok := entities["jobTitles"].([]string)
	require.True(t, ok)
	assert.Contains(t, titles, "senior software engineer")
}
