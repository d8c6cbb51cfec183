package classify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectcareer/careerflow/testutil"
	"github.com/connectcareer/careerflow/types"
)

func TestRoleDetector_ProfileShortCircuit(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM()
	detector := NewRoleDetector(stub, nil)

	result := detector.Detect(testutil.TestContext(t), "hello", nil, &Profile{Role: types.RoleRecruiter})
	assert.Equal(t, types.RoleRecruiter, result.Role)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Empty(t, stub.Calls(), "profile role must not trigger a model call")
}

func TestRoleDetector_PhraseMatchShortCircuit(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM()
	detector := NewRoleDetector(stub, nil)

	// Three candidate phrases: "looking for job", "my cv", "job".
	result := detector.Detect(testutil.TestContext(t), "I am looking for job openings and want to improve my cv", nil, nil)
	assert.Equal(t, types.RoleCandidate, result.Role)
	assert.Greater(t, result.Confidence, 0.8)
	assert.Empty(t, stub.Calls())
}

func TestRoleDetector_PhraseConfidenceCapped(t *testing.T) {
	t.Parallel()

	msg := "hire recruit candidate shortlist talent pool post a job find candidates compare candidates score candidate"
	result, ok := matchRolePhrases(msg)
	require.True(t, ok)
	assert.Equal(t, types.RoleRecruiter, result.Role)
	assert.Equal(t, 0.9, result.Confidence)
}

func TestRoleDetector_ModelFallback(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM().
		QueueResponse(`{"role":"recruiter","confidence":0.85,"reasoning":"mentions hiring budget"}`)
	detector := NewRoleDetector(stub, nil)

	result := detector.Detect(testutil.TestContext(t), "what should our budget be this quarter", nil, nil)
	assert.Equal(t, types.RoleRecruiter, result.Role)
	assert.Equal(t, 0.85, result.Confidence)
	require.Len(t, stub.Calls(), 1)
}

func TestRoleDetector_ModelParseFailureDefaultsToCandidate(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM().QueueResponse("I think they are a recruiter")
	detector := NewRoleDetector(stub, nil)

	result := detector.Detect(testutil.TestContext(t), "what should our budget be this quarter", nil, nil)
	assert.Equal(t, types.RoleCandidate, result.Role)
	assert.Equal(t, 0.5, result.Confidence)
}

func TestRoleDetector_WeakPhraseMatchBeatsDefaultOnModelFailure(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM().QueueError(errors.New("model unavailable"))
	detector := NewRoleDetector(stub, nil)

	// Single keyword "job" scores 0.7, below the short-circuit threshold.
	result := detector.Detect(testutil.TestContext(t), "find me a remote backend job", nil, nil)
	assert.Equal(t, types.RoleCandidate, result.Role)
	assert.InDelta(t, 0.7, result.Confidence, 1e-9)
}

func TestRoleDetector_FencedModelOutputParses(t *testing.T) {
	t.Parallel()

	stub := testutil.NewStubLLM().
		QueueResponse("```json\n{\"role\":\"candidate\",\"confidence\":0.9}\n```")
	detector := NewRoleDetector(stub, nil)

	result := detector.Detect(testutil.TestContext(t), "something ambiguous", nil, nil)
	assert.Equal(t, types.RoleCandidate, result.Role)
	assert.Equal(t, 0.9, result.Confidence)
}
