package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError_OrderedChecks(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"timeout", errors.New("context deadline exceeded"), ErrKindTimeout},
		{"upstream timeout", errors.New("upstream timeout calling provider"), ErrKindTimeout},
		{"model", errors.New("model returned malformed output"), ErrKindModelFailure},
		{"llm", errors.New("llm call rejected"), ErrKindModelFailure},
		{"invalid", errors.New("invalid session id"), ErrKindDomainError},
		{"filtered", errors.New("content filter triggered"), ErrKindDomainError},
		{"not found", errors.New("agent not found"), ErrKindDomainError},
		{"fallthrough", errors.New("connection reset by peer"), ErrKindSystemError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ClassifyError(tc.err))
		})
	}
}

func TestClassifyError_TimeoutWinsOverModel(t *testing.T) {
	t.Parallel()
	// Ordered checks: timeout is tested before model/llm.
	assert.Equal(t, ErrKindTimeout, ClassifyError(errors.New("model call timeout")))
}

func TestClassifyError_KeepsStructuredKind(t *testing.T) {
	t.Parallel()
	err := NewError(ErrKindDomainError, "timeout mentioned but already classified")
	assert.Equal(t, ErrKindDomainError, ClassifyError(err))
}

func TestDecideRetry_Ceiling(t *testing.T) {
	t.Parallel()

	d := DecideRetry(ErrKindSystemError, 0)
	assert.True(t, d.NeedsRetry)
	assert.False(t, d.ReachRetryAttemptLimit)

	d = DecideRetry(ErrKindSystemError, MaxManualRetryAttempts)
	assert.False(t, d.NeedsRetry)
	assert.True(t, d.ReachRetryAttemptLimit)
}

func TestDecideRetry_OnlySystemErrorRetries(t *testing.T) {
	t.Parallel()

	for _, kind := range []ErrorKind{ErrKindTimeout, ErrKindModelFailure, ErrKindDomainError} {
		d := DecideRetry(kind, 0)
		assert.False(t, d.NeedsRetry, "kind %s must not retry", kind)
	}
}

func TestError_UnwrapAndFormat(t *testing.T) {
	t.Parallel()

	cause := errors.New("socket closed")
	err := NewError(ErrKindSystemError, "agent execution failed").WithCause(cause).WithAgent("JobDiscoveryAgent")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "SYSTEM_ERROR")
	assert.Contains(t, err.Error(), "socket closed")
}

func TestIntentResult_ClampClarification(t *testing.T) {
	t.Parallel()

	r := IntentResult{Intent: IntentJobSearch, Confidence: 0.6}
	r.ClampClarification()
	assert.True(t, r.RequiresClarification)

	r = IntentResult{Intent: IntentJobSearch, Confidence: 0.8}
	r.ClampClarification()
	assert.False(t, r.RequiresClarification)
}
