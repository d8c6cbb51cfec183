// Package testutil provides shared helpers for tests: bounded contexts and
// a scripted language-model stub.
package testutil

import (
	"context"
	"testing"
	"time"
)

// TestContext returns a context bounded by a generous timeout, cancelled on
// test cleanup.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext returns an already-cancelled context.
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
