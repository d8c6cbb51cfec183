package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_InitialLoad(t *testing.T) {
	path := writeConfigFile(t, "server:\n  http_port: 9100\n")

	w, err := NewWatcher(NewLoader(), path, time.Minute, nil)
	require.NoError(t, err)
	assert.Equal(t, 9100, w.Current().Server.HTTPPort)
}

func TestWatcher_PollPicksUpChanges(t *testing.T) {
	path := writeConfigFile(t, "server:\n  http_port: 9100\n")

	w, err := NewWatcher(NewLoader(), path, time.Minute, nil)
	require.NoError(t, err)

	var reloaded *Config
	w.OnReload(func(cfg *Config) { reloaded = cfg })

	// Backdate the recorded mod time so the rewrite is seen as newer even
	// on coarse filesystem clocks.
	w.lastMod = w.lastMod.Add(-time.Minute)
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 9200\n"), 0o644))

	w.poll()

	assert.Equal(t, 9200, w.Current().Server.HTTPPort)
	require.NotNil(t, reloaded)
	assert.Equal(t, 9200, reloaded.Server.HTTPPort)
}

func TestWatcher_BadReloadKeepsPreviousConfig(t *testing.T) {
	path := writeConfigFile(t, "server:\n  http_port: 9100\n")

	w, err := NewWatcher(NewLoader().WithValidator((*Config).Validate), path, time.Minute, nil)
	require.NoError(t, err)

	w.lastMod = w.lastMod.Add(-time.Minute)
	require.NoError(t, os.WriteFile(path, []byte("checkpoint:\n  backend: cassandra\n"), 0o644))

	w.poll()

	assert.Equal(t, 9100, w.Current().Server.HTTPPort)
	assert.Equal(t, "memory", w.Current().Checkpoint.Backend)
}
