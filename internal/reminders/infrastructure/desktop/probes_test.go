package desktop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandProbes_ExitStatusMapsToSignal(t *testing.T) {
	probes := NewCommandProbes(ProbeCommands{
		Locked:     "true",
		Audible:    "false",
		Fullscreen: "",
	}, time.Second)
	ctx := context.Background()

	locked, err := probes.IsLocked(ctx)
	require.NoError(t, err)
	assert.True(t, locked, "exit 0 means active")

	audible, err := probes.HasAudiblePlayback(ctx)
	require.NoError(t, err)
	assert.False(t, audible, "nonzero exit means inactive")

	fullscreen, err := probes.HasFullscreenWindow(ctx)
	require.NoError(t, err)
	assert.False(t, fullscreen, "unconfigured probe is inactive")
}

func TestCommandProbes_MissingBinaryErrors(t *testing.T) {
	probes := NewCommandProbes(ProbeCommands{
		Locked: "deskbell-no-such-binary-xyz",
	}, time.Second)

	_, err := probes.IsLocked(context.Background())
	assert.Error(t, err)
}

func TestCommandProbes_TimeoutErrors(t *testing.T) {
	probes := NewCommandProbes(ProbeCommands{
		Locked: "sleep 10",
	}, 50*time.Millisecond)

	start := time.Now()
	_, err := probes.IsLocked(context.Background())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
