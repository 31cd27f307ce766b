package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmstoolbox/deskbell/pkg/config"
)

func TestReminderCommand_OpensStoreLazily(t *testing.T) {
	opens := 0
	provider := AppProvider(func(ctx context.Context) (*App, error) {
		opens++
		return NewApp(ctx, &config.Config{
			DatabasePath: ":memory:",
			ListenAddr:   "127.0.0.1:0",
		}, nil)
	})

	cmd := NewReminderCommand(provider)
	assert.Zero(t, opens, "building the command group must not open the store")

	cmd.SetArgs([]string{"list"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, 1, opens)
}

func TestParseReminderTime(t *testing.T) {
	t.Run("rfc3339 passes through", func(t *testing.T) {
		got, err := parseReminderTime("2026-09-01T07:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC), got.UTC())
	})

	t.Run("bare clock resolves to the future", func(t *testing.T) {
		got, err := parseReminderTime("15:04")
		require.NoError(t, err)
		assert.True(t, got.After(time.Now()))
		assert.Equal(t, 15, got.Hour())
		assert.Equal(t, 4, got.Minute())
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := parseReminderTime("half past nine")
		assert.Error(t, err)
	})
}
