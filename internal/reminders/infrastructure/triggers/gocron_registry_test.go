package triggers

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
)

func newTestRegistry(t *testing.T) *GocronRegistry {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC))
	registry, err := NewGocronRegistry(clock, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Shutdown() })
	return registry
}

func TestGocronRegistry_ReplaceInstallsGivenSet(t *testing.T) {
	registry := newTestRegistry(t)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	specs := []domain.TriggerSpec{
		{Name: "reminder_a", FireAt: base},
		{Name: "reminder_b", FireAt: base.Add(time.Hour)},
		{Name: domain.AnnouncementTriggerName, FireAt: base, Period: time.Hour},
	}
	require.NoError(t, registry.Replace(context.Background(), specs))

	assert.ElementsMatch(t,
		[]string{"reminder_a", "reminder_b", domain.AnnouncementTriggerName},
		registry.JobNames(),
	)
}

func TestGocronRegistry_ReplaceWipesPreviousSet(t *testing.T) {
	registry := newTestRegistry(t)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, registry.Replace(context.Background(), []domain.TriggerSpec{
		{Name: "reminder_old", FireAt: base},
	}))
	require.NoError(t, registry.Replace(context.Background(), []domain.TriggerSpec{
		{Name: "reminder_new", FireAt: base.Add(time.Minute)},
	}))

	assert.Equal(t, []string{"reminder_new"}, registry.JobNames())
}

func TestGocronRegistry_ReplaceWithEmptySetClearsTable(t *testing.T) {
	registry := newTestRegistry(t)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, registry.Replace(context.Background(), []domain.TriggerSpec{
		{Name: "reminder_a", FireAt: base},
		{Name: "reminder_b", FireAt: base},
	}))
	require.NoError(t, registry.Replace(context.Background(), nil))

	assert.Empty(t, registry.JobNames())
}

func TestGocronRegistry_FiresBoundHandler(t *testing.T) {
	registry, err := NewGocronRegistry(clockwork.NewRealClock(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Shutdown() })

	fired := make(chan string, 1)
	registry.BindFire(func(_ context.Context, name string) {
		select {
		case fired <- name:
		default:
		}
	})

	require.NoError(t, registry.Replace(context.Background(), []domain.TriggerSpec{
		{Name: "reminder_soon", FireAt: time.Now().Add(20 * time.Millisecond)},
	}))
	registry.Start()

	select {
	case name := <-fired:
		assert.Equal(t, "reminder_soon", name)
	case <-time.After(2 * time.Second):
		t.Fatal("trigger did not fire")
	}
}
