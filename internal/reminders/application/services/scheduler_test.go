package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmstoolbox/deskbell/internal/reminders/application/services"
	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
)

func TestScheduler_Resync_Idempotent(t *testing.T) {
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	settings := domain.DefaultSettings()
	settings.Reminders = []domain.Entry{
		mustEntry(t, "a", now.Add(time.Hour), domain.KindOnce),
		mustEntry(t, "b", now.Add(-48*time.Hour), domain.KindDaily),
	}

	store := newFakeStore(settings)
	registry := &fakeRegistry{}
	publisher := &recordingPublisher{}
	sched := services.NewScheduler(store, registry, publisher, clock, nil)

	require.NoError(t, sched.Resync(context.Background()))
	require.NoError(t, sched.Resync(context.Background()))

	require.Equal(t, 2, registry.replaceCount())
	assert.Equal(t, registry.calls[0], registry.calls[1],
		"two passes with no store mutation produce the same trigger set")
}

func TestScheduler_Resync_FiltersExpiredOneShots(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	fresh := mustEntry(t, "fresh", now.Add(-9*time.Minute), domain.KindOnce)
	stale := mustEntry(t, "stale", now.Add(-11*time.Minute), domain.KindOnce)
	daily := mustEntry(t, "daily", now.Add(-48*time.Hour), domain.KindDaily)

	settings := domain.DefaultSettings()
	settings.Reminders = []domain.Entry{fresh, stale, daily}

	store := newFakeStore(settings)
	registry := &fakeRegistry{}
	publisher := &recordingPublisher{}
	sched := services.NewScheduler(store, registry, publisher, clock, nil)

	require.NoError(t, sched.Resync(context.Background()))

	// The stale one-shot is gone from the store; the daily entry survives
	// despite being two days old.
	remaining := store.current().Reminders
	require.Len(t, remaining, 2)
	_, ok := store.current().FindReminder(stale.ID)
	assert.False(t, ok)

	// The filtered list was broadcast.
	changed := decodeLast[domain.RemindersChanged](t, publisher.byKey(domain.RoutingKeyRemindersChanged))
	assert.Len(t, changed.Reminders, 2)

	// No trigger exists for the expired entry.
	for _, spec := range registry.lastSpecs(t) {
		assert.NotEqual(t, domain.ReminderTriggerName(stale.ID), spec.Name)
	}
}

func TestScheduler_Resync_PersistsMergedDefaults(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC))

	store := newFakeStore(domain.DefaultSettings())
	store.merged = true

	sched := services.NewScheduler(store, &fakeRegistry{}, &recordingPublisher{}, clock, nil)
	require.NoError(t, sched.Resync(context.Background()))

	assert.GreaterOrEqual(t, store.saves(), 1, "merged defaults are written back")
}

func TestScheduler_Resync_RegistryErrorIsReturnedNotRetried(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC))

	store := newFakeStore(domain.DefaultSettings())
	registry := &fakeRegistry{err: errors.New("platform trigger failure")}
	sched := services.NewScheduler(store, registry, &recordingPublisher{}, clock, nil)

	err := sched.Resync(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, registry.replaceCount())
}

func TestScheduler_Resync_NoExpiryNoBroadcast(t *testing.T) {
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	settings := domain.DefaultSettings()
	settings.Reminders = []domain.Entry{mustEntry(t, "a", now.Add(time.Hour), domain.KindOnce)}

	store := newFakeStore(settings)
	publisher := &recordingPublisher{}
	sched := services.NewScheduler(store, &fakeRegistry{}, publisher, clock, nil)

	require.NoError(t, sched.Resync(context.Background()))
	assert.Empty(t, publisher.byKey(domain.RoutingKeyRemindersChanged))
}

func TestScheduler_Resync_RegistersUpcomingOneShotWithinTheMinute(t *testing.T) {
	// Store contains one entry for 09:00 today and it is 08:59.
	now := time.Date(2026, 3, 14, 8, 59, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	entry := mustEntry(t, "morning handover", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), domain.KindOnce)
	settings := domain.DefaultSettings()
	settings.Reminders = []domain.Entry{entry}

	store := newFakeStore(settings)
	registry := &fakeRegistry{}
	sched := services.NewScheduler(store, registry, &recordingPublisher{}, clock, nil)

	require.NoError(t, sched.Resync(context.Background()))

	specs := registry.lastSpecs(t)
	require.Len(t, specs, 1)
	assert.Equal(t, domain.ReminderTriggerName(entry.ID), specs[0].Name)
	assert.LessOrEqual(t, specs[0].FireAt.Sub(now), time.Minute)
	assert.Positive(t, specs[0].FireAt.Sub(now))
}
