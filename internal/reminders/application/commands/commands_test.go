package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmstoolbox/deskbell/internal/reminders/application/commands"
	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
)

type memStore struct {
	mu       sync.Mutex
	settings domain.Settings
	saveErr  error
}

func (s *memStore) Load(context.Context) (domain.Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, false
}

func (s *memStore) Save(_ context.Context, settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.settings = settings
	return nil
}

type spyResyncer struct {
	mu    sync.Mutex
	count int
}

func (r *spyResyncer) Resync(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	return nil
}

func (r *spyResyncer) resyncs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

type spyPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *spyPublisher) Publish(_ context.Context, routingKey string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *spyPublisher) Close() error { return nil }

func (p *spyPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

func TestCreateReminderHandler(t *testing.T) {
	t.Run("creates, resyncs and broadcasts", func(t *testing.T) {
		store := &memStore{settings: domain.DefaultSettings()}
		resyncer := &spyResyncer{}
		publisher := &spyPublisher{}
		handler := commands.NewCreateReminderHandler(store, resyncer, publisher, nil)

		result, err := handler.Handle(context.Background(), commands.CreateReminderCommand{
			Text: "ice machine pickup",
			At:   time.Now().Add(time.Hour),
			Kind: "once",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Reminder.ID)

		settings, _ := store.Load(context.Background())
		_, ok := settings.FindReminder(result.Reminder.ID)
		assert.True(t, ok)
		assert.Equal(t, 1, resyncer.resyncs())
		assert.Contains(t, publisher.published(), domain.RoutingKeyRemindersChanged)
	})

	t.Run("rejects invalid kind", func(t *testing.T) {
		handler := commands.NewCreateReminderHandler(&memStore{}, &spyResyncer{}, &spyPublisher{}, nil)

		_, err := handler.Handle(context.Background(), commands.CreateReminderCommand{
			Text: "x", At: time.Now(), Kind: "weekly",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidKind)
	})

	t.Run("rejects empty text", func(t *testing.T) {
		handler := commands.NewCreateReminderHandler(&memStore{}, &spyResyncer{}, &spyPublisher{}, nil)

		_, err := handler.Handle(context.Background(), commands.CreateReminderCommand{
			At: time.Now(), Kind: "daily",
		})
		assert.ErrorIs(t, err, domain.ErrEmptyText)
	})

	t.Run("save failure does not resync", func(t *testing.T) {
		store := &memStore{settings: domain.DefaultSettings(), saveErr: errors.New("disk full")}
		resyncer := &spyResyncer{}
		handler := commands.NewCreateReminderHandler(store, resyncer, &spyPublisher{}, nil)

		_, err := handler.Handle(context.Background(), commands.CreateReminderCommand{
			Text: "x", At: time.Now(), Kind: "once",
		})
		assert.Error(t, err)
		assert.Zero(t, resyncer.resyncs())
	})
}

func TestDeleteReminderHandler(t *testing.T) {
	entry, err := domain.NewEntry("turn down service", time.Now().Add(time.Hour), domain.KindOnce)
	require.NoError(t, err)

	t.Run("deletes, resyncs and broadcasts", func(t *testing.T) {
		settings := domain.DefaultSettings().WithReminder(entry)
		store := &memStore{settings: settings}
		resyncer := &spyResyncer{}
		publisher := &spyPublisher{}
		handler := commands.NewDeleteReminderHandler(store, resyncer, publisher, nil)

		require.NoError(t, handler.Handle(context.Background(), commands.DeleteReminderCommand{ID: entry.ID}))

		current, _ := store.Load(context.Background())
		assert.Empty(t, current.Reminders)
		assert.Equal(t, 1, resyncer.resyncs())
		assert.Contains(t, publisher.published(), domain.RoutingKeyRemindersChanged)
	})

	t.Run("unknown id", func(t *testing.T) {
		handler := commands.NewDeleteReminderHandler(
			&memStore{settings: domain.DefaultSettings()}, &spyResyncer{}, &spyPublisher{}, nil)

		err := handler.Handle(context.Background(), commands.DeleteReminderCommand{ID: "nope"})
		assert.ErrorIs(t, err, commands.ErrReminderNotFound)
	})
}

func TestUpdateDndHandler(t *testing.T) {
	store := &memStore{settings: domain.DefaultSettings()}
	handler := commands.NewUpdateDndHandler(store, nil)

	prefs := domain.DndPreferences{WhenLocked: false, WhenAudiblePlaying: true, WhenFullscreen: false}
	require.NoError(t, handler.Handle(context.Background(), commands.UpdateDndCommand{Preferences: prefs}))

	settings, _ := store.Load(context.Background())
	assert.Equal(t, prefs, settings.Dnd)
}

func TestUpdateAnnouncementHandler(t *testing.T) {
	t.Run("updates and resyncs", func(t *testing.T) {
		store := &memStore{settings: domain.DefaultSettings()}
		resyncer := &spyResyncer{}
		handler := commands.NewUpdateAnnouncementHandler(store, resyncer, nil)

		want := domain.AnnouncementSettings{Enabled: true, IntervalMinutes: 15, Voice: true}
		require.NoError(t, handler.Handle(context.Background(), commands.UpdateAnnouncementCommand{Settings: want}))

		settings, _ := store.Load(context.Background())
		assert.Equal(t, want, settings.Announcement)
		assert.Equal(t, 1, resyncer.resyncs())
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		handler := commands.NewUpdateAnnouncementHandler(
			&memStore{settings: domain.DefaultSettings()}, &spyResyncer{}, nil)

		err := handler.Handle(context.Background(), commands.UpdateAnnouncementCommand{
			Settings: domain.AnnouncementSettings{Enabled: true, IntervalMinutes: 0, Voice: true},
		})
		assert.ErrorIs(t, err, commands.ErrInvalidInterval)
	})
}

func TestUpdateClockFormatHandler(t *testing.T) {
	store := &memStore{settings: domain.DefaultSettings()}
	handler := commands.NewUpdateClockFormatHandler(store, nil)

	require.NoError(t, handler.Handle(context.Background(), commands.UpdateClockFormatCommand{Hour12: true}))

	settings, _ := store.Load(context.Background())
	assert.True(t, settings.ClockHour12)
}
