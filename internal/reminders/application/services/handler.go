package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
	"github.com/pmstoolbox/deskbell/internal/shared/infrastructure/eventbus"
)

// HandlerConfig tunes the trigger handler's output and retry behavior.
type HandlerConfig struct {
	// SaveRetries is the number of save attempts for the one-shot
	// deletion write, the highest-cost-of-loss mutation.
	SaveRetries int
	// RetryBackoffBase is the first backoff delay; each retry doubles it.
	RetryBackoffBase time.Duration
	// SpeakRepeatDelay is the pause between the two spoken repetitions of
	// a reminder.
	SpeakRepeatDelay time.Duration
	// NotificationTTL is how long a reminder notification stays up before
	// it is cleared automatically.
	NotificationTTL time.Duration
}

// DefaultHandlerConfig returns the production defaults.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		SaveRetries:      3,
		RetryBackoffBase: 500 * time.Millisecond,
		SpeakRepeatDelay: 3 * time.Second,
		NotificationTTL:  5 * time.Minute,
	}
}

// TriggerHandler reacts to fired triggers: it decides suppression, emits
// notification and speech output, and removes one-shot reminders after
// they fire.
type TriggerHandler struct {
	store     domain.Store
	resyncer  Resyncer
	dnd       *DndEvaluator
	notifier  Notifier
	speaker   Speaker
	publisher eventbus.Publisher
	clock     clockwork.Clock
	cfg       HandlerConfig
	logger    *slog.Logger
}

// NewTriggerHandler creates a trigger handler.
func NewTriggerHandler(
	store domain.Store,
	resyncer Resyncer,
	dnd *DndEvaluator,
	notifier Notifier,
	speaker Speaker,
	publisher eventbus.Publisher,
	clock clockwork.Clock,
	cfg HandlerConfig,
	logger *slog.Logger,
) *TriggerHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SaveRetries <= 0 {
		cfg.SaveRetries = DefaultHandlerConfig().SaveRetries
	}
	return &TriggerHandler{
		store:     store,
		resyncer:  resyncer,
		dnd:       dnd,
		notifier:  notifier,
		speaker:   speaker,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// HandleFire routes a fired trigger by name. Unknown names are logged and
// ignored; the registry namespace is owned by the scheduler, so they can
// only appear through races with a concurrent resync.
func (h *TriggerHandler) HandleFire(ctx context.Context, name string) {
	if name == domain.AnnouncementTriggerName {
		h.handleAnnouncement(ctx)
		return
	}
	if id, ok := domain.ReminderIDFromTriggerName(name); ok {
		h.handleReminder(ctx, id)
		return
	}
	h.logger.Warn("trigger fired with unknown name", "trigger", name)
}

func (h *TriggerHandler) handleAnnouncement(ctx context.Context) {
	settings, _ := h.store.Load(ctx)

	// The trigger should have been cleared when the feature was turned
	// off, but the settings write may have raced the fire.
	if !settings.Announcement.Active() {
		h.logger.Debug("announcement trigger fired while disabled")
		return
	}

	suppress, status := h.dnd.ShouldSuppress(ctx, settings.Dnd)
	if suppress {
		h.logger.Info("announcement suppressed by do-not-disturb",
			"locked", status.Locked,
			"audible", status.AudiblePlayback,
			"fullscreen", status.Fullscreen,
		)
		return
	}

	now := h.clock.Now()
	display := domain.FormatClock(now, settings.ClockHour12)

	if settings.Announcement.SystemNotify {
		if _, err := h.notifier.Notify(ctx, "Time announcement", "It is "+display); err != nil {
			h.logger.Warn("announcement notification failed", "error", err)
		}
	}
	if settings.Announcement.Voice {
		if err := h.speaker.Speak(ctx, "It is "+display); err != nil {
			h.logger.Warn("announcement speech failed", "error", err)
		}
	}

	event := domain.AnnouncementPerformed{At: now, Display: display}
	if err := eventbus.PublishJSON(ctx, h.publisher, domain.RoutingKeyAnnouncementPerformed, event); err != nil {
		h.logger.Warn("failed to broadcast announcement", "error", err)
	}
}

func (h *TriggerHandler) handleReminder(ctx context.Context, id string) {
	settings, _ := h.store.Load(ctx)

	entry, ok := settings.FindReminder(id)
	if !ok {
		h.logger.Info("trigger fired for a reminder no longer in the store", "reminder_id", id)
		return
	}

	suppress, status := h.dnd.ShouldSuppress(ctx, settings.Dnd)
	if suppress {
		// The entry is left untouched: a one-shot reminder that fires
		// during do-not-disturb stays in the store until the next expiry
		// cleanup. See DESIGN.md for the product question behind this.
		h.logger.Info("reminder suppressed by do-not-disturb",
			"reminder_id", entry.ID,
			"locked", status.Locked,
			"audible", status.AudiblePlayback,
			"fullscreen", status.Fullscreen,
		)
		return
	}

	h.announce(ctx, entry)

	event := domain.ReminderFired{Reminder: entry, FiredAt: h.clock.Now()}
	if err := eventbus.PublishJSON(ctx, h.publisher, domain.RoutingKeyReminderFired, event); err != nil {
		h.logger.Warn("failed to broadcast fired reminder", "error", err)
	}

	if entry.Kind == domain.KindOnce {
		h.removeOneShot(ctx, entry.ID)
	}
}

// announce emits the notification and the doubled speech output. The
// repetition is deliberate so a message spoken while the desk is noisy is
// not missed.
func (h *TriggerHandler) announce(ctx context.Context, entry domain.Entry) {
	notifID, err := h.notifier.Notify(ctx, "Reminder", entry.Text)
	if err != nil {
		h.logger.Warn("reminder notification failed", "reminder_id", entry.ID, "error", err)
	} else {
		h.scheduleAutoClear(entry, notifID)
	}

	if err := h.speaker.Speak(ctx, "Reminder: "+entry.Text); err != nil {
		h.logger.Warn("reminder speech failed", "reminder_id", entry.ID, "error", err)
		return
	}
	h.clock.Sleep(h.cfg.SpeakRepeatDelay)
	if err := h.speaker.Speak(ctx, "Reminder: "+entry.Text); err != nil {
		h.logger.Warn("second reminder speech failed", "reminder_id", entry.ID, "error", err)
	}
}

// scheduleAutoClear clears the notification after its TTL if the user has
// not dismissed it. Clearing a one-shot reminder's notification also
// re-attempts its removal, an idempotent second chance in case the write
// after the fire was lost.
func (h *TriggerHandler) scheduleAutoClear(entry domain.Entry, notifID string) {
	h.clock.AfterFunc(h.cfg.NotificationTTL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cleared, err := h.notifier.Clear(ctx, notifID)
		if err != nil {
			h.logger.Debug("auto-clear failed", "notification_id", notifID, "error", err)
			return
		}
		if cleared && entry.Kind == domain.KindOnce {
			h.removeOneShot(ctx, entry.ID)
		}
	})
}

// removeOneShot deletes a fired one-shot reminder from the store with
// bounded retry, then resyncs regardless of the outcome so the trigger
// table tracks whatever state the store ended up in. Under permanent
// storage failure the reminder may re-fire on a future resync; a duplicate
// notification is preferred over silently losing the write.
func (h *TriggerHandler) removeOneShot(ctx context.Context, id string) {
	settings, _ := h.store.Load(ctx)
	updated, removed := settings.WithoutReminder(id)
	if !removed {
		return
	}

	if err := h.saveWithRetry(ctx, updated); err != nil {
		h.logger.Error("permanent failure removing fired one-shot reminder",
			"reminder_id", id,
			"attempts", h.cfg.SaveRetries,
			"error", err,
		)
	} else {
		h.logger.Info("removed fired one-shot reminder", "reminder_id", id)
		event := domain.RemindersChanged{Reminders: updated.Reminders}
		if err := eventbus.PublishJSON(ctx, h.publisher, domain.RoutingKeyRemindersChanged, event); err != nil {
			h.logger.Warn("failed to broadcast reminders change", "error", err)
		}
	}

	if err := h.resyncer.Resync(ctx); err != nil {
		h.logger.Warn("resync after one-shot removal failed", "error", err)
	}
}

func (h *TriggerHandler) saveWithRetry(ctx context.Context, settings domain.Settings) error {
	var lastErr error
	for attempt := 0; attempt < h.cfg.SaveRetries; attempt++ {
		lastErr = h.store.Save(ctx, settings)
		if lastErr == nil {
			return nil
		}
		h.logger.Warn("settings save failed",
			"attempt", attempt+1,
			"max_attempts", h.cfg.SaveRetries,
			"error", lastErr,
		)
		if attempt < h.cfg.SaveRetries-1 {
			h.clock.Sleep(h.cfg.RetryBackoffBase << attempt)
		}
	}
	return lastErr
}
