package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pmstoolbox/deskbell/internal/reminders/application/services"
	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
)

// ErrInvalidInterval is returned for a non-positive announcement interval.
var ErrInvalidInterval = errors.New("announcement interval must be positive")

// UpdateDndCommand replaces the do-not-disturb preferences.
type UpdateDndCommand struct {
	Preferences domain.DndPreferences
}

// UpdateDndHandler handles the UpdateDndCommand.
type UpdateDndHandler struct {
	store  domain.Store
	logger *slog.Logger
}

// NewUpdateDndHandler creates a new UpdateDndHandler.
func NewUpdateDndHandler(store domain.Store, logger *slog.Logger) *UpdateDndHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdateDndHandler{store: store, logger: logger}
}

// Handle executes the UpdateDndCommand. The preferences only gate output at
// fire time, so no resync is needed.
func (h *UpdateDndHandler) Handle(ctx context.Context, cmd UpdateDndCommand) error {
	settings, _ := h.store.Load(ctx)
	settings.Dnd = cmd.Preferences
	if err := h.store.Save(ctx, settings); err != nil {
		return fmt.Errorf("failed to save do-not-disturb preferences: %w", err)
	}
	h.logger.Info("do-not-disturb preferences updated",
		"when_locked", cmd.Preferences.WhenLocked,
		"when_audible", cmd.Preferences.WhenAudiblePlaying,
		"when_fullscreen", cmd.Preferences.WhenFullscreen,
	)
	return nil
}

// UpdateAnnouncementCommand replaces the periodic announcement settings.
type UpdateAnnouncementCommand struct {
	Settings domain.AnnouncementSettings
}

// UpdateAnnouncementHandler handles the UpdateAnnouncementCommand.
type UpdateAnnouncementHandler struct {
	store    domain.Store
	resyncer services.Resyncer
	logger   *slog.Logger
}

// NewUpdateAnnouncementHandler creates a new UpdateAnnouncementHandler.
func NewUpdateAnnouncementHandler(store domain.Store, resyncer services.Resyncer, logger *slog.Logger) *UpdateAnnouncementHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdateAnnouncementHandler{store: store, resyncer: resyncer, logger: logger}
}

// Handle executes the UpdateAnnouncementCommand. The announcement trigger
// lives in the trigger table, so enabling, disabling, or changing the
// interval requires a resync.
func (h *UpdateAnnouncementHandler) Handle(ctx context.Context, cmd UpdateAnnouncementCommand) error {
	if cmd.Settings.IntervalMinutes <= 0 {
		return ErrInvalidInterval
	}

	settings, _ := h.store.Load(ctx)
	settings.Announcement = cmd.Settings
	if err := h.store.Save(ctx, settings); err != nil {
		return fmt.Errorf("failed to save announcement settings: %w", err)
	}

	if err := h.resyncer.Resync(ctx); err != nil {
		h.logger.Warn("resync after announcement update failed", "error", err)
	}
	h.logger.Info("announcement settings updated",
		"enabled", cmd.Settings.Enabled,
		"interval_minutes", cmd.Settings.IntervalMinutes,
		"voice", cmd.Settings.Voice,
		"system_notify", cmd.Settings.SystemNotify,
	)
	return nil
}

// UpdateClockFormatCommand switches between 12 and 24 hour display.
type UpdateClockFormatCommand struct {
	Hour12 bool
}

// UpdateClockFormatHandler handles the UpdateClockFormatCommand.
type UpdateClockFormatHandler struct {
	store  domain.Store
	logger *slog.Logger
}

// NewUpdateClockFormatHandler creates a new UpdateClockFormatHandler.
func NewUpdateClockFormatHandler(store domain.Store, logger *slog.Logger) *UpdateClockFormatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdateClockFormatHandler{store: store, logger: logger}
}

// Handle executes the UpdateClockFormatCommand.
func (h *UpdateClockFormatHandler) Handle(ctx context.Context, cmd UpdateClockFormatCommand) error {
	settings, _ := h.store.Load(ctx)
	settings.ClockHour12 = cmd.Hour12
	if err := h.store.Save(ctx, settings); err != nil {
		return fmt.Errorf("failed to save clock format: %w", err)
	}
	h.logger.Info("clock format updated", "hour12", cmd.Hour12)
	return nil
}
