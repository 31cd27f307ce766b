package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pmstoolbox/deskbell/internal/reminders/application/services"
	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
	"github.com/pmstoolbox/deskbell/internal/shared/infrastructure/eventbus"
)

// ErrReminderNotFound is returned when the reminder to delete does not exist.
var ErrReminderNotFound = errors.New("reminder not found")

// DeleteReminderCommand identifies the reminder to remove.
type DeleteReminderCommand struct {
	ID string
}

// DeleteReminderHandler handles the DeleteReminderCommand.
type DeleteReminderHandler struct {
	store     domain.Store
	resyncer  services.Resyncer
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewDeleteReminderHandler creates a new DeleteReminderHandler.
func NewDeleteReminderHandler(
	store domain.Store,
	resyncer services.Resyncer,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *DeleteReminderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeleteReminderHandler{
		store:     store,
		resyncer:  resyncer,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the DeleteReminderCommand.
func (h *DeleteReminderHandler) Handle(ctx context.Context, cmd DeleteReminderCommand) error {
	settings, _ := h.store.Load(ctx)
	updated, removed := settings.WithoutReminder(cmd.ID)
	if !removed {
		return ErrReminderNotFound
	}
	if err := h.store.Save(ctx, updated); err != nil {
		return fmt.Errorf("failed to save reminder removal: %w", err)
	}

	if err := h.resyncer.Resync(ctx); err != nil {
		h.logger.Warn("resync after reminder deletion failed", "error", err)
	}
	broadcastReminders(ctx, h.publisher, h.logger, updated.Reminders)

	h.logger.Info("reminder deleted", "reminder_id", cmd.ID)
	return nil
}
