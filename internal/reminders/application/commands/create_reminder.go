// Package commands contains the write-side handlers. Every mutation
// follows the same shape: produce a new settings snapshot, persist it,
// resync the trigger table, and broadcast the change.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pmstoolbox/deskbell/internal/reminders/application/services"
	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
	"github.com/pmstoolbox/deskbell/internal/shared/infrastructure/eventbus"
)

// CreateReminderCommand contains the data needed to create a reminder.
type CreateReminderCommand struct {
	Text string
	At   time.Time
	Kind string
}

// CreateReminderResult contains the result of creating a reminder.
type CreateReminderResult struct {
	Reminder domain.Entry
}

// CreateReminderHandler handles the CreateReminderCommand.
type CreateReminderHandler struct {
	store     domain.Store
	resyncer  services.Resyncer
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewCreateReminderHandler creates a new CreateReminderHandler.
func NewCreateReminderHandler(
	store domain.Store,
	resyncer services.Resyncer,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *CreateReminderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateReminderHandler{
		store:     store,
		resyncer:  resyncer,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the CreateReminderCommand.
func (h *CreateReminderHandler) Handle(ctx context.Context, cmd CreateReminderCommand) (*CreateReminderResult, error) {
	kind, err := domain.ParseKind(cmd.Kind)
	if err != nil {
		return nil, err
	}
	entry, err := domain.NewEntry(cmd.Text, cmd.At, kind)
	if err != nil {
		return nil, err
	}

	settings, _ := h.store.Load(ctx)
	updated := settings.WithReminder(entry)
	if err := h.store.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to save reminder: %w", err)
	}

	if err := h.resyncer.Resync(ctx); err != nil {
		h.logger.Warn("resync after reminder creation failed", "error", err)
	}
	broadcastReminders(ctx, h.publisher, h.logger, updated.Reminders)

	h.logger.Info("reminder created",
		"reminder_id", entry.ID,
		"kind", string(entry.Kind),
		"time", entry.Time,
	)
	return &CreateReminderResult{Reminder: entry}, nil
}

func broadcastReminders(ctx context.Context, publisher eventbus.Publisher, logger *slog.Logger, reminders []domain.Entry) {
	event := domain.RemindersChanged{Reminders: reminders}
	if err := eventbus.PublishJSON(ctx, publisher, domain.RoutingKeyRemindersChanged, event); err != nil {
		logger.Warn("failed to broadcast reminders change", "error", err)
	}
}
