// Package queries contains the read-side handlers.
package queries

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
)

// ListRemindersQuery selects which reminders to return.
type ListRemindersQuery struct {
	// TodayOnly restricts the result to today's agenda, ordered by
	// time-of-day. Without it all reminders are returned in store order.
	TodayOnly bool
}

// ListRemindersHandler handles the ListRemindersQuery.
type ListRemindersHandler struct {
	store domain.Store
	clock clockwork.Clock
}

// NewListRemindersHandler creates a new ListRemindersHandler.
func NewListRemindersHandler(store domain.Store, clock clockwork.Clock) *ListRemindersHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ListRemindersHandler{store: store, clock: clock}
}

// Handle executes the ListRemindersQuery.
func (h *ListRemindersHandler) Handle(ctx context.Context, query ListRemindersQuery) []domain.Entry {
	settings, _ := h.store.Load(ctx)
	if query.TodayOnly {
		return domain.SortedTodayReminders(settings.Reminders, h.clock.Now())
	}
	return settings.Reminders
}

// GetSettingsHandler returns the full settings record.
type GetSettingsHandler struct {
	store domain.Store
}

// NewGetSettingsHandler creates a new GetSettingsHandler.
func NewGetSettingsHandler(store domain.Store) *GetSettingsHandler {
	return &GetSettingsHandler{store: store}
}

// Handle returns the current settings.
func (h *GetSettingsHandler) Handle(ctx context.Context) domain.Settings {
	settings, _ := h.store.Load(ctx)
	return settings
}
