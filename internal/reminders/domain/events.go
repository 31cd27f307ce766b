package domain

import "time"

// Routing keys for events published on the bus. UI pages receive them
// translated into their message vocabulary by the API hub.
const (
	RoutingKeyRemindersChanged      = "reminders.changed"
	RoutingKeyReminderFired         = "reminder.fired"
	RoutingKeyAnnouncementPerformed = "announcement.performed"
)

// RemindersChanged is published whenever the stored reminders list changes
// as a side effect of expiry cleanup, one-shot deletion, or a UI edit.
type RemindersChanged struct {
	Reminders []Entry `json:"reminders"`
}

// ReminderFired is published when a reminder trigger produces output.
type ReminderFired struct {
	Reminder Entry     `json:"reminder"`
	FiredAt  time.Time `json:"fired_at"`
}

// AnnouncementPerformed is published when a periodic time announcement
// produces output.
type AnnouncementPerformed struct {
	At      time.Time `json:"at"`
	Display string    `json:"display"`
}
