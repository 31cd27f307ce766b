package domain

import (
	"fmt"
	"strings"
	"time"
)

// AnnouncementTriggerName is the name of the single recurring trigger for
// periodic time announcements.
const AnnouncementTriggerName = "periodic_announcement"

const reminderTriggerPrefix = "reminder_"

// ReminderTriggerName derives the deterministic trigger name for an entry,
// so a fired trigger can be reverse-mapped to its reminder.
func ReminderTriggerName(id string) string {
	return reminderTriggerPrefix + id
}

// ReminderIDFromTriggerName reverses ReminderTriggerName.
func ReminderIDFromTriggerName(name string) (string, bool) {
	if !strings.HasPrefix(name, reminderTriggerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(name, reminderTriggerPrefix), true
}

// TriggerSpec describes one platform trigger: a named timer firing at
// FireAt, repeating every Period if Period is non-zero.
type TriggerSpec struct {
	Name   string
	FireAt time.Time
	Period time.Duration
}

// PartitionExpired splits entries into live and expired ones. Only
// one-shot entries past the grace window expire; everything else —
// including entries whose time fails to parse — stays live.
func PartitionExpired(entries []Entry, now time.Time) (live, expired []Entry) {
	live = make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Expired(now) {
			expired = append(expired, e)
			continue
		}
		live = append(live, e)
	}
	return live, expired
}

// NextFireAt computes the next occurrence of the entry's time-of-day: today
// if still upcoming, otherwise tomorrow. One-shot entries authored on a
// previous day therefore fire at the next chance rather than being dropped.
func (e Entry) NextFireAt(now time.Time) (time.Time, error) {
	at, err := e.FireTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("reminder %s has unparseable time %q: %w", e.ID, e.Time, err)
	}
	local := at.In(now.Location())
	next := time.Date(now.Year(), now.Month(), now.Day(),
		local.Hour(), local.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}

// NextAnnouncementAt computes the next clock-aligned announcement boundary:
// every intervalMinutes aligned to the wall clock, not to now. Boundaries
// less than a minute away are skipped to avoid an immediate double fire.
func NextAnnouncementAt(now time.Time, intervalMinutes int) time.Time {
	if intervalMinutes <= 0 {
		intervalMinutes = 60
	}
	interval := time.Duration(intervalMinutes) * time.Minute

	var next time.Time
	if intervalMinutes < 60 {
		m := now.Minute()
		boundary := ((m + intervalMinutes - 1) / intervalMinutes) * intervalMinutes
		if boundary == m {
			boundary = m + intervalMinutes
		}
		hourStart := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
		next = hourStart.Add(time.Duration(boundary) * time.Minute)
	} else {
		hi := intervalMinutes / 60
		h := now.Hour()
		boundary := ((h + hi - 1) / hi) * hi
		if boundary == h {
			boundary = h + hi
		}
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		next = dayStart.Add(time.Duration(boundary) * time.Hour)
	}

	if next.Sub(now) < time.Minute {
		next = next.Add(interval)
	}
	return next
}

// ComputeTriggerSet derives the complete set of platform triggers implied
// by the settings at the given instant. It assumes expired entries have
// already been partitioned out; entries whose next fire time cannot be
// computed are kept in the store but yield no trigger.
func ComputeTriggerSet(s Settings, now time.Time) []TriggerSpec {
	specs := make([]TriggerSpec, 0, len(s.Reminders)+1)
	for _, e := range s.Reminders {
		fireAt, err := e.NextFireAt(now)
		if err != nil {
			continue
		}
		spec := TriggerSpec{
			Name:   ReminderTriggerName(e.ID),
			FireAt: fireAt,
		}
		if e.Kind == KindDaily {
			spec.Period = 24 * time.Hour
		}
		specs = append(specs, spec)
	}

	if s.Announcement.Active() {
		interval := s.Announcement.Interval()
		specs = append(specs, TriggerSpec{
			Name:   AnnouncementTriggerName,
			FireAt: NextAnnouncementAt(now, interval),
			Period: time.Duration(interval) * time.Minute,
		})
	}

	return specs
}

// FormatClock renders a wall-clock time for announcements, honoring the
// 12/24-hour preference.
func FormatClock(t time.Time, hour12 bool) string {
	if hour12 {
		return t.Format("3:04 PM")
	}
	return t.Format("15:04")
}
