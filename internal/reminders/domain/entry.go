// Package domain contains the reminder model: entries, settings, and the
// pure trigger computation the scheduler runs on every resync.
package domain

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyText   = errors.New("reminder text must not be empty")
	ErrInvalidKind = errors.New("reminder kind must be once or daily")
	ErrEmptyID     = errors.New("reminder id must not be empty")
)

// ExpiryGrace is how far in the past a one-shot reminder's time may lie
// before it is considered expired. The window absorbs clock skew and
// timezone ambiguity; tightening it risks deleting reminders that are
// about to fire.
const ExpiryGrace = 10 * time.Minute

// Kind distinguishes one-shot reminders from daily recurring ones.
type Kind string

const (
	// KindOnce fires at most once and is removed from the store afterwards.
	KindOnce Kind = "once"
	// KindDaily fires every 24 hours at the same time-of-day.
	KindDaily Kind = "daily"
)

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindOnce, KindDaily:
		return Kind(s), nil
	default:
		return "", ErrInvalidKind
	}
}

// Entry is a single reminder. Time is kept as the raw persisted string so
// that an unparseable value survives load/save round trips instead of being
// silently dropped; FireTime reports whether it parses.
type Entry struct {
	ID   string `json:"id"`
	Time string `json:"time"`
	Text string `json:"text"`
	Kind Kind   `json:"kind"`
}

// NewEntry creates a reminder entry with a fresh ID.
func NewEntry(text string, at time.Time, kind Kind) (Entry, error) {
	if text == "" {
		return Entry{}, ErrEmptyText
	}
	if kind != KindOnce && kind != KindDaily {
		return Entry{}, ErrInvalidKind
	}
	return Entry{
		ID:   uuid.New().String(),
		Time: at.Format(time.RFC3339),
		Text: text,
		Kind: kind,
	}, nil
}

// Validate checks the persistent invariants of an entry.
func (e Entry) Validate() error {
	if e.ID == "" {
		return ErrEmptyID
	}
	if e.Text == "" {
		return ErrEmptyText
	}
	if e.Kind != KindOnce && e.Kind != KindDaily {
		return ErrInvalidKind
	}
	_, err := e.FireTime()
	return err
}

// FireTime parses the entry's absolute timestamp. For daily entries only
// the time-of-day component is semantically meaningful.
func (e Entry) FireTime() (time.Time, error) {
	return time.Parse(time.RFC3339, e.Time)
}

// Expired reports whether a one-shot entry's time lies more than
// ExpiryGrace in the past. Daily entries never expire, and entries whose
// time does not parse are conservatively treated as live.
func (e Entry) Expired(now time.Time) bool {
	if e.Kind != KindOnce {
		return false
	}
	at, err := e.FireTime()
	if err != nil {
		return false
	}
	return !at.After(now.Add(-ExpiryGrace))
}

// OccursOn reports whether the entry belongs on the given day's agenda:
// daily entries always do, one-shot entries only on their own date.
func (e Entry) OccursOn(day time.Time) bool {
	if e.Kind == KindDaily {
		return true
	}
	at, err := e.FireTime()
	if err != nil {
		return false
	}
	y1, m1, d1 := at.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// SortedTodayReminders returns the entries on today's agenda ordered by
// time-of-day. Entries with unparseable times sort last.
func SortedTodayReminders(entries []Entry, now time.Time) []Entry {
	today := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.OccursOn(now) {
			today = append(today, e)
		}
	}
	minuteOfDay := func(e Entry) int {
		at, err := e.FireTime()
		if err != nil {
			return 24*60 + 1
		}
		local := at.In(now.Location())
		return local.Hour()*60 + local.Minute()
	}
	sort.SliceStable(today, func(i, j int) bool {
		return minuteOfDay(today[i]) < minuteOfDay(today[j])
	})
	return today
}
