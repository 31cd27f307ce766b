package domain

import "context"

// DndPreferences controls when reminder and announcement output is
// suppressed. All conditions default to enabled.
type DndPreferences struct {
	WhenLocked         bool `json:"when_locked"`
	WhenAudiblePlaying bool `json:"when_audible_playing"`
	WhenFullscreen     bool `json:"when_fullscreen"`
}

// DefaultDndPreferences returns the all-enabled defaults merged into the
// store on first load.
func DefaultDndPreferences() DndPreferences {
	return DndPreferences{
		WhenLocked:         true,
		WhenAudiblePlaying: true,
		WhenFullscreen:     true,
	}
}

// AnnouncementSettings configures the periodic time announcement.
type AnnouncementSettings struct {
	Enabled         bool `json:"enabled"`
	IntervalMinutes int  `json:"interval_minutes"`
	Voice           bool `json:"voice"`
	SystemNotify    bool `json:"system_notify"`
}

// Active reports whether a periodic announcement trigger should exist at
// all: the feature must be enabled and at least one output channel on.
func (a AnnouncementSettings) Active() bool {
	return a.Enabled && (a.Voice || a.SystemNotify)
}

// Interval returns the announcement interval in minutes, defaulting to 60.
func (a AnnouncementSettings) Interval() int {
	if a.IntervalMinutes <= 0 {
		return 60
	}
	return a.IntervalMinutes
}

// Settings is the whole persisted record. It is always read and written as
// one unit; mutations return a new snapshot rather than editing in place.
type Settings struct {
	Reminders    []Entry              `json:"reminders"`
	Dnd          DndPreferences       `json:"dnd"`
	Announcement AnnouncementSettings `json:"announcement"`
	ClockHour12  bool                 `json:"clock_hour12"`
}

// DefaultSettings returns the record implied by an empty store.
func DefaultSettings() Settings {
	return Settings{
		Reminders: []Entry{},
		Dnd:       DefaultDndPreferences(),
		Announcement: AnnouncementSettings{
			IntervalMinutes: 60,
		},
	}
}

// FindReminder looks up an entry by ID.
func (s Settings) FindReminder(id string) (Entry, bool) {
	for _, e := range s.Reminders {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// WithReminder returns a snapshot with the entry appended.
func (s Settings) WithReminder(e Entry) Settings {
	out := s
	out.Reminders = make([]Entry, 0, len(s.Reminders)+1)
	out.Reminders = append(out.Reminders, s.Reminders...)
	out.Reminders = append(out.Reminders, e)
	return out
}

// WithoutReminder returns a snapshot with the entry removed and reports
// whether it was present.
func (s Settings) WithoutReminder(id string) (Settings, bool) {
	out := s
	out.Reminders = make([]Entry, 0, len(s.Reminders))
	removed := false
	for _, e := range s.Reminders {
		if e.ID == id {
			removed = true
			continue
		}
		out.Reminders = append(out.Reminders, e)
	}
	return out, removed
}

// Store provides whole-record access to the persisted settings.
//
// Load never fails into the caller: absent or corrupt fields are defaulted
// individually and the merged flag reports that the defaults should be
// persisted back. Save replaces the whole record and may fail; callers that
// cannot afford to lose the write apply retry.
type Store interface {
	Load(ctx context.Context) (settings Settings, merged bool)
	Save(ctx context.Context, settings Settings) error
}
