// Package persistence stores the whole settings record as a single JSON
// row in SQLite. The record is small and always read and written as one
// unit, so a document column beats a normalized schema here.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
)

const settingsSchema = `
CREATE TABLE IF NOT EXISTS settings (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    payload    TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// Open opens the settings database at path, creating the parent directory
// and schema as needed. The DSN pragmas follow the usual SQLite service
// setup: WAL journaling, a busy timeout instead of immediate lock errors,
// and NORMAL synchronous mode.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?"
	} else {
		dsn += "&"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite doesn't support multiple writers, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, settingsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply settings schema: %w", err)
	}
	return db, nil
}

// SQLiteSettingsStore implements domain.Store over a single-row table.
type SQLiteSettingsStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteSettingsStore creates a settings store over an open database.
func NewSQLiteSettingsStore(db *sql.DB, logger *slog.Logger) *SQLiteSettingsStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteSettingsStore{db: db, logger: logger}
}

// settingsRecord is the persisted shape. Pointer fields distinguish
// "absent" from "false" so Load can tell which sections need defaults
// merged in.
type settingsRecord struct {
	Reminders    []domain.Entry      `json:"reminders"`
	Dnd          *dndRecord          `json:"dnd"`
	Announcement *announcementRecord `json:"announcement"`
	ClockHour12  *bool               `json:"clock_hour12"`
}

type dndRecord struct {
	WhenLocked         *bool `json:"when_locked"`
	WhenAudiblePlaying *bool `json:"when_audible_playing"`
	WhenFullscreen     *bool `json:"when_fullscreen"`
}

type announcementRecord struct {
	Enabled         bool `json:"enabled"`
	IntervalMinutes int  `json:"interval_minutes"`
	Voice           bool `json:"voice"`
	SystemNotify    bool `json:"system_notify"`
}

// Load reads the record. Corrupt or absent data never reaches the caller
// as an error: each missing section is defaulted individually and the
// merged flag reports that the result differs from what is on disk.
func (s *SQLiteSettingsStore) Load(ctx context.Context) (domain.Settings, bool) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM settings WHERE id = 1`).Scan(&payload)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("failed to read settings row, starting from defaults", "error", err)
		}
		return domain.DefaultSettings(), true
	}

	var rec settingsRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		s.logger.Error("settings payload is not valid JSON, starting from defaults", "error", err)
		return domain.DefaultSettings(), true
	}

	return mergeDefaults(rec, s.logger)
}

// mergeDefaults converts a persisted record into a complete Settings
// value, filling absent sections with defaults and dropping entries that
// violate the persistent invariants.
func mergeDefaults(rec settingsRecord, logger *slog.Logger) (domain.Settings, bool) {
	merged := false
	out := domain.DefaultSettings()

	if rec.Reminders == nil {
		merged = true
	} else {
		out.Reminders = make([]domain.Entry, 0, len(rec.Reminders))
		for _, e := range rec.Reminders {
			if e.ID == "" || e.Text == "" || (e.Kind != domain.KindOnce && e.Kind != domain.KindDaily) {
				logger.Warn("dropping malformed reminder entry",
					"reminder_id", e.ID,
					"kind", string(e.Kind),
				)
				merged = true
				continue
			}
			out.Reminders = append(out.Reminders, e)
		}
	}

	if rec.Dnd == nil {
		merged = true
	} else {
		if rec.Dnd.WhenLocked != nil {
			out.Dnd.WhenLocked = *rec.Dnd.WhenLocked
		} else {
			merged = true
		}
		if rec.Dnd.WhenAudiblePlaying != nil {
			out.Dnd.WhenAudiblePlaying = *rec.Dnd.WhenAudiblePlaying
		} else {
			merged = true
		}
		if rec.Dnd.WhenFullscreen != nil {
			out.Dnd.WhenFullscreen = *rec.Dnd.WhenFullscreen
		} else {
			merged = true
		}
	}

	if rec.Announcement == nil {
		merged = true
	} else {
		out.Announcement = domain.AnnouncementSettings{
			Enabled:         rec.Announcement.Enabled,
			IntervalMinutes: rec.Announcement.IntervalMinutes,
			Voice:           rec.Announcement.Voice,
			SystemNotify:    rec.Announcement.SystemNotify,
		}
	}

	if rec.ClockHour12 == nil {
		merged = true
	} else {
		out.ClockHour12 = *rec.ClockHour12
	}

	return out, merged
}

// Save replaces the whole record.
func (s *SQLiteSettingsStore) Save(ctx context.Context, settings domain.Settings) error {
	rec := settingsRecord{
		Reminders: settings.Reminders,
		Dnd: &dndRecord{
			WhenLocked:         &settings.Dnd.WhenLocked,
			WhenAudiblePlaying: &settings.Dnd.WhenAudiblePlaying,
			WhenFullscreen:     &settings.Dnd.WhenFullscreen,
		},
		Announcement: &announcementRecord{
			Enabled:         settings.Announcement.Enabled,
			IntervalMinutes: settings.Announcement.IntervalMinutes,
			Voice:           settings.Announcement.Voice,
			SystemNotify:    settings.Announcement.SystemNotify,
		},
		ClockHour12: &settings.ClockHour12,
	}
	if rec.Reminders == nil {
		rec.Reminders = []domain.Entry{}
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (id, payload, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(payload),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
