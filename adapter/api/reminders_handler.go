package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pmstoolbox/deskbell/internal/reminders/application/commands"
	"github.com/pmstoolbox/deskbell/internal/reminders/application/queries"
	"github.com/pmstoolbox/deskbell/internal/reminders/application/services"
	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
)

// RemindersHandler handles reminder and settings API requests.
type RemindersHandler struct {
	createReminder     *commands.CreateReminderHandler
	deleteReminder     *commands.DeleteReminderHandler
	updateDnd          *commands.UpdateDndHandler
	updateAnnouncement *commands.UpdateAnnouncementHandler
	updateClockFormat  *commands.UpdateClockFormatHandler
	listReminders      *queries.ListRemindersHandler
	getSettings        *queries.GetSettingsHandler
	resyncer           services.Resyncer
	logger             *slog.Logger
}

// RemindersHandlerConfig holds dependencies for the reminders handler.
type RemindersHandlerConfig struct {
	CreateReminder     *commands.CreateReminderHandler
	DeleteReminder     *commands.DeleteReminderHandler
	UpdateDnd          *commands.UpdateDndHandler
	UpdateAnnouncement *commands.UpdateAnnouncementHandler
	UpdateClockFormat  *commands.UpdateClockFormatHandler
	ListReminders      *queries.ListRemindersHandler
	GetSettings        *queries.GetSettingsHandler
	Resyncer           services.Resyncer
	Logger             *slog.Logger
}

// NewRemindersHandler creates a new reminders handler.
func NewRemindersHandler(cfg RemindersHandlerConfig) *RemindersHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &RemindersHandler{
		createReminder:     cfg.CreateReminder,
		deleteReminder:     cfg.DeleteReminder,
		updateDnd:          cfg.UpdateDnd,
		updateAnnouncement: cfg.UpdateAnnouncement,
		updateClockFormat:  cfg.UpdateClockFormat,
		listReminders:      cfg.ListReminders,
		getSettings:        cfg.GetSettings,
		resyncer:           cfg.Resyncer,
		logger:             cfg.Logger,
	}
}

// ListReminders handles GET /api/v1/reminders
func (h *RemindersHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	query := queries.ListRemindersQuery{
		TodayOnly: r.URL.Query().Get("today") == "true",
	}
	reminders := h.listReminders.Handle(r.Context(), query)
	writeJSON(w, http.StatusOK, map[string]any{"reminders": reminders})
}

type createReminderRequest struct {
	Text string `json:"text"`
	Time string `json:"time"`
	Kind string `json:"kind"`
}

// CreateReminder handles POST /api/v1/reminders
func (h *RemindersHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	at, err := time.Parse(time.RFC3339, req.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Field 'time' must be an RFC 3339 timestamp")
		return
	}

	result, err := h.createReminder.Handle(r.Context(), commands.CreateReminderCommand{
		Text: req.Text,
		At:   at,
		Kind: req.Kind,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyText) || errors.Is(err, domain.ErrInvalidKind) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create reminder", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create reminder")
		return
	}

	writeJSON(w, http.StatusCreated, result.Reminder)
}

// DeleteReminder handles DELETE /api/v1/reminders/{reminderID}
func (h *RemindersHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("reminderID")

	err := h.deleteReminder.Handle(r.Context(), commands.DeleteReminderCommand{ID: id})
	if err != nil {
		if errors.Is(err, commands.ErrReminderNotFound) {
			writeError(w, http.StatusNotFound, "Reminder not found")
			return
		}
		h.logger.Error("failed to delete reminder", "reminder_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete reminder")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetSettings handles GET /api/v1/settings
func (h *RemindersHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.getSettings.Handle(r.Context()))
}

// UpdateDnd handles PUT /api/v1/settings/dnd
func (h *RemindersHandler) UpdateDnd(w http.ResponseWriter, r *http.Request) {
	var prefs domain.DndPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.updateDnd.Handle(r.Context(), commands.UpdateDndCommand{Preferences: prefs}); err != nil {
		h.logger.Error("failed to update do-not-disturb preferences", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}

// UpdateAnnouncement handles PUT /api/v1/settings/announcement
func (h *RemindersHandler) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var settings domain.AnnouncementSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	err := h.updateAnnouncement.Handle(r.Context(), commands.UpdateAnnouncementCommand{Settings: settings})
	if err != nil {
		if errors.Is(err, commands.ErrInvalidInterval) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to update announcement settings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

type updateClockRequest struct {
	Hour12 bool `json:"hour12"`
}

// UpdateClockFormat handles PUT /api/v1/settings/clock
func (h *RemindersHandler) UpdateClockFormat(w http.ResponseWriter, r *http.Request) {
	var req updateClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.updateClockFormat.Handle(r.Context(), commands.UpdateClockFormatCommand{Hour12: req.Hour12}); err != nil {
		h.logger.Error("failed to update clock format", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, req)
}

// Resync handles POST /api/v1/resync
func (h *RemindersHandler) Resync(w http.ResponseWriter, r *http.Request) {
	if err := h.resyncer.Resync(r.Context()); err != nil {
		h.logger.Error("manual resync failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Resync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resynced"})
}
