package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/pmstoolbox/deskbell/internal/reminders/application/commands"
	"github.com/pmstoolbox/deskbell/internal/reminders/application/queries"
	"github.com/pmstoolbox/deskbell/internal/reminders/infrastructure/persistence"
	"github.com/pmstoolbox/deskbell/internal/shared/infrastructure/eventbus"
	"github.com/pmstoolbox/deskbell/pkg/config"
)

// App wires the handlers the management commands need. These commands
// write to the same store as the daemon; after a mutation the daemon is
// poked over its API to rebuild its trigger table.
type App struct {
	CreateReminder     *commands.CreateReminderHandler
	DeleteReminder     *commands.DeleteReminderHandler
	UpdateDnd          *commands.UpdateDndHandler
	UpdateAnnouncement *commands.UpdateAnnouncementHandler
	UpdateClockFormat  *commands.UpdateClockFormatHandler
	ListReminders      *queries.ListRemindersHandler
	GetSettings        *queries.GetSettingsHandler

	db *sql.DB
}

// AppProvider builds the management container on demand. Commands that
// never touch the store (serve, version, help) must not open it.
type AppProvider func(ctx context.Context) (*App, error)

// withApp builds the container for the duration of one command run.
func withApp(provider AppProvider, run func(cmd *cobra.Command, args []string, app *App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := provider(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()
		return run(cmd, args, app)
	}
}

// NewApp opens the store and builds the handlers.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := persistence.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	store := persistence.NewSQLiteSettingsStore(db, logger)
	publisher := eventbus.NewNoopPublisher(logger)
	resyncer := newDaemonResyncer(cfg.ListenAddr, logger)

	return &App{
		CreateReminder:     commands.NewCreateReminderHandler(store, resyncer, publisher, logger),
		DeleteReminder:     commands.NewDeleteReminderHandler(store, resyncer, publisher, logger),
		UpdateDnd:          commands.NewUpdateDndHandler(store, logger),
		UpdateAnnouncement: commands.NewUpdateAnnouncementHandler(store, resyncer, logger),
		UpdateClockFormat:  commands.NewUpdateClockFormatHandler(store, logger),
		ListReminders:      queries.NewListRemindersHandler(store, clockwork.NewRealClock()),
		GetSettings:        queries.NewGetSettingsHandler(store),
		db:                 db,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.db.Close()
}

// daemonResyncer asks a running daemon to rebuild its trigger table. When
// no daemon is listening the error is reported but harmless: the daemon
// resyncs from the store on startup anyway.
type daemonResyncer struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func newDaemonResyncer(addr string, logger *slog.Logger) *daemonResyncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &daemonResyncer{
		url:    "http://" + addr + "/api/v1/resync",
		client: &http.Client{Timeout: 5 * time.Second},
		logger: logger,
	}
}

func (r *daemonResyncer) Resync(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("daemon not reachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon resync returned status %d", resp.StatusCode)
	}
	return nil
}
