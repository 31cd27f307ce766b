package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/pmstoolbox/deskbell/adapter/api"
	"github.com/pmstoolbox/deskbell/internal/reminders/application/commands"
	"github.com/pmstoolbox/deskbell/internal/reminders/application/queries"
	"github.com/pmstoolbox/deskbell/internal/reminders/application/services"
	"github.com/pmstoolbox/deskbell/internal/reminders/infrastructure/desktop"
	"github.com/pmstoolbox/deskbell/internal/reminders/infrastructure/persistence"
	"github.com/pmstoolbox/deskbell/internal/reminders/infrastructure/sinks"
	"github.com/pmstoolbox/deskbell/internal/reminders/infrastructure/triggers"
	"github.com/pmstoolbox/deskbell/internal/shared/infrastructure/eventbus"
	"github.com/pmstoolbox/deskbell/pkg/config"
	"github.com/pmstoolbox/deskbell/pkg/observability"
)

// NewServeCommand creates the daemon command.
func NewServeCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reminder daemon",
		Long: `Starts the scheduling daemon: loads the settings store, registers a
trigger for every live reminder, serves the UI API, and delivers
notifications and speech when triggers fire.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger
	if log == nil {
		log = slog.Default()
	}
	clock := clockwork.NewRealClock()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Store
	db, err := persistence.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open settings database: %w", err)
	}
	defer db.Close()
	store := persistence.NewSQLiteSettingsStore(db, log)
	log.Info("settings store opened", "path", cfg.DatabasePath)

	// Event bus and scheduler
	bus := eventbus.NewInProcessBus(log)
	defer bus.Close()

	registry, err := triggers.NewGocronRegistry(clock, log)
	if err != nil {
		return fmt.Errorf("failed to create trigger registry: %w", err)
	}
	scheduler := services.NewScheduler(store, registry, bus, clock, log)

	// Output sinks and desktop probes
	notifier := sinks.NewDesktopNotifier(cfg.NotificationIcon, log)
	speaker := sinks.NewCommandSpeaker(cfg.SpeechCommand, log)
	probes := desktop.NewCommandProbes(desktop.ProbeCommands{
		Locked:     cfg.LockedProbeCommand,
		Audible:    cfg.AudibleProbeCommand,
		Fullscreen: cfg.FullscreenProbeCommand,
	}, cfg.ProbeTimeout)

	handler := services.NewTriggerHandler(
		store,
		scheduler,
		services.NewDndEvaluator(probes, log),
		notifier,
		speaker,
		bus,
		clock,
		services.HandlerConfig{
			SaveRetries:      cfg.SaveRetries,
			RetryBackoffBase: cfg.RetryBackoffBase,
			SpeakRepeatDelay: cfg.SpeakRepeatDelay,
			NotificationTTL:  cfg.NotificationTTL,
		},
		log,
	)
	registry.BindFire(handler.HandleFire)

	// First scheduling pass before anything can fire.
	resyncStart := time.Now()
	if err := scheduler.Resync(ctx); err != nil {
		return fmt.Errorf("initial scheduling pass failed: %w", err)
	}
	observability.LogDuration(log, "initial resync", resyncStart)
	registry.Start()
	defer func() {
		if err := registry.Shutdown(); err != nil {
			log.Warn("trigger registry shutdown failed", "error", err)
		}
	}()

	// UI surface
	hub := api.NewHub(scheduler, cfg.BroadcastTimeout, log)
	defer hub.Close()
	bus.RegisterConsumer(hub)

	apiHandler := api.NewRemindersHandler(api.RemindersHandlerConfig{
		CreateReminder:     commands.NewCreateReminderHandler(store, scheduler, bus, log),
		DeleteReminder:     commands.NewDeleteReminderHandler(store, scheduler, bus, log),
		UpdateDnd:          commands.NewUpdateDndHandler(store, log),
		UpdateAnnouncement: commands.NewUpdateAnnouncementHandler(store, scheduler, log),
		UpdateClockFormat:  commands.NewUpdateClockFormatHandler(store, log),
		ListReminders:      queries.NewListRemindersHandler(store, clock),
		GetSettings:        queries.NewGetSettingsHandler(store),
		Resyncer:           scheduler,
		Logger:             log,
	})

	server := api.NewServer(api.ServerConfig{
		Addr:         cfg.ListenAddr,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, apiHandler, hub, log)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	log.Info("deskbell daemon running", "addr", cfg.ListenAddr)

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("API server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("API server shutdown failed", "error", err)
	}
	return nil
}
