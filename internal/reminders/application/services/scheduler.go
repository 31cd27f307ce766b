// Package services contains the reminder scheduler and trigger handler:
// the event-driven core that keeps platform triggers in sync with the
// settings store and turns fired triggers into user-visible output.
package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
	"github.com/pmstoolbox/deskbell/internal/shared/infrastructure/eventbus"
)

// TriggerRegistry is the platform trigger table. The scheduler owns the
// whole namespace: Replace wipes every existing trigger and installs the
// given set, never diffing.
type TriggerRegistry interface {
	Replace(ctx context.Context, specs []domain.TriggerSpec) error
}

// Resyncer triggers a full scheduling pass. The trigger handler and the
// command handlers depend on this rather than on the Scheduler directly.
type Resyncer interface {
	Resync(ctx context.Context) error
}

// Scheduler reconciles the trigger registry with the settings store.
// Each pass is idempotent and total: given the same store content it
// produces the same trigger set, so overlapping resyncs degrade to
// last-writer-wins.
type Scheduler struct {
	store     domain.Store
	triggers  TriggerRegistry
	publisher eventbus.Publisher
	clock     clockwork.Clock
	logger    *slog.Logger

	// Serializes passes so the wipe-and-rebuild of one pass cannot
	// interleave with another's.
	mu sync.Mutex
}

// NewScheduler creates a scheduler.
func NewScheduler(
	store domain.Store,
	triggers TriggerRegistry,
	publisher eventbus.Publisher,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:     store,
		triggers:  triggers,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// Resync performs one full scheduling pass: load the store, merge defaults,
// drop expired one-shot reminders, and rebuild the entire trigger table.
// Trigger registry errors are logged and returned but never retried.
func (s *Scheduler) Resync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, merged := s.store.Load(ctx)
	if merged {
		if err := s.store.Save(ctx, settings); err != nil {
			s.logger.Warn("failed to persist merged default settings", "error", err)
		} else {
			s.logger.Info("merged default do-not-disturb settings into store")
		}
	}

	now := s.clock.Now()
	live, expired := domain.PartitionExpired(settings.Reminders, now)
	if len(expired) > 0 {
		for _, e := range expired {
			s.logger.Info("dropping expired one-shot reminder",
				"reminder_id", e.ID,
				"time", e.Time,
			)
		}
		settings.Reminders = live
		if err := s.store.Save(ctx, settings); err != nil {
			s.logger.Error("failed to persist expiry cleanup", "error", err)
		} else {
			s.broadcastRemindersChanged(ctx, live)
		}
	}

	specs := domain.ComputeTriggerSet(settings, now)
	if err := s.triggers.Replace(ctx, specs); err != nil {
		s.logger.Error("failed to replace trigger set", "error", err)
		return err
	}

	s.logger.Info("resync complete",
		"reminders", len(settings.Reminders),
		"expired", len(expired),
		"triggers", len(specs),
	)
	return nil
}

func (s *Scheduler) broadcastRemindersChanged(ctx context.Context, reminders []domain.Entry) {
	event := domain.RemindersChanged{Reminders: reminders}
	if err := eventbus.PublishJSON(ctx, s.publisher, domain.RoutingKeyRemindersChanged, event); err != nil {
		s.logger.Warn("failed to broadcast reminders change", "error", err)
	}
}
