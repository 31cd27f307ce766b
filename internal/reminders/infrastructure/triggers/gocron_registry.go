// Package triggers backs the scheduler's trigger table with gocron.
package triggers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
)

// FireFunc is invoked when a trigger fires, with the trigger's name.
type FireFunc func(ctx context.Context, name string)

// GocronRegistry implements the trigger registry over a gocron scheduler.
// Replace never diffs: it removes every job and installs the given set, so
// the job table is always exactly what the last scheduling pass computed.
type GocronRegistry struct {
	mu        sync.Mutex
	scheduler gocron.Scheduler
	fire      FireFunc
	logger    *slog.Logger
}

// NewGocronRegistry creates a registry. The fire callback is attached
// later with BindFire because the trigger handler is constructed after
// the registry.
func NewGocronRegistry(clock clockwork.Clock, logger *slog.Logger) (*GocronRegistry, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	scheduler, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &GocronRegistry{scheduler: scheduler, logger: logger}, nil
}

// BindFire sets the callback invoked on every trigger fire. Must be called
// before Start.
func (r *GocronRegistry) BindFire(fire FireFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fire = fire
}

// Start begins executing jobs.
func (r *GocronRegistry) Start() {
	r.scheduler.Start()
}

// Shutdown stops the scheduler and waits for running jobs.
func (r *GocronRegistry) Shutdown() error {
	return r.scheduler.Shutdown()
}

// Replace wipes the job table and installs the given trigger set.
func (r *GocronRegistry) Replace(ctx context.Context, specs []domain.TriggerSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, job := range r.scheduler.Jobs() {
		if err := r.scheduler.RemoveJob(job.ID()); err != nil {
			r.logger.Warn("failed to remove job", "job", job.Name(), "error", err)
		}
	}

	for _, spec := range specs {
		if err := r.addJob(spec); err != nil {
			return fmt.Errorf("failed to register trigger %s: %w", spec.Name, err)
		}
	}

	r.logger.Debug("trigger table replaced", "jobs", len(specs))
	return nil
}

func (r *GocronRegistry) addJob(spec domain.TriggerSpec) error {
	var definition gocron.JobDefinition
	if spec.Period > 0 {
		definition = gocron.DurationJob(spec.Period)
	} else {
		definition = gocron.OneTimeJob(gocron.OneTimeJobStartDateTimes(spec.FireAt))
	}

	name := spec.Name
	options := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithTags(name),
	}
	if spec.Period > 0 {
		options = append(options, gocron.WithStartAt(gocron.WithStartDateTime(spec.FireAt)))
	}

	_, err := r.scheduler.NewJob(
		definition,
		gocron.NewTask(func() {
			fire := r.fireFunc()
			if fire == nil {
				r.logger.Warn("trigger fired before a handler was bound", "trigger", name)
				return
			}
			fire(context.Background(), name)
		}),
		options...,
	)
	return err
}

func (r *GocronRegistry) fireFunc() FireFunc {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fire
}

// JobNames returns the names of all registered jobs, for inspection.
func (r *GocronRegistry) JobNames() []string {
	names := make([]string, 0)
	for _, job := range r.scheduler.Jobs() {
		names = append(names, job.Name())
	}
	return names
}
