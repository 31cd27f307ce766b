package services

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
)

// DesktopProbes reports the desktop state signals that feed the
// do-not-disturb decision. Implementations may be slow (IPC to the
// desktop session), so the evaluator queries them concurrently.
type DesktopProbes interface {
	IsLocked(ctx context.Context) (bool, error)
	HasAudiblePlayback(ctx context.Context) (bool, error)
	HasFullscreenWindow(ctx context.Context) (bool, error)
}

// DndStatus is the snapshot of all three probe results.
type DndStatus struct {
	Locked          bool
	AudiblePlayback bool
	Fullscreen      bool
}

// DndEvaluator combines desktop state with the user's do-not-disturb
// preferences.
type DndEvaluator struct {
	probes DesktopProbes
	logger *slog.Logger
}

// NewDndEvaluator creates an evaluator over the given probes.
func NewDndEvaluator(probes DesktopProbes, logger *slog.Logger) *DndEvaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &DndEvaluator{probes: probes, logger: logger}
}

// ShouldSuppress queries all three probes concurrently and waits for every
// result before deciding. A probe failure counts as the signal being
// inactive: a broken probe must not permanently silence reminders.
func (e *DndEvaluator) ShouldSuppress(ctx context.Context, prefs domain.DndPreferences) (bool, DndStatus) {
	var status DndStatus

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		status.Locked = e.probe(gctx, "locked", e.probes.IsLocked)
		return nil
	})
	g.Go(func() error {
		status.AudiblePlayback = e.probe(gctx, "audible_playback", e.probes.HasAudiblePlayback)
		return nil
	})
	g.Go(func() error {
		status.Fullscreen = e.probe(gctx, "fullscreen", e.probes.HasFullscreenWindow)
		return nil
	})
	_ = g.Wait()

	suppress := (prefs.WhenLocked && status.Locked) ||
		(prefs.WhenAudiblePlaying && status.AudiblePlayback) ||
		(prefs.WhenFullscreen && status.Fullscreen)

	return suppress, status
}

func (e *DndEvaluator) probe(ctx context.Context, name string, fn func(context.Context) (bool, error)) bool {
	active, err := fn(ctx)
	if err != nil {
		e.logger.Warn("desktop probe failed, treating signal as inactive",
			"probe", name,
			"error", err,
		)
		return false
	}
	return active
}
