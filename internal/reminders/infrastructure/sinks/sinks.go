// Package sinks provides the desktop output channels: system
// notifications and spoken text.
package sinks

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/gen2brain/beeep"
	"github.com/google/uuid"
)

// DesktopNotifier shows system notifications through the platform's
// notification service.
//
// The service offers no handle to dismiss a notification, so Clear always
// reports false: callers treat the notification as still visible and the
// desktop's own timeout takes care of it.
type DesktopNotifier struct {
	icon   string
	logger *slog.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// NewDesktopNotifier creates a notifier. icon is an optional path to the
// notification icon.
func NewDesktopNotifier(icon string, logger *slog.Logger) *DesktopNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &DesktopNotifier{
		icon:   icon,
		logger: logger,
		active: make(map[string]struct{}),
	}
}

// Notify shows a notification and returns a synthetic ID for later Clear
// calls.
func (n *DesktopNotifier) Notify(_ context.Context, title, body string) (string, error) {
	if err := beeep.Notify(title, body, n.icon); err != nil {
		return "", fmt.Errorf("failed to show notification: %w", err)
	}
	id := uuid.New().String()
	n.mu.Lock()
	n.active[id] = struct{}{}
	n.mu.Unlock()
	return id, nil
}

// Clear forgets the notification. It reports false because the platform
// service cannot actually dismiss it.
func (n *DesktopNotifier) Clear(_ context.Context, id string) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.active[id]; !ok {
		return false, nil
	}
	delete(n.active, id)
	return false, nil
}

// CommandSpeaker speaks text by invoking an external text-to-speech
// command, e.g. "espeak-ng" on Linux or "say" on macOS. The text is passed
// as the final argument.
type CommandSpeaker struct {
	command []string
	logger  *slog.Logger
}

// NewCommandSpeaker creates a speaker from a whitespace-separated command
// line. An empty command yields a speaker that logs instead of speaking.
func NewCommandSpeaker(command string, logger *slog.Logger) *CommandSpeaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandSpeaker{command: strings.Fields(command), logger: logger}
}

// Speak runs the configured command with the text appended.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	if len(s.command) == 0 {
		s.logger.Info("no speech command configured", "text", text)
		return nil
	}
	args := append(append([]string(nil), s.command[1:]...), text)
	cmd := exec.CommandContext(ctx, s.command[0], args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("speech command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// NoopNotifier drops notifications. Used by CLI commands that mutate the
// store but never fire triggers.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string, string) (string, error) { return "", nil }
func (NoopNotifier) Clear(context.Context, string) (bool, error)            { return false, nil }

// NoopSpeaker drops speech output.
type NoopSpeaker struct{}

func (NoopSpeaker) Speak(context.Context, string) error { return nil }
