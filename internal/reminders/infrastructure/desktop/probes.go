// Package desktop probes the local session state that feeds the
// do-not-disturb decision.
package desktop

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// ProbeCommands holds one command line per desktop signal. An exit status
// of zero means the signal is active; any nonzero status means inactive.
// Desktop environments differ too much for built-in detection, so the
// commands are configuration, e.g.:
//
//	locked:     loginctl show-session self -p LockedHint --value | grep -q yes
//	fullscreen: xprop -id $(xdotool getactivewindow) _NET_WM_STATE | grep -q FULLSCREEN
//
// wrapped in a small script, since the probes run without a shell.
type ProbeCommands struct {
	Locked     string
	Audible    string
	Fullscreen string
}

// CommandProbes runs the configured commands with a per-probe timeout.
type CommandProbes struct {
	commands ProbeCommands
	timeout  time.Duration
}

// NewCommandProbes creates the probe set.
func NewCommandProbes(commands ProbeCommands, timeout time.Duration) *CommandProbes {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &CommandProbes{commands: commands, timeout: timeout}
}

func (p *CommandProbes) IsLocked(ctx context.Context) (bool, error) {
	return p.run(ctx, p.commands.Locked)
}

func (p *CommandProbes) HasAudiblePlayback(ctx context.Context) (bool, error) {
	return p.run(ctx, p.commands.Audible)
}

func (p *CommandProbes) HasFullscreenWindow(ctx context.Context) (bool, error) {
	return p.run(ctx, p.commands.Fullscreen)
}

func (p *CommandProbes) run(ctx context.Context, command string) (bool, error) {
	// An unconfigured probe means the signal cannot be observed on this
	// machine; treat it as inactive rather than erroring on every fire.
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := exec.CommandContext(ctx, fields[0], fields[1:]...).Run()
	// A timed-out probe is killed and reports an exit error; surface the
	// timeout instead of misreading it as "inactive".
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}
