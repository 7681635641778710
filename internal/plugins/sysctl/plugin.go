package sysctl

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nimbus-ai/nimbus/internal/errors"
	"github.com/nimbus-ai/nimbus/internal/plugin"
)

// Plugin exposes desktop control as assistant commands.
type Plugin struct {
	plugin.Base
	control SystemControl
	logger  *zap.SugaredLogger
}

// New creates the system control plugin.
func New(control SystemControl, logger *zap.SugaredLogger) *Plugin {
	if control == nil {
		control = NewExecControl()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Plugin{
		Base: plugin.NewBase(
			"system",
			"Control the desktop: volume, brightness, screen lock, processes, system info",
			[]string{
				"volume up", "volume down", "mute",
				"brightness up", "brightness down",
				"lock screen", "lock the screen",
				"list processes", "running processes", "kill process",
				"system info", "system status",
			},
		),
		control: control,
		logger:  logger,
	}
}

// HandleCommand executes a desktop control command.
func (p *Plugin) HandleCommand(ctx context.Context, input string) (string, error) {
	text := strings.ToLower(input)

	var err error
	switch {
	case strings.Contains(text, "volume up"):
		if err = p.control.VolumeUp(ctx); err == nil {
			return "Volume raised.", nil
		}
	case strings.Contains(text, "volume down"):
		if err = p.control.VolumeDown(ctx); err == nil {
			return "Volume lowered.", nil
		}
	case strings.Contains(text, "mute"):
		if err = p.control.MuteVolume(ctx); err == nil {
			return "Volume muted.", nil
		}
	case strings.Contains(text, "brightness up"), strings.Contains(text, "brighter"):
		if err = p.control.BrightnessUp(ctx); err == nil {
			return "Brightness raised.", nil
		}
	case strings.Contains(text, "brightness down"), strings.Contains(text, "dimmer"):
		if err = p.control.BrightnessDown(ctx); err == nil {
			return "Brightness lowered.", nil
		}
	case strings.Contains(text, "lock"):
		if err = p.control.LockScreen(ctx); err == nil {
			return "Screen locked.", nil
		}
	case strings.Contains(text, "kill"):
		return p.killProcess(ctx, input)
	case strings.Contains(text, "processes"):
		var listing string
		if listing, err = p.control.Processes(ctx); err == nil {
			return "Running processes:\n" + listing, nil
		}
	case strings.Contains(text, "system info"), strings.Contains(text, "system status"):
		var info string
		if info, err = p.control.SystemInfo(ctx); err == nil {
			return info, nil
		}
	default:
		return "", errors.User(errors.CodeInvalidInput, "I don't recognize that system command")
	}

	p.logger.Warnw("system command failed", "input", input, "error", err)
	return "", errors.NewBuilder(errors.CodeSystemCommandFailed, "the system command failed").
		System().
		Wrap(err).
		WithSuggestion("Check that the required system utilities are installed").
		Build()
}

// killProcess terminates processes named after the "kill" keyword.
func (p *Plugin) killProcess(ctx context.Context, input string) (string, error) {
	lower := strings.ToLower(input)
	idx := strings.Index(lower, "kill")
	name := strings.TrimSpace(input[idx+len("kill"):])
	for _, prefix := range []string{"the ", "process "} {
		name = strings.TrimPrefix(name, prefix)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.User(errors.CodeInvalidInput, "which process should I kill?")
	}

	if err := p.control.KillProcess(ctx, name); err != nil {
		p.logger.Warnw("kill failed", "process", name, "error", err)
		return "", errors.NewBuilder(errors.CodeSystemCommandFailed, fmt.Sprintf("could not kill %s", name)).
			System().
			Wrap(err).
			WithSuggestion("Check the process name with \"list processes\"").
			Build()
	}
	return fmt.Sprintf("Killed %s.", name), nil
}

// OpenApp launches an application; exposed for the app-launch intent, which
// bypasses keyword matching.
func (p *Plugin) OpenApp(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.User(errors.CodeInvalidInput, "no application named")
	}
	if err := p.control.OpenApp(ctx, name); err != nil {
		return "", errors.NewBuilder(errors.CodeSystemCommandFailed, fmt.Sprintf("could not open %s", name)).
			System().
			Wrap(err).
			Build()
	}
	return fmt.Sprintf("Opening %s.", name), nil
}
