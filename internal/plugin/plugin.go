// Package plugin defines the capability plugin interface and its registry.
//
// Plugins are compiled in and registered explicitly at startup; there is no
// dynamic discovery. The registry remembers per-plugin enable state across
// runs in a small JSON file.
package plugin

import (
	"context"
	"strings"
)

// Plugin is a single assistant capability.
type Plugin interface {
	// Name returns the unique plugin name.
	Name() string

	// Description returns a one-line summary shown in plugin listings.
	Description() string

	// Commands returns the keywords this plugin reacts to. Matching is
	// case-insensitive substring against the whole input.
	Commands() []string

	// Enabled reports whether the plugin currently accepts commands.
	Enabled() bool

	// SetEnabled toggles the plugin.
	SetEnabled(enabled bool)

	// HandleCommand executes the command and returns a response for the
	// user. The full original input is passed through untouched.
	HandleCommand(ctx context.Context, input string) (string, error)
}

// Base carries the name, description, command list and enable flag so
// concrete plugins only implement HandleCommand.
type Base struct {
	name        string
	description string
	commands    []string
	enabled     bool
}

// NewBase creates plugin metadata. Plugins start enabled.
func NewBase(name, description string, commands []string) Base {
	return Base{
		name:        name,
		description: description,
		commands:    commands,
		enabled:     true,
	}
}

// Name returns the plugin name.
func (b *Base) Name() string { return b.name }

// Description returns the plugin description.
func (b *Base) Description() string { return b.description }

// Commands returns the command keywords.
func (b *Base) Commands() []string { return b.commands }

// Enabled reports the enable flag.
func (b *Base) Enabled() bool { return b.enabled }

// SetEnabled sets the enable flag.
func (b *Base) SetEnabled(enabled bool) { b.enabled = enabled }

// CanHandle reports whether any of the plugin's command keywords occurs in
// the input. Matching is case-insensitive.
func CanHandle(p Plugin, input string) bool {
	text := strings.ToLower(input)
	for _, cmd := range p.Commands() {
		if strings.Contains(text, strings.ToLower(cmd)) {
			return true
		}
	}
	return false
}
