// Package clipboard implements the clipboard plugin on the system clipboard.
package clipboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/nimbus-ai/nimbus/internal/errors"
	"github.com/nimbus-ai/nimbus/internal/plugin"
)

// Board abstracts the system clipboard for testing.
type Board interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// systemBoard is the real clipboard.
type systemBoard struct{}

func (systemBoard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemBoard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// maxSpokenLen caps clipboard content echoed back to the user.
const maxSpokenLen = 300

// Plugin handles copy and paste commands.
type Plugin struct {
	plugin.Base
	board Board
}

// New creates the clipboard plugin. A nil board uses the system clipboard.
func New(board Board) *Plugin {
	if board == nil {
		board = systemBoard{}
	}
	return &Plugin{
		Base: plugin.NewBase(
			"clipboard",
			"Copy text to and read text from the clipboard",
			[]string{"copy", "clipboard", "paste"},
		),
		board: board,
	}
}

// HandleCommand executes a clipboard command.
func (p *Plugin) HandleCommand(ctx context.Context, input string) (string, error) {
	text := strings.ToLower(input)

	switch {
	case strings.Contains(text, "copy"):
		return p.copy(input)
	case strings.Contains(text, "paste"), strings.Contains(text, "clipboard"):
		return p.read()
	default:
		return "", errors.User(errors.CodeInvalidInput, "I don't recognize that clipboard command")
	}
}

// copy stores the text after the "copy" keyword.
func (p *Plugin) copy(input string) (string, error) {
	lower := strings.ToLower(input)
	idx := strings.Index(lower, "copy")
	payload := strings.TrimSpace(input[idx+len("copy"):])
	if payload == "" {
		return "", errors.User(errors.CodeInvalidInput, "what should I copy?")
	}

	if err := p.board.WriteAll(payload); err != nil {
		return "", errors.NewBuilder(errors.CodeClipboardFailed, "could not write to the clipboard").
			System().
			Wrap(err).
			WithSuggestion("On Linux, install xclip or xsel").
			Build()
	}
	return fmt.Sprintf("Copied %q to the clipboard.", payload), nil
}

func (p *Plugin) read() (string, error) {
	content, err := p.board.ReadAll()
	if err != nil {
		return "", errors.NewBuilder(errors.CodeClipboardFailed, "could not read the clipboard").
			System().
			Wrap(err).
			WithSuggestion("On Linux, install xclip or xsel").
			Build()
	}
	if strings.TrimSpace(content) == "" {
		return "The clipboard is empty.", nil
	}
	if len(content) > maxSpokenLen {
		content = content[:maxSpokenLen] + "..."
	}
	return "Clipboard contains: " + content, nil
}
