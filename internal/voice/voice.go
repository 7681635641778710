// Package voice provides speech input and output.
//
// Recognition and synthesis are behind interfaces; the real implementations
// shell out to platform tools. The listener runs recognition in its own
// goroutine and delivers commands over a channel, gated by a wake word.
package voice

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Recognizer captures one utterance and returns its transcript. Implementations
// block until speech is recognized, the context is cancelled, or an error occurs.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

// Speaker speaks text aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// maxSpeechLen caps spoken responses; long answers are for the screen.
const maxSpeechLen = 500

// ExecSpeaker speaks via the platform TTS command.
type ExecSpeaker struct{}

// NewExecSpeaker creates the platform TTS speaker.
func NewExecSpeaker() *ExecSpeaker {
	return &ExecSpeaker{}
}

// Speak runs the platform TTS tool. Text beyond the speech cap is dropped.
func (s *ExecSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) > maxSpeechLen {
		text = text[:maxSpeechLen]
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "say", text)
	case "windows":
		script := fmt.Sprintf(
			"Add-Type -AssemblyName System.Speech; (New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak(%q)",
			text)
		cmd = exec.CommandContext(ctx, "powershell", "-Command", script)
	default:
		cmd = exec.CommandContext(ctx, "espeak", text)
	}
	return cmd.Run()
}

// CommandRecognizer shells out to a transcription command (for example a
// whisper CLI wrapper) that records one utterance and prints the transcript.
type CommandRecognizer struct {
	command string
	args    []string
}

// NewCommandRecognizer creates a recognizer around the given command.
func NewCommandRecognizer(command string, args ...string) *CommandRecognizer {
	return &CommandRecognizer{command: command, args: args}
}

// Listen runs the transcription command and returns its trimmed output.
func (r *CommandRecognizer) Listen(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, r.command, r.args...).Output()
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
