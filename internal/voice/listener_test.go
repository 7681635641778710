package voice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// scriptedRecognizer replays utterances from a channel; Listen blocks until
// the next utterance or context cancellation.
type scriptedRecognizer struct {
	utterances chan string
	errs       chan error
}

func newScriptedRecognizer() *scriptedRecognizer {
	return &scriptedRecognizer{
		utterances: make(chan string, 16),
		errs:       make(chan error, 16),
	}
}

func (r *scriptedRecognizer) Listen(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-r.errs:
		return "", err
	case u := <-r.utterances:
		return u, nil
	}
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case cmd := <-ch:
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for command")
		return ""
	}
}

func TestListenerDeliversCommands(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newScriptedRecognizer()
	l := NewListener(rec, "assistant", nil)
	l.Start(context.Background())
	defer l.Close()

	rec.utterances <- "what's the weather"
	assert.Equal(t, "what's the weather", receive(t, l.Commands()))
}

func TestListenerStripsWakeWord(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newScriptedRecognizer()
	l := NewListener(rec, "assistant", nil)
	l.Start(context.Background())
	defer l.Close()

	rec.utterances <- "Assistant, open chrome"
	assert.Equal(t, "open chrome", receive(t, l.Commands()))
}

func TestListenerMuteRequiresWakeWord(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newScriptedRecognizer()
	l := NewListener(rec, "assistant", nil)
	l.Start(context.Background())
	defer l.Close()

	l.StopListening()
	require.False(t, l.Listening())

	// Ignored while muted.
	rec.utterances <- "open chrome"
	// Wake word alone unmutes without delivering a command.
	rec.utterances <- "assistant"
	// Now commands flow again.
	rec.utterances <- "open firefox"

	assert.Equal(t, "open firefox", receive(t, l.Commands()))
	assert.True(t, l.Listening())
}

func TestListenerWakeWordWithCommand(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newScriptedRecognizer()
	l := NewListener(rec, "assistant", nil)
	l.Start(context.Background())
	defer l.Close()

	l.StopListening()
	rec.utterances <- "assistant what time is it"
	assert.Equal(t, "what time is it", receive(t, l.Commands()))
	assert.True(t, l.Listening())
}

func TestListenerRecoversFromErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newScriptedRecognizer()
	l := NewListener(rec, "assistant", nil)
	l.errBackoff = time.Millisecond
	l.Start(context.Background())
	defer l.Close()

	rec.errs <- errors.New("microphone glitch")
	rec.utterances <- "still alive"
	assert.Equal(t, "still alive", receive(t, l.Commands()))
}

func TestListenerCloseClosesChannel(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newScriptedRecognizer()
	l := NewListener(rec, "assistant", nil)
	l.Start(context.Background())

	l.Close()

	_, open := <-l.Commands()
	assert.False(t, open)
}

func TestListenerIgnoresEmptyUtterances(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newScriptedRecognizer()
	l := NewListener(rec, "assistant", nil)
	l.Start(context.Background())
	defer l.Close()

	rec.utterances <- "   "
	rec.utterances <- "real command"
	assert.Equal(t, "real command", receive(t, l.Commands()))
}
