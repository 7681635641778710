package voice

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Listener runs speech recognition in a goroutine and delivers commands over
// a channel. While muted, only an utterance containing the wake word gets
// through; it reactivates the listener and any trailing text after the wake
// word is delivered as a command.
type Listener struct {
	rec      Recognizer
	wakeWord string
	out      chan string
	active   atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *zap.SugaredLogger

	// errBackoff avoids a tight loop when the microphone is broken.
	errBackoff time.Duration
}

// NewListener creates a listener. It starts active.
func NewListener(rec Recognizer, wakeWord string, logger *zap.SugaredLogger) *Listener {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	l := &Listener{
		rec:        rec,
		wakeWord:   strings.ToLower(strings.TrimSpace(wakeWord)),
		out:        make(chan string),
		logger:     logger,
		errBackoff: time.Second,
	}
	l.active.Store(true)
	return l
}

// Commands returns the channel recognized commands arrive on. The channel
// closes when the listener shuts down.
func (l *Listener) Commands() <-chan string {
	return l.out
}

// Start launches the recognition loop.
func (l *Listener) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	l.wg.Add(1)
	go l.loop(ctx)
}

// Close stops the recognition loop and closes the command channel.
func (l *Listener) Close() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
}

// StartListening unmutes the listener.
func (l *Listener) StartListening() {
	l.active.Store(true)
}

// StopListening mutes the listener until the wake word is heard.
func (l *Listener) StopListening() {
	l.active.Store(false)
}

// Listening reports whether the listener is unmuted.
func (l *Listener) Listening() bool {
	return l.active.Load()
}

func (l *Listener) loop(ctx context.Context) {
	defer l.wg.Done()
	defer close(l.out)

	for {
		if ctx.Err() != nil {
			return
		}

		utterance, err := l.rec.Listen(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Warnw("recognition error", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.errBackoff):
			}
			continue
		}

		command, ok := l.filter(utterance)
		if !ok {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case l.out <- command:
		}
	}
}

// filter applies the wake-word gate and returns the command to deliver.
func (l *Listener) filter(utterance string) (string, bool) {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)

	idx := -1
	if l.wakeWord != "" {
		idx = strings.Index(lower, l.wakeWord)
	}

	if !l.active.Load() {
		if idx < 0 {
			return "", false
		}
		l.active.Store(true)
	}

	// Strip the wake word so "assistant, what's the weather" routes on the
	// command alone.
	if idx >= 0 {
		text = strings.Trim(text[idx+len(l.wakeWord):], " ,.!?")
		if text == "" {
			return "", false
		}
	}

	return text, true
}
