// Package recall exposes the knowledge base as assistant commands: teaching
// facts, looking them up and forgetting them.
package recall

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nimbus-ai/nimbus/internal/errors"
	"github.com/nimbus-ai/nimbus/internal/knowledge"
	"github.com/nimbus-ai/nimbus/internal/plugin"
)

// Plugin handles learn/remember/recall/forget commands.
type Plugin struct {
	plugin.Base
	store   *knowledge.Store
	learner *knowledge.Learner
	logger  *zap.SugaredLogger
}

// New creates the knowledge command plugin.
func New(store *knowledge.Store, learner *knowledge.Learner, logger *zap.SugaredLogger) *Plugin {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Plugin{
		Base: plugin.NewBase(
			"knowledge",
			"Teach me facts, ask what I know, or make me forget",
			[]string{"learn about", "remember that", "remember", "recall", "forget", "what do you know"},
		),
		store:   store,
		learner: learner,
		logger:  logger,
	}
}

// HandleCommand executes a knowledge command.
func (p *Plugin) HandleCommand(ctx context.Context, input string) (string, error) {
	text := strings.ToLower(input)

	switch {
	case strings.Contains(text, "learn about"):
		return p.learnAbout(ctx, input)
	case strings.Contains(text, "remember"):
		return p.remember(input)
	case strings.Contains(text, "forget"):
		return p.forget(input)
	case strings.Contains(text, "what do you know"):
		return p.listKnown()
	case strings.Contains(text, "recall"):
		return p.recall(input)
	default:
		return "", errors.User(errors.CodeInvalidInput, "I don't recognize that knowledge command")
	}
}

// learnAbout looks a topic up online and stores the result.
func (p *Plugin) learnAbout(ctx context.Context, input string) (string, error) {
	topic := afterKeyword(input, "learn about")
	if topic == "" {
		return "", errors.User(errors.CodeInvalidInput, "what should I learn about?")
	}

	summary, err := p.learner.AutoLearn(ctx, topic)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("I've learned about %s: %s", topic, summary), nil
}

// remember stores a user-taught fact. Accepts "remember that X is Y" and
// "remember X: Y".
func (p *Plugin) remember(input string) (string, error) {
	body := afterKeyword(input, "remember that")
	if body == "" {
		body = afterKeyword(input, "remember")
	}
	if body == "" {
		return "", errors.User(errors.CodeInvalidInput, "what should I remember?")
	}

	topic, summary := splitFact(body)
	if topic == "" || summary == "" {
		return "", errors.NewBuilder(errors.CodeInvalidInput, "I couldn't parse that fact").
			User().
			WithSuggestion(`Try "remember that <topic> is <fact>"`).
			Build()
	}

	if err := p.learner.LearnManual(topic, summary); err != nil {
		return "", err
	}
	return fmt.Sprintf("Got it. I'll remember that %s is %s.", topic, summary), nil
}

// splitFact divides a taught fact into topic and summary on ":" or " is ".
func splitFact(body string) (topic, summary string) {
	if idx := strings.Index(body, ":"); idx >= 0 {
		return strings.TrimSpace(body[:idx]), strings.TrimSpace(body[idx+1:])
	}
	if idx := strings.Index(strings.ToLower(body), " is "); idx >= 0 {
		return strings.TrimSpace(body[:idx]), strings.TrimSpace(body[idx+len(" is "):])
	}
	return "", ""
}

func (p *Plugin) forget(input string) (string, error) {
	topic := afterKeyword(input, "forget about")
	if topic == "" {
		topic = afterKeyword(input, "forget")
	}
	if topic == "" {
		return "", errors.User(errors.CodeInvalidInput, "what should I forget?")
	}

	removed, err := p.store.Forget(topic)
	if err != nil {
		return "", err
	}
	if !removed {
		return fmt.Sprintf("I don't know anything about %s.", topic), nil
	}
	return fmt.Sprintf("I've forgotten about %s.", topic), nil
}

func (p *Plugin) recall(input string) (string, error) {
	topic := afterKeyword(input, "recall")
	if topic == "" {
		return "", errors.User(errors.CodeInvalidInput, "what should I recall?")
	}

	best := p.store.Best(topic)
	if best == nil {
		return fmt.Sprintf("I don't know anything about %s yet. Say \"learn about %s\" and I'll look it up.", topic, topic), nil
	}
	return fmt.Sprintf("%s: %s (source: %s)", best.Entry.Topic, best.Entry.Answer(true), best.Entry.Source), nil
}

func (p *Plugin) listKnown() (string, error) {
	entries := p.store.List()
	if len(entries) == 0 {
		return "I haven't learned anything yet.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "I know about %d topics:", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&sb, "\n  - %s (source: %s)", e.Entry.Topic, e.Entry.Source)
	}
	return sb.String(), nil
}

// afterKeyword returns the trimmed text after the keyword, or "".
func afterKeyword(input, keyword string) string {
	lower := strings.ToLower(input)
	idx := strings.Index(lower, keyword)
	if idx < 0 {
		return ""
	}
	return strings.Trim(input[idx+len(keyword):], "?!. ")
}
