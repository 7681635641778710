// Package dispatch executes classified intents against their handlers.
//
// Every intent kind has exactly one handler. Execute never returns an error:
// handler failures are formatted into user-facing messages, and a panicking
// handler is recovered so one bad plugin cannot take the assistant down.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/nimbus-ai/nimbus/internal/errors"
	"github.com/nimbus-ai/nimbus/internal/knowledge"
	"github.com/nimbus-ai/nimbus/internal/plugin"
	"github.com/nimbus-ai/nimbus/internal/plugins/sysctl"
	"github.com/nimbus-ai/nimbus/internal/plugins/weather"
	"github.com/nimbus-ai/nimbus/internal/router"
)

// Chatter handles free-form conversation, typically via the model.
type Chatter interface {
	Chat(ctx context.Context, input string) (string, error)
}

// VoiceControl starts and stops the voice listener.
type VoiceControl interface {
	StartListening()
	StopListening()
}

// Dispatcher routes intents to handlers.
type Dispatcher struct {
	registry *plugin.Registry
	system   *sysctl.Plugin
	weather  *weather.Plugin
	store    *knowledge.Store
	learner  *knowledge.Learner
	chatter  Chatter
	voice    VoiceControl
	logger   *zap.SugaredLogger

	autoLearn bool
	// autoLearnThreshold is the relevance a stored answer needs before the
	// dispatcher stops trying to refresh it from external sources.
	autoLearnThreshold float64
}

// Config wires the dispatcher's handlers. Nil fields disable the matching
// intent with a polite message instead of crashing.
type Config struct {
	Registry           *plugin.Registry
	System             *sysctl.Plugin
	Weather            *weather.Plugin
	Store              *knowledge.Store
	Learner            *knowledge.Learner
	Chatter            Chatter
	Voice              VoiceControl
	AutoLearn          bool
	AutoLearnThreshold float64
	Logger             *zap.SugaredLogger
}

// New creates a dispatcher.
func New(cfg *Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Dispatcher{
		registry:           cfg.Registry,
		system:             cfg.System,
		weather:            cfg.Weather,
		store:              cfg.Store,
		learner:            cfg.Learner,
		chatter:            cfg.Chatter,
		voice:              cfg.Voice,
		autoLearn:          cfg.AutoLearn,
		autoLearnThreshold: cfg.AutoLearnThreshold,
		logger:             logger,
	}
}

// SetAutoLearn toggles auto-learning for knowledge questions.
func (d *Dispatcher) SetAutoLearn(enabled bool) {
	d.autoLearn = enabled
}

// Execute runs the intent's handler and returns the response text.
func (d *Dispatcher) Execute(ctx context.Context, intent *router.Intent) (response string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorw("handler panicked", "intent", intent.String(), "panic", r)
			response = "Sorry, something went wrong handling that."
		}
	}()

	var err error
	switch intent.Kind {
	case router.KindKnowledge:
		response, err = d.handleKnowledge(ctx, intent)
	case router.KindPlugin:
		response, err = d.handlePlugin(ctx, intent)
	case router.KindAppLaunch:
		response, err = d.handleAppLaunch(ctx, intent)
	case router.KindWeather:
		response, err = d.handleWeather(ctx, intent)
	case router.KindVoice:
		response = d.handleVoice(intent)
	case router.KindHelp:
		response = d.helpText()
	case router.KindListPlugins:
		response = d.listPlugins()
	default:
		response, err = d.handleChat(ctx, intent)
	}

	if err != nil {
		d.logger.Warnw("handler failed", "intent", intent.String(), "error", err)
		return "Sorry, I couldn't do that. " + userMessage(err)
	}
	return response
}

// handleKnowledge answers a factual question: knowledge base first, then
// auto-learning, then the model.
func (d *Dispatcher) handleKnowledge(ctx context.Context, intent *router.Intent) (string, error) {
	topic := intent.Variables["topic"]
	if topic == "" {
		return d.handleChat(ctx, intent)
	}

	var stored *knowledge.SearchResult
	if d.store != nil {
		stored = d.store.Best(topic)
	}
	if stored != nil && stored.Relevance >= d.autoLearnThreshold {
		return stored.Entry.Summary, nil
	}

	if d.autoLearn && d.learner != nil {
		if summary, err := d.learner.AutoLearn(ctx, topic); err == nil {
			return summary, nil
		}
	}

	// A weak stored answer still beats sending the question to the model.
	if stored != nil {
		return stored.Entry.Summary, nil
	}

	response, err := d.handleChat(ctx, intent)
	if err == nil && response != "" && d.chatter != nil && d.autoLearn && d.learner != nil {
		// Keep the model's answer so the next time this question comes up
		// it's served from the knowledge base.
		if cerr := d.learner.CaptureResponse(topic, response); cerr != nil {
			d.logger.Warnw("failed to capture response", "topic", topic, "error", cerr)
		}
	}
	return response, err
}

func (d *Dispatcher) handlePlugin(ctx context.Context, intent *router.Intent) (string, error) {
	name := intent.Variables["plugin"]
	p, ok := d.registry.Get(name)
	if !ok || !p.Enabled() {
		return "", fmt.Errorf("plugin %q is not available", name)
	}
	return p.HandleCommand(ctx, intent.Input)
}

func (d *Dispatcher) handleAppLaunch(ctx context.Context, intent *router.Intent) (string, error) {
	if d.system == nil {
		return "Application launching is not available.", nil
	}
	return d.system.OpenApp(ctx, intent.Variables["app"])
}

func (d *Dispatcher) handleWeather(ctx context.Context, intent *router.Intent) (string, error) {
	if d.weather == nil || !d.weather.Enabled() {
		return "The weather plugin is disabled.", nil
	}
	return d.weather.HandleCommand(ctx, intent.Input)
}

func (d *Dispatcher) handleVoice(intent *router.Intent) string {
	if d.voice == nil {
		return "Voice control is not active."
	}
	switch intent.Variables["action"] {
	case "stop":
		d.voice.StopListening()
		return "Okay, I'll stop listening. Say the wake word to wake me up."
	case "start":
		d.voice.StartListening()
		return "I'm listening."
	default:
		return "Voice control is not active."
	}
}

// handleChat falls through to the model. With no model configured the
// assistant admits it rather than guessing.
func (d *Dispatcher) handleChat(ctx context.Context, intent *router.Intent) (string, error) {
	if d.chatter != nil {
		return d.chatter.Chat(ctx, intent.Input)
	}
	return "I'm not sure how to help with that. Say \"help\" to see what I can do.", nil
}

func (d *Dispatcher) helpText() string {
	var sb strings.Builder
	sb.WriteString("I can help with:\n")
	sb.WriteString("  - Questions: \"what is quantum computing\", \"who is Alan Turing\"\n")
	sb.WriteString("  - Learning: \"learn about X\", \"remember that X is Y\", \"forget X\"\n")
	sb.WriteString("  - Weather: \"weather in Tokyo\", \"forecast for Berlin\"\n")
	sb.WriteString("  - Apps: \"open chrome\", \"launch calculator\"\n")
	sb.WriteString("  - Web: \"search for ...\", \"news\", \"youtube ...\"\n")
	sb.WriteString("  - Clipboard: \"copy ...\", \"paste\"\n")
	sb.WriteString("  - Plugins: \"list plugins\", \"enable/disable <plugin>\"")
	return sb.String()
}

func (d *Dispatcher) listPlugins() string {
	if d.registry == nil {
		return "No plugins are registered."
	}

	plugins := d.registry.List()
	if len(plugins) == 0 {
		return "No plugins are registered."
	}

	var sb strings.Builder
	sb.WriteString("Registered plugins:")
	for _, p := range plugins {
		state := "enabled"
		if !p.Enabled() {
			state = "disabled"
		}
		fmt.Fprintf(&sb, "\n  - %s (%s): %s", p.Name(), state, p.Description())
	}
	return sb.String()
}

// userMessage formats an error for the user: the friendly message only, no
// codes or stack of wrapped causes.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := apperrors.FormatUserMessage(err)
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}
	return strings.TrimSpace(msg)
}
