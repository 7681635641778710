// Package assistant runs the request pipeline: classify, dispatch, respond.
//
// The assistant owns the session: a router, a dispatcher over the plugin
// registry, the knowledge base, optional conversation history and optional
// speech output. One ProcessInput call handles one user turn.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nimbus-ai/nimbus/internal/config"
	"github.com/nimbus-ai/nimbus/internal/dispatch"
	"github.com/nimbus-ai/nimbus/internal/history"
	"github.com/nimbus-ai/nimbus/internal/knowledge"
	"github.com/nimbus-ai/nimbus/internal/model"
	"github.com/nimbus-ai/nimbus/internal/plugin"
	"github.com/nimbus-ai/nimbus/internal/plugins/sysctl"
	"github.com/nimbus-ai/nimbus/internal/plugins/weather"
	"github.com/nimbus-ai/nimbus/internal/router"
	"github.com/nimbus-ai/nimbus/internal/stats"
	"github.com/nimbus-ai/nimbus/internal/voice"
)

// historyWindow is how many past messages feed the chat prompt.
const historyWindow = 6

// Assistant is one running session.
type Assistant struct {
	cfg        *config.Config
	rtr        *router.Router
	dispatcher *dispatch.Dispatcher
	mdl        model.Model
	store      *knowledge.Store
	registry   *plugin.Registry
	hist       *history.Store
	collector  *stats.Collector
	speaker    voice.Speaker
	logger     *zap.SugaredLogger

	learningEnabled bool
	conversationID  string
}

// Options wires an assistant. Registry, Store and Learner are required; the
// rest degrade gracefully when nil.
type Options struct {
	Config        *config.Config
	Registry      *plugin.Registry
	Store         *knowledge.Store
	Learner       *knowledge.Learner
	Model         model.Model
	History       *history.Store
	Stats         *stats.Collector
	Speaker       voice.Speaker
	Voice         dispatch.VoiceControl
	SystemPlugin  *sysctl.Plugin
	WeatherPlugin *weather.Plugin
	Logger        *zap.SugaredLogger
}

// New creates an assistant session.
func New(opts *Options) *Assistant {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	collector := opts.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}

	a := &Assistant{
		cfg:             cfg,
		mdl:             opts.Model,
		store:           opts.Store,
		registry:        opts.Registry,
		hist:            opts.History,
		collector:       collector,
		speaker:         opts.Speaker,
		logger:          logger,
		learningEnabled: cfg.Learning.Enabled,
	}

	a.rtr = router.New(&router.Config{
		Registry:    opts.Registry,
		DefaultCity: cfg.Weather.DefaultCity,
	})

	a.dispatcher = dispatch.New(&dispatch.Config{
		Registry:           opts.Registry,
		System:             opts.SystemPlugin,
		Weather:            opts.WeatherPlugin,
		Store:              opts.Store,
		Learner:            opts.Learner,
		Chatter:            a,
		Voice:              opts.Voice,
		AutoLearn:          cfg.Learning.Enabled,
		AutoLearnThreshold: cfg.Learning.AutoLearnThreshold,
		Logger:             logger,
	})

	return a
}

// StartSession opens a conversation in the history log.
func (a *Assistant) StartSession(ctx context.Context, mode config.Mode) {
	if a.hist == nil {
		return
	}
	id, err := a.hist.StartConversation(ctx, string(mode))
	if err != nil {
		a.logger.Warnw("history unavailable, continuing without it", "error", err)
		return
	}
	a.conversationID = id
}

// LearningEnabled reports whether auto-learning is active.
func (a *Assistant) LearningEnabled() bool {
	return a.learningEnabled
}

// ProcessInput handles one user turn and returns the response text.
func (a *Assistant) ProcessInput(ctx context.Context, input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	if response, handled := a.handleControlCommand(ctx, input); handled {
		return response
	}

	intent := a.rtr.Classify(input)
	a.collector.RecordRequest(string(intent.Kind))
	a.logger.Debugw("classified", "intent", intent.String())
	a.record(ctx, history.RoleUser, input, string(intent.Kind))

	response := a.dispatcher.Execute(ctx, intent)

	a.record(ctx, history.RoleAssistant, response, string(intent.Kind))
	return response
}

// Speak voices a response if speech output is configured.
func (a *Assistant) Speak(ctx context.Context, text string) {
	if a.speaker == nil || !a.cfg.TTSEnabled || text == "" {
		return
	}
	if err := a.speaker.Speak(ctx, text); err != nil {
		a.logger.Warnw("speech output failed", "error", err)
	}
}

// Chat answers free-form input via the model, with knowledge and recent
// conversation as context. Satisfies dispatch.Chatter.
func (a *Assistant) Chat(ctx context.Context, input string) (string, error) {
	if a.mdl == nil || !a.mdl.IsAvailable() {
		if a.cfg.FallbackToSimple {
			return "I'm not sure how to help with that. Say \"help\" to see what I can do.", nil
		}
		return "", fmt.Errorf("no model available")
	}

	var known []knowledge.SearchResult
	if a.store != nil {
		known = a.store.Search(input)
	}
	var recent []history.Message
	if a.hist != nil && a.conversationID != "" {
		recent, _ = a.hist.RecentMessages(ctx, a.conversationID, historyWindow)
	}

	resp, err := a.mdl.Generate(ctx, &model.Request{
		Prompt: buildPrompt(input, known, recent),
	})
	if err != nil {
		a.collector.RecordModelCall(true)
		a.logger.Warnw("model call failed", "error", err)
		if a.cfg.FallbackToSimple {
			return "I couldn't reach the model. Say \"help\" to see what I can do without it.", nil
		}
		return "", err
	}

	a.collector.RecordModelCall(false)
	return strings.TrimSpace(resp.Text), nil
}

// handleControlCommand intercepts session control: toggling learning and
// plugins, stats and knowledge cleanup.
func (a *Assistant) handleControlCommand(ctx context.Context, input string) (string, bool) {
	text := strings.ToLower(strings.TrimSpace(input))

	switch {
	case text == "enable learning":
		a.learningEnabled = true
		a.dispatcher.SetAutoLearn(true)
		return "Learning is on. I'll look up things I don't know.", true

	case text == "disable learning":
		a.learningEnabled = false
		a.dispatcher.SetAutoLearn(false)
		return "Learning is off. I'll only use what I already know.", true

	case text == "learning stats", text == "stats":
		return a.statsSummary(), true

	case text == "cleanup knowledge", text == "clean up knowledge":
		return a.cleanupKnowledge(), true

	case text == "clear learning cache":
		return a.clearKnowledge(), true

	case strings.HasPrefix(text, "enable "):
		return a.togglePlugin(strings.TrimPrefix(text, "enable "), true)

	case strings.HasPrefix(text, "disable "):
		return a.togglePlugin(strings.TrimPrefix(text, "disable "), false)
	}

	return "", false
}

func (a *Assistant) togglePlugin(name string, enabled bool) (string, bool) {
	name = strings.TrimSuffix(strings.TrimSpace(name), " plugin")
	if a.registry == nil {
		return "No plugins are registered.", true
	}
	if _, ok := a.registry.Get(name); !ok {
		// Not a plugin name; let classification handle the input.
		return "", false
	}
	if err := a.registry.SetEnabled(name, enabled); err != nil {
		return "I couldn't change that plugin: " + err.Error(), true
	}
	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	return fmt.Sprintf("Plugin %s is now %s.", name, state), true
}

func (a *Assistant) statsSummary() string {
	summary := a.collector.Summary()
	if a.store != nil {
		summary += fmt.Sprintf("\n  knowledge base: %d topics", a.store.Len())
	}
	return summary
}

func (a *Assistant) cleanupKnowledge() string {
	if a.store == nil {
		return "There is no knowledge base to clean."
	}
	maxAge := time.Duration(a.cfg.Learning.MaxKnowledgeAgeDays) * 24 * time.Hour
	removed, err := a.store.CleanupOld(maxAge)
	if err != nil {
		return "Cleanup failed: " + err.Error()
	}
	return fmt.Sprintf("Cleaned up %d stale entries.", removed)
}

func (a *Assistant) clearKnowledge() string {
	if a.store == nil {
		return "There is no knowledge base to clear."
	}
	if err := a.store.Clear(); err != nil {
		return "Clearing failed: " + err.Error()
	}
	return "I've forgotten everything I learned."
}

func (a *Assistant) record(ctx context.Context, role, content, kind string) {
	if a.hist == nil || a.conversationID == "" || content == "" {
		return
	}
	if err := a.hist.AddMessage(ctx, a.conversationID, role, content, kind); err != nil {
		a.logger.Warnw("failed to record message", "error", err)
	}
}
