// Package router provides keyword-based intent classification for user input.
//
// Classification is rule-based and ordered: knowledge questions first, then
// registered plugin commands, then application launch, weather, plugin names,
// voice control and the built-in meta commands. Anything unmatched falls
// through to chat, which the assistant sends to the model.
package router

import (
	"fmt"
	"strings"

	"github.com/nimbus-ai/nimbus/internal/plugin"
	"github.com/nimbus-ai/nimbus/internal/plugins/weather"
)

// Kind is the routed intent category.
type Kind string

const (
	// KindKnowledge is a factual question answered from the knowledge base
	// or by auto-learning.
	KindKnowledge Kind = "knowledge"

	// KindPlugin routes to a registered capability plugin.
	KindPlugin Kind = "plugin"

	// KindAppLaunch opens a desktop application.
	KindAppLaunch Kind = "app_launch"

	// KindWeather is a weather or forecast request.
	KindWeather Kind = "weather"

	// KindVoice controls the voice listener.
	KindVoice Kind = "voice"

	// KindHelp shows usage help.
	KindHelp Kind = "help"

	// KindListPlugins lists registered plugins and their state.
	KindListPlugins Kind = "list_plugins"

	// KindChat is the fallthrough: free-form conversation for the model.
	KindChat Kind = "chat"
)

// Intent is a classified user request.
type Intent struct {
	Kind       Kind
	Confidence float64
	// Variables holds extracted slots: "topic" for knowledge, "plugin" for
	// plugin dispatch, "app" for launches, "city" for weather, "action"
	// for voice control.
	Variables map[string]string
	// Input is the original text, passed through to handlers untouched.
	Input string
}

// String returns the intent in "kind(variables)" form for logging.
func (i *Intent) String() string {
	if len(i.Variables) == 0 {
		return string(i.Kind)
	}
	return fmt.Sprintf("%s%v", i.Kind, i.Variables)
}

// knowledgePhrases mark a factual question. Checked before everything else
// so "what is the weather plugin" still reads as a question.
var knowledgePhrases = []string{
	"what is",
	"who is",
	"explain",
	"define",
	"tell me about",
}

// launchVerbs start an application-launch command.
var launchVerbs = []string{"open", "launch", "start", "run"}

// appIndicators are application names recognized even without a launch verb
// doing the heavy lifting; "open" alone is too common to trust.
var appIndicators = []string{
	"photoshop",
	"discord",
	"chrome",
	"firefox",
	"notepad",
	"calculator",
	"paint",
}

var weatherKeywords = []string{"weather", "temperature", "forecast"}

// voiceActions maps spoken control phrases to listener actions. Ordered so
// longer phrases win ("unmute" before "mute").
var voiceActions = []struct {
	phrase string
	action string
}{
	{"stop listening", "stop"},
	{"start listening", "start"},
	{"unmute", "start"},
	{"mute", "stop"},
}

// Router classifies input against its rules and the plugin registry.
type Router struct {
	registry    *plugin.Registry
	defaultCity string
}

// Config for the router.
type Config struct {
	Registry    *plugin.Registry
	DefaultCity string
}

// New creates a router. A nil registry disables the plugin matching step.
func New(cfg *Config) *Router {
	if cfg == nil {
		cfg = &Config{}
	}
	city := cfg.DefaultCity
	if city == "" {
		city = "London"
	}
	return &Router{
		registry:    cfg.Registry,
		defaultCity: city,
	}
}

// Classify determines the intent of the input. It always returns an intent;
// unmatched input classifies as chat.
func (r *Router) Classify(input string) *Intent {
	text := strings.ToLower(strings.TrimSpace(input))

	if phrase, ok := matchPhrase(text, knowledgePhrases); ok {
		return &Intent{
			Kind:       KindKnowledge,
			Confidence: 0.9,
			Variables:  map[string]string{"topic": extractTopic(input, phrase)},
			Input:      input,
		}
	}

	if r.registry != nil {
		if p, ok := r.registry.Match(input); ok {
			return &Intent{
				Kind:       KindPlugin,
				Confidence: 0.85,
				Variables:  map[string]string{"plugin": p.Name()},
				Input:      input,
			}
		}
	}

	if app, ok := extractApp(text); ok {
		return &Intent{
			Kind:       KindAppLaunch,
			Confidence: 0.85,
			Variables:  map[string]string{"app": app},
			Input:      input,
		}
	}

	if containsAny(text, weatherKeywords) {
		return &Intent{
			Kind:       KindWeather,
			Confidence: 0.9,
			Variables:  map[string]string{"city": weather.ExtractCity(text, r.defaultCity)},
			Input:      input,
		}
	}

	// A plugin mentioned by name, without any of its command keywords, still
	// selects that plugin.
	if r.registry != nil {
		for _, p := range r.registry.List() {
			if p.Enabled() && strings.Contains(text, strings.ToLower(p.Name())) {
				return &Intent{
					Kind:       KindPlugin,
					Confidence: 0.7,
					Variables:  map[string]string{"plugin": p.Name()},
					Input:      input,
				}
			}
		}
	}

	for _, va := range voiceActions {
		if strings.Contains(text, va.phrase) {
			return &Intent{
				Kind:       KindVoice,
				Confidence: 0.95,
				Variables:  map[string]string{"action": va.action},
				Input:      input,
			}
		}
	}

	if text == "help" || strings.HasPrefix(text, "help ") {
		return &Intent{Kind: KindHelp, Confidence: 1.0, Input: input}
	}

	if strings.Contains(text, "list plugins") || strings.Contains(text, "show plugins") {
		return &Intent{Kind: KindListPlugins, Confidence: 1.0, Input: input}
	}

	return &Intent{Kind: KindChat, Confidence: 0.5, Input: input}
}

// matchPhrase returns the first phrase contained in the text.
func matchPhrase(text string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return p, true
		}
	}
	return "", false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
