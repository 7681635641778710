package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nimbus-ai/nimbus/internal/assistant"
	"github.com/nimbus-ai/nimbus/internal/config"
	"github.com/nimbus-ai/nimbus/internal/history"
	"github.com/nimbus-ai/nimbus/internal/knowledge"
	"github.com/nimbus-ai/nimbus/internal/logging"
	"github.com/nimbus-ai/nimbus/internal/model"
	"github.com/nimbus-ai/nimbus/internal/plugin"
	"github.com/nimbus-ai/nimbus/internal/plugins/clipboard"
	"github.com/nimbus-ai/nimbus/internal/plugins/recall"
	"github.com/nimbus-ai/nimbus/internal/plugins/sysctl"
	"github.com/nimbus-ai/nimbus/internal/plugins/weather"
	"github.com/nimbus-ai/nimbus/internal/plugins/websearch"
	"github.com/nimbus-ai/nimbus/internal/stats"
	"github.com/nimbus-ai/nimbus/internal/voice"
)

var (
	bannerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	responseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

// applyMode folds the launch mode and flags into the config.
func applyMode(cfg *config.Config, mode config.Mode) {
	switch mode {
	case config.ModeLearning:
		cfg.Learning.Enabled = true
		cfg.Voice.Enabled = false
	case config.ModePro:
		cfg.Learning.Enabled = true
		cfg.Voice.Enabled = true
	case config.ModeBasic:
		cfg.Learning.Enabled = false
		cfg.Voice.Enabled = false
	case config.ModeVoice:
		cfg.Voice.Enabled = true
	case config.ModeText:
		cfg.Voice.Enabled = false
	}

	if flagNoLearning {
		cfg.Learning.Enabled = false
	}
	if flagNoVoice {
		cfg.Voice.Enabled = false
		cfg.TTSEnabled = false
	}
}

// runMode builds the assistant for the given mode and runs the session loop.
func runMode(mode config.Mode) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	applyMode(cfg, mode)

	logger := logging.New(flagDebug)
	defer logger.Sync()

	if err := cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create data directories: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	app.assistant.StartSession(ctx, mode)

	if app.listener != nil {
		app.listener.Start(ctx)
	}

	printBanner(cfg, mode)
	return app.run(ctx)
}

// app holds the built session and everything that needs closing.
type app struct {
	assistant *assistant.Assistant
	listener  *voice.Listener
	hist      *history.Store
	logger    *zap.SugaredLogger
}

// buildApp wires the registry, plugins, knowledge base, model and history.
func buildApp(cfg *config.Config, logger *zap.SugaredLogger) (*app, error) {
	registry := plugin.NewRegistry(cfg.Paths.RegistryFile, logger)

	collector := stats.NewCollector()

	store := knowledge.NewStore(cfg.Paths.KnowledgeFile, cfg.Learning.Scoring, logger)
	store.SetObserver(collector)
	learner := knowledge.NewLearner(store, logger)

	control := sysctl.NewExecControl()
	systemPlugin := sysctl.New(control, logger)
	weatherPlugin := weather.New(cfg.Weather.APIKey, cfg.Weather.DefaultCity, logger)
	searchPlugin := websearch.New(control.OpenApp, logger)
	clipboardPlugin := clipboard.New(nil)
	recallPlugin := recall.New(store, learner, logger)

	// Registration order is dispatch precedence.
	for _, p := range []plugin.Plugin{
		recallPlugin,
		weatherPlugin,
		searchPlugin,
		clipboardPlugin,
		systemPlugin,
	} {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	registry.LoadState()

	if !cfg.AdvancedPlugins {
		// Config-driven, not persisted: flipping advanced_plugins back on
		// must bring these back without an explicit enable.
		for _, name := range []string{"websearch", "clipboard", "system"} {
			if p, ok := registry.Get(name); ok {
				p.SetEnabled(false)
			}
		}
	}

	var mdl model.Model
	if cfg.OllamaEnabled {
		mdl = model.NewOllamaClient(&model.OllamaConfig{
			URL:     cfg.OllamaURL,
			Model:   cfg.Model,
			Enabled: true,
		})
	}

	hist, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		// History is a convenience; the assistant works without it.
		logger.Warnw("history unavailable", "error", err)
		hist = nil
	}

	var speaker voice.Speaker
	if cfg.TTSEnabled {
		speaker = voice.NewExecSpeaker()
	}

	var listener *voice.Listener
	if cfg.Voice.Enabled {
		if cfg.Voice.RecognizerCommand == "" {
			logger.Warn("voice requested but voice.recognizer_command is not set; staying in text mode")
		} else {
			parts := strings.Fields(cfg.Voice.RecognizerCommand)
			rec := voice.NewCommandRecognizer(parts[0], parts[1:]...)
			listener = voice.NewListener(rec, cfg.Voice.WakeWord, logger)
		}
	}

	opts := &assistant.Options{
		Config:        cfg,
		Registry:      registry,
		Store:         store,
		Learner:       learner,
		Model:         mdl,
		History:       hist,
		Stats:         collector,
		Speaker:       speaker,
		SystemPlugin:  systemPlugin,
		WeatherPlugin: weatherPlugin,
		Logger:        logger,
	}
	if listener != nil {
		opts.Voice = listener
	}
	asst := assistant.New(opts)

	return &app{
		assistant: asst,
		listener:  listener,
		hist:      hist,
		logger:    logger,
	}, nil
}

func (a *app) close() {
	if a.listener != nil {
		a.listener.Close()
	}
	if a.hist != nil {
		a.hist.Close()
	}
}

// run is the session loop: it merges typed lines and recognized voice
// commands and feeds them through the assistant.
func (a *app) run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			case lines <- scanner.Text():
			}
		}
	}()

	var voiceCommands <-chan string
	if a.listener != nil {
		voiceCommands = a.listener.Commands()
	}

	fmt.Print(promptStyle.Render("you> ") + " ")
	for {
		var input string
		var ok bool

		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case input, ok = <-lines:
			if !ok {
				return nil
			}
		case input, ok = <-voiceCommands:
			if !ok {
				voiceCommands = nil
				continue
			}
			fmt.Println(noticeStyle.Render("(heard) " + input))
		}

		if isExit(input) {
			fmt.Println(responseStyle.Render("Goodbye."))
			return nil
		}

		response := a.assistant.ProcessInput(ctx, input)
		if response != "" {
			fmt.Println(responseStyle.Render(response))
			a.assistant.Speak(ctx, response)
		}
		fmt.Print(promptStyle.Render("you> ") + " ")
	}
}

func isExit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", "goodbye", "bye":
		return true
	}
	return false
}

func printBanner(cfg *config.Config, mode config.Mode) {
	fmt.Println(bannerStyle.Render("Nimbus " + appVersion))

	var features []string
	if cfg.Learning.Enabled {
		features = append(features, "learning")
	}
	if cfg.Voice.Enabled {
		features = append(features, "voice")
	}
	if cfg.TTSEnabled {
		features = append(features, "speech")
	}
	if cfg.OllamaEnabled {
		features = append(features, "model: "+cfg.Model)
	}

	line := fmt.Sprintf("mode: %s", mode)
	if len(features) > 0 {
		line += "  |  " + strings.Join(features, ", ")
	}
	fmt.Println(noticeStyle.Render(line))
	fmt.Println(noticeStyle.Render(`Say "help" for commands, "exit" to quit.`))
}
