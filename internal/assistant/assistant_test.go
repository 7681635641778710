package assistant

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbus-ai/nimbus/internal/config"
	"github.com/nimbus-ai/nimbus/internal/history"
	"github.com/nimbus-ai/nimbus/internal/knowledge"
	"github.com/nimbus-ai/nimbus/internal/model"
	"github.com/nimbus-ai/nimbus/internal/plugin"
)

type fakeModel struct {
	response  string
	err       error
	available bool
	prompts   []string
}

func (m *fakeModel) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	m.prompts = append(m.prompts, req.Prompt)
	if m.err != nil {
		return nil, m.err
	}
	return &model.Response{Text: m.response, Model: "fake"}, nil
}

func (m *fakeModel) IsAvailable() bool { return m.available }
func (m *fakeModel) Name() string      { return "fake" }

type countingPlugin struct {
	plugin.Base
	calls int
}

func (p *countingPlugin) HandleCommand(ctx context.Context, input string) (string, error) {
	p.calls++
	return "handled: " + input, nil
}

func newTestAssistant(t *testing.T, mdl model.Model, plugins ...plugin.Plugin) (*Assistant, *knowledge.Store) {
	t.Helper()

	cfg := config.Default()
	cfg.Learning.Enabled = false // avoid network lookups in tests
	cfg.TTSEnabled = false

	reg := plugin.NewRegistry("", nil)
	for _, p := range plugins {
		require.NoError(t, reg.Register(p))
	}

	store := knowledge.NewStore(
		filepath.Join(t.TempDir(), "kb.json"),
		cfg.Learning.Scoring,
		nil,
	)

	return New(&Options{
		Config:   cfg,
		Registry: reg,
		Store:    store,
		Learner:  knowledge.NewLearner(store, nil),
		Model:    mdl,
	}), store
}

func TestProcessInputKnowledgeFromStore(t *testing.T) {
	mdl := &fakeModel{available: true, response: "model answer"}
	a, store := newTestAssistant(t, mdl)
	require.NoError(t, store.Store("quantum computing", "Computation with qubits.", "wikipedia", 0.9))

	resp := a.ProcessInput(context.Background(), "what is quantum computing")
	assert.Equal(t, "Computation with qubits.", resp)
	assert.Empty(t, mdl.prompts)
}

func TestProcessInputPluginDispatch(t *testing.T) {
	p := &countingPlugin{Base: plugin.NewBase("echo", "echoes", []string{"echo"})}
	a, _ := newTestAssistant(t, nil, p)

	resp := a.ProcessInput(context.Background(), "echo something")
	assert.Equal(t, "handled: echo something", resp)
	assert.Equal(t, 1, p.calls)
}

func TestProcessInputChatGoesToModel(t *testing.T) {
	mdl := &fakeModel{available: true, response: "a model reply"}
	a, _ := newTestAssistant(t, mdl)

	resp := a.ProcessInput(context.Background(), "how was your day")
	assert.Equal(t, "a model reply", resp)
	require.Len(t, mdl.prompts, 1)
	assert.Contains(t, mdl.prompts[0], "how was your day")
	assert.Contains(t, mdl.prompts[0], "Nimbus")
}

func TestProcessInputModelFailureFallsBack(t *testing.T) {
	mdl := &fakeModel{available: true, err: errors.New("connection refused")}
	a, _ := newTestAssistant(t, mdl)

	resp := a.ProcessInput(context.Background(), "how was your day")
	assert.Contains(t, resp, "couldn't reach the model")
}

func TestProcessInputNoModel(t *testing.T) {
	a, _ := newTestAssistant(t, nil)

	resp := a.ProcessInput(context.Background(), "how was your day")
	assert.Contains(t, resp, "help")
}

func TestProcessInputModelDisabled(t *testing.T) {
	mdl := &fakeModel{available: false, response: "should not be used"}
	a, _ := newTestAssistant(t, mdl)

	resp := a.ProcessInput(context.Background(), "how was your day")
	assert.Contains(t, resp, "help")
	assert.Empty(t, mdl.prompts)
}

func TestProcessInputEmpty(t *testing.T) {
	a, _ := newTestAssistant(t, nil)
	assert.Empty(t, a.ProcessInput(context.Background(), "   "))
}

func TestLearningToggle(t *testing.T) {
	a, _ := newTestAssistant(t, nil)
	require.False(t, a.LearningEnabled())

	resp := a.ProcessInput(context.Background(), "enable learning")
	assert.Contains(t, resp, "Learning is on")
	assert.True(t, a.LearningEnabled())

	resp = a.ProcessInput(context.Background(), "disable learning")
	assert.Contains(t, resp, "Learning is off")
	assert.False(t, a.LearningEnabled())
}

func TestPluginToggleCommand(t *testing.T) {
	p := &countingPlugin{Base: plugin.NewBase("echo", "echoes", []string{"echo"})}
	a, _ := newTestAssistant(t, nil, p)

	resp := a.ProcessInput(context.Background(), "disable echo")
	assert.Contains(t, resp, "disabled")
	assert.False(t, p.Enabled())

	// The disabled plugin no longer receives commands.
	a.ProcessInput(context.Background(), "echo something")
	assert.Zero(t, p.calls)

	resp = a.ProcessInput(context.Background(), "enable echo plugin")
	assert.Contains(t, resp, "enabled")
	assert.True(t, p.Enabled())
}

func TestToggleUnknownNameFallsThrough(t *testing.T) {
	a, _ := newTestAssistant(t, nil)

	// "disable the alarm" is not a plugin toggle; it classifies normally.
	resp := a.ProcessInput(context.Background(), "disable the alarm")
	assert.NotContains(t, resp, "now disabled")
}

func TestStatsCommand(t *testing.T) {
	a, _ := newTestAssistant(t, nil)

	a.ProcessInput(context.Background(), "hello there")
	resp := a.ProcessInput(context.Background(), "stats")
	assert.Contains(t, resp, "requests: 1")
	assert.Contains(t, resp, "knowledge base: 0 topics")
}

func TestCleanupCommand(t *testing.T) {
	a, store := newTestAssistant(t, nil)
	require.NoError(t, store.Store("junk", "low quality", "web", 0.1))

	resp := a.ProcessInput(context.Background(), "cleanup knowledge")
	assert.Contains(t, resp, "Cleaned up 1")
	assert.Zero(t, store.Len())
}

func TestClearLearningCacheCommand(t *testing.T) {
	a, store := newTestAssistant(t, nil)
	require.NoError(t, store.Store("alpha", "first", "user", 1.0))
	require.NoError(t, store.Store("beta", "second", "wikipedia", 0.8))

	resp := a.ProcessInput(context.Background(), "clear learning cache")
	assert.Contains(t, resp, "forgotten")
	assert.Zero(t, store.Len())
}

func TestHistoryRecording(t *testing.T) {
	mdl := &fakeModel{available: true, response: "hi!"}

	cfg := config.Default()
	cfg.Learning.Enabled = false
	cfg.TTSEnabled = false

	hist, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer hist.Close()

	store := knowledge.NewStore(filepath.Join(t.TempDir(), "kb.json"), cfg.Learning.Scoring, nil)
	a := New(&Options{
		Config:   cfg,
		Registry: plugin.NewRegistry("", nil),
		Store:    store,
		Learner:  knowledge.NewLearner(store, nil),
		Model:    mdl,
		History:  hist,
	})

	ctx := context.Background()
	a.StartSession(ctx, config.ModeText)
	a.ProcessInput(ctx, "hello")

	convs, err := hist.Conversations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, 2, convs[0].MessageCount)
}
