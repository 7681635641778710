package plugin

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlugin struct {
	Base
	response string
}

func newFakePlugin(name string, commands []string, response string) *fakePlugin {
	return &fakePlugin{
		Base:     NewBase(name, "fake plugin "+name, commands),
		response: response,
	}
}

func (p *fakePlugin) HandleCommand(ctx context.Context, input string) (string, error) {
	return p.response, nil
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry("", nil)
	require.NoError(t, r.Register(newFakePlugin("weather", []string{"weather"}, "sunny")))

	p, ok := r.Get("weather")
	require.True(t, ok)
	assert.Equal(t, "weather", p.Name())
	assert.True(t, p.Enabled())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry("", nil)
	require.NoError(t, r.Register(newFakePlugin("weather", []string{"weather"}, "")))
	assert.Error(t, r.Register(newFakePlugin("weather", []string{"forecast"}, "")))
}

func TestMatchRegistrationOrder(t *testing.T) {
	r := NewRegistry("", nil)
	require.NoError(t, r.Register(newFakePlugin("first", []string{"hello"}, "from first")))
	require.NoError(t, r.Register(newFakePlugin("second", []string{"hello"}, "from second")))

	p, ok := r.Match("say hello to everyone")
	require.True(t, ok)
	assert.Equal(t, "first", p.Name())
}

func TestMatchSkipsDisabled(t *testing.T) {
	r := NewRegistry("", nil)
	require.NoError(t, r.Register(newFakePlugin("first", []string{"hello"}, "")))
	require.NoError(t, r.Register(newFakePlugin("second", []string{"hello"}, "")))

	require.NoError(t, r.SetEnabled("first", false))

	p, ok := r.Match("hello there")
	require.True(t, ok)
	assert.Equal(t, "second", p.Name())
}

func TestMatchCaseInsensitive(t *testing.T) {
	r := NewRegistry("", nil)
	require.NoError(t, r.Register(newFakePlugin("weather", []string{"weather"}, "")))

	_, ok := r.Match("What's the WEATHER like?")
	assert.True(t, ok)

	_, ok = r.Match("tell me a joke")
	assert.False(t, ok)
}

func TestSetEnabledUnknown(t *testing.T) {
	r := NewRegistry("", nil)
	assert.Error(t, r.SetEnabled("ghost", true))
}

func TestStatePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")

	r1 := NewRegistry(path, nil)
	require.NoError(t, r1.Register(newFakePlugin("weather", []string{"weather"}, "")))
	require.NoError(t, r1.Register(newFakePlugin("search", []string{"search"}, "")))
	require.NoError(t, r1.SetEnabled("weather", false))

	r2 := NewRegistry(path, nil)
	require.NoError(t, r2.Register(newFakePlugin("weather", []string{"weather"}, "")))
	require.NoError(t, r2.Register(newFakePlugin("search", []string{"search"}, "")))
	r2.LoadState()

	weather, _ := r2.Get("weather")
	search, _ := r2.Get("search")
	assert.False(t, weather.Enabled())
	assert.True(t, search.Enabled())
}

func TestLoadStateIgnoresUnknownPlugins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")

	r1 := NewRegistry(path, nil)
	require.NoError(t, r1.Register(newFakePlugin("retired", []string{"x"}, "")))
	require.NoError(t, r1.SetEnabled("retired", false))

	r2 := NewRegistry(path, nil)
	require.NoError(t, r2.Register(newFakePlugin("weather", []string{"weather"}, "")))
	r2.LoadState()

	weather, _ := r2.Get("weather")
	assert.True(t, weather.Enabled())
}
