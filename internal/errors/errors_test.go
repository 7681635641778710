package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(CodePluginNotFound, "unknown plugin", CategoryUser)
	assert.Equal(t, "[PLUGIN_NOT_FOUND] unknown plugin", err.Error())
	assert.Equal(t, CategoryUser, GetCategory(err))
}

func TestWrapPreservesInner(t *testing.T) {
	inner := stderrors.New("connection refused")
	err := Wrap(inner, CodeNetworkUnavailable, "request failed", CategoryExternal)

	assert.Contains(t, err.Error(), "request failed")
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, stderrors.Is(err, inner))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInvalidInput, "nothing", CategoryUser))
}

func TestBuilder(t *testing.T) {
	err := NewBuilder(CodeWeatherUnavailable, "weather service down").
		External().
		WithSuggestion("Check your internet connection").
		WithContext("status", 503).
		Build()

	assert.Equal(t, CategoryExternal, err.Category)
	require.Len(t, err.Suggestions, 1)
	assert.Equal(t, 503, err.Context["status"])
}

func TestGetCategoryNonAppError(t *testing.T) {
	assert.Equal(t, CategoryExternal, GetCategory(stderrors.New("plain")))
}

func TestFormatUserMessage(t *testing.T) {
	err := NewBuilder(CodeModelUnavailable, "ollama is not running").
		System().
		WithSuggestion("Start ollama with: ollama serve").
		Build()

	msg := FormatUserMessage(err)
	assert.Contains(t, msg, "ollama is not running")
	assert.Contains(t, msg, "ollama serve")
	assert.NotContains(t, msg, "MODEL_UNAVAILABLE")
}
