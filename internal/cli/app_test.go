package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nimbus-ai/nimbus/internal/config"
)

func TestApplyMode(t *testing.T) {
	cases := []struct {
		mode     config.Mode
		learning bool
		voice    bool
	}{
		{config.ModeLearning, true, false},
		{config.ModePro, true, true},
		{config.ModeBasic, false, false},
		{config.ModeVoice, true, true}, // learning keeps its config default
		{config.ModeText, true, false},
	}

	for _, tc := range cases {
		cfg := config.Default()
		applyMode(cfg, tc.mode)
		assert.Equal(t, tc.learning, cfg.Learning.Enabled, "mode %s learning", tc.mode)
		assert.Equal(t, tc.voice, cfg.Voice.Enabled, "mode %s voice", tc.mode)
	}
}

func TestApplyModeFlags(t *testing.T) {
	flagNoLearning = true
	flagNoVoice = true
	defer func() {
		flagNoLearning = false
		flagNoVoice = false
	}()

	cfg := config.Default()
	applyMode(cfg, config.ModePro)
	assert.False(t, cfg.Learning.Enabled)
	assert.False(t, cfg.Voice.Enabled)
	assert.False(t, cfg.TTSEnabled)
}

func TestIsExit(t *testing.T) {
	assert.True(t, isExit("exit"))
	assert.True(t, isExit("  Quit  "))
	assert.True(t, isExit("goodbye"))
	assert.False(t, isExit("exit the building"))
	assert.False(t, isExit("hello"))
}
