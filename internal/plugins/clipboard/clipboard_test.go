package clipboard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBoard struct {
	content string
	failing bool
}

func (f *fakeBoard) ReadAll() (string, error) {
	if f.failing {
		return "", errors.New("no clipboard utility")
	}
	return f.content, nil
}

func (f *fakeBoard) WriteAll(text string) error {
	if f.failing {
		return errors.New("no clipboard utility")
	}
	f.content = text
	return nil
}

func TestCopy(t *testing.T) {
	board := &fakeBoard{}
	p := New(board)

	resp, err := p.HandleCommand(context.Background(), "copy hello world")
	require.NoError(t, err)
	assert.Contains(t, resp, "hello world")
	assert.Equal(t, "hello world", board.content)
}

func TestCopyEmpty(t *testing.T) {
	p := New(&fakeBoard{})
	_, err := p.HandleCommand(context.Background(), "copy")
	assert.Error(t, err)
}

func TestPaste(t *testing.T) {
	p := New(&fakeBoard{content: "stored text"})

	resp, err := p.HandleCommand(context.Background(), "paste")
	require.NoError(t, err)
	assert.Contains(t, resp, "stored text")
}

func TestPasteEmpty(t *testing.T) {
	p := New(&fakeBoard{})

	resp, err := p.HandleCommand(context.Background(), "what's on the clipboard")
	require.NoError(t, err)
	assert.Contains(t, resp, "empty")
}

func TestPasteTruncatesLongContent(t *testing.T) {
	p := New(&fakeBoard{content: strings.Repeat("x", 1000)})

	resp, err := p.HandleCommand(context.Background(), "paste")
	require.NoError(t, err)
	assert.Less(t, len(resp), 400)
	assert.Contains(t, resp, "...")
}

func TestClipboardUnavailable(t *testing.T) {
	p := New(&fakeBoard{failing: true})

	_, err := p.HandleCommand(context.Background(), "copy something")
	require.Error(t, err)

	_, err = p.HandleCommand(context.Background(), "paste")
	require.Error(t, err)
}
