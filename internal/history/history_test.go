package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStartConversationAndAddMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	convID, err := s.StartConversation(ctx, "text")
	require.NoError(t, err)
	require.NotEmpty(t, convID)

	require.NoError(t, s.AddMessage(ctx, convID, RoleUser, "what is go", "knowledge"))
	require.NoError(t, s.AddMessage(ctx, convID, RoleAssistant, "Go is a programming language.", "knowledge"))

	msgs, err := s.RecentMessages(ctx, convID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "what is go", msgs[0].Content)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
}

func TestRecentMessagesLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	convID, err := s.StartConversation(ctx, "text")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AddMessage(ctx, convID, RoleUser, string(rune('a'+i)), ""))
	}

	msgs, err := s.RecentMessages(ctx, convID, 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	// Latest three, oldest first.
	assert.Equal(t, "c", msgs[0].Content)
	assert.Equal(t, "e", msgs[2].Content)
}

func TestMessageCountTrigger(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	convID, err := s.StartConversation(ctx, "voice")
	require.NoError(t, err)
	require.NoError(t, s.AddMessage(ctx, convID, RoleUser, "hello", "chat"))
	require.NoError(t, s.AddMessage(ctx, convID, RoleAssistant, "hi", "chat"))

	convs, err := s.Conversations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, 2, convs[0].MessageCount)
	assert.Equal(t, "voice", convs[0].Mode)
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	convID, err := s.StartConversation(ctx, "text")
	require.NoError(t, err)
	require.NoError(t, s.AddMessage(ctx, convID, RoleUser, "weather in tokyo", "weather"))
	require.NoError(t, s.AddMessage(ctx, convID, RoleUser, "open chrome", "app_launch"))

	msgs, err := s.Search(ctx, "tokyo", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "weather in tokyo", msgs[0].Content)

	msgs, err = s.Search(ctx, "nonexistent", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	convID, err := s1.StartConversation(ctx, "text")
	require.NoError(t, err)
	require.NoError(t, s1.AddMessage(ctx, convID, RoleUser, "persisted", ""))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	msgs, err := s2.RecentMessages(ctx, convID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "persisted", msgs[0].Content)
}
