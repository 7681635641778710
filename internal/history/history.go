// Package history persists conversation transcripts in SQLite.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	// SQLite driver (required for database/sql registration).
	_ "github.com/mattn/go-sqlite3"

	"github.com/nimbus-ai/nimbus/internal/errors"
)

// Role identifies who produced a message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is one assistant session.
type Conversation struct {
	ID           string
	StartedAt    time.Time
	Mode         string
	MessageCount int
}

// Message is one exchange line in a conversation.
type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	IntentKind     string
	CreatedAt      time.Time
}

// Store is the conversation log.
type Store struct {
	db *sql.DB
}

// Open opens the history database at the given path, creating the schema on
// first use.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.CodeHistoryUnavailable, "failed to create history directory", errors.CategorySystem)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeHistoryUnavailable, "failed to open history database", errors.CategorySystem)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -8000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrap(err, errors.CodeHistoryUnavailable, "failed to configure history database", errors.CategorySystem)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id              TEXT PRIMARY KEY,
		started_at      INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		mode            TEXT NOT NULL DEFAULT 'text',
		message_count   INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_started ON conversations(started_at DESC);

	CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		role            TEXT NOT NULL,
		content         TEXT NOT NULL,
		intent_kind     TEXT,
		created_at      INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at DESC);

	CREATE TRIGGER IF NOT EXISTS messages_count_insert
		AFTER INSERT ON messages
		BEGIN
			UPDATE conversations
			SET message_count = message_count + 1
			WHERE id = NEW.conversation_id;
		END;
	`

	if _, err := s.db.Exec(schema); err != nil {
		return errors.Wrap(err, errors.CodeHistoryUnavailable, "failed to initialize history schema", errors.CategorySystem)
	}
	return s.ensureSchemaVersion(1, "Initial history schema")
}

func (s *Store) ensureSchemaVersion(version int, description string) error {
	var current sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&current); err != nil {
		return err
	}
	if !current.Valid || int(current.Int64) < version {
		_, err := s.db.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			version, description,
		)
		return err
	}
	return nil
}

// StartConversation creates a new conversation and returns its ID.
func (s *Store) StartConversation(ctx context.Context, mode string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO conversations (id, mode) VALUES (?, ?)", id, mode)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeHistoryUnavailable, "failed to start conversation", errors.CategorySystem)
	}
	return id, nil
}

// AddMessage appends a message to a conversation.
func (s *Store) AddMessage(ctx context.Context, conversationID, role, content, intentKind string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (id, conversation_id, role, content, intent_kind) VALUES (?, ?, ?, ?, ?)",
		uuid.New().String(), conversationID, role, content, intentKind)
	if err != nil {
		return errors.Wrap(err, errors.CodeHistoryUnavailable, "failed to record message", errors.CategorySystem)
	}
	return nil
}

// RecentMessages returns the latest messages of a conversation, oldest first.
func (s *Store) RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, COALESCE(intent_kind, ''), created_at
		FROM (
			SELECT rowid AS rid, * FROM messages
			WHERE conversation_id = ?
			ORDER BY created_at DESC, rid DESC
			LIMIT ?
		)
		ORDER BY created_at ASC, rid ASC`,
		conversationID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeHistoryUnavailable, "failed to load messages", errors.CategorySystem)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// Search finds messages containing the query text, newest first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, COALESCE(intent_kind, ''), created_at
		FROM messages
		WHERE content LIKE '%' || ? || '%'
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`,
		query, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeHistoryUnavailable, "failed to search history", errors.CategorySystem)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		var m Message
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.IntentKind, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = time.Unix(createdAt, 0)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Conversations lists past conversations, newest first.
func (s *Store) Conversations(ctx context.Context, limit int) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, mode, message_count
		FROM conversations
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeHistoryUnavailable, "failed to list conversations", errors.CategorySystem)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		var startedAt int64
		if err := rows.Scan(&c.ID, &startedAt, &c.Mode, &c.MessageCount); err != nil {
			return nil, err
		}
		c.StartedAt = time.Unix(startedAt, 0)
		convs = append(convs, c)
	}
	return convs, rows.Err()
}
