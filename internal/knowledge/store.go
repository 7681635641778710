// Package knowledge implements the persistent self-learning knowledge base.
//
// Entries are keyed by a normalized topic and scored against queries with a
// weighted keyword formula. The store persists to a single JSON document and
// is safe for concurrent use.
package knowledge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nimbus-ai/nimbus/internal/config"
	"github.com/nimbus-ai/nimbus/internal/errors"
)

// minConfidence is the floor below which cleanup evicts an entry.
const minConfidence = 0.3

// maxDetailsShown caps how many detail fragments a detailed answer includes.
const maxDetailsShown = 3

// Entry is a single learned fact.
type Entry struct {
	Topic       string    `json:"topic"`
	Summary     string    `json:"summary"`
	Details     []string  `json:"details,omitempty"`
	Source      string    `json:"source"`
	Confidence  float64   `json:"confidence"`
	LearnedAt   time.Time `json:"learned_at"`
	AccessCount int       `json:"access_count"`
	LastAccess  time.Time `json:"last_access"`
}

// Answer renders the entry as a response. The detailed form appends up to
// three supplementary fragments after the summary.
func (e *Entry) Answer(detailed bool) string {
	if !detailed || len(e.Details) == 0 {
		return e.Summary
	}

	details := e.Details
	if len(details) > maxDetailsShown {
		details = details[:maxDetailsShown]
	}

	var sb strings.Builder
	sb.WriteString(e.Summary)
	for _, d := range details {
		sb.WriteString("\n  - ")
		sb.WriteString(d)
	}
	return sb.String()
}

// SearchResult pairs an entry with its relevance score for a query.
type SearchResult struct {
	Key       string
	Entry     *Entry
	Relevance float64
}

// document is the on-disk layout of the knowledge base. Topics maps the
// surface forms a topic was stored under to its normalized key.
type document struct {
	Entries  map[string]*Entry `json:"entries"`
	Topics   map[string]string `json:"topics"`
	Metadata metadata          `json:"metadata"`
}

type metadata struct {
	Created time.Time `json:"created"`
}

// Observer receives knowledge base lifecycle notifications, typically the
// session stats collector.
type Observer interface {
	RecordLearned()
	RecordForgotten()
	RecordKBHit()
}

// Store is the knowledge base.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[string]*Entry
	// aliases maps surface forms ("Quantum Computing" as typed, lowercased
	// and underscored) to normalized topic keys.
	aliases  map[string]string
	created  time.Time
	scoring  config.ScoringConfig
	observer Observer
	logger   *zap.SugaredLogger
}

// NewStore creates a knowledge store backed by the given JSON file and loads
// any existing entries. A missing or corrupt file yields an empty store.
func NewStore(path string, scoring config.ScoringConfig, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Store{
		path:    path,
		entries: make(map[string]*Entry),
		aliases: make(map[string]string),
		created: time.Now(),
		scoring: scoring,
		logger:  logger,
	}
	s.load()
	return s
}

// SetObserver attaches a lifecycle observer. Call before the store is shared.
func (s *Store) SetObserver(o Observer) {
	s.observer = o
}

// load reads the persisted document. Errors are logged, never fatal.
func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warnw("knowledge base file is corrupt, starting empty",
			"path", s.path, "error", err)
		return
	}

	if doc.Entries != nil {
		s.entries = doc.Entries
	}
	if doc.Topics != nil {
		s.aliases = doc.Topics
	}
	if !doc.Metadata.Created.IsZero() {
		s.created = doc.Metadata.Created
	}
	s.logger.Debugw("knowledge base loaded", "entries", len(s.entries))
}

// save writes the document to disk. Callers must hold the write lock.
func (s *Store) save() error {
	doc := document{
		Entries: s.entries,
		Topics:  s.aliases,
		Metadata: metadata{
			Created: s.created,
		},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.CodeKnowledgeStoreFailed, "failed to encode knowledge base", errors.CategoryPermanent)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.CodeKnowledgeStoreFailed, "failed to create data directory", errors.CategorySystem)
		}
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.CodeKnowledgeStoreFailed, "failed to write knowledge base", errors.CategorySystem)
	}
	return nil
}

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// NormalizeTopic converts a topic to its storage key: lowercase, punctuation
// stripped, spaces collapsed to underscores.
func NormalizeTopic(topic string) string {
	key := strings.ToLower(strings.TrimSpace(topic))
	key = nonWordRe.ReplaceAllString(key, "")
	key = strings.Join(strings.Fields(key), "_")
	return key
}

// Store learns a fact. An existing entry for the same normalized topic is
// overwritten; access counters reset. Extra details are supplementary
// fragments shown only in detailed answers.
func (s *Store) Store(topic, summary, source string, confidence float64, details ...string) error {
	key := NormalizeTopic(topic)
	if key == "" {
		return errors.User(errors.CodeInvalidInput, "topic cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &Entry{
		Topic:      topic,
		Summary:    summary,
		Details:    details,
		Source:     source,
		Confidence: confidence,
		LearnedAt:  time.Now(),
	}

	s.aliases[key] = key
	if surface := strings.ToLower(strings.TrimSpace(topic)); surface != "" {
		s.aliases[surface] = key
		s.aliases[strings.Join(strings.Fields(surface), "_")] = key
	}

	if err := s.save(); err != nil {
		return err
	}
	if s.observer != nil {
		s.observer.RecordLearned()
	}
	s.logger.Infow("learned topic", "topic", topic, "source", source, "confidence", confidence)
	return nil
}

// Relevance scores how well an entry answers a query. The score is a weighted
// keyword overlap scaled by the entry's confidence and clamped to 1.0.
func (s *Store) Relevance(query, key string, entry *Entry) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || entry == nil {
		return 0
	}

	qKey := NormalizeTopic(q)
	summary := strings.ToLower(entry.Summary)

	var score float64

	if qKey != "" && strings.Contains(key, qKey) {
		score += s.scoring.TopicSubstring
	}

	for _, word := range strings.Fields(q) {
		if len(word) <= 2 {
			continue
		}
		if strings.Contains(summary, word) {
			score += s.scoring.SummaryWord
		}
		if strings.Contains(key, NormalizeTopic(word)) {
			score += s.scoring.TopicWord
		}
	}

	if qKey != "" && (strings.Contains(qKey, key) || strings.Contains(key, qKey)) {
		score += s.scoring.MutualSubstring
	}

	score *= entry.Confidence
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Search returns entries scoring at or above the configured threshold,
// best first. Matching entries get their access counters bumped.
func (s *Store) Search(query string) []SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []SearchResult
	for key, entry := range s.entries {
		score := s.Relevance(query, key, entry)
		if score >= s.scoring.Threshold {
			entry.AccessCount++
			entry.LastAccess = time.Now()
			results = append(results, SearchResult{Key: key, Entry: entry, Relevance: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})

	if len(results) > 0 {
		if s.observer != nil {
			s.observer.RecordKBHit()
		}
		if err := s.save(); err != nil {
			s.logger.Warnw("failed to persist access counters", "error", err)
		}
	}
	return results
}

// Best returns the single highest-scoring entry for a query, or nil when
// nothing clears the threshold.
func (s *Store) Best(query string) *SearchResult {
	results := s.Search(query)
	if len(results) == 0 {
		return nil
	}
	return &results[0]
}

// Get returns the entry for an exact topic or one of its recorded surface
// forms, or nil.
func (s *Store) Get(topic string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, ok := s.entries[NormalizeTopic(topic)]; ok {
		return entry
	}
	if key, ok := s.aliases[strings.ToLower(strings.TrimSpace(topic))]; ok {
		return s.entries[key]
	}
	return nil
}

// dropAliases removes every surface form pointing at a key. Callers must hold
// the write lock.
func (s *Store) dropAliases(key string) {
	for alias, target := range s.aliases {
		if target == key {
			delete(s.aliases, alias)
		}
	}
}

// Forget removes a topic. Returns whether anything was removed.
func (s *Store) Forget(topic string) (bool, error) {
	key := NormalizeTopic(topic)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	delete(s.entries, key)
	s.dropAliases(key)
	if err := s.save(); err != nil {
		return true, err
	}
	if s.observer != nil {
		s.observer.RecordForgotten()
	}
	s.logger.Infow("forgot topic", "topic", topic)
	return true, nil
}

// List returns all entries sorted by topic key.
func (s *Store) List() []SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.entries))
	for key, entry := range s.entries {
		results = append(results, SearchResult{Key: key, Entry: entry})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Key < results[j].Key
	})
	return results
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// CleanupOld evicts stale and low-quality entries: anything older than
// maxAge that was never accessed, and anything whose confidence fell below
// the eviction floor. Returns the number of evicted entries.
func (s *Store) CleanupOld(maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range s.entries {
		stale := now.Sub(entry.LearnedAt) > maxAge && entry.AccessCount == 0
		if stale || entry.Confidence < minConfidence {
			delete(s.entries, key)
			s.dropAliases(key)
			removed++
		}
	}

	if removed == 0 {
		return 0, nil
	}
	if err := s.save(); err != nil {
		return removed, err
	}
	s.logger.Infow("cleaned up knowledge base", "removed", removed)
	return removed, nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*Entry)
	s.aliases = make(map[string]string)
	return s.save()
}
