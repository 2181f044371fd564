// Package memory implements the persistent memory engine for agent-memory.
//
// It stores atomic facts, experiential lessons, and tracked entities in
// SQLite, with an FTS5 full-text index over fact content and tags for
// ranked lexical recall. Facts carry provenance, confidence, optional
// expiry, and supersession links; stale facts can be evicted by age and
// access count.
package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds memory store configuration.
type Config struct {
	DataDir          string
	MaxRecallResults int
	MaxListResults   int
	MaxContextItems  int
}

// DefaultConfig returns the default configuration for the memory store.
// The data directory can be overridden with AGENT_MEMORY_DIR.
func DefaultConfig() Config {
	dataDir := os.Getenv("AGENT_MEMORY_DIR")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".agent-memory")
	}
	return Config{
		DataDir:          dataDir,
		MaxRecallResults: 50,
		MaxListResults:   200,
		MaxContextItems:  10,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent memory engine backed by SQLite + FTS5.
//
// A single Store wraps a pooled *sql.DB; every public operation is its own
// unit of work (a single statement or one explicit transaction) and commits
// before returning. There is no in-memory cache: all reads go to storage.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates a new Store with the given configuration.
// It creates the data directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("memory: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "memory.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("memory: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("memory: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("memory: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

// migrate provisions the persisted tables and the lexical index. Safe to run
// on every start: tables and indexes use IF NOT EXISTS, triggers are created
// only when absent.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS facts (
			id            TEXT PRIMARY KEY,
			content       TEXT NOT NULL,
			tags          TEXT NOT NULL DEFAULT '[]',
			source        TEXT NOT NULL DEFAULT 'conversation',
			confidence    REAL NOT NULL DEFAULT 1.0,
			created_at    TEXT NOT NULL,
			last_accessed TEXT NOT NULL,
			access_count  INTEGER NOT NULL DEFAULT 1,
			expires_at    TEXT,
			superseded_by TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_facts_created    ON facts(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_facts_superseded ON facts(superseded_by);
		CREATE INDEX IF NOT EXISTS idx_facts_stale      ON facts(last_accessed, access_count);

		CREATE TABLE IF NOT EXISTS lessons (
			id            TEXT PRIMARY KEY,
			action        TEXT NOT NULL,
			context       TEXT NOT NULL,
			outcome       TEXT NOT NULL,
			insight       TEXT NOT NULL,
			created_at    TEXT NOT NULL,
			applied_count INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_lessons_created ON lessons(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_lessons_outcome ON lessons(outcome);

		CREATE TABLE IF NOT EXISTS entities (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			entity_type  TEXT NOT NULL,
			attributes   TEXT NOT NULL DEFAULT '{}',
			first_seen   TEXT NOT NULL,
			last_updated TEXT NOT NULL,
			fact_ids     TEXT NOT NULL DEFAULT '[]'
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_identity ON entities(name, entity_type);
		CREATE INDEX IF NOT EXISTS idx_entities_type    ON entities(entity_type);
		CREATE INDEX IF NOT EXISTS idx_entities_updated ON entities(last_updated DESC);

		CREATE VIRTUAL TABLE IF NOT EXISTS facts_fts USING fts5(
			content,
			tags,
			content='facts',
			tokenize='porter'
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS triggers keep facts_fts in lockstep with facts: the index entry is
	// written in the same unit of work as the row itself.
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='fact_fts_insert'",
	).Scan(&name)

	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER fact_fts_insert AFTER INSERT ON facts BEGIN
				INSERT INTO facts_fts(rowid, content, tags)
				VALUES (new.rowid, new.content, new.tags);
			END;

			CREATE TRIGGER fact_fts_delete AFTER DELETE ON facts BEGIN
				INSERT INTO facts_fts(facts_fts, rowid, content, tags)
				VALUES ('delete', old.rowid, old.content, old.tags);
			END;

			CREATE TRIGGER fact_fts_update AFTER UPDATE OF content, tags ON facts BEGIN
				INSERT INTO facts_fts(facts_fts, rowid, content, tags)
				VALUES ('delete', old.rowid, old.content, old.tags);
				INSERT INTO facts_fts(rowid, content, tags)
				VALUES (new.rowid, new.content, new.tags);
			END;
		`
		if _, err := s.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// timeLayout is the stored timestamp format. Lexicographic order equals
// chronological order, and sub-second precision keeps same-second staleness
// comparisons strict.
const timeLayout = "2006-01-02 15:04:05.000000000"

// Now returns the current UTC time formatted for storage.
func Now() string {
	return time.Now().UTC().Format(timeLayout)
}

// daysFromNow returns a stored timestamp offset by the given number of days
// (negative values look into the past).
func daysFromNow(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(timeLayout)
}

// Truncate shortens a string to max length with ellipsis.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// encodeTags serializes a tag list as JSON array text, preserving order.
func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

// decodeTags parses JSON array text back into a tag list.
func decodeTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	_ = json.Unmarshal([]byte(raw), &tags)
	return tags
}

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "boss updates" → `"boss" "updates"`
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		w = strings.Trim(w, `"`)
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " ")
}

// containsAll reports whether have includes every tag in want.
func containsAll(have, want []string) bool {
	for _, w := range want {
		if !contains(have, w) {
			return false
		}
	}
	return true
}

// containsAny reports whether have includes at least one tag in want.
func containsAny(have, want []string) bool {
	for _, w := range want {
		if contains(have, w) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
