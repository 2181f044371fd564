package memory_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestSQLiteSmokeTest(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "smoke.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		t.Fatalf("failed to enable WAL mode: %v", err)
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("failed to query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("expected WAL mode, got %q", mode)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		t.Fatalf("failed to set busy_timeout: %v", err)
	}
	var timeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("failed to query busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Fatalf("expected busy_timeout=5000, got %d", timeout)
	}
}

func TestFTS5SmokeTest(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fts5.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	// The same external-content shape the store migrates: a TEXT-keyed table
	// indexed by rowid, with a porter-tokenized FTS5 table kept in sync by
	// triggers.
	_, err = db.Exec(`CREATE TABLE facts (
		id      TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		tags    TEXT NOT NULL DEFAULT '[]'
	)`)
	if err != nil {
		t.Fatalf("failed to create facts table: %v", err)
	}

	_, err = db.Exec(`CREATE VIRTUAL TABLE facts_fts USING fts5(
		content, tags, content='facts', tokenize='porter'
	)`)
	if err != nil {
		t.Fatalf("failed to create FTS5 table: %v", err)
	}

	_, err = db.Exec(`
		CREATE TRIGGER facts_ai AFTER INSERT ON facts BEGIN
			INSERT INTO facts_fts(rowid, content, tags) VALUES (new.rowid, new.content, new.tags);
		END;
		CREATE TRIGGER facts_ad AFTER DELETE ON facts BEGIN
			INSERT INTO facts_fts(facts_fts, rowid, content, tags) VALUES ('delete', old.rowid, old.content, old.tags);
		END;
	`)
	if err != nil {
		t.Fatalf("failed to create FTS5 triggers: %v", err)
	}

	seed := []struct {
		id, content, tags string
	}{
		{"fact00000001", "the user prefers tabs over spaces", `["preference"]`},
		{"fact00000002", "project orion deploys through jenkins", `["project","ci"]`},
		{"fact00000003", "the billing service owns invoice generation", `["billing"]`},
	}
	for _, f := range seed {
		if _, err := db.Exec("INSERT INTO facts (id, content, tags) VALUES (?, ?, ?)", f.id, f.content, f.tags); err != nil {
			t.Fatalf("failed to insert fact %s: %v", f.id, err)
		}
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"single word", `"jenkins"`, 1},
		{"porter stemming", `"deploy"`, 1}, // matches "deploys"
		{"tag column", `"billing"`, 1},
		{"no match", `"kubernetes"`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := db.Query(
				"SELECT f.id FROM facts_fts fts JOIN facts f ON f.rowid = fts.rowid WHERE facts_fts MATCH ? ORDER BY fts.rank",
				tt.query,
			)
			if err != nil {
				t.Fatalf("FTS5 search failed for %q: %v", tt.query, err)
			}
			defer rows.Close()

			var count int
			for rows.Next() {
				var id string
				if err := rows.Scan(&id); err != nil {
					t.Fatalf("failed to scan result: %v", err)
				}
				count++
			}
			if err := rows.Err(); err != nil {
				t.Fatalf("rows iteration error: %v", err)
			}
			if count != tt.want {
				t.Errorf("query %q: got %d results, want %d", tt.query, count, tt.want)
			}
		})
	}

	// Delete trigger removes the index entry too.
	if _, err := db.Exec("DELETE FROM facts WHERE id = ?", "fact00000002"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM facts_fts WHERE facts_fts MATCH '"jenkins"'`).Scan(&n); err != nil {
		t.Fatalf("post-delete search: %v", err)
	}
	if n != 0 {
		t.Errorf("deleted fact still indexed: %d matches", n)
	}
}
