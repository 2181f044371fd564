package memory

import (
	"database/sql"
	"fmt"
	"strings"
)

// Fact is an atomic remembered statement with provenance, confidence, and
// optional expiry. A fact with a non-nil SupersededBy is logically retired:
// it is excluded from recall and listing by default but kept for history.
type Fact struct {
	ID           string   `json:"id"`
	Content      string   `json:"content"`
	Tags         []string `json:"tags"`
	Source       string   `json:"source"`
	Confidence   float64  `json:"confidence"`
	CreatedAt    string   `json:"created_at"`
	LastAccessed string   `json:"last_accessed"`
	AccessCount  int      `json:"access_count"`
	ExpiresAt    *string  `json:"expires_at,omitempty"`
	SupersededBy *string  `json:"superseded_by,omitempty"`
}

// RememberParams holds the input for storing a new fact.
// ExpiresInDays must be positive to take effect: zero and negative values
// both mean no expiry, since a fact born expired would never be recallable.
type RememberParams struct {
	Content       string   `json:"content"`
	Tags          []string `json:"tags,omitempty"`
	Source        string   `json:"source,omitempty"`     // conversation (default), observation, inference
	Confidence    *float64 `json:"confidence,omitempty"` // nil → 1.0
	ExpiresInDays int      `json:"expires_in_days,omitempty"`
}

// RecallOptions holds filters for ranked full-text recall.
type RecallOptions struct {
	Tags          []string `json:"tags,omitempty"` // conjunctive: every tag must be present
	MinConfidence float64  `json:"min_confidence,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}

// ListFactsOptions holds filters for chronological fact listing.
type ListFactsOptions struct {
	Tags              []string `json:"tags,omitempty"` // disjunctive: any tag matches
	Limit             int      `json:"limit,omitempty"`
	IncludeSuperseded bool     `json:"include_superseded,omitempty"`
}

const factColumns = `id, content, tags, source, confidence, created_at, last_accessed, access_count, expires_at, superseded_by`

// Remember stores a fact and returns its id. Source defaults to
// "conversation" and confidence to 1.0; a positive ExpiresInDays sets an
// expiry timestamp that many days from now. The FTS index entry is written
// by trigger in the same unit of work as the row.
func (s *Store) Remember(p RememberParams) (string, error) {
	id := newID(p.Content)
	now := Now()

	source := p.Source
	if source == "" {
		source = "conversation"
	}
	confidence := 1.0
	if p.Confidence != nil {
		confidence = *p.Confidence
	}

	var expiresAt *string
	if p.ExpiresInDays > 0 {
		e := daysFromNow(p.ExpiresInDays)
		expiresAt = &e
	}

	_, err := s.db.Exec(
		`INSERT INTO facts (id, content, tags, source, confidence, created_at, last_accessed, access_count, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		id, p.Content, encodeTags(p.Tags), source, confidence, now, now, expiresAt,
	)
	if err != nil {
		return "", fmt.Errorf("remember: %w", err)
	}
	return id, nil
}

// Recall searches facts by lexical relevance over content and tags.
// Expired and superseded facts are never returned; results are ordered
// best match first. When opts.Tags is set, only facts carrying every
// listed tag survive — the filter runs after the relevance limit, so a
// tag-filtered recall may return fewer than limit rows.
//
// Recall is not read-only: every returned fact has its last_accessed
// bumped to now and access_count incremented, in the same transaction
// as the read.
//
// A blank query skips FTS and returns the most recent active facts.
func (s *Store) Recall(query string, opts RecallOptions) ([]Fact, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > s.cfg.MaxRecallResults {
		limit = s.cfg.MaxRecallResults
	}

	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		return s.recallRecent(opts, limit)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("recall: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := Now()
	rows, err := tx.Query(
		`SELECT `+qualified(factColumns, "f")+`
		 FROM facts_fts fts
		 JOIN facts f ON f.rowid = fts.rowid
		 WHERE facts_fts MATCH ?
		   AND f.confidence >= ?
		   AND (f.expires_at IS NULL OR f.expires_at > ?)
		   AND f.superseded_by IS NULL
		 ORDER BY fts.rank
		 LIMIT ?`,
		ftsQuery, opts.MinConfidence, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recall: %w", err)
	}

	matched, err := scanFacts(rows)
	if err != nil {
		return nil, err
	}

	var results []Fact
	for _, f := range matched {
		if len(opts.Tags) > 0 && !containsAll(f.Tags, opts.Tags) {
			continue
		}
		if _, err := tx.Exec(
			`UPDATE facts SET last_accessed = ?, access_count = access_count + 1 WHERE id = ?`,
			Now(), f.ID,
		); err != nil {
			return nil, fmt.Errorf("recall: access bookkeeping: %w", err)
		}
		results = append(results, f)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("recall: commit: %w", err)
	}
	return results, nil
}

// recallRecent returns the most recent active facts without FTS, used as
// fallback when the query is empty or whitespace-only. Access bookkeeping
// applies here too.
func (s *Store) recallRecent(opts RecallOptions, limit int) ([]Fact, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("recall recent: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.Query(
		`SELECT `+factColumns+`
		 FROM facts
		 WHERE confidence >= ?
		   AND (expires_at IS NULL OR expires_at > ?)
		   AND superseded_by IS NULL
		 ORDER BY created_at DESC
		 LIMIT ?`,
		opts.MinConfidence, Now(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recall recent: %w", err)
	}

	matched, err := scanFacts(rows)
	if err != nil {
		return nil, err
	}

	var results []Fact
	for _, f := range matched {
		if len(opts.Tags) > 0 && !containsAll(f.Tags, opts.Tags) {
			continue
		}
		if _, err := tx.Exec(
			`UPDATE facts SET last_accessed = ?, access_count = access_count + 1 WHERE id = ?`,
			Now(), f.ID,
		); err != nil {
			return nil, fmt.Errorf("recall recent: access bookkeeping: %w", err)
		}
		results = append(results, f)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("recall recent: commit: %w", err)
	}
	return results, nil
}

// GetFact retrieves a fact by id with no side effects. Superseded facts are
// included. Returns (nil, nil) when the fact does not exist.
func (s *Store) GetFact(id string) (*Fact, error) {
	row := s.db.QueryRow(`SELECT `+factColumns+` FROM facts WHERE id = ?`, id)
	f, err := scanFact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fact: %w", err)
	}
	return f, nil
}

// ListFacts returns facts ordered by creation time, newest first.
// The tag filter is disjunctive — a fact matches if it carries any of the
// listed tags (recall's filter is conjunctive; the asymmetry is deliberate).
// Superseded facts are excluded unless IncludeSuperseded is set; expired
// facts are always listed — only recall filters them.
func (s *Store) ListFacts(opts ListFactsOptions) ([]Fact, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > s.cfg.MaxListResults {
		limit = s.cfg.MaxListResults
	}

	query := `SELECT ` + factColumns + ` FROM facts WHERE 1=1`
	if !opts.IncludeSuperseded {
		query += ` AND superseded_by IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}

	all, err := scanFacts(rows)
	if err != nil {
		return nil, err
	}

	if len(opts.Tags) == 0 {
		return all, nil
	}
	var results []Fact
	for _, f := range all {
		if containsAny(f.Tags, opts.Tags) {
			results = append(results, f)
		}
	}
	return results, nil
}

// Supersede replaces a fact with updated information in one transaction:
// the new fact is stored and the old fact marked superseded together, so a
// crash can never leave an unlinked replacement. The old fact is retained
// for history. Returns an empty id without creating anything when oldID
// does not exist.
func (s *Store) Supersede(oldID string, p RememberParams) (string, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("supersede: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM facts WHERE id = ?`, oldID).Scan(&exists)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("supersede: %w", err)
	}

	newID := newID(p.Content)
	now := Now()

	source := p.Source
	if source == "" {
		source = "conversation"
	}
	confidence := 1.0
	if p.Confidence != nil {
		confidence = *p.Confidence
	}
	var expiresAt *string
	if p.ExpiresInDays > 0 {
		e := daysFromNow(p.ExpiresInDays)
		expiresAt = &e
	}

	if _, err := tx.Exec(
		`INSERT INTO facts (id, content, tags, source, confidence, created_at, last_accessed, access_count, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		newID, p.Content, encodeTags(p.Tags), source, confidence, now, now, expiresAt,
	); err != nil {
		return "", fmt.Errorf("supersede: insert replacement: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE facts SET superseded_by = ? WHERE id = ?`,
		newID, oldID,
	); err != nil {
		return "", fmt.Errorf("supersede: mark old fact: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("supersede: commit: %w", err)
	}
	return newID, nil
}

// Forget permanently deletes a fact. Idempotent: deleting an absent id is
// not an error.
func (s *Store) Forget(id string) error {
	if _, err := s.db.Exec(`DELETE FROM facts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("forget: %w", err)
	}
	return nil
}

// ForgetStale deletes active facts that have not been accessed in the given
// number of days and whose access_count is at or below minAccessCount.
// Superseded facts are exempt: eviction targets neglected active facts, not
// historical ones. Returns the number of facts deleted.
func (s *Store) ForgetStale(days, minAccessCount int) (int, error) {
	cutoff := daysFromNow(-days)
	res, err := s.db.Exec(
		`DELETE FROM facts
		 WHERE last_accessed < ?
		   AND access_count <= ?
		   AND superseded_by IS NULL`,
		cutoff, minAccessCount,
	)
	if err != nil {
		return 0, fmt.Errorf("forget stale: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ─── Scanning ────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFact(row rowScanner) (*Fact, error) {
	var f Fact
	var tags string
	if err := row.Scan(
		&f.ID, &f.Content, &tags, &f.Source, &f.Confidence,
		&f.CreatedAt, &f.LastAccessed, &f.AccessCount,
		&f.ExpiresAt, &f.SupersededBy,
	); err != nil {
		return nil, err
	}
	f.Tags = decodeTags(tags)
	return &f, nil
}

func scanFacts(rows *sql.Rows) ([]Fact, error) {
	defer func() { _ = rows.Close() }()
	var results []Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *f)
	}
	return results, rows.Err()
}

// qualified prefixes each column in a comma-separated list with a table
// alias, for queries that join facts against the FTS index.
func qualified(columns, alias string) string {
	parts := strings.Split(columns, ", ")
	for i, c := range parts {
		parts[i] = alias + "." + c
	}
	return strings.Join(parts, ", ")
}
