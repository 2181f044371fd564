package memory

import (
	"fmt"
	"strings"
)

// Stats holds aggregate counts over the memory database.
type Stats struct {
	ActiveFacts     int `json:"active_facts"`
	SupersededFacts int `json:"superseded_facts"`
	TotalFacts      int `json:"total_facts"`
	Lessons         int `json:"lessons"`
	Entities        int `json:"entities"`
}

// ExportData is a full serializable dump of the memory database.
type ExportData struct {
	ExportedAt string   `json:"exported_at"`
	Facts      []Fact   `json:"facts"`
	Lessons    []Lesson `json:"lessons"`
	Entities   []Entity `json:"entities"`
}

// ImportResult reports what an Import call actually wrote.
type ImportResult struct {
	FactsImported    int `json:"facts_imported"`
	LessonsImported  int `json:"lessons_imported"`
	EntitiesImported int `json:"entities_imported"`
}

// GetStats returns aggregate memory statistics.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	_ = s.db.QueryRow(`SELECT COUNT(*) FROM facts WHERE superseded_by IS NULL`).Scan(&stats.ActiveFacts)
	_ = s.db.QueryRow(`SELECT COUNT(*) FROM facts WHERE superseded_by IS NOT NULL`).Scan(&stats.SupersededFacts)
	_ = s.db.QueryRow(`SELECT COUNT(*) FROM lessons`).Scan(&stats.Lessons)
	_ = s.db.QueryRow(`SELECT COUNT(*) FROM entities`).Scan(&stats.Entities)

	stats.TotalFacts = stats.ActiveFacts + stats.SupersededFacts
	return stats, nil
}

// Export dumps the entire memory database, superseded facts included, as a
// serializable struct.
func (s *Store) Export() (*ExportData, error) {
	data := &ExportData{ExportedAt: Now()}

	rows, err := s.db.Query(`SELECT ` + factColumns + ` FROM facts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("export facts: %w", err)
	}
	data.Facts, err = scanFacts(rows)
	if err != nil {
		return nil, fmt.Errorf("export facts: %w", err)
	}

	lessonRows, err := s.db.Query(
		`SELECT id, action, context, outcome, insight, created_at, applied_count
		 FROM lessons ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("export lessons: %w", err)
	}
	defer func() { _ = lessonRows.Close() }()
	for lessonRows.Next() {
		var l Lesson
		if err := lessonRows.Scan(&l.ID, &l.Action, &l.Context, &l.Outcome, &l.Insight, &l.CreatedAt, &l.AppliedCount); err != nil {
			return nil, fmt.Errorf("export lessons: %w", err)
		}
		data.Lessons = append(data.Lessons, l)
	}
	if err := lessonRows.Err(); err != nil {
		return nil, err
	}

	entityRows, err := s.db.Query(`SELECT ` + entityColumns + ` FROM entities ORDER BY first_seen`)
	if err != nil {
		return nil, fmt.Errorf("export entities: %w", err)
	}
	defer func() { _ = entityRows.Close() }()
	for entityRows.Next() {
		e, err := scanEntity(entityRows)
		if err != nil {
			return nil, fmt.Errorf("export entities: %w", err)
		}
		data.Entities = append(data.Entities, *e)
	}
	if err := entityRows.Err(); err != nil {
		return nil, err
	}

	return data, nil
}

// Import loads exported data into the memory database. Rows whose ids
// already exist are skipped, so importing the same dump twice is safe.
func (s *Store) Import(data *ExportData) (*ImportResult, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("import: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result := &ImportResult{}

	for _, f := range data.Facts {
		res, err := tx.Exec(
			`INSERT OR IGNORE INTO facts (id, content, tags, source, confidence, created_at, last_accessed, access_count, expires_at, superseded_by)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.ID, f.Content, encodeTags(f.Tags), f.Source, f.Confidence,
			f.CreatedAt, f.LastAccessed, f.AccessCount, f.ExpiresAt, f.SupersededBy,
		)
		if err != nil {
			return nil, fmt.Errorf("import fact %s: %w", f.ID, err)
		}
		n, _ := res.RowsAffected()
		result.FactsImported += int(n)
	}

	for _, l := range data.Lessons {
		res, err := tx.Exec(
			`INSERT OR IGNORE INTO lessons (id, action, context, outcome, insight, created_at, applied_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.Action, l.Context, l.Outcome, l.Insight, l.CreatedAt, l.AppliedCount,
		)
		if err != nil {
			return nil, fmt.Errorf("import lesson %s: %w", l.ID, err)
		}
		n, _ := res.RowsAffected()
		result.LessonsImported += int(n)
	}

	for _, e := range data.Entities {
		attrs, err := encodeAttributes(e.Attributes)
		if err != nil {
			return nil, fmt.Errorf("import entity %s: %w", e.ID, err)
		}
		ids, err := encodeFactIDs(e.FactIDs)
		if err != nil {
			return nil, fmt.Errorf("import entity %s: %w", e.ID, err)
		}
		res, err := tx.Exec(
			`INSERT OR IGNORE INTO entities (id, name, entity_type, attributes, first_seen, last_updated, fact_ids)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Name, e.EntityType, attrs, e.FirstSeen, e.LastUpdated, ids,
		)
		if err != nil {
			return nil, fmt.Errorf("import entity %s: %w", e.ID, err)
		}
		n, _ := res.RowsAffected()
		result.EntitiesImported += int(n)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("import: commit: %w", err)
	}
	return result, nil
}

// ─── Context Formatting ─────────────────────────────────────────────────────

// FormatContext returns a markdown digest of the most useful memory: recent
// active facts, most-applied lessons, and recently updated entities. An
// empty string means there is nothing to report.
func (s *Store) FormatContext() (string, error) {
	facts, err := s.ListFacts(ListFactsOptions{Limit: s.cfg.MaxContextItems})
	if err != nil {
		return "", err
	}

	lessons, err := s.Lessons(LessonFilter{Limit: s.cfg.MaxContextItems})
	if err != nil {
		return "", err
	}

	entities, err := s.ListEntities("")
	if err != nil {
		return "", err
	}
	if len(entities) > s.cfg.MaxContextItems {
		entities = entities[:s.cfg.MaxContextItems]
	}

	if len(facts) == 0 && len(lessons) == 0 && len(entities) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("## Agent Memory\n\n")

	if len(facts) > 0 {
		b.WriteString("### Recent Facts\n")
		for _, f := range facts {
			tags := ""
			if len(f.Tags) > 0 {
				tags = fmt.Sprintf(" [%s]", strings.Join(f.Tags, ", "))
			}
			fmt.Fprintf(&b, "- %s%s (confidence %.2f)\n", Truncate(f.Content, 200), tags, f.Confidence)
		}
		b.WriteString("\n")
	}

	if len(lessons) > 0 {
		b.WriteString("### Lessons Learned\n")
		for _, l := range lessons {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", Truncate(l.Action, 100), l.Outcome, Truncate(l.Insight, 200))
		}
		b.WriteString("\n")
	}

	if len(entities) > 0 {
		b.WriteString("### Tracked Entities\n")
		for _, e := range entities {
			fmt.Fprintf(&b, "- **%s** (%s), %d linked facts\n", e.Name, e.EntityType, len(e.FactIDs))
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}
