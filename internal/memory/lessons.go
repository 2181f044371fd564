package memory

import (
	"errors"
	"fmt"
)

// Lesson captures an experience: what was done, in what situation, how it
// went, and what was learned from it.
type Lesson struct {
	ID           string `json:"id"`
	Action       string `json:"action"`
	Context      string `json:"context"`
	Outcome      string `json:"outcome"`
	Insight      string `json:"insight"`
	CreatedAt    string `json:"created_at"`
	AppliedCount int    `json:"applied_count"`
}

// Valid lesson outcomes.
const (
	OutcomePositive = "positive"
	OutcomeNegative = "negative"
	OutcomeNeutral  = "neutral"
)

// ErrInvalidOutcome is returned by Learn when the outcome is not one of the
// three recognized values.
var ErrInvalidOutcome = errors.New("memory: outcome must be positive, negative, or neutral")

// LearnParams holds the input for recording a lesson.
type LearnParams struct {
	Action  string `json:"action"`
	Context string `json:"context"`
	Outcome string `json:"outcome"`
	Insight string `json:"insight"`
}

// LessonFilter narrows lesson retrieval. Context is a substring match
// (case-insensitive for ASCII), Outcome an exact match.
type LessonFilter struct {
	Context string `json:"context,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// Learn records a lesson and returns its id. The outcome is validated
// before anything is written.
func (s *Store) Learn(p LearnParams) (string, error) {
	switch p.Outcome {
	case OutcomePositive, OutcomeNegative, OutcomeNeutral:
	default:
		return "", ErrInvalidOutcome
	}

	id := newID(p.Action + p.Context)
	_, err := s.db.Exec(
		`INSERT INTO lessons (id, action, context, outcome, insight, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, p.Action, p.Context, p.Outcome, p.Insight, Now(),
	)
	if err != nil {
		return "", fmt.Errorf("learn: %w", err)
	}
	return id, nil
}

// Lessons retrieves recorded lessons, newest first, optionally filtered.
func (s *Store) Lessons(filter LessonFilter) ([]Lesson, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > s.cfg.MaxListResults {
		limit = s.cfg.MaxListResults
	}

	query := `SELECT id, action, context, outcome, insight, created_at, applied_count
		 FROM lessons WHERE 1=1`
	var args []any
	if filter.Context != "" {
		query += ` AND context LIKE ?`
		args = append(args, "%"+filter.Context+"%")
	}
	if filter.Outcome != "" {
		query += ` AND outcome = ?`
		args = append(args, filter.Outcome)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("lessons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Lesson
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.Action, &l.Context, &l.Outcome, &l.Insight, &l.CreatedAt, &l.AppliedCount); err != nil {
			return nil, fmt.Errorf("lessons: scan: %w", err)
		}
		results = append(results, l)
	}
	return results, rows.Err()
}

// ApplyLesson increments a lesson's applied counter, recording that its
// insight was acted on. Applying an unknown id is a silent no-op.
func (s *Store) ApplyLesson(id string) error {
	if _, err := s.db.Exec(
		`UPDATE lessons SET applied_count = applied_count + 1 WHERE id = ?`, id,
	); err != nil {
		return fmt.Errorf("apply lesson: %w", err)
	}
	return nil
}
