package memory_test

import (
	"errors"
	"testing"

	"github.com/openclaw/agent-memory/internal/memory"
)

func TestLearn_AndRetrieve(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Learn(memory.LearnParams{
		Action:  "ran migrations without a backup",
		Context: "database deployment",
		Outcome: memory.OutcomeNegative,
		Insight: "always snapshot before migrating",
	})
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	if len(id) != 12 {
		t.Errorf("id length = %d, want 12", len(id))
	}

	lessons, err := s.Lessons(memory.LessonFilter{})
	if err != nil {
		t.Fatalf("lessons: %v", err)
	}
	if len(lessons) != 1 {
		t.Fatalf("got %d lessons, want 1", len(lessons))
	}
	l := lessons[0]
	if l.ID != id || l.Outcome != memory.OutcomeNegative || l.AppliedCount != 0 {
		t.Errorf("unexpected lesson: %+v", l)
	}
}

func TestLearn_RejectsInvalidOutcome(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Learn(memory.LearnParams{
		Action:  "tried something",
		Context: "somewhere",
		Outcome: "great",
		Insight: "it went fine",
	})
	if !errors.Is(err, memory.ErrInvalidOutcome) {
		t.Fatalf("err = %v, want ErrInvalidOutcome", err)
	}

	lessons, err := s.Lessons(memory.LessonFilter{})
	if err != nil {
		t.Fatalf("lessons: %v", err)
	}
	if len(lessons) != 0 {
		t.Errorf("lesson written despite invalid outcome: %v", lessons)
	}
}

func TestLessons_Filters(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Learn(memory.LearnParams{
		Action: "used table-driven tests", Context: "Go testing",
		Outcome: memory.OutcomePositive, Insight: "much easier to extend",
	}); err != nil {
		t.Fatalf("learn: %v", err)
	}
	if _, err := s.Learn(memory.LearnParams{
		Action: "mocked the database", Context: "Go testing",
		Outcome: memory.OutcomeNegative, Insight: "integration tests catch more",
	}); err != nil {
		t.Fatalf("learn: %v", err)
	}
	if _, err := s.Learn(memory.LearnParams{
		Action: "deployed on friday", Context: "release process",
		Outcome: memory.OutcomeNegative, Insight: "weekend incidents",
	}); err != nil {
		t.Fatalf("learn: %v", err)
	}

	lessons, err := s.Lessons(memory.LessonFilter{Context: "testing"})
	if err != nil {
		t.Fatalf("lessons: %v", err)
	}
	if len(lessons) != 2 {
		t.Errorf("context filter: got %d, want 2", len(lessons))
	}

	lessons, err = s.Lessons(memory.LessonFilter{Outcome: memory.OutcomeNegative})
	if err != nil {
		t.Fatalf("lessons: %v", err)
	}
	if len(lessons) != 2 {
		t.Errorf("outcome filter: got %d, want 2", len(lessons))
	}

	lessons, err = s.Lessons(memory.LessonFilter{Context: "testing", Outcome: memory.OutcomePositive})
	if err != nil {
		t.Fatalf("lessons: %v", err)
	}
	if len(lessons) != 1 {
		t.Errorf("combined filter: got %d, want 1", len(lessons))
	}
}

func TestApplyLesson_IncrementsCounter(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Learn(memory.LearnParams{
		Action: "pinned dependency versions", Context: "builds",
		Outcome: memory.OutcomePositive, Insight: "reproducible builds",
	})
	if err != nil {
		t.Fatalf("learn: %v", err)
	}

	if err := s.ApplyLesson(id); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := s.ApplyLesson(id); err != nil {
		t.Fatalf("apply: %v", err)
	}

	lessons, err := s.Lessons(memory.LessonFilter{})
	if err != nil {
		t.Fatalf("lessons: %v", err)
	}
	if lessons[0].AppliedCount != 2 {
		t.Errorf("applied_count = %d, want 2", lessons[0].AppliedCount)
	}
}

func TestApplyLesson_UnknownIDIsNoop(t *testing.T) {
	s := newTestStore(t)
	if err := s.ApplyLesson("missing12345"); err != nil {
		t.Fatalf("apply unknown: %v", err)
	}
}
