package memory_test

import (
	"testing"

	"github.com/openclaw/agent-memory/internal/memory"
)

func TestRemember_Defaults(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Remember(memory.RememberParams{Content: "the user prefers tabs over spaces"})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if len(id) != 12 {
		t.Errorf("id length = %d, want 12", len(id))
	}

	fact, err := s.GetFact(id)
	if err != nil {
		t.Fatalf("get fact: %v", err)
	}
	if fact == nil {
		t.Fatal("fact not found")
	}
	if fact.Source != "conversation" {
		t.Errorf("source = %q, want conversation", fact.Source)
	}
	if fact.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", fact.Confidence)
	}
	if fact.AccessCount != 1 {
		t.Errorf("access_count = %d, want 1", fact.AccessCount)
	}
	if fact.ExpiresAt != nil {
		t.Errorf("expires_at = %v, want nil", *fact.ExpiresAt)
	}
	if fact.SupersededBy != nil {
		t.Error("new fact already superseded")
	}
	if len(fact.Tags) != 0 {
		t.Errorf("tags = %v, want empty", fact.Tags)
	}
}

func TestRemember_DistinctIDsForSameContent(t *testing.T) {
	s := newTestStore(t)

	id1, err := s.Remember(memory.RememberParams{Content: "duplicate content"})
	if err != nil {
		t.Fatalf("first remember: %v", err)
	}
	id2, err := s.Remember(memory.RememberParams{Content: "duplicate content"})
	if err != nil {
		t.Fatalf("second remember: %v", err)
	}
	if id1 == id2 {
		t.Errorf("same id for two facts: %s", id1)
	}
}

func TestRecall_MatchesByContent(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Remember(memory.RememberParams{
		Content: "project alpha uses PostgreSQL for persistence",
		Tags:    []string{"project", "database"},
	})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if _, err := s.Remember(memory.RememberParams{Content: "the user lives in Lisbon"}); err != nil {
		t.Fatalf("remember: %v", err)
	}

	facts, err := s.Recall("postgresql", memory.RecallOptions{})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1", len(facts))
	}
	if facts[0].ID != id {
		t.Errorf("recalled wrong fact: %s", facts[0].ID)
	}
}

func TestRecall_BumpsAccessBookkeeping(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Remember(memory.RememberParams{Content: "deploy runs through github actions"})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}

	if _, err := s.Recall("deploy", memory.RecallOptions{}); err != nil {
		t.Fatalf("recall: %v", err)
	}

	fact, err := s.GetFact(id)
	if err != nil {
		t.Fatalf("get fact: %v", err)
	}
	if fact.AccessCount != 2 {
		t.Errorf("access_count after recall = %d, want 2", fact.AccessCount)
	}
}

func TestRecall_GetFactDoesNotBump(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Remember(memory.RememberParams{Content: "direct lookups are side-effect free"})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := s.GetFact(id); err != nil {
			t.Fatalf("get fact: %v", err)
		}
	}

	fact, err := s.GetFact(id)
	if err != nil {
		t.Fatalf("get fact: %v", err)
	}
	if fact.AccessCount != 1 {
		t.Errorf("access_count after lookups = %d, want 1", fact.AccessCount)
	}
}

func TestRecall_ConjunctiveTagFilter(t *testing.T) {
	s := newTestStore(t)

	both, err := s.Remember(memory.RememberParams{
		Content: "the billing service owns invoice generation",
		Tags:    []string{"billing", "architecture"},
	})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if _, err := s.Remember(memory.RememberParams{
		Content: "the billing team sits in Berlin",
		Tags:    []string{"billing"},
	}); err != nil {
		t.Fatalf("remember: %v", err)
	}

	facts, err := s.Recall("billing", memory.RecallOptions{Tags: []string{"billing", "architecture"}})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1 (both tags required)", len(facts))
	}
	if facts[0].ID != both {
		t.Errorf("recalled wrong fact: %s", facts[0].ID)
	}
}

func TestRecall_MinConfidence(t *testing.T) {
	s := newTestStore(t)

	low := 0.3
	if _, err := s.Remember(memory.RememberParams{
		Content:    "the refactor might land next sprint",
		Confidence: &low,
	}); err != nil {
		t.Fatalf("remember: %v", err)
	}

	facts, err := s.Recall("refactor", memory.RecallOptions{MinConfidence: 0.8})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(facts) != 0 {
		t.Errorf("low-confidence fact recalled: %v", facts)
	}

	facts, err = s.Recall("refactor", memory.RecallOptions{MinConfidence: 0.2})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(facts) != 1 {
		t.Errorf("got %d facts, want 1", len(facts))
	}
}

func TestRecall_BlankQueryReturnsRecent(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Remember(memory.RememberParams{Content: "older fact"}); err != nil {
		t.Fatalf("remember: %v", err)
	}
	if _, err := s.Remember(memory.RememberParams{Content: "newer fact"}); err != nil {
		t.Fatalf("remember: %v", err)
	}

	facts, err := s.Recall("", memory.RecallOptions{})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(facts) != 2 {
		t.Fatalf("got %d facts, want 2", len(facts))
	}
	if facts[0].Content != "newer fact" {
		t.Errorf("facts not newest-first: %q", facts[0].Content)
	}
}

func TestRecall_SpecialCharactersInQuery(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Remember(memory.RememberParams{Content: "uses the AND operator internally"}); err != nil {
		t.Fatalf("remember: %v", err)
	}

	// FTS operators and quotes must not produce a syntax error.
	for _, q := range []string{`operator AND "quoted"`, `foo*`, `(bar)`, `a-b`} {
		if _, err := s.Recall(q, memory.RecallOptions{}); err != nil {
			t.Errorf("recall(%q) error: %v", q, err)
		}
	}
}

func TestRecall_ExcludesExpiredFacts(t *testing.T) {
	s := newTestStore(t)

	fresh, err := s.Remember(memory.RememberParams{
		Content:       "the sprint demo is on thursday",
		ExpiresInDays: 1,
	})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	f, err := s.GetFact(fresh)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if f.ExpiresAt == nil {
		t.Fatal("expires_in_days did not set expiry")
	}

	// Import accepts arbitrary timestamps, so seed an already-expired fact.
	past := "2000-01-01 00:00:00.000000000"
	expired := memory.Fact{
		ID:           "expiredfact1",
		Content:      "the sprint demo is on monday",
		Tags:         []string{},
		Source:       "conversation",
		Confidence:   1.0,
		CreatedAt:    past,
		LastAccessed: past,
		AccessCount:  1,
		ExpiresAt:    &past,
	}
	if _, err := s.Import(&memory.ExportData{Facts: []memory.Fact{expired}}); err != nil {
		t.Fatalf("import: %v", err)
	}

	facts, err := s.Recall("sprint demo", memory.RecallOptions{})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1 (expired excluded)", len(facts))
	}
	if facts[0].ID != fresh {
		t.Errorf("recalled wrong fact: %s", facts[0].ID)
	}

	// The blank-query fallback applies the same expiry filter.
	facts, err = s.Recall("", memory.RecallOptions{})
	if err != nil {
		t.Fatalf("blank recall: %v", err)
	}
	for _, f := range facts {
		if f.ID == expired.ID {
			t.Error("expired fact returned by blank-query recall")
		}
	}

	// Listing is not recall: expired facts stay visible there.
	all, err := s.ListFacts(memory.ListFactsOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, f := range all {
		if f.ID == expired.ID {
			found = true
		}
	}
	if !found {
		t.Error("expired fact missing from list")
	}
}

func TestRemember_NonPositiveExpiryMeansNoExpiry(t *testing.T) {
	s := newTestStore(t)

	for _, days := range []int{0, -7} {
		id, err := s.Remember(memory.RememberParams{
			Content:       "no expiry requested",
			ExpiresInDays: days,
		})
		if err != nil {
			t.Fatalf("remember(%d): %v", days, err)
		}
		f, err := s.GetFact(id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if f.ExpiresAt != nil {
			t.Errorf("expires_in_days=%d set expiry %q, want none", days, *f.ExpiresAt)
		}
	}
}

func TestSupersede_ChainAndRecallExclusion(t *testing.T) {
	s := newTestStore(t)

	oldID, err := s.Remember(memory.RememberParams{Content: "the user works at Initech"})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}

	newID, err := s.Supersede(oldID, memory.RememberParams{Content: "the user works at Globex now"})
	if err != nil {
		t.Fatalf("supersede: %v", err)
	}
	if newID == "" || newID == oldID {
		t.Fatalf("bad replacement id %q", newID)
	}

	old, err := s.GetFact(oldID)
	if err != nil {
		t.Fatalf("get old: %v", err)
	}
	if old == nil {
		t.Fatal("old fact deleted by supersede")
	}
	if old.SupersededBy == nil || *old.SupersededBy != newID {
		t.Errorf("superseded_by = %v, want %s", old.SupersededBy, newID)
	}

	facts, err := s.Recall("works", memory.RecallOptions{})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	for _, f := range facts {
		if f.ID == oldID {
			t.Error("superseded fact still recalled")
		}
	}
	if len(facts) != 1 || facts[0].ID != newID {
		t.Errorf("replacement not recalled: %v", facts)
	}
}

func TestSupersede_MissingOldFact(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Supersede("nonexistent1", memory.RememberParams{Content: "orphan replacement"})
	if err != nil {
		t.Fatalf("supersede: %v", err)
	}
	if id != "" {
		t.Errorf("id = %q, want empty for missing old fact", id)
	}

	// Nothing should have been written.
	facts, err := s.ListFacts(memory.ListFactsOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(facts) != 0 {
		t.Errorf("replacement created despite missing old fact: %v", facts)
	}
}

func TestListFacts_DisjunctiveTagsAndSuperseded(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Remember(memory.RememberParams{Content: "fact a", Tags: []string{"x"}})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if _, err := s.Remember(memory.RememberParams{Content: "fact b", Tags: []string{"y"}}); err != nil {
		t.Fatalf("remember: %v", err)
	}
	if _, err := s.Remember(memory.RememberParams{Content: "fact c", Tags: []string{"z"}}); err != nil {
		t.Fatalf("remember: %v", err)
	}

	// Any of the tags matches.
	facts, err := s.ListFacts(memory.ListFactsOptions{Tags: []string{"x", "y"}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(facts) != 2 {
		t.Errorf("got %d facts, want 2", len(facts))
	}

	if _, err := s.Supersede(a, memory.RememberParams{Content: "fact a v2", Tags: []string{"x"}}); err != nil {
		t.Fatalf("supersede: %v", err)
	}

	facts, err = s.ListFacts(memory.ListFactsOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, f := range facts {
		if f.ID == a {
			t.Error("superseded fact listed without include_superseded")
		}
	}

	facts, err = s.ListFacts(memory.ListFactsOptions{IncludeSuperseded: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, f := range facts {
		if f.ID == a {
			found = true
		}
	}
	if !found {
		t.Error("superseded fact missing with include_superseded")
	}
}

func TestForget_Idempotent(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Remember(memory.RememberParams{Content: "temporary"})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if err := s.Forget(id); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if err := s.Forget(id); err != nil {
		t.Fatalf("second forget: %v", err)
	}
	if err := s.Forget("never-existed"); err != nil {
		t.Fatalf("forget unknown: %v", err)
	}

	fact, err := s.GetFact(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fact != nil {
		t.Error("fact still present after forget")
	}
}

func TestForgetStale_EvictsByAccessPattern(t *testing.T) {
	s := newTestStore(t)

	neglected, err := s.Remember(memory.RememberParams{Content: "quarterly report format preference"})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	useful, err := s.Remember(memory.RememberParams{Content: "the staging cluster runs kubernetes"})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}

	// Build up access history for the useful fact only.
	for i := 0; i < 3; i++ {
		if _, err := s.Recall("kubernetes", memory.RecallOptions{}); err != nil {
			t.Fatalf("recall: %v", err)
		}
	}

	// days=0 makes everything's last access older than the cutoff.
	n, err := s.ForgetStale(0, 2)
	if err != nil {
		t.Fatalf("forget stale: %v", err)
	}
	if n != 1 {
		t.Errorf("evicted %d facts, want 1", n)
	}

	if f, _ := s.GetFact(neglected); f != nil {
		t.Error("neglected fact survived eviction")
	}
	if f, _ := s.GetFact(useful); f == nil {
		t.Error("frequently accessed fact evicted")
	}
}

func TestForgetStale_SparesSuperseded(t *testing.T) {
	s := newTestStore(t)

	oldID, err := s.Remember(memory.RememberParams{Content: "original statement"})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	newID, err := s.Supersede(oldID, memory.RememberParams{Content: "corrected statement"})
	if err != nil {
		t.Fatalf("supersede: %v", err)
	}

	// Aggressive eviction takes the unaccessed replacement but leaves history.
	if _, err := s.ForgetStale(0, 100); err != nil {
		t.Fatalf("forget stale: %v", err)
	}

	if f, _ := s.GetFact(oldID); f == nil {
		t.Error("superseded fact evicted")
	}
	if f, _ := s.GetFact(newID); f != nil {
		t.Error("active replacement survived aggressive eviction")
	}
}
