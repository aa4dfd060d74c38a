package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/tutorium/tutorium-backend/internal/cache"
	"github.com/tutorium/tutorium-backend/internal/model"
)

func testDoc(pool []model.Question) *model.TestDocument {
	return &model.TestDocument{
		ID:               uuid.New(),
		Title:            "Midterm",
		TimeLimitMinutes: 30,
		Questions:        pool,
	}
}

func sessionAnswers(n int) map[string]any {
	answers := make(map[string]any, n)
	for i := 1; i <= n; i++ {
		answers[SyntheticQuestionID(i)] = float64(0)
	}
	return answers
}

func TestResolveCacheHit(t *testing.T) {
	doc := testDoc(makePool(10))
	store := newFakeTestStore(doc)
	backups := newFakeBackupStore()
	c := cache.NewSessionCache()

	sel := SelectQuestions(doc.Questions, 5, false)
	rec := &model.SessionRecord{
		SessionID:        "sess-1",
		TestID:           doc.ID,
		Questions:        sel.Questions,
		StartTime:        time.Now(),
		TimeLimitMinutes: 30,
		IsAdminTest:      true,
	}
	if err := c.Put("sess-1", rec); err != nil {
		t.Fatal(err)
	}

	r := NewRecoveryResolver(c, backups, store, zerolog.Nop())
	res, err := r.Resolve(context.Background(), doc.ID, "sess-1", sessionAnswers(5))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if res.Source != model.RecoveryCache {
		t.Errorf("Source = %s, want cache", res.Source)
	}
	if !res.AdminPath || res.Degraded {
		t.Errorf("AdminPath=%v Degraded=%v, want true/false", res.AdminPath, res.Degraded)
	}
	if len(res.Questions) != 5 {
		t.Errorf("resolved %d questions, want 5", len(res.Questions))
	}
}

func TestResolveBackupQuestionsTier(t *testing.T) {
	doc := testDoc(makePool(10))
	store := newFakeTestStore(doc)
	backups := newFakeBackupStore()
	c := cache.NewSessionCache() // empty, simulates restart

	sel := SelectQuestions(doc.Questions, 5, false)
	rec := &model.SessionRecord{
		SessionID:        "sess-1",
		TestID:           doc.ID,
		Questions:        sel.Questions,
		StartTime:        time.Now(),
		TimeLimitMinutes: 30,
		IsAdminTest:      true,
	}
	backup := &model.BackupRecord{
		SelectedQuestionIDs: sel.OriginalIDs,
		SelectedQuestions:   sel.Questions,
		SessionData:         rec,
		CreatedAt:           time.Now(),
	}
	if err := backups.SaveSessionBackup(context.Background(), doc.ID, "sess-1", backup); err != nil {
		t.Fatal(err)
	}

	r := NewRecoveryResolver(c, backups, store, zerolog.Nop())
	res, err := r.Resolve(context.Background(), doc.ID, "sess-1", sessionAnswers(5))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if res.Source != model.RecoveryBackupQuestions {
		t.Errorf("Source = %s, want backup_questions", res.Source)
	}
	if len(res.Questions) != 5 {
		t.Errorf("resolved %d questions, want 5", len(res.Questions))
	}

	// Lazy cache warm happened and the consumed backup is gone.
	if _, ok := c.Get("sess-1"); !ok {
		t.Error("session was not re-inserted into cache")
	}
	if backups.get(doc.ID, "sess-1") != nil {
		t.Error("backup entry not deleted after recovery")
	}
}

func TestResolveBackupIDTier(t *testing.T) {
	doc := testDoc(makePool(10))
	store := newFakeTestStore(doc)
	backups := newFakeBackupStore()
	c := cache.NewSessionCache()

	// Only lightweight ids survived, including one that no longer resolves.
	backup := &model.BackupRecord{
		SelectedQuestionIDs: []string{"bank-3", "bank-1", "bank-404", "bank-7"},
		CreatedAt:           time.Now(),
	}
	if err := backups.SaveSessionBackup(context.Background(), doc.ID, "sess-1", backup); err != nil {
		t.Fatal(err)
	}

	r := NewRecoveryResolver(c, backups, store, zerolog.Nop())
	res, err := r.Resolve(context.Background(), doc.ID, "sess-1", sessionAnswers(4))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if res.Source != model.RecoveryBackupIDs {
		t.Errorf("Source = %s, want backup_ids", res.Source)
	}
	// bank-404 dropped, order of the rest preserved.
	wantIDs := []string{"bank-3", "bank-1", "bank-7"}
	if len(res.Questions) != len(wantIDs) {
		t.Fatalf("resolved %d questions, want %d", len(res.Questions), len(wantIDs))
	}
	for i, want := range wantIDs {
		if res.Questions[i].ID != want {
			t.Errorf("question %d = %q, want %q", i, res.Questions[i].ID, want)
		}
	}
	if res.Degraded {
		t.Error("id-based reconstruction must not be flagged degraded")
	}
}

func TestResolveHeuristicTier(t *testing.T) {
	doc := testDoc(makePool(10))
	store := newFakeTestStore(doc)
	backups := newFakeBackupStore() // no backup at all
	c := cache.NewSessionCache()

	r := NewRecoveryResolver(c, backups, store, zerolog.Nop())
	res, err := r.Resolve(context.Background(), doc.ID, "sess-1", sessionAnswers(4))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if res.Source != model.RecoveryHeuristic {
		t.Errorf("Source = %s, want heuristic", res.Source)
	}
	if !res.Degraded {
		t.Error("heuristic recovery must be flagged degraded")
	}
	// First N pool questions, N = number of submitted answers.
	if len(res.Questions) != 4 {
		t.Fatalf("resolved %d questions, want 4", len(res.Questions))
	}
	for i := 0; i < 4; i++ {
		if res.Questions[i].ID != doc.Questions[i].ID {
			t.Errorf("question %d = %q, want %q", i, res.Questions[i].ID, doc.Questions[i].ID)
		}
	}
}

func TestResolveNonSessionKeysGradeDirectly(t *testing.T) {
	doc := testDoc(makePool(10))
	store := newFakeTestStore(doc)
	backups := newFakeBackupStore()
	c := cache.NewSessionCache()

	answers := map[string]any{"bank-1": float64(0), "bank-2": float64(1)}

	r := NewRecoveryResolver(c, backups, store, zerolog.Nop())
	res, err := r.Resolve(context.Background(), doc.ID, "sess-1", answers)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if res.Source != model.RecoveryDirect {
		t.Errorf("Source = %s, want direct", res.Source)
	}
	if res.AdminPath {
		t.Error("direct grading must not use positional session keys")
	}
	if len(res.Questions) != 10 {
		t.Errorf("resolved %d questions, want the full pool of 10", len(res.Questions))
	}
}

func TestResolveBackupReadFailureDegrades(t *testing.T) {
	doc := testDoc(makePool(10))
	store := newFakeTestStore(doc)
	backups := newFakeBackupStore()
	backups.getErr = errors.New("backup store unavailable")
	c := cache.NewSessionCache()

	r := NewRecoveryResolver(c, backups, store, zerolog.Nop())
	res, err := r.Resolve(context.Background(), doc.ID, "sess-1", sessionAnswers(3))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Source != model.RecoveryHeuristic {
		t.Errorf("Source = %s, want heuristic after backup read failure", res.Source)
	}
}

func TestResolveUnknownTestIsHardFailure(t *testing.T) {
	store := newFakeTestStore() // no tests at all
	backups := newFakeBackupStore()
	c := cache.NewSessionCache()

	r := NewRecoveryResolver(c, backups, store, zerolog.Nop())
	_, err := r.Resolve(context.Background(), uuid.New(), "sess-1", sessionAnswers(3))
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("err = %v, want pgx.ErrNoRows for a missing test", err)
	}
}

func TestResolveNothingToGrade(t *testing.T) {
	doc := testDoc(nil) // a test with no questions
	store := newFakeTestStore(doc)
	backups := newFakeBackupStore()
	c := cache.NewSessionCache()

	r := NewRecoveryResolver(c, backups, store, zerolog.Nop())
	_, err := r.Resolve(context.Background(), doc.ID, "sess-1", sessionAnswers(3))
	if !errors.Is(err, ErrNoGradableContent) {
		t.Errorf("err = %v, want ErrNoGradableContent", err)
	}
}
