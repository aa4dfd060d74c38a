package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tutorium/tutorium-backend/internal/model"
)

// In-memory collaborators for service tests.

type fakeTestStore struct {
	mu    sync.Mutex
	tests map[uuid.UUID]*model.TestDocument

	poolErr error
}

func newFakeTestStore(tests ...*model.TestDocument) *fakeTestStore {
	s := &fakeTestStore{tests: make(map[uuid.UUID]*model.TestDocument)}
	for _, t := range tests {
		s.tests[t.ID] = t
	}
	return s
}

func (s *fakeTestStore) GetByID(_ context.Context, id uuid.UUID) (*model.TestDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return t, nil
}

func (s *fakeTestStore) QuestionsForTest(_ context.Context, id uuid.UUID) ([]model.Question, error) {
	if s.poolErr != nil {
		return nil, s.poolErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return t.Questions, nil
}

type fakeBackupStore struct {
	mu      sync.Mutex
	backups map[string]*model.BackupRecord

	saveErr error
	getErr  error
}

func newFakeBackupStore() *fakeBackupStore {
	return &fakeBackupStore{backups: make(map[string]*model.BackupRecord)}
}

func backupKey(testID uuid.UUID, sessionID string) string {
	return fmt.Sprintf("%s/%s", testID, sessionID)
}

func (s *fakeBackupStore) SaveSessionBackup(_ context.Context, testID uuid.UUID, sessionID string, backup *model.BackupRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backups[backupKey(testID, sessionID)] = backup
	return nil
}

func (s *fakeBackupStore) GetSessionBackup(_ context.Context, testID uuid.UUID, sessionID string) (*model.BackupRecord, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backups[backupKey(testID, sessionID)], nil
}

func (s *fakeBackupStore) DeleteSessionBackup(_ context.Context, testID uuid.UUID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.backups, backupKey(testID, sessionID))
	return nil
}

func (s *fakeBackupStore) get(testID uuid.UUID, sessionID string) *model.BackupRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backups[backupKey(testID, sessionID)]
}

type fakeResultSink struct {
	mu      sync.Mutex
	reports []*model.GradingReport

	err error
}

func (s *fakeResultSink) Persist(_ context.Context, report *model.GradingReport) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return nil
}

// makePool builds a pool of n four-option questions. The correct answer
// for question i is its option (i mod 4), stored as text.
func makePool(n int) []model.Question {
	pool := make([]model.Question, n)
	for i := 0; i < n; i++ {
		options := []string{
			fmt.Sprintf("q%d-a", i+1),
			fmt.Sprintf("q%d-b", i+1),
			fmt.Sprintf("q%d-c", i+1),
			fmt.Sprintf("q%d-d", i+1),
		}
		pool[i] = model.Question{
			ID:            fmt.Sprintf("bank-%d", i+1),
			Text:          fmt.Sprintf("Question %d", i+1),
			Options:       options,
			CorrectAnswer: options[i%4],
			Category:      fmt.Sprintf("cat-%d", i%3),
			Difficulty:    "medium",
			Points:        1,
		}
	}
	return pool
}

// correctIndexAnswers builds a session-keyed answer map that selects the
// correct option index for every question.
func correctIndexAnswers(questions []model.Question) map[string]any {
	answers := make(map[string]any, len(questions))
	for i, q := range questions {
		for idx, opt := range q.Options {
			if opt == q.CorrectAnswer {
				answers[SyntheticQuestionID(i+1)] = float64(idx)
				break
			}
		}
	}
	return answers
}
