package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tutorium/tutorium-backend/internal/model"
)

// backupFieldKey builds the per-session field name inside the parent
// test's session_backups JSONB object.
func backupFieldKey(sessionID string) string {
	return "sessionData_" + sessionID
}

// TestRepository handles test document data access, including the
// session backup fields embedded in each test row.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

// GetByID retrieves a test document by its UUID, including its full
// question pool (with answer keys).
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TestDocument, error) {
	t := &model.TestDocument{}
	var questionsRaw []byte

	err := r.pool.QueryRow(ctx,
		`SELECT id, title, subject, time_limit_minutes, questions, created_at, updated_at
		 FROM tests WHERE id = $1`, id,
	).Scan(&t.ID, &t.Title, &t.Subject, &t.TimeLimitMinutes, &questionsRaw, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(questionsRaw) > 0 {
		if err := json.Unmarshal(questionsRaw, &t.Questions); err != nil {
			return nil, fmt.Errorf("unmarshal questions: %w", err)
		}
	}
	return t, nil
}

// QuestionsForTest retrieves the full ordered question pool for a test.
func (r *TestRepository) QuestionsForTest(ctx context.Context, id uuid.UUID) ([]model.Question, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT questions FROM tests WHERE id = $1`, id,
	).Scan(&raw)
	if err != nil {
		return nil, err
	}

	var questions []model.Question
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &questions); err != nil {
			return nil, fmt.Errorf("unmarshal questions: %w", err)
		}
	}
	return questions, nil
}

// SaveSessionBackup writes a backup record into the parent test row under
// the sessionData_{sessionID} field. Existing fields for other sessions
// are left untouched.
func (r *TestRepository) SaveSessionBackup(ctx context.Context, testID uuid.UUID, sessionID string, backup *model.BackupRecord) error {
	raw, err := json.Marshal(backup)
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE tests
		 SET session_backups = jsonb_set(COALESCE(session_backups, '{}'::jsonb), ARRAY[$2], $3::jsonb, true)
		 WHERE id = $1`,
		testID, backupFieldKey(sessionID), raw,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("test %s not found", testID)
	}
	return nil
}

// GetSessionBackup reads the backup record for sessionID from the parent
// test row. Returns (nil, nil) when no backup field exists.
func (r *TestRepository) GetSessionBackup(ctx context.Context, testID uuid.UUID, sessionID string) (*model.BackupRecord, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT session_backups -> $2 FROM tests WHERE id = $1`,
		testID, backupFieldKey(sessionID),
	).Scan(&raw)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	backup := &model.BackupRecord{}
	if err := json.Unmarshal(raw, backup); err != nil {
		return nil, fmt.Errorf("unmarshal backup: %w", err)
	}
	return backup, nil
}

// DeleteSessionBackup removes the backup field for sessionID from the
// parent test row. Removing an absent field is a no-op.
func (r *TestRepository) DeleteSessionBackup(ctx context.Context, testID uuid.UUID, sessionID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tests SET session_backups = session_backups - $2 WHERE id = $1`,
		testID, backupFieldKey(sessionID),
	)
	return err
}
