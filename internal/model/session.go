package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionRecord is the authoritative in-memory state of one curated test
// session. Questions (with answer keys) are fixed at creation and must
// not be mutated afterwards; grading relies on their order.
type SessionRecord struct {
	SessionID        string     `json:"session_id"`
	TestID           uuid.UUID  `json:"test_id"`
	UserID           string     `json:"user_id"`
	Questions        []Question `json:"questions"`
	StartTime        time.Time  `json:"start_time"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	IsAdminTest      bool       `json:"is_admin_test"`
}

// ExpiresAt computes when the record becomes eligible for eviction.
// The buffer tolerates clock skew and late submissions.
func (r *SessionRecord) ExpiresAt(buffer time.Duration) time.Time {
	return r.StartTime.Add(time.Duration(r.TimeLimitMinutes)*time.Minute + buffer)
}

// BackupRecord is the durable shadow of a session's question selection,
// stored inside the parent test row. SelectedQuestions is authoritative
// when present; SelectedQuestionIDs is the lightweight fallback; and
// SessionData allows a full cache restore after a process restart.
type BackupRecord struct {
	SelectedQuestionIDs []string       `json:"selected_question_ids,omitempty"`
	SelectedQuestions   []Question     `json:"selected_questions,omitempty"`
	SessionData         *SessionRecord `json:"session_data,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}
