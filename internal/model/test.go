package model

import (
	"time"

	"github.com/google/uuid"
)

// TestDocument represents a curated test: its metadata and full question
// pool. Session backups live alongside it in the same row (see
// repository.TestRepository) so a lost in-memory session can be rebuilt.
type TestDocument struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Subject          string     `json:"subject,omitempty"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	Questions        []Question `json:"questions"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// StartSessionRequest is the payload for starting a curated test session.
type StartSessionRequest struct {
	UserID        string `json:"user_id" binding:"required,min=1,max=64"`
	QuestionCount int    `json:"question_count" binding:"omitempty,min=1,max=200"`
	Randomize     bool   `json:"randomize"`
}

// StartSessionResponse is what the client receives at session start.
// Questions are answer-stripped and carry synthetic session-scoped ids.
type StartSessionResponse struct {
	SessionID        string            `json:"session_id"`
	TestID           uuid.UUID         `json:"test_id"`
	Questions        []StudentQuestion `json:"questions"`
	TimeLimitMinutes int               `json:"time_limit_minutes"`
}

// SubmitSessionRequest is the payload for submitting answers.
// Answer values are heterogeneous: string, number, bool, or array,
// matching whatever the question type produced on the client.
type SubmitSessionRequest struct {
	UserID           string         `json:"user_id" binding:"required,min=1,max=64"`
	Answers          map[string]any `json:"answers" binding:"required"`
	TimeSpentSeconds int            `json:"time_spent_seconds" binding:"min=0"`
}
