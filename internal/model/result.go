package model

import (
	"time"

	"github.com/google/uuid"
)

// NotAnsweredMarker is the display value for questions the user skipped.
const NotAnsweredMarker = "Not answered"

// RecoverySource identifies which resolver tier produced the question
// list a submission was graded against.
type RecoverySource string

const (
	RecoveryCache           RecoverySource = "cache"
	RecoveryBackupQuestions RecoverySource = "backup_questions"
	RecoveryBackupIDs       RecoverySource = "backup_ids"
	RecoveryHeuristic       RecoverySource = "heuristic"
	RecoveryDirect          RecoverySource = "direct"
)

// QuestionResult is the per-question grading outcome.
type QuestionResult struct {
	QuestionID    string `json:"question_id"`
	QuestionText  string `json:"question_text"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer any    `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Explanation   string `json:"explanation,omitempty"`
	Category      string `json:"category,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
	Points        int    `json:"points,omitempty"`
}

// CategoryScore is the per-category aggregate.
type CategoryScore struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// GradingReport is the full outcome of one submission.
type GradingReport struct {
	SessionID        string                   `json:"session_id"`
	TestID           uuid.UUID                `json:"test_id"`
	UserID           string                   `json:"user_id"`
	TotalQuestions   int                      `json:"total_questions"`
	CorrectAnswers   int                      `json:"correct_answers"`
	IncorrectAnswers int                      `json:"incorrect_answers"`
	PercentageScore  int                      `json:"percentage_score"`
	TimeSpentMinutes int                      `json:"time_spent_minutes"`
	RecoverySource   RecoverySource           `json:"recovery_source"`
	DegradedRecovery bool                     `json:"degraded_recovery,omitempty"`
	CategoryScores   map[string]CategoryScore `json:"category_scores"`
	QuestionResults  []QuestionResult         `json:"question_results"`
	SubmittedAt      time.Time                `json:"submitted_at"`
}
