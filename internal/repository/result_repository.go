package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tutorium/tutorium-backend/internal/model"
)

// ResultRepository persists finished grading reports.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Insert stores a single grading report. The per-question breakdown and
// category scores are kept as a JSONB payload.
func (r *ResultRepository) Insert(ctx context.Context, report *model.GradingReport) error {
	details, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO test_results
		   (session_id, test_id, user_id, percentage_score, correct_answers,
		    total_questions, time_spent_minutes, degraded_recovery, details, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		report.SessionID, report.TestID, report.UserID, report.PercentageScore,
		report.CorrectAnswers, report.TotalQuestions, report.TimeSpentMinutes,
		report.DegradedRecovery, details, report.SubmittedAt,
	)
	return err
}

// BulkInsert stores a batch of grading reports in one round trip using
// UNNEST, mirroring how the result worker drains its queue.
func (r *ResultRepository) BulkInsert(ctx context.Context, reports []*model.GradingReport) error {
	n := len(reports)
	if n == 0 {
		return nil
	}

	sessionIDs := make([]string, 0, n)
	testIDs := make([]uuid.UUID, 0, n)
	userIDs := make([]string, 0, n)
	scores := make([]int, 0, n)
	corrects := make([]int, 0, n)
	totals := make([]int, 0, n)
	timeSpents := make([]int, 0, n)
	degraded := make([]bool, 0, n)
	detailsList := make([][]byte, 0, n)
	submittedAts := make([]time.Time, 0, n)

	for _, rep := range reports {
		details, err := json.Marshal(rep)
		if err != nil {
			return fmt.Errorf("marshal report %s: %w", rep.SessionID, err)
		}
		sessionIDs = append(sessionIDs, rep.SessionID)
		testIDs = append(testIDs, rep.TestID)
		userIDs = append(userIDs, rep.UserID)
		scores = append(scores, rep.PercentageScore)
		corrects = append(corrects, rep.CorrectAnswers)
		totals = append(totals, rep.TotalQuestions)
		timeSpents = append(timeSpents, rep.TimeSpentMinutes)
		degraded = append(degraded, rep.DegradedRecovery)
		detailsList = append(detailsList, details)
		submittedAts = append(submittedAts, rep.SubmittedAt)
	}

	query := `
		INSERT INTO test_results
		  (session_id, test_id, user_id, percentage_score, correct_answers,
		   total_questions, time_spent_minutes, degraded_recovery, details, submitted_at)
		SELECT
			u.session_id,
			u.test_id,
			u.user_id,
			u.percentage_score,
			u.correct_answers,
			u.total_questions,
			u.time_spent_minutes,
			u.degraded_recovery,
			u.details,
			u.submitted_at
		FROM UNNEST(
			$1::text[],
			$2::uuid[],
			$3::text[],
			$4::int[],
			$5::int[],
			$6::int[],
			$7::int[],
			$8::bool[],
			$9::jsonb[],
			$10::timestamptz[]
		) AS u (session_id, test_id, user_id, percentage_score, correct_answers,
		        total_questions, time_spent_minutes, degraded_recovery, details, submitted_at)
	`

	_, err := r.pool.Exec(ctx, query,
		sessionIDs, testIDs, userIDs, scores, corrects, totals,
		timeSpents, degraded, detailsList, submittedAts,
	)
	return err
}
