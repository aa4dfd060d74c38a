package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/tutorium/tutorium-backend/internal/cache"
	"github.com/tutorium/tutorium-backend/internal/model"
)

// Domain Errors
var (
	ErrTestNotFound = errors.New("test not found")
	ErrNoQuestions  = errors.New("test has no questions, cannot start a session")
)

// TestStore fetches test documents.
type TestStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.TestDocument, error)
}

// QuestionSource provides the full ordered question pool of a test.
type QuestionSource interface {
	QuestionsForTest(ctx context.Context, testID uuid.UUID) ([]model.Question, error)
}

// BackupStore is the durable shadow store for session selections,
// keyed by sessionData_{sessionID} inside the parent test.
type BackupStore interface {
	SaveSessionBackup(ctx context.Context, testID uuid.UUID, sessionID string, backup *model.BackupRecord) error
	GetSessionBackup(ctx context.Context, testID uuid.UUID, sessionID string) (*model.BackupRecord, error)
	DeleteSessionBackup(ctx context.Context, testID uuid.UUID, sessionID string) error
}

// ResultSink receives finished grading reports for durable persistence.
type ResultSink interface {
	Persist(ctx context.Context, report *model.GradingReport) error
}

// SessionService owns the curated test session flow: selection, caching,
// backup, tiered recovery and grading.
type SessionService struct {
	tests        TestStore
	backups      BackupStore
	results      ResultSink
	cache        *cache.SessionCache
	resolver     *RecoveryResolver
	defaultCount int
	log          zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	tests TestStore,
	pool QuestionSource,
	backups BackupStore,
	results ResultSink,
	sessionCache *cache.SessionCache,
	defaultCount int,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		tests:        tests,
		backups:      backups,
		results:      results,
		cache:        sessionCache,
		resolver:     NewRecoveryResolver(sessionCache, backups, pool, log),
		defaultCount: defaultCount,
		log:          log.With().Str("component", "session_service").Logger(),
	}
}

// StartSession selects questions for a new curated session, caches the
// authoritative record and mirrors it into the backup store. The backup
// write is best-effort: its failure degrades recovery quality but never
// fails session creation.
func (s *SessionService) StartSession(ctx context.Context, testID uuid.UUID, req model.StartSessionRequest) (*model.StartSessionResponse, error) {
	test, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	if len(test.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	count := req.QuestionCount
	if count <= 0 {
		count = s.defaultCount
	}

	sel := SelectQuestions(test.Questions, count, req.Randomize)

	record := &model.SessionRecord{
		SessionID:        uuid.New().String(),
		TestID:           testID,
		UserID:           req.UserID,
		Questions:        sel.Questions,
		StartTime:        time.Now(),
		TimeLimitMinutes: test.TimeLimitMinutes,
		IsAdminTest:      true,
	}

	if err := s.cache.Put(record.SessionID, record); err != nil {
		// Only possible on uuid collision; treat as internal.
		return nil, fmt.Errorf("cache session: %w", err)
	}

	backup := &model.BackupRecord{
		SelectedQuestionIDs: sel.OriginalIDs,
		SelectedQuestions:   sel.Questions,
		SessionData:         record,
		CreatedAt:           record.StartTime,
	}
	if err := s.backups.SaveSessionBackup(ctx, testID, record.SessionID, backup); err != nil {
		s.log.Warn().Err(err).
			Str("session_id", record.SessionID).
			Str("test_id", testID.String()).
			Msg("Session backup write failed; recovery will be degraded")
	}

	s.log.Info().
		Str("session_id", record.SessionID).
		Str("test_id", testID.String()).
		Str("user_id", req.UserID).
		Int("questions", len(sel.Questions)).
		Msg("Session started")

	return &model.StartSessionResponse{
		SessionID:        record.SessionID,
		TestID:           testID,
		Questions:        sel.StripForClient(),
		TimeLimitMinutes: test.TimeLimitMinutes,
	}, nil
}

// SubmitSession resolves the session's question list through the
// recovery chain, grades the answers and hands the report to the result
// sink. The caller always gets either a report or an explicit error,
// never a partial success.
func (s *SessionService) SubmitSession(ctx context.Context, testID uuid.UUID, sessionID string, req model.SubmitSessionRequest) (*model.GradingReport, error) {
	resolution, err := s.resolver.Resolve(ctx, testID, sessionID, req.Answers)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}

	outcome := Grade(resolution.Questions, req.Answers, resolution.AdminPath)

	report := &model.GradingReport{
		SessionID:        sessionID,
		TestID:           testID,
		UserID:           req.UserID,
		TotalQuestions:   len(resolution.Questions),
		CorrectAnswers:   outcome.CorrectAnswers,
		IncorrectAnswers: len(resolution.Questions) - outcome.CorrectAnswers,
		PercentageScore:  roundPercent(outcome.CorrectAnswers, len(resolution.Questions)),
		TimeSpentMinutes: int(math.Round(float64(req.TimeSpentSeconds) / 60)),
		RecoverySource:   resolution.Source,
		DegradedRecovery: resolution.Degraded,
		CategoryScores:   outcome.CategoryScores,
		QuestionResults:  outcome.Results,
		SubmittedAt:      time.Now().UTC(),
	}

	if err := s.results.Persist(ctx, report); err != nil {
		// The sink has its own fallback; a failure here is logged, the
		// client still receives the graded report.
		s.log.Error().Err(err).
			Str("session_id", sessionID).
			Msg("Result persistence failed")
	}

	s.cleanupSession(ctx, testID, sessionID, resolution.Source)

	s.log.Info().
		Str("session_id", sessionID).
		Str("source", string(resolution.Source)).
		Int("score", report.PercentageScore).
		Bool("degraded", report.DegradedRecovery).
		Msg("Session graded")

	return report, nil
}

// cleanupSession removes the consumed session from the cache and the
// backup store. Failures are logged only; stale backups are garbage
// collected with their parent test.
func (s *SessionService) cleanupSession(ctx context.Context, testID uuid.UUID, sessionID string, source model.RecoverySource) {
	if source == model.RecoveryDirect {
		// Ordinary attempts never touched the cache or backup store.
		return
	}
	s.cache.Delete(sessionID)
	if err := s.backups.DeleteSessionBackup(ctx, testID, sessionID); err != nil {
		s.log.Warn().Err(err).
			Str("session_id", sessionID).
			Msg("Backup cleanup after grading failed")
	}
}

// CacheStats reports the live session cache size and key snapshot for
// the diagnostics endpoint.
func (s *SessionService) CacheStats() (int, []string) {
	return s.cache.Len(), s.cache.Keys()
}
