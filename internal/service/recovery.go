package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/tutorium/tutorium-backend/internal/cache"
	"github.com/tutorium/tutorium-backend/internal/model"
)

// ErrNoGradableContent is returned when every tier was exhausted
// without producing a question list.
var ErrNoGradableContent = errors.New("no gradable content resolved for submission")

// Resolution is the outcome of recovering a session's question list.
type Resolution struct {
	Questions []model.Question
	Source    model.RecoverySource
	// AdminPath marks that answer keys follow the session_qN naming and
	// grading must match questions by position.
	AdminPath bool
	// Degraded marks that the questions may not be the ones the session
	// actually served (heuristic tier).
	Degraded bool
}

// RecoveryResolver determines which questions a submission was actually
// answering. Tiers are attempted in order; the first that produces a
// question list wins. A cache miss here is an expected condition
// (restart, eviction, other instance), not an error.
type RecoveryResolver struct {
	cache   *cache.SessionCache
	backups BackupStore
	pool    QuestionSource
	log     zerolog.Logger
}

// NewRecoveryResolver creates a RecoveryResolver.
func NewRecoveryResolver(c *cache.SessionCache, backups BackupStore, pool QuestionSource, log zerolog.Logger) *RecoveryResolver {
	return &RecoveryResolver{
		cache:   c,
		backups: backups,
		pool:    pool,
		log:     log.With().Str("component", "recovery_resolver").Logger(),
	}
}

// Resolve runs the tier chain for one submission.
func (r *RecoveryResolver) Resolve(ctx context.Context, testID uuid.UUID, sessionID string, answers map[string]any) (*Resolution, error) {
	// Tier 1: live cache hit.
	if rec, ok := r.cache.Get(sessionID); ok && rec.IsAdminTest {
		return &Resolution{
			Questions: rec.Questions,
			Source:    model.RecoveryCache,
			AdminPath: true,
		}, nil
	}

	// Answer keys that do not follow the session_qN naming never went
	// through the session cache: grade directly against the full pool.
	if !hasSessionAnswerKeys(answers) {
		questions, err := r.pool.QuestionsForTest(ctx, testID)
		if err != nil {
			return nil, fmt.Errorf("load question pool: %w", err)
		}
		if len(questions) == 0 {
			return nil, ErrNoGradableContent
		}
		return &Resolution{
			Questions: questions,
			Source:    model.RecoveryDirect,
			AdminPath: false,
		}, nil
	}

	// Tiers 2 and 3 both read the backup field; fetch it once.
	// A read failure degrades to the next tier rather than failing.
	backup, err := r.backups.GetSessionBackup(ctx, testID, sessionID)
	if err != nil {
		r.log.Warn().Err(err).
			Str("session_id", sessionID).
			Msg("Backup lookup failed, degrading")
		backup = nil
	}

	// Tier 2: the backup carries the full question objects.
	if res, ok := r.fromBackupQuestions(ctx, testID, sessionID, backup); ok {
		return res, nil
	}

	// Tiers 3 and 4 both grade against the test's question pool. A
	// missing test row is a hard failure the caller must see; any other
	// load error degrades toward exhaustion instead.
	pool, err := r.pool.QuestionsForTest(ctx, testID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("load question pool: %w", err)
		}
		r.log.Error().Err(err).
			Str("session_id", sessionID).
			Msg("Pool load failed, degrading")
		pool = nil
	}

	if res, ok := r.fromBackupIDs(sessionID, backup, pool); ok {
		return res, nil
	}
	if res, ok := r.fromHeuristic(sessionID, pool, answers); ok {
		return res, nil
	}

	return nil, ErrNoGradableContent
}

// fromBackupQuestions is tier 2: the backup carries the full question
// objects. On success the original session record (if backed up) is
// re-inserted into the cache and the backup entry is deleted.
func (r *RecoveryResolver) fromBackupQuestions(ctx context.Context, testID uuid.UUID, sessionID string, backup *model.BackupRecord) (*Resolution, bool) {
	if backup == nil || len(backup.SelectedQuestions) == 0 {
		return nil, false
	}

	if backup.SessionData != nil {
		// Lazy cache warm so a follow-up request hits tier 1.
		if err := r.cache.Put(sessionID, backup.SessionData); err != nil {
			r.log.Debug().Err(err).
				Str("session_id", sessionID).
				Msg("Cache warm skipped")
		}
	}
	if err := r.backups.DeleteSessionBackup(ctx, testID, sessionID); err != nil {
		r.log.Warn().Err(err).
			Str("session_id", sessionID).
			Msg("Backup delete after recovery failed")
	}

	r.log.Info().
		Str("session_id", sessionID).
		Int("questions", len(backup.SelectedQuestions)).
		Msg("Session recovered from backup questions")

	return &Resolution{
		Questions: backup.SelectedQuestions,
		Source:    model.RecoveryBackupQuestions,
		AdminPath: true,
	}, true
}

// fromBackupIDs is tier 3: only the selected question ids survived, so
// each id is resolved against the test's full pool. Ids that no longer
// resolve are dropped, not fatal.
func (r *RecoveryResolver) fromBackupIDs(sessionID string, backup *model.BackupRecord, pool []model.Question) (*Resolution, bool) {
	if backup == nil || len(backup.SelectedQuestionIDs) == 0 || len(pool) == 0 {
		return nil, false
	}

	byID := make(map[string]model.Question, len(pool))
	for _, q := range pool {
		byID[q.ID] = q
	}

	questions := make([]model.Question, 0, len(backup.SelectedQuestionIDs))
	for _, id := range backup.SelectedQuestionIDs {
		q, ok := byID[id]
		if !ok {
			r.log.Warn().
				Str("session_id", sessionID).
				Str("question_id", id).
				Msg("Backed-up question id not found in pool, dropping")
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, false
	}

	r.log.Info().
		Str("session_id", sessionID).
		Int("questions", len(questions)).
		Msg("Session reconstructed from backed-up question ids")

	return &Resolution{
		Questions: questions,
		Source:    model.RecoveryBackupIDs,
		AdminPath: true,
	}, true
}

// fromHeuristic is tier 4: no backup at all. Takes the first N pool
// questions where N is the number of submitted answers. The result is
// flagged degraded because the identities may not match what the
// session actually served.
func (r *RecoveryResolver) fromHeuristic(sessionID string, pool []model.Question, answers map[string]any) (*Resolution, bool) {
	if len(pool) == 0 {
		return nil, false
	}

	count := len(answers)
	if count > len(pool) {
		count = len(pool)
	}
	if count == 0 {
		return nil, false
	}

	r.log.Warn().
		Str("session_id", sessionID).
		Int("questions", count).
		Msg("No backup found; grading against first-N pool questions")

	return &Resolution{
		Questions: pool[:count],
		Source:    model.RecoveryHeuristic,
		AdminPath: true,
		Degraded:  true,
	}, true
}

// hasSessionAnswerKeys reports whether any answer key follows the
// synthetic session_qN naming.
func hasSessionAnswerKeys(answers map[string]any) bool {
	for key := range answers {
		if IsSessionAnswerKey(key) {
			return true
		}
	}
	return false
}
