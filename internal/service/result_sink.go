package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/tutorium/tutorium-backend/internal/config"
	"github.com/tutorium/tutorium-backend/internal/model"
	"github.com/tutorium/tutorium-backend/internal/repository"
)

// QueueResultSink pushes grading reports onto the Redis persistence
// queue drained by the result worker. If the push fails it falls back
// to a direct database insert so a flaky queue never loses a result.
type QueueResultSink struct {
	rdb      *redis.Client
	fallback *repository.ResultRepository
	log      zerolog.Logger
}

// NewQueueResultSink creates a QueueResultSink.
func NewQueueResultSink(rdb *redis.Client, fallback *repository.ResultRepository, log zerolog.Logger) *QueueResultSink {
	return &QueueResultSink{
		rdb:      rdb,
		fallback: fallback,
		log:      log.With().Str("component", "result_sink").Logger(),
	}
}

// Persist enqueues the report for asynchronous batch persistence.
func (s *QueueResultSink) Persist(ctx context.Context, report *model.GradingReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		s.log.Warn().Err(err).
			Str("session_id", report.SessionID).
			Msg("Queue push failed, inserting directly")
		return s.fallback.Insert(ctx, report)
	}
	return nil
}
