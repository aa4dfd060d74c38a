package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/tutorium/tutorium-backend/internal/cache"
)

// ExpirySweeper periodically evicts stale session records from the
// cache. The sweep is purely time-based and is the only bound on cache
// growth; a record becomes stale once its time limit plus the
// configured buffer has elapsed. Evicting a session that is mid-submit
// is safe because the submission falls through to backup recovery.
type ExpirySweeper struct {
	cache    *cache.SessionCache
	interval time.Duration
	buffer   time.Duration
	log      zerolog.Logger

	// now is swapped out in tests.
	now func() time.Time
}

// NewExpirySweeper creates an ExpirySweeper.
func NewExpirySweeper(c *cache.SessionCache, interval, buffer time.Duration, log zerolog.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		cache:    c,
		interval: interval,
		buffer:   buffer,
		log:      log.With().Str("component", "expiry_sweeper").Logger(),
		now:      time.Now,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (w *ExpirySweeper) Start(ctx context.Context) {
	w.log.Info().
		Dur("interval", w.interval).
		Dur("buffer", w.buffer).
		Msg("ExpirySweeper started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ExpirySweeper stopped")
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep evicts every cached session whose expiry time has passed.
// Returns the number of evicted records.
func (w *ExpirySweeper) Sweep() int {
	now := w.now()
	evicted := 0

	for _, id := range w.cache.Keys() {
		rec, ok := w.cache.Get(id)
		if !ok {
			continue // Deleted between snapshot and read
		}
		if now.After(rec.ExpiresAt(w.buffer)) {
			w.cache.Delete(id)
			evicted++
			w.log.Debug().
				Str("session_id", id).
				Time("started", rec.StartTime).
				Int("time_limit_minutes", rec.TimeLimitMinutes).
				Msg("Evicted expired session")
		}
	}

	if evicted > 0 {
		w.log.Info().
			Int("evicted", evicted).
			Int("remaining", w.cache.Len()).
			Msg("Sweep complete")
	}
	return evicted
}
