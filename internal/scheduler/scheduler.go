package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type releasedCounter interface {
	CountReleased(ctx context.Context, day time.Time) (int64, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type tokenPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type releasedGauge interface {
	ReleasedMovies(n int64)
}

// Scheduler watches the number of released movies and housekeeps
// refresh tokens.  When the count changes the response cache is dropped
// so listings pick up the new movies.
type Scheduler struct {
	movies   releasedCounter
	cache    cacheInvalidator
	tokens   tokenPurger
	gauge    releasedGauge
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	lastCount int64
	seeded    bool
}

// New builds a Scheduler.  cache, tokens and gauge may be nil.
func New(
	movies releasedCounter,
	cache cacheInvalidator,
	tokens tokenPurger,
	gauge releasedGauge,
	interval time.Duration,
	logger *zap.Logger,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		movies:   movies,
		cache:    cache,
		tokens:   tokens,
		gauge:    gauge,
		interval: interval,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()
	s.checkReleased(ctx, now)
	s.purgeTokens(ctx, now)
}

func (s *Scheduler) checkReleased(ctx context.Context, now time.Time) {
	n, err := s.movies.CountReleased(ctx, now)
	if err != nil {
		s.logger.Error("failed to count released movies", zap.Error(err))
		return
	}
	if s.gauge != nil {
		s.gauge.ReleasedMovies(n)
	}
	if !s.seeded {
		s.lastCount, s.seeded = n, true
		return
	}
	if n == s.lastCount {
		return
	}
	s.logger.Info("released movies changed", zap.Int64("previous", s.lastCount), zap.Int64("current", n))
	s.lastCount = n
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate response cache", zap.Error(err))
	}
}

func (s *Scheduler) purgeTokens(ctx context.Context, now time.Time) {
	if s.tokens == nil {
		return
	}
	n, err := s.tokens.PurgeExpired(ctx, now)
	if err != nil {
		s.logger.Error("failed to purge refresh tokens", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("refresh tokens purged", zap.Int64("count", n))
	}
}
