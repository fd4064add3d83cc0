// Package maintenance runs scheduled background cleanup for the Bloom server.
package maintenance

import (
	"context"
	"errors"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SweeperStore defines the interface for retention sweep data access.
type SweeperStore interface {
	UsersOverRetention(ctx context.Context, keep int) ([]string, error)
	EvictHistoryOverflow(ctx context.Context, userID string, keep int) (int64, error)
}

// RetentionSweeper trims each user's generation history back to the retention
// cap on a cron schedule. The cap is normally enforced on every save; the
// sweeper catches rows that slipped past it, e.g. after a bulk import.
type RetentionSweeper struct {
	store    SweeperStore
	keep     int
	schedule string
	cron     *cron.Cron
	logger   zerolog.Logger
	mu       sync.Mutex
	running  bool
}

// NewRetentionSweeper creates a new retention sweeper. The schedule uses
// standard five-field cron syntax.
func NewRetentionSweeper(store SweeperStore, schedule string, keep int, logger zerolog.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		store:    store,
		keep:     keep,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With().Str("component", "retention").Logger(),
	}
}

// Start begins the periodic retention sweep.
func (s *RetentionSweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("retention sweeper already running")
	}

	_, err := s.cron.AddFunc(s.schedule, s.runSweep)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", s.schedule).
		Int("keep", s.keep).
		Msg("retention sweeper started")

	return nil
}

// Stop stops the retention sweeper gracefully.
func (s *RetentionSweeper) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	s.running = false
	s.logger.Info().Msg("stopping retention sweeper")
	return s.cron.Stop()
}

// runSweep trims every user holding more history than the retention cap.
func (s *RetentionSweeper) runSweep() {
	ctx := context.Background()

	users, err := s.store.UsersOverRetention(ctx, s.keep)
	if err != nil {
		s.logger.Error().Err(err).Msg("retention sweep failed to list users")
		return
	}

	if len(users) == 0 {
		s.logger.Debug().Int("keep", s.keep).Msg("retention sweep found nothing to trim")
		return
	}

	var evicted int64
	for _, userID := range users {
		deleted, err := s.store.EvictHistoryOverflow(ctx, userID, s.keep)
		if err != nil {
			s.logger.Error().Err(err).
				Str("user_id", userID).
				Msg("retention sweep failed for user")
			continue
		}
		evicted += deleted
	}

	s.logger.Info().
		Int("users", len(users)).
		Int64("evicted_rows", evicted).
		Int("keep", s.keep).
		Msg("retention sweep completed")
}

// RunNow triggers an immediate sweep (useful for testing and the -sweep-now flag).
func (s *RetentionSweeper) RunNow() {
	s.runSweep()
}
