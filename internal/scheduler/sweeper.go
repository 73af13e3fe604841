package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Expirer fails campaigns whose deadline passed short of their goal
type Expirer interface {
	ExpireCampaigns(ctx context.Context) (int, error)
}

// Sweeper runs the campaign expiry job on a cron schedule
type Sweeper struct {
	cron     *cron.Cron
	expirer  Expirer
	schedule string
	timeout  time.Duration
	logger   *zap.Logger
	mu       sync.Mutex
	running  bool
	entry    cron.EntryID
}

// NewSweeper creates a sweeper. schedule accepts standard five field cron
// expressions and descriptors such as "@every 1m".
func NewSweeper(expirer Expirer, schedule string, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		expirer:  expirer,
		schedule: schedule,
		timeout:  time.Minute,
		logger:   logger,
	}
}

// Start registers the job and starts the cron scheduler
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("sweeper already running")
	}
	id, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) })
	if err != nil {
		return fmt.Errorf("invalid sweeper schedule %q: %w", s.schedule, err)
	}
	s.entry = id
	s.running = true

	s.logger.Info("Starting expiry sweeper", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.logger.Info("Stopping expiry sweeper")
	<-s.cron.Stop().Done()
	s.cron.Remove(s.entry)
	s.running = false
}

// RunOnce performs one sweep and returns the number of campaigns failed
func (s *Sweeper) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.expirer.ExpireCampaigns(ctx)
	if err != nil {
		s.logger.Error("Expiry sweep finished with errors", zap.Int("expired", n), zap.Error(err))
		return n
	}
	if n > 0 {
		s.logger.Info("Expiry sweep finished", zap.Int("expired", n), zap.Duration("took", time.Since(start)))
	}
	return n
}
