package storage

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Expirer deletes documents older than ttl. *Repository satisfies it.
type Expirer interface {
	DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error)
}

// Sweeper periodically deletes expired forecast documents, playing the role
// MongoDB's TTL monitor plays for the default backend.
type Sweeper struct {
	scheduler *gocron.Scheduler
	expirer   Expirer
	ttl       time.Duration
	interval  time.Duration
	log       *zap.Logger
}

// NewSweeper constructs a Sweeper. It does nothing until Start is called.
func NewSweeper(expirer Expirer, ttl, interval time.Duration, log *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	return &Sweeper{
		scheduler: s,
		expirer:   expirer,
		ttl:       ttl,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the sweep job, running it once immediately.
func (s *Sweeper) Start() error {
	seconds := int(s.interval / time.Second)
	if seconds <= 0 {
		seconds = 1
	}

	_, err := s.scheduler.Every(seconds).Seconds().Do(s.sweep)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.expirer.DeleteExpired(ctx, s.ttl)
	if err != nil {
		s.log.Error("expiry sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("expired forecast documents removed", zap.Int64("count", n))
	}
}
