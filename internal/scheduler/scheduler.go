package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	defaultInterval   = 15 * time.Minute
	defaultRunTimeout = 30 * time.Second
)

// Refresher refreshes snapshots for a set of locations. *weather.Service implements it.
type Refresher interface {
	RefreshAll(ctx context.Context, locations []weather.Coordinates) error
}

// Pruner drops expired cache entries.
type Pruner interface {
	Prune() int
}

// Scheduler periodically refreshes snapshots for the tracked locations.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	refresher  Refresher
	pruner     Pruner
	locations  []weather.Coordinates
	interval   time.Duration
	runTimeout time.Duration
	logger     zerolog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPruner prunes p after every refresh run.
func WithPruner(p Pruner) Option {
	return func(s *Scheduler) { s.pruner = p }
}

// WithRunTimeout bounds a single refresh run.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

// New creates a new Scheduler. A non-positive interval falls back to 15 minutes.
func New(locations []weather.Coordinates, interval time.Duration, refresher Refresher, logger zerolog.Logger, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	s := &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		refresher:  refresher,
		locations:  locations,
		interval:   interval,
		runTimeout: defaultRunTimeout,
		logger:     logger.With().Str("component", "scheduler").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info().Msg("no tracked locations configured; nothing to schedule")
		return nil
	}

	s.scheduler.SingletonModeAll()
	if _, err := s.scheduler.Every(s.interval).Do(s.run); err != nil {
		return err
	}

	s.logger.Info().
		Int("locations", len(s.locations)).
		Dur("interval", s.interval).
		Msg("scheduler started")
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	if err := s.refresher.RefreshAll(ctx, s.locations); err != nil {
		s.logger.Warn().Err(err).Msg("refresh run finished with failures")
	}

	ev := s.logger.Debug().Dur("elapsed", time.Since(start))
	if s.pruner != nil {
		ev = ev.Int("pruned", s.pruner.Prune())
	}
	ev.Msg("refresh run completed")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
