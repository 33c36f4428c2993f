package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SnapshotSource produces fresh snapshots. *Aggregator is the production implementation.
type SnapshotSource interface {
	Aggregate(ctx context.Context, lat, lon float64) (WeatherSnapshot, error)
}

// Service caches the latest snapshot per location in front of an aggregator.
type Service struct {
	source SnapshotSource
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a new Service.
func NewService(source SnapshotSource, store Store, logger zerolog.Logger) *Service {
	return &Service{
		source: source,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Refresh aggregates a new snapshot and stores it. On failure the last good
// snapshot stays in the store untouched.
func (s *Service) Refresh(ctx context.Context, c Coordinates) (WeatherSnapshot, error) {
	snapshot, err := s.source.Aggregate(ctx, c.Lat, c.Lon)
	if err != nil {
		return WeatherSnapshot{}, err
	}
	s.store.SaveSnapshot(snapshot)
	return snapshot, nil
}

// Get returns the cached snapshot for c when it is younger than maxAge, and
// refreshes otherwise. maxAge <= 0 always refreshes.
func (s *Service) Get(ctx context.Context, c Coordinates, maxAge time.Duration) (WeatherSnapshot, error) {
	if err := c.Validate(); err != nil {
		return WeatherSnapshot{}, err
	}

	if maxAge > 0 {
		cached, err := s.store.GetLatest(c)
		if err == nil && s.now().Sub(cached.FetchedAt) <= maxAge {
			s.logger.Debug().Str("coords", c.Key()).Msg("serving cached snapshot")
			return cached, nil
		}
	}

	return s.Refresh(ctx, c)
}

// Latest delegates to the underlying store.
func (s *Service) Latest(c Coordinates) (WeatherSnapshot, error) {
	return s.store.GetLatest(c)
}

// RefreshAll refreshes every location concurrently and returns the joined
// failures, if any.
func (s *Service) RefreshAll(ctx context.Context, locations []Coordinates) error {
	if len(locations) == 0 {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	s.logger.Debug().Int("locations", len(locations)).Msg("refreshing tracked locations")

	for _, c := range locations {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if _, err := s.Refresh(ctx, c); err != nil {
				s.logger.Warn().Err(err).Str("coords", c.Key()).Msg("refresh failed; keeping last good snapshot")
				mu.Lock()
				errs = append(errs, fmt.Errorf("refresh %s: %w", c.Key(), err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errors.Join(errs...)
}
