package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	// ErrNotFound is returned when no data is available for a given key.
	ErrNotFound = errors.New("not found")
)

// MemoryStore is a concurrency-safe in-memory cache of the latest snapshot per
// location. It keeps no history: saving replaces the previous snapshot.
type MemoryStore struct {
	mu sync.RWMutex

	// key: coordinates key, value: latest snapshot
	data map[string]weather.WeatherSnapshot

	// snapshots older than maxAge are treated as missing; 0 disables expiry
	maxAge time.Duration
	now    func() time.Time
}

// NewMemoryStore creates a new MemoryStore. maxAge <= 0 keeps snapshots until replaced.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]weather.WeatherSnapshot),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// SaveSnapshot replaces the snapshot stored for its coordinates.
func (s *MemoryStore) SaveSnapshot(snapshot weather.WeatherSnapshot) {
	key := snapshot.Coordinates.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = snapshot.Clone()
}

// GetLatest returns the snapshot for c, or ErrNotFound when absent or expired.
func (s *MemoryStore) GetLatest(c weather.Coordinates) (weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[c.Key()]
	if !ok || s.expired(snap) {
		return weather.WeatherSnapshot{}, ErrNotFound
	}
	return snap.Clone(), nil
}

// Prune drops expired snapshots and returns how many were removed.
func (s *MemoryStore) Prune() int {
	if s.maxAge <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, snap := range s.data {
		if s.expired(snap) {
			delete(s.data, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of cached locations, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) expired(snap weather.WeatherSnapshot) bool {
	return s.maxAge > 0 && s.now().Sub(snap.FetchedAt) > s.maxAge
}
