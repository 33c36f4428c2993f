package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrLocationExists is returned when a location with identical coordinates is already saved.
var ErrLocationExists = errors.New("location already saved")

// SavedLocation is a user bookmark. Two locations are the same when their
// coordinates are exactly equal.
type SavedLocation struct {
	Name string  `json:"name" validate:"required,max=200"`
	Lat  float64 `json:"lat" validate:"latitude"`
	Lon  float64 `json:"lon" validate:"longitude"`
}

// LocationStore persists the saved locations list in insertion order.
type LocationStore interface {
	List(ctx context.Context) ([]SavedLocation, error)
	Add(ctx context.Context, loc SavedLocation) ([]SavedLocation, error)
	Remove(ctx context.Context, index int) ([]SavedLocation, error)
}

// MemoryLocationStore keeps saved locations in process memory.
type MemoryLocationStore struct {
	mu        sync.RWMutex
	locations []SavedLocation
}

func NewMemoryLocationStore() *MemoryLocationStore {
	return &MemoryLocationStore{}
}

func (s *MemoryLocationStore) List(_ context.Context) ([]SavedLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SavedLocation{}, s.locations...), nil
}

func (s *MemoryLocationStore) Add(_ context.Context, loc SavedLocation) ([]SavedLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := appendLocation(s.locations, loc)
	if err != nil {
		return nil, err
	}
	s.locations = next
	return append([]SavedLocation{}, next...), nil
}

func (s *MemoryLocationStore) Remove(_ context.Context, index int) ([]SavedLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := removeLocation(s.locations, index)
	if err != nil {
		return nil, err
	}
	s.locations = next
	return append([]SavedLocation{}, next...), nil
}

func appendLocation(list []SavedLocation, loc SavedLocation) ([]SavedLocation, error) {
	for _, existing := range list {
		if existing.Lat == loc.Lat && existing.Lon == loc.Lon {
			return nil, fmt.Errorf("%w: %s", ErrLocationExists, existing.Name)
		}
	}
	out := make([]SavedLocation, 0, len(list)+1)
	out = append(out, list...)
	return append(out, loc), nil
}

func removeLocation(list []SavedLocation, index int) ([]SavedLocation, error) {
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("%w: saved location %d", ErrNotFound, index)
	}
	out := make([]SavedLocation, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...), nil
}
