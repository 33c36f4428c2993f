package weather

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

type mockWeather struct{ mock.Mock }

func (m *mockWeather) Name() string { return "mock-weather" }

func (m *mockWeather) FetchWeather(ctx context.Context, c Coordinates) (WeatherReport, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(WeatherReport), args.Error(1)
}

type mockAir struct {
	mock.Mock
	policy AQIPolicy
}

func (m *mockAir) Name() string         { return "mock-air" }
func (m *mockAir) AQIPolicy() AQIPolicy { return m.policy }

func (m *mockAir) FetchAirQuality(ctx context.Context, c Coordinates) (AirReading, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(AirReading), args.Error(1)
}

type mockGeocoder struct{ mock.Mock }

func (m *mockGeocoder) Name() string { return "mock-geo" }

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, c Coordinates) (string, error) {
	args := m.Called(ctx, c)
	return args.String(0), args.Error(1)
}

type mapStore struct {
	mu   sync.Mutex
	data map[string]WeatherSnapshot
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string]WeatherSnapshot)}
}

func (s *mapStore) SaveSnapshot(snapshot WeatherSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[snapshot.Coordinates.Key()] = snapshot
}

func (s *mapStore) GetLatest(c Coordinates) (WeatherSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.data[c.Key()]
	if !ok {
		return WeatherSnapshot{}, errNotCached
	}
	return snap, nil
}
