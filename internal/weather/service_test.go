package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSource struct{ mock.Mock }

func (m *mockSource) Aggregate(ctx context.Context, lat, lon float64) (WeatherSnapshot, error) {
	args := m.Called(ctx, lat, lon)
	return args.Get(0).(WeatherSnapshot), args.Error(1)
}

func TestService_GetUsesFreshCache(t *testing.T) {
	src := &mockSource{}
	store := newMapStore()
	svc := NewService(src, store, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }

	cached := WeatherSnapshot{ID: "cached", Coordinates: paris, FetchedAt: fixedNow.Add(-5 * time.Minute)}
	store.SaveSnapshot(cached)

	got, err := svc.Get(context.Background(), paris, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "cached", got.ID)
	src.AssertNotCalled(t, "Aggregate", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_GetRefreshesStaleCache(t *testing.T) {
	src := &mockSource{}
	store := newMapStore()
	svc := NewService(src, store, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }

	store.SaveSnapshot(WeatherSnapshot{ID: "old", Coordinates: paris, FetchedAt: fixedNow.Add(-time.Hour)})
	fresh := WeatherSnapshot{ID: "fresh", Coordinates: paris, FetchedAt: fixedNow}
	src.On("Aggregate", mock.Anything, paris.Lat, paris.Lon).Return(fresh, nil).Once()

	got, err := svc.Get(context.Background(), paris, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.ID)

	latest, err := svc.Latest(paris)
	require.NoError(t, err)
	assert.Equal(t, "fresh", latest.ID)
}

func TestService_RefreshFailureKeepsLastGood(t *testing.T) {
	src := &mockSource{}
	store := newMapStore()
	svc := NewService(src, store, zerolog.Nop())

	store.SaveSnapshot(WeatherSnapshot{ID: "good", Coordinates: paris})
	src.On("Aggregate", mock.Anything, paris.Lat, paris.Lon).Return(WeatherSnapshot{}, ErrUpstreamUnavailable)

	_, err := svc.Refresh(context.Background(), paris)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	latest, err := svc.Latest(paris)
	require.NoError(t, err)
	assert.Equal(t, "good", latest.ID)
}

func TestService_RefreshAllJoinsFailures(t *testing.T) {
	src := &mockSource{}
	svc := NewService(src, newMapStore(), zerolog.Nop())

	berlin := Coordinates{Lat: 52.52, Lon: 13.405}
	src.On("Aggregate", mock.Anything, paris.Lat, paris.Lon).Return(WeatherSnapshot{Coordinates: paris}, nil)
	src.On("Aggregate", mock.Anything, berlin.Lat, berlin.Lon).Return(WeatherSnapshot{}, errors.New("boom"))

	err := svc.RefreshAll(context.Background(), []Coordinates{paris, berlin})
	require.Error(t, err)
	assert.Contains(t, err.Error(), berlin.Key())
	assert.NotContains(t, err.Error(), paris.Key())

	_, err = svc.Latest(paris)
	assert.NoError(t, err)
	assert.NoError(t, svc.RefreshAll(context.Background(), nil))
}

func TestService_GetRejectsInvalidCoordinates(t *testing.T) {
	svc := NewService(&mockSource{}, newMapStore(), zerolog.Nop())
	_, err := svc.Get(context.Background(), Coordinates{Lat: 100}, time.Minute)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}
