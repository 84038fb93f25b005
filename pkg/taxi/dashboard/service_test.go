package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	args := m.Called(key)
	if fill, ok := args.Get(2).(func(interface{})); ok && fill != nil {
		fill(dest)
	}
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return m.Called(key, value, ttl).Error(0)
}

func (m *mockCache) Close() error { return nil }

func hourlyRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"hour", "trips"}).AddRow(8, int64(10)).AddRow(9, int64(12))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "taxi:dashboard:kpis:2025-01,2025-02", CacheKey("kpis", []string{"2025-01", "2025-02"}))
}

func TestService_CacheHitSkipsWarehouse(t *testing.T) {
	db, sqlMock := newMockDB(t)
	cache := &mockCache{}
	cache.On("Get", "taxi:dashboard:hourly:2025-01").Return(true, nil, func(dest interface{}) {
		*(dest.(*[]HourlyCount)) = []HourlyCount{{Hour: 1, Trips: 2}}
	})

	s := NewService(NewWarehouse(db), cache, time.Minute)
	got, err := s.HourlyDistribution(context.Background(), []string{"2025-01"})
	require.NoError(t, err)
	assert.Equal(t, []HourlyCount{{Hour: 1, Trips: 2}}, got)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
	cache.AssertExpectations(t)
}

func TestService_CacheMissStoresResult(t *testing.T) {
	db, sqlMock := newMockDB(t)
	sqlMock.ExpectQuery(sqlHourly).WithArgs([]string{"2025-01", "2025-02"}).WillReturnRows(hourlyRows())

	cache := &mockCache{}
	key := "taxi:dashboard:hourly:2025-01,2025-02"
	want := []HourlyCount{{Hour: 8, Trips: 10}, {Hour: 9, Trips: 12}}
	cache.On("Get", key).Return(false, nil, nil)
	cache.On("Set", key, want, 5*time.Minute).Return(nil)

	s := NewService(NewWarehouse(db), cache, 5*time.Minute)
	got, err := s.HourlyDistribution(context.Background(), []string{"2025-02", "2025-01"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	cache.AssertExpectations(t)
}

func TestService_CacheFailuresAreBypassed(t *testing.T) {
	db, sqlMock := newMockDB(t)
	sqlMock.ExpectQuery(sqlHourly).WithArgs([]string{"2025-01"}).WillReturnRows(hourlyRows())

	cache := &mockCache{}
	cache.On("Get", mock.Anything).Return(false, errors.New("connection refused"), nil)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	got, err := NewService(NewWarehouse(db), cache, time.Minute).HourlyDistribution(context.Background(), []string{"2025-01"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestService_InvalidSelection(t *testing.T) {
	db, _ := newMockDB(t)
	_, err := NewService(NewWarehouse(db), nil, 0).KPIs(context.Background(), []string{})
	assert.True(t, exception.IsConfigError(err))
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache("http://not-redis")
	assert.True(t, exception.IsConfigError(err))

	c, err := NewRedisCache("redis://localhost:6379/0")
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}
