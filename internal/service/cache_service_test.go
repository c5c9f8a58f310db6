package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cacheObserverStub struct {
	hits, misses, writes int
}

func (s *cacheObserverStub) RecordCacheOperation(hit bool, duration time.Duration) {
	if hit {
		s.hits++
		return
	}
	s.misses++
}

func (s *cacheObserverStub) ObserveCacheWrite(duration time.Duration) {
	s.writes++
}

type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string, dest interface{}) error {
	return fmt.Errorf("redis: connection refused")
}

func (failingCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return fmt.Errorf("redis: connection refused")
}

func (failingCache) DeleteByPattern(ctx context.Context, pattern string) error {
	return fmt.Errorf("redis: connection refused")
}

func TestCacheServiceRecordsHitsAndMisses(t *testing.T) {
	observer := &cacheObserverStub{}
	svc := NewCacheService(newMemoryCache(), observer, 0, zap.NewNop(), true)

	var dest []string
	hit, err := svc.Get(context.Background(), "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "k", []string{"a"}, 0))
	hit, err = svc.Get(context.Background(), "k", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a"}, dest)

	assert.Equal(t, 1, observer.hits)
	assert.Equal(t, 1, observer.misses)
	assert.Equal(t, 1, observer.writes)
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	mem := newMemoryCache()
	svc := NewCacheService(mem, nil, time.Minute, nil, false)
	assert.False(t, svc.Enabled())

	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	assert.Empty(t, mem.data)
	hit, err := svc.Get(context.Background(), "k", new(int))
	require.NoError(t, err)
	assert.False(t, hit)

	var nilService *CacheService
	assert.False(t, nilService.Enabled())
	assert.NoError(t, nilService.Invalidate(context.Background(), "*"))
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	svc := NewCacheService(failingCache{}, nil, time.Minute, zap.NewNop(), true)

	hit, err := svc.Get(context.Background(), "k", new(int))
	assert.False(t, hit)
	assert.Error(t, err)
	assert.Error(t, svc.Set(context.Background(), "k", 1, 0))
	assert.Error(t, svc.Invalidate(context.Background(), "k*"))
}
