package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest []string
	err := repo.Get(ctx, "activities:enr-1", &dest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))

	assert.NoError(t, repo.Set(ctx, "activities:enr-1", []string{"a"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "activities:*"))
	assert.NoError(t, repo.PingContext(ctx))
}

func TestCacheKeysArePrefixed(t *testing.T) {
	assert.Equal(t, "timetabler:activities:enr-1", prefixed("activities:enr-1"))
}
