package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/barbershop-api/internal/models"
	appErrors "github.com/noah-isme/barbershop-api/pkg/errors"
)

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheRepository(client, nil), mr
}

func TestCacheRepositoryRoundTripAndExpiry(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	slots := []models.TimeSlot{{Time: "09:00", Available: true}, {Time: "09:30", Available: false, Reason: models.SlotReasonOccupied}}
	require.NoError(t, repo.Set(ctx, "slots:staff-1:2024-05-10:30", slots, time.Minute))

	var got []models.TimeSlot
	require.NoError(t, repo.Get(ctx, "slots:staff-1:2024-05-10:30", &got))
	assert.Equal(t, slots, got)

	mr.FastForward(2 * time.Minute)
	err := repo.Get(ctx, "slots:staff-1:2024-05-10:30", &got)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	for _, key := range []string{"slots:staff-1:2024-05-10:30", "slots:staff-1:2024-05-10:60", "slots:staff-1:2024-05-11:30", "slots:staff-2:2024-05-10:30"} {
		require.NoError(t, repo.Set(ctx, key, []models.TimeSlot{}, time.Minute))
	}

	require.NoError(t, repo.DeleteByPattern(ctx, "slots:staff-1:2024-05-10:*"))
	assert.False(t, mr.Exists("slots:staff-1:2024-05-10:30"))
	assert.False(t, mr.Exists("slots:staff-1:2024-05-10:60"))
	assert.True(t, mr.Exists("slots:staff-1:2024-05-11:30"))
	assert.True(t, mr.Exists("slots:staff-2:2024-05-10:30"))
}

func TestCacheRepositoryCorruptEntryIsMiss(t *testing.T) {
	repo, mr := newCacheRepo(t)
	require.NoError(t, mr.Set("slots:bad", "{not json"))

	var got []models.TimeSlot
	err := repo.Get(context.Background(), "slots:bad", &got)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.False(t, mr.Exists("slots:bad"))
}

func TestCacheRepositoryNilClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var dest []models.TimeSlot
	assert.True(t, errors.Is(repo.Get(context.Background(), "k", &dest), appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(context.Background(), "k", dest, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "k*"))
}
