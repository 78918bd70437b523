package session

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eybms-go-api/internal/models"
)

func newTestStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, ttl), mini
}

func TestRedisStoreCreateAndGet(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	account := models.Account{ID: 4, StudentNumber: "2021001", AccountType: models.AccountTypeStudent, PasswordChanged: true}
	created, err := store.Create(ctx, SnapshotFromAccount(account))
	require.NoError(t, err)
	require.NotEmpty(t, created.Token)

	loaded, err := store.Get(ctx, created.Token)
	require.NoError(t, err)
	require.Equal(t, created.Token, loaded.Token)
	require.Equal(t, uint(4), loaded.User.AccountID)
	require.Equal(t, "2021001", loaded.User.StudentNumber)
	require.Equal(t, models.AccountTypeStudent, loaded.User.AccountType)
	require.True(t, loaded.User.PasswordChanged)
	require.False(t, loaded.User.ConsentFilled)
}

func TestRedisStoreTokensAreDistinct(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	first, err := store.Create(ctx, Snapshot{AccountID: 1})
	require.NoError(t, err)
	second, err := store.Create(ctx, Snapshot{AccountID: 1})
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)
}

func TestRedisStoreDestroy(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	created, err := store.Create(ctx, Snapshot{AccountID: 1, AccountType: models.AccountTypeAdmin})
	require.NoError(t, err)

	require.NoError(t, store.Destroy(ctx, created.Token))
	_, err = store.Get(ctx, created.Token)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Destroy(ctx, created.Token))
	require.NoError(t, store.Destroy(ctx, ""))
}

func TestRedisStoreExpires(t *testing.T) {
	store, mini := newTestStore(t, time.Minute)
	ctx := context.Background()

	created, err := store.Create(ctx, Snapshot{AccountID: 1})
	require.NoError(t, err)

	mini.FastForward(2 * time.Minute)

	_, err = store.Get(ctx, created.Token)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreUnknownToken(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	_, err := store.Get(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(context.Background(), "  ")
	require.ErrorIs(t, err, ErrNotFound)
}
