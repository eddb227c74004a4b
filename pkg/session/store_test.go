package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/datahub/pkg/auth"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewStore(client), mr
}

func TestStore_PutGet(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	user := &auth.User{
		ID:          "u1",
		Role:        "Submitter",
		Permissions: []string{"submission_request:view"},
		DataCommons: []string{"CDS"},
	}

	require.NoError(t, store.Put(ctx, "tok", user, time.Hour))

	got, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "Submitter", got.Role)
	assert.Equal(t, []string{"submission_request:view"}, got.Permissions)
	assert.Equal(t, []string{"CDS"}, got.DataCommons)
}

func TestStore_GetMissing(t *testing.T) {
	store, _ := setupStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStore_Expiry(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tok", &auth.User{ID: "u1"}, time.Minute))

	ttl, err := store.TTL(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(2 * time.Minute)

	_, err = store.Get(ctx, "tok")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = store.TTL(ctx, "tok")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStore_CorruptEntryIsDropped(t *testing.T) {
	store, mr := setupStore(t)
	require.NoError(t, mr.Set("session:bad", "{not json"))

	_, err := store.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
	assert.False(t, mr.Exists("session:bad"))
}

func TestStore_Delete(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tok", &auth.User{ID: "u1"}, time.Hour))
	require.NoError(t, store.Delete(ctx, "tok"))

	_, err := store.Get(ctx, "tok")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStore_PutValidation(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	assert.Error(t, store.Put(ctx, "", &auth.User{ID: "u1"}, time.Hour))
	assert.Error(t, store.Put(ctx, "tok", nil, time.Hour))
}

func TestNewClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewClient(context.Background(), Options{URL: "redis://" + mr.Addr(), DB: -1})
	require.NoError(t, err)
	defer client.Close()

	_, err = NewClient(context.Background(), Options{URL: "not a url"})
	assert.Error(t, err)
}
