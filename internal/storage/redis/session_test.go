package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/session"
)

func setupStore(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client, ttl), mr
}

func TestSessionStore_SaveLoad(t *testing.T) {
	store, mr := setupStore(t, time.Hour)
	ctx := context.Background()

	st := session.New("abc")
	st.Contact.Name = "Ada"
	require.NoError(t, store.Save(ctx, st))

	assert.True(t, mr.Exists("session:abc"))
	assert.Equal(t, time.Hour, mr.TTL("session:abc"))

	got, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Contact.Name)
}

func TestSessionStore_Missing(t *testing.T) {
	store, _ := setupStore(t, 0)

	got, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.Nil(t, got)
}

func TestSessionStore_Expires(t *testing.T) {
	store, mr := setupStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, session.New("abc")))
	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "abc")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionStore_Delete(t *testing.T) {
	store, mr := setupStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, session.New("abc")))
	assert.Equal(t, DefaultTTL, mr.TTL("session:abc"))
	require.NoError(t, store.Delete(ctx, "abc"))
	assert.False(t, mr.Exists("session:abc"))
}

func TestSessionStore_CorruptValue(t *testing.T) {
	store, mr := setupStore(t, 0)
	require.NoError(t, mr.Set("session:abc", "{not json"))

	_, err := store.Load(context.Background(), "abc")
	assert.Error(t, err)
}

func TestSessionStore_Ping(t *testing.T) {
	store, mr := setupStore(t, 0)
	require.NoError(t, store.Ping(context.Background()))

	mr.Close()
	assert.Error(t, store.Ping(context.Background()))
}
