//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/session"
)

func TestSessionStore_Redis(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	store := NewSessionStore(client, time.Hour)
	require.NoError(t, store.Ping(ctx))

	st := session.New("c0ffee00-0000-4000-8000-000000000001")
	st.Contact = order.Contact{Name: "Ada", Phone: "5551234567"}
	st.AppliedCode = "REFABC123"
	require.NoError(t, store.Save(ctx, st))

	got, err := store.Load(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.Contact, got.Contact)
	assert.Equal(t, "REFABC123", got.AppliedCode)

	ttl, err := client.TTL(ctx, sessionKey(st.ID)).Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)

	require.NoError(t, store.Delete(ctx, st.ID))
	_, err = store.Load(ctx, st.ID)
	require.ErrorIs(t, err, session.ErrNotFound)
}
