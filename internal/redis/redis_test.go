package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/islamapp/internal/kv"
)

func TestNewStoreSetsClient(t *testing.T) {
	s := NewStore("localhost:6379", "", "")
	defer s.Close()

	assert.NotNil(t, s.Rdb, "Redis client should not be nil after NewStore")
}

func TestStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set")
	}
	ctx := context.Background()
	s := NewStore(addr, "", "")
	defer s.Close()
	require.NoError(t, s.Ping(ctx))

	require.NoError(t, s.Set(ctx, "test:accessToken", "tok", time.Minute))
	v, err := s.Get(ctx, "test:accessToken")
	require.NoError(t, err)
	assert.Equal(t, "tok", v)

	require.NoError(t, s.Delete(ctx, "test:accessToken"))
	_, err = s.Get(ctx, "test:accessToken")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}
