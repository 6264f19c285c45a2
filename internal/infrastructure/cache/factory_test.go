package cache

import (
	"context"
	"testing"

	"github.com/egp/construction-control/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIdempotencyStoreFactory_RedisDisabled(t *testing.T) {
	factory := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: false}, WithLogger(zap.NewNop()))

	store, err := factory.CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

// unreachableRedis points at a port nothing listens on
var unreachableRedis = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

func TestIdempotencyStoreFactory_FallsBackWhenRedisIsDown(t *testing.T) {
	factory := NewIdempotencyStoreFactory(unreachableRedis)

	store, err := factory.CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestIdempotencyStoreFactory_NoFallback(t *testing.T) {
	factory := NewIdempotencyStoreFactory(unreachableRedis, WithInMemoryFallback(false))

	store, err := factory.CreateStore(context.Background())
	assert.Nil(t, store)
	assert.ErrorContains(t, err, "redis required")
}
