package ratelimit

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClient *redis.Client

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}
	if err != nil {
		fmt.Printf("Could not connect to docker, skipping redis tests: %s\n", err)
		os.Exit(m.Run())
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		fmt.Printf("Could not start resource: %s\n", err)
		os.Exit(1)
	}
	_ = resource.Expire(120)

	pool.MaxWait = 60 * time.Second
	if err := pool.Retry(func() error {
		testClient = redis.NewClient(&redis.Options{Addr: resource.GetHostPort("6379/tcp")})
		return testClient.Ping(context.Background()).Err()
	}); err != nil {
		fmt.Printf("Could not connect to redis: %s\n", err)
		_ = pool.Purge(resource)
		os.Exit(1)
	}

	code := m.Run()

	_ = testClient.Close()
	if err := pool.Purge(resource); err != nil {
		fmt.Printf("Could not purge resource: %s\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func newStore(t *testing.T, limit int, window time.Duration) *RedisStore {
	t.Helper()
	if testClient == nil {
		t.Skip("redis not available")
	}
	require.NoError(t, testClient.FlushAll(context.Background()).Err())

	logger := zerolog.Nop()
	return NewRedisStore(testClient, limit, window, &logger)
}

func TestRedisStore_LimitsPerWindow(t *testing.T) {
	store := newStore(t, 3, time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 10, 0, time.UTC)
	store.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, err := store.Allow("10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}

	ok, err := store.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	// other clients have their own counter
	ok, err = store.Allow("10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok)

	// next window starts from zero
	now = now.Add(time.Minute)
	ok, err = store.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore_KeysExpire(t *testing.T) {
	store := newStore(t, 10, 30*time.Second)

	_, err := store.Allow("10.0.0.3")
	require.NoError(t, err)

	ttl, err := testClient.TTL(context.Background(), store.key("10.0.0.3")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 30*time.Second)
}

func TestRedisStore_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	logger := zerolog.Nop()
	store := NewRedisStore(client, 1, time.Minute, &logger)

	for i := 0; i < 3; i++ {
		ok, err := store.Allow("10.0.0.4")
		assert.NoError(t, err)
		assert.True(t, ok)
	}
}
