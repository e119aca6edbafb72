package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshavgujrathi/scholariq/internal/config"
)

// fakeRedis implements cmdable in memory.
type fakeRedis struct {
	data    map[string]string
	pingErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if v, ok := f.data[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	default:
		data, _ := json.Marshal(v)
		f.data[key] = string(data)
	}
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.pingErr != nil {
		cmd.SetErr(f.pingErr)
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

func newTestCache(f *fakeRedis) *RedisCache {
	return &RedisCache{client: f, cb: testBreaker()}
}

func testBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "test"})
}

func TestNew_DisabledWithoutHost(t *testing.T) {
	t.Parallel()

	c := New(config.RedisConfig{}, testBreaker())
	assert.Nil(t, c)

	// A nil cache is usable: always misses, never stores.
	_, err := c.Get(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Set(context.Background(), "abc", map[string]any{"x": 1}))
}

func TestGetSet_RoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestCache(newFakeRedis())
	ctx := context.Background()

	_, err := c.Get(ctx, "h1")
	assert.ErrorIs(t, err, ErrMiss)

	in := map[string]any{"word_count": float64(42), "language": "en"}
	require.NoError(t, c.Set(ctx, "h1", in))

	out, err := c.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestGet_NullValueIsMiss(t *testing.T) {
	t.Parallel()

	f := newFakeRedis()
	f.data["scholariq:analysis:h2"] = "null"
	c := newTestCache(f)

	_, err := c.Get(context.Background(), "h2")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestProbe(t *testing.T) {
	t.Parallel()

	c := newTestCache(newFakeRedis())
	result := c.Probe(context.Background())
	assert.True(t, result.OK)
	assert.Equal(t, "redis", result.Name)
}

func TestProbe_Failure(t *testing.T) {
	t.Parallel()

	f := newFakeRedis()
	f.pingErr = errors.New("connection refused")
	c := newTestCache(f)

	result := c.Probe(context.Background())
	assert.False(t, result.OK)
	assert.Contains(t, result.Error, "connection refused")
}
