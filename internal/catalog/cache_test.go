package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheExpires(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", string(got))

	// returned slices are copies
	got[0] = 'x'
	again, _, _ := c.Get(ctx, "k")
	require.Equal(t, "v", string(again))

	now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, c.Len())
}

func TestMemoryCacheIgnoresNonPositiveTTL(t *testing.T) {
	t.Parallel()

	c := NewMemoryCache(nil)
	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), 0))
	_, ok, _ := c.Get(context.Background(), "k")
	require.False(t, ok)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, ok, err := c.Get(ctx, "product|en|ielts-course")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "product|en|ielts-course", []byte(`{"title":"x"}`), time.Hour))
	require.True(t, mr.Exists("course-landing:product|en|ielts-course"))

	got, ok, err := c.Get(ctx, "product|en|ielts-course")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"title":"x"}`, string(got))

	mr.FastForward(time.Hour + time.Second)
	_, ok, err = c.Get(ctx, "product|en|ielts-course")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCacheRequiresAddress(t *testing.T) {
	t.Parallel()

	_, err := NewRedisCache(context.Background(), RedisConfig{})
	require.ErrorIs(t, err, ErrEmptyAddress)
}

func TestRedisCacheBacksClient(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cache, err := NewRedisCache(context.Background(), RedisConfig{Address: mr.Addr(), Prefix: "t:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(envelopeBody(sampleProduct)))
	}))
	t.Cleanup(srv.Close)

	// two clients sharing one Redis behave like two replicas
	first := NewClient(srv.URL, WithCache(cache))
	second := NewClient(srv.URL, WithCache(cache))

	_, err = first.GetProduct(context.Background(), "ielts-course", "en")
	require.NoError(t, err)
	p, err := second.GetProduct(context.Background(), "ielts-course", "en")
	require.NoError(t, err)
	require.Equal(t, "ielts-course", p.Slug)
	require.EqualValues(t, 1, calls.Load())
}

func TestRedisCacheFailureFallsThroughToUpstream(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cache, err := NewRedisCache(context.Background(), RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(envelopeBody(sampleProduct)))
	}))
	t.Cleanup(srv.Close)

	mr.SetError("ERR injected failure")
	p, err := NewClient(srv.URL, WithCache(cache)).GetProduct(context.Background(), "ielts-course", "en")
	require.NoError(t, err)
	require.NotNil(t, p)
}
