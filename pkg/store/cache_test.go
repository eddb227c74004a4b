package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/datahub/pkg/auth"
	"github.com/platinummonkey/datahub/pkg/observability"
)

type countingGetter struct {
	calls   atomic.Int32
	release chan struct{}
}

func (g *countingGetter) GetUser(ctx context.Context, id string) (*auth.User, error) {
	g.calls.Add(1)
	if g.release != nil {
		<-g.release
	}
	if id == "missing" {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return &auth.User{ID: id, Role: "Admin"}, nil
}

func TestCachedUserStore_HitAndMiss(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	next := &countingGetter{}
	c := NewCachedUserStore(next, 10, time.Minute, metrics)

	for i := 0; i < 3; i++ {
		user, err := c.GetUser(context.Background(), "u-1")
		require.NoError(t, err)
		assert.Equal(t, "u-1", user.ID)
	}

	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("user")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheMissesTotal.WithLabelValues("user")))

	c.Invalidate("u-1")
	_, err := c.GetUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedUserStore_DoesNotCacheNotFound(t *testing.T) {
	next := &countingGetter{}
	c := NewCachedUserStore(next, 10, time.Minute, nil)

	for i := 0; i < 2; i++ {
		_, err := c.GetUser(context.Background(), "missing")
		assert.True(t, IsNotFound(err))
	}
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Equal(t, 0, c.Len())
}

func TestCachedUserStore_Expires(t *testing.T) {
	next := &countingGetter{}
	c := NewCachedUserStore(next, 10, 20*time.Millisecond, nil)

	_, err := c.GetUser(context.Background(), "u-1")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = c.GetUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedUserStore_CoalescesConcurrentMisses(t *testing.T) {
	next := &countingGetter{release: make(chan struct{})}
	c := NewCachedUserStore(next, 10, time.Minute, nil)

	var wg sync.WaitGroup
	results := make([]*auth.User, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := c.GetUser(context.Background(), "u-1")
			assert.NoError(t, err)
			results[i] = user
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(next.release)
	wg.Wait()

	assert.Equal(t, int32(1), next.calls.Load())
	for _, user := range results {
		assert.Same(t, results[0], user)
	}
}
