package searchcache

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCache(clock *fakeClock, opts ...Option) *Cache[string] {
	return New[string](append([]Option{WithClock(clock.Now)}, opts...)...)
}

func TestCache_CaseInsensitiveLookup(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)

	c.Put("Matrix", "payload")

	v, ok := c.Get("matrix")
	require.True(t, ok)
	assert.Equal(t, "payload", v)

	v, ok = c.Get("  MATRIX ")
	require.True(t, ok)
	assert.Equal(t, "payload", v)
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)

	c.Put("matrix", "payload")

	clock.Advance(299_999 * time.Millisecond)
	_, ok := c.Get("matrix")
	assert.True(t, ok, "entry is still fresh just under five minutes")

	clock.Advance(2 * time.Millisecond)
	_, ok = c.Get("matrix")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCache_EvictsOldestInserted(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)

	for i := 0; i < 11; i++ {
		c.Put(fmt.Sprintf("query-%d", i), fmt.Sprintf("result-%d", i))
		clock.Advance(time.Second)
	}

	assert.Equal(t, DefaultCapacity, c.Len())
	_, ok := c.Get("query-0")
	assert.False(t, ok, "first inserted entry must be evicted")
	for i := 1; i < 11; i++ {
		v, ok := c.Get(fmt.Sprintf("query-%d", i))
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("result-%d", i), v)
	}
}

func TestCache_ReadsDoNotChangeEvictionOrder(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock, WithCapacity(3))

	c.Put("a", "1")
	c.Put("b", "2")
	c.Put("c", "3")
	_, _ = c.Get("a")
	c.Put("d", "4")

	assert.Equal(t, []string{"b", "c", "d"}, c.Keys())
}

func TestCache_RePutRefreshesEntry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock, WithCapacity(3))

	c.Put("a", "1")
	c.Put("b", "2")
	clock.Advance(4 * time.Minute)
	c.Put("A", "1-new")
	clock.Advance(2 * time.Minute)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1-new", v)
	_, ok = c.Get("b")
	assert.False(t, ok)

	c.Put("c", "3")
	c.Put("d", "4")
	assert.Equal(t, []string{"a", "c", "d"}, c.Keys())
}

func TestCache_Sweep(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)

	c.Put("old-1", "x")
	c.Put("old-2", "x")
	clock.Advance(3 * time.Minute)
	c.Put("fresh", "y")
	clock.Advance(3 * time.Minute)

	assert.Equal(t, 2, c.Sweep())
	assert.Equal(t, []string{"fresh"}, c.Keys())
	assert.Zero(t, c.Sweep())
}

func TestCache_Delete(t *testing.T) {
	c := New[int]()
	c.Put("Dune", 1)
	c.Delete("DUNE")
	_, ok := c.Get("dune")
	assert.False(t, ok)
}

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) Sweep() int {
	s.calls.Add(1)
	return 0
}

func TestSweeper_RunsUntilStopped(t *testing.T) {
	target := &countingSweeper{}
	s := NewSweeper(target, 5*time.Millisecond, "test")
	s.Start(context.Background())

	require.Eventually(t, func() bool { return target.calls.Load() >= 2 }, time.Second, time.Millisecond)

	s.Stop()
	s.Stop()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeper_StopsOnContextCancel(t *testing.T) {
	s := NewSweeper(&countingSweeper{}, time.Hour, "test")
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
