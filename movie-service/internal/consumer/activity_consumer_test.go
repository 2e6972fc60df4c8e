package consumer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/cinema-chronicles/pkg/pubsub"
)

type recordingStats struct {
	mu    sync.Mutex
	users []uint
}

func (r *recordingStats) InvalidateStats(_ context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
	return nil
}

func (r *recordingStats) invalidated() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint(nil), r.users...)
}

func publish(t *testing.T, bus pubsub.Publisher, userID, kind string) {
	t.Helper()
	ev, err := pubsub.NewEvent(kind, userID, struct{}{})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), pubsub.ActivityChannel(userID, kind), ev))
}

func TestActivityConsumer_InvalidatesStats(t *testing.T) {
	bus := pubsub.NewMemoryPubSub()
	t.Cleanup(func() { _ = bus.Close() })
	stats := &recordingStats{}
	c := NewActivityConsumer(bus, stats, nil)
	require.NoError(t, c.Start(context.Background()))

	publish(t, bus, "42", pubsub.KindFavoriteToggled)
	publish(t, bus, "7", pubsub.KindWatched)
	publish(t, bus, "nobody", pubsub.KindWatched)

	require.Eventually(t, func() bool { return len(stats.invalidated()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []uint{42, 7}, stats.invalidated())

	require.NoError(t, c.Close())
	publish(t, bus, "42", pubsub.KindWatched)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, stats.invalidated(), 2, "closed consumers ignore events")
}

func TestActivityConsumer_StartTwice(t *testing.T) {
	bus := pubsub.NewMemoryPubSub()
	t.Cleanup(func() { _ = bus.Close() })
	c := NewActivityConsumer(bus, &recordingStats{}, nil)

	require.NoError(t, c.Start(context.Background()))
	assert.Error(t, c.Start(context.Background()))
	assert.NoError(t, c.Close())
}
