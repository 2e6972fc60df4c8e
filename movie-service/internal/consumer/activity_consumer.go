// Package consumer reacts to activity events published by any replica.
package consumer

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/metrics"
	pkglog "github.com/weiawesome/cinema-chronicles/pkg/log"
	"github.com/weiawesome/cinema-chronicles/pkg/pubsub"
)

// StatsInvalidator drops a user's cached library stats.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context, userID uint) error
}

// ActivityConsumer listens on every user's activity channels and drops the
// stats cache of the user an event belongs to.
type ActivityConsumer struct {
	sub     pubsub.Subscriber
	stats   StatsInvalidator
	metrics *metrics.Collector

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewActivityConsumer creates a consumer. m may be nil.
func NewActivityConsumer(sub pubsub.Subscriber, stats StatsInvalidator, m *metrics.Collector) *ActivityConsumer {
	return &ActivityConsumer{
		sub:     sub,
		stats:   stats,
		metrics: m,
	}
}

// Start subscribes and handles events in the background until ctx ends or
// Close is called.
func (c *ActivityConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return fmt.Errorf("activity consumer already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	eventCh, err := c.sub.SubscribePattern(ctx, pubsub.PatternAllActivity)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to activity events: %w", err)
	}
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.handleEvents(ctx, eventCh)

	l := pkglog.L()
	l.Info().Str(pkglog.FieldChannel, pubsub.PatternAllActivity).Msg("activity consumer started")
	return nil
}

// Close stops the consumer and waits for the event loop to return.
func (c *ActivityConsumer) Close() error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}

	cancel()
	<-done
	return c.sub.Unsubscribe(context.Background(), pubsub.PatternAllActivity)
}

func (c *ActivityConsumer) handleEvents(ctx context.Context, eventCh <-chan *pubsub.Event) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			c.processEvent(ctx, event)
		}
	}
}

func (c *ActivityConsumer) processEvent(ctx context.Context, event *pubsub.Event) {
	l := pkglog.L().With().Str(pkglog.FieldKind, event.Type).Str(pkglog.FieldUserID, event.UserID).Logger()
	c.metrics.RecordConsumed(event.Type)

	userID, err := strconv.ParseUint(event.UserID, 10, 64)
	if err != nil || userID == 0 {
		l.Warn().Msg("activity event without a valid user id")
		return
	}

	if err := c.stats.InvalidateStats(ctx, uint(userID)); err != nil {
		l.Warn().Err(err).Msg("failed to invalidate stats")
		return
	}
	l.Debug().Msg("stats invalidated")
}
