package service

import (
	"context"
	"strconv"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/metrics"
	"github.com/weiawesome/cinema-chronicles/pkg/log"
	"github.com/weiawesome/cinema-chronicles/pkg/pubsub"
)

// activityPublisher announces library changes on the user's activity
// channels. A nil publisher drops events.
type activityPublisher struct {
	pub     pubsub.Publisher
	metrics *metrics.Collector
}

func newActivityPublisher(pub pubsub.Publisher, m *metrics.Collector) activityPublisher {
	return activityPublisher{pub: pub, metrics: m}
}

// publish never fails the caller; delivery problems are logged.
func (p activityPublisher) publish(ctx context.Context, userID uint, kind string, payload interface{}) {
	if p.pub == nil {
		return
	}
	l := log.Ctx(ctx)
	id := userIDString(userID)

	event, err := pubsub.NewEvent(kind, id, payload)
	if err != nil {
		l.Warn().Err(err).Str(log.FieldKind, kind).Msg("failed to build activity event")
		return
	}
	channel := pubsub.ActivityChannel(id, kind)
	if err := p.pub.Publish(ctx, channel, event); err != nil {
		l.Warn().Err(err).Str(log.FieldChannel, channel).Msg("failed to publish activity event")
		return
	}
	p.metrics.RecordPublished(kind)
}

func userIDString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
