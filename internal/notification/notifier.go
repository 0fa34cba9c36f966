package notification

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/rahatc/paydesh/internal/domain/notification"
	infraRedis "github.com/rahatc/paydesh/internal/infrastructure/redis"
)

// StreamNotifier publishes notifications to the Redis dispatch stream. A
// circuit breaker keeps a degraded Redis from slowing down the ledger
// path; when it opens, notifications are dropped and logged.
type StreamNotifier struct {
	producer *infraRedis.StreamProducer
	breaker  *gobreaker.CircuitBreaker[struct{}]
	logger   zerolog.Logger
}

// NewStreamNotifier creates a StreamNotifier.
func NewStreamNotifier(producer *infraRedis.StreamProducer, logger zerolog.Logger, threshold uint32) *StreamNotifier {
	if threshold == 0 {
		threshold = 10
	}
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "notification-stream",
		MaxRequests: 10,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= threshold && failureRatio >= 0.6
		},
	})
	return &StreamNotifier{producer: producer, breaker: breaker, logger: logger}
}

// Notify enqueues the message for the dispatch worker. Failures never
// propagate to the caller.
func (n *StreamNotifier) Notify(ctx context.Context, ownerID, message string) {
	msg := notification.New(ownerID, message)
	_, err := n.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, n.producer.PublishNotification(ctx, msg.ID.String(), msg.OwnerID, msg.Message)
	})
	if err != nil {
		n.logger.Warn().
			Err(err).
			Str("owner_id", ownerID).
			Msg("notification dropped")
	}
}
