package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rahatc/paydesh/internal/bootstrap"
	"github.com/rahatc/paydesh/internal/domain/notification"
	infraRedis "github.com/rahatc/paydesh/internal/infrastructure/redis"
	"github.com/rahatc/paydesh/internal/repository/postgres"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "paydesh-worker", "paydesh_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	notificationRepo := postgres.NewNotificationRepository(app.Pool)

	workerCfg := app.Config.Worker
	consumer := infraRedis.NewStreamConsumer(
		app.Redis,
		infraRedis.NotificationStream,
		workerCfg.ConsumerGroup,
		app.Config.InstanceID,
		workerCfg.BatchSize,
		workerCfg.BlockDuration,
	)
	if err := consumer.CreateGroup(ctx); err != nil {
		app.Logger.Error().Err(err).Msg("Failed to create consumer group (may already exist)")
	}

	app.Logger.Info().
		Str("stream", infraRedis.NotificationStream).
		Str("group", workerCfg.ConsumerGroup).
		Str("consumer", app.Config.InstanceID).
		Msg("Worker started, listening for messages...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runDispatcher(gCtx, app.Logger, consumer, notificationRepo, app)
	})

	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}

// runDispatcher drains the notification stream and persists each message
// so owners can read it back later. Persisting is idempotent on the
// notification id, so redelivered messages are safe to replay.
func runDispatcher(
	ctx context.Context,
	logger zerolog.Logger,
	consumer *infraRedis.StreamConsumer,
	repo notification.Repository,
	app *bootstrap.App,
) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		streams, err := consumer.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error().Err(err).Msg("Failed to read from stream")
			time.Sleep(1 * time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				start := time.Now()

				n, err := parseNotification(msg.Values)
				if err != nil {
					logger.Error().Err(err).Str("msg_id", msg.ID).Msg("Malformed notification in stream")
					consumer.Ack(ctx, msg.ID)
					app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.NotificationStream, "malformed").Inc()
					continue
				}

				if err := repo.Create(ctx, n); err != nil {
					// Leave unacked so another consumer can retry.
					logger.Error().Err(err).Str("msg_id", msg.ID).Msg("Failed to persist notification")
					app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.NotificationStream, "error").Inc()
					continue
				}

				consumer.Ack(ctx, msg.ID)
				app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.NotificationStream, "success").Inc()
				app.Metrics.WorkerProcessingDuration.WithLabelValues(infraRedis.NotificationStream).Observe(time.Since(start).Seconds())
			}
		}
	}
}

func parseNotification(values map[string]any) (*notification.Notification, error) {
	idStr, _ := values["id"].(string)
	ownerID, _ := values["owner_id"].(string)
	message, _ := values["message"].(string)

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid notification id %q: %w", idStr, err)
	}
	if ownerID == "" {
		return nil, fmt.Errorf("missing owner_id")
	}

	return &notification.Notification{
		ID:        id,
		OwnerID:   ownerID,
		Message:   message,
		CreatedAt: time.Now(),
	}, nil
}
