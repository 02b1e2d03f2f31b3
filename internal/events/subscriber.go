package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Handler func(ctx context.Context, event Event) error

// Subscriber reads a stream as one consumer of a group and dispatches each
// event to the handler registered for its type. Events nobody handles are
// acknowledged and dropped.
type Subscriber struct {
	client        redis.UniversalClient
	group         string
	consumer      string
	stream        string
	handlers      map[string]Handler
	batchSize     int64
	blockDuration time.Duration
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handlers      map[string]Handler
	BatchSize     int64
	BlockDuration time.Duration
}

func NewSubscriber(client redis.UniversalClient, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}

	return &Subscriber{
		client:        client,
		group:         config.Group,
		consumer:      config.Consumer,
		stream:        config.Stream,
		handlers:      config.Handlers,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
	}
}

// Start creates the consumer group if needed and processes messages until
// ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	logger := log.With().Str("stream", s.stream).Str("group", s.group).Str("consumer", s.consumer).Logger()
	logger.Info().Msg("subscriber started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("subscriber stopping")
			return ctx.Err()
		default:
			if _, err := s.readMessages(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				logger.Error().Err(err).Msg("error reading messages")
				time.Sleep(time.Second)
			}
		}
	}
}

// readMessages handles one batch and returns how many messages were
// acknowledged.
func (s *Subscriber) readMessages(ctx context.Context) (int, error) {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, ">"},
		Count:    s.batchSize,
		Block:    s.blockDuration,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read from stream: %w", err)
	}

	acked := 0
	for _, stream := range streams {
		for _, message := range stream.Messages {
			if err := s.processMessage(ctx, message); err != nil {
				// Unacknowledged messages stay pending and are retried.
				log.Error().Err(err).Str("message_id", message.ID).Msg("failed to process message")
				continue
			}

			if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
				log.Error().Err(err).Str("message_id", message.ID).Msg("failed to ack message")
				continue
			}
			acked++
		}
	}

	return acked, nil
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	eventData, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("invalid message format")
	}

	var event Event
	if err := json.Unmarshal([]byte(eventData), &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	logger := log.With().Str("message_id", message.ID).Str("event", event.Type).Logger()
	handler, ok := s.handlers[event.Type]
	if !ok {
		logger.Debug().Msg("no handler for event, skipping")
		return nil
	}
	return handler(logger.WithContext(ctx), event)
}
