// Package events distributes story stream records over Redis Pub/Sub so SSE
// clients can follow a session from any API instance.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"vnplayer/pkg/stream"
)

// Channel returns the pub/sub channel for a session's story stream.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("story-stream:%s", sessionID.String())
}

// Broadcaster publishes stream records to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new stream broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Publish sends one stream record to the session's channel.
func (b *Broadcaster) Publish(ctx context.Context, sessionID uuid.UUID, rec stream.Record) error {
	channel := Channel(sessionID)

	data, err := json.Marshal(rec)
	if err != nil {
		b.logger.Error("Failed to marshal stream record", "error", err, "type", rec.Type)
		return fmt.Errorf("failed to marshal stream record: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish stream record", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish stream record: %w", err)
	}

	b.logger.Debug("Stream record published",
		"channel", channel,
		"type", rec.Type,
	)
	return nil
}

// Relay drains a story source channel into the session's pub/sub channel.
// It returns when the source closes or ctx is cancelled.
func (b *Broadcaster) Relay(ctx context.Context, sessionID uuid.UUID, records <-chan stream.Record) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			if err := b.Publish(ctx, sessionID, rec); err != nil {
				b.logger.Error("Failed to relay stream record",
					"error", err, "session_id", sessionID.String())
			}
		}
	}
}
