package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypePointsEarned        EventType = "points.earned"
	EventTypePointsSpent         EventType = "points.spent"
	EventTypePointsRejected      EventType = "points.rejected"
	EventTypeSessionReset        EventType = "session.reset"
	EventTypeNarrationQueued     EventType = "narration.queued"
	EventTypeNarrationProcessing EventType = "narration.processing"
	EventTypeNarrationCompleted  EventType = "narration.completed"
	EventTypeNarrationFailed     EventType = "narration.failed"
)

// Event represents a generic event structure
type Event struct {
	Type        EventType              `json:"type"`
	RequestID   string                 `json:"request_id,omitempty"`
	CharacterID string                 `json:"character_id,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// ChannelForCharacter returns the pub/sub channel carrying a character's
// ledger events. SSE subscribers and the broadcaster must agree on this.
func ChannelForCharacter(characterID string) string {
	return fmt.Sprintf("ledger-events:%s", characterID)
}

// PublishPointsEarned publishes a points.earned event
func (b *Broadcaster) PublishPointsEarned(ctx context.Context, characterID string, trigger string, credited int, bonus int, balance int) error {
	event := Event{
		Type:        EventTypePointsEarned,
		CharacterID: characterID,
		Data: map[string]interface{}{
			"trigger":  trigger,
			"credited": credited,
			"bonus":    bonus,
			"balance":  balance,
		},
	}
	return b.publishToCharacter(ctx, characterID, event)
}

// PublishPointsSpent publishes a points.spent event
func (b *Broadcaster) PublishPointsSpent(ctx context.Context, characterID string, activity string, cost int, balance int) error {
	event := Event{
		Type:        EventTypePointsSpent,
		CharacterID: characterID,
		Data: map[string]interface{}{
			"activity": activity,
			"cost":     cost,
			"balance":  balance,
		},
	}
	return b.publishToCharacter(ctx, characterID, event)
}

// PublishPointsRejected publishes a points.rejected event for an
// underfunded spend. The spend left no transaction; the event is the only
// trace.
func (b *Broadcaster) PublishPointsRejected(ctx context.Context, characterID string, activity string, cost int, shortfall int, balance int) error {
	event := Event{
		Type:        EventTypePointsRejected,
		CharacterID: characterID,
		Data: map[string]interface{}{
			"activity":  activity,
			"cost":      cost,
			"shortfall": shortfall,
			"balance":   balance,
		},
	}
	return b.publishToCharacter(ctx, characterID, event)
}

// PublishSessionReset publishes a session.reset event
func (b *Broadcaster) PublishSessionReset(ctx context.Context, characterID string) error {
	event := Event{
		Type:        EventTypeSessionReset,
		CharacterID: characterID,
	}
	return b.publishToCharacter(ctx, characterID, event)
}

// PublishNarrationQueued publishes a narration.queued event
func (b *Broadcaster) PublishNarrationQueued(ctx context.Context, characterID string, requestID string) error {
	event := Event{
		Type:        EventTypeNarrationQueued,
		RequestID:   requestID,
		CharacterID: characterID,
		Data: map[string]interface{}{
			"status": "queued",
		},
	}
	return b.publishToCharacter(ctx, characterID, event)
}

// PublishNarrationProcessing publishes a narration.processing event
func (b *Broadcaster) PublishNarrationProcessing(ctx context.Context, characterID string, requestID string, action string) error {
	event := Event{
		Type:        EventTypeNarrationProcessing,
		RequestID:   requestID,
		CharacterID: characterID,
		Data: map[string]interface{}{
			"status": "processing",
			"action": action,
		},
	}
	return b.publishToCharacter(ctx, characterID, event)
}

// PublishNarrationCompleted publishes a narration.completed event
func (b *Broadcaster) PublishNarrationCompleted(ctx context.Context, characterID string, requestID string, narration string) error {
	event := Event{
		Type:        EventTypeNarrationCompleted,
		RequestID:   requestID,
		CharacterID: characterID,
		Data: map[string]interface{}{
			"status":    "completed",
			"narration": narration,
		},
	}
	return b.publishToCharacter(ctx, characterID, event)
}

// PublishNarrationFailed publishes a narration.failed event
func (b *Broadcaster) PublishNarrationFailed(ctx context.Context, characterID string, requestID string, errorMsg string) error {
	event := Event{
		Type:        EventTypeNarrationFailed,
		RequestID:   requestID,
		CharacterID: characterID,
		Data: map[string]interface{}{
			"status": "failed",
			"error":  errorMsg,
		},
	}
	return b.publishToCharacter(ctx, characterID, event)
}

// publishToCharacter publishes an event to the character-specific channel
func (b *Broadcaster) publishToCharacter(ctx context.Context, characterID string, event Event) error {
	channel := ChannelForCharacter(characterID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)

	return nil
}
