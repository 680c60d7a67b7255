package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event is a domain notification published to Redis for real-time
// consumers (board UIs, webhooks). Delivery is best effort.
type Event struct {
	Type        string                 `json:"type"`
	WorkspaceID string                 `json:"workspaceId,omitempty"`
	ProjectID   string                 `json:"projectId,omitempty"`
	TaskID      string                 `json:"taskId,omitempty"`
	UserID      string                 `json:"userId,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// EventPublisher publishes domain events over Redis pub/sub.
// A nil publisher (Redis not configured) silently drops events so
// services never have to check.
type EventPublisher struct {
	client *redis.Client
}

// NewEventPublisher connects to Redis and verifies the connection.
// Returns nil (not an error) when redisURL is empty.
func NewEventPublisher(redisURL string) (*EventPublisher, error) {
	if redisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("✅ Event publisher connected to Redis")
	return &EventPublisher{client: client}, nil
}

// Publish sends an event to the project's channel. Failures are logged,
// never propagated: events are auxiliary to the write that triggered them.
func (p *EventPublisher) Publish(ctx context.Context, event Event) {
	if p == nil || p.client == nil {
		return
	}

	event.Timestamp = time.Now()
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️  [EVENTS] Failed to marshal event %s: %v", event.Type, err)
		return
	}

	channel := "project:" + event.ProjectID + ":events"
	if event.ProjectID == "" {
		channel = "workspace:" + event.WorkspaceID + ":events"
	}

	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		log.Printf("⚠️  [EVENTS] Failed to publish %s to %s: %v", event.Type, channel, err)
	}
}

// Close shuts down the Redis connection
func (p *EventPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
