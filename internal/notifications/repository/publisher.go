package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/b2bnest/b2bnest-api/internal/notifications/domain"
)

const notifyChannelPrefix = "b2b:notify:" // Pub/Sub channel per user: b2b:notify:{user_id}

// Publisher pushes in-app notifications to Redis Pub/Sub so connected clients see them live
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish sends n on the recipient's channel
func (p *Publisher) Publish(ctx context.Context, n *domain.InAppNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := p.client.Publish(ctx, Channel(n.UserID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Channel returns the Pub/Sub channel for a user's notifications.
func Channel(userID string) string {
	return notifyChannelPrefix + userID
}
