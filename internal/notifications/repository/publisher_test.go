package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bnest/b2bnest-api/internal/notifications/domain"
)

func TestPublisher_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, Channel("user-1"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewPublisher(client)
	require.NoError(t, pub.Publish(ctx, &domain.InAppNotification{
		ID:     "n-1",
		UserID: "user-1",
		Type:   domain.TypeTaskAssigned,
		Title:  "New task assigned",
	}))

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "b2b:notify:user-1", msg.Channel)
		var got domain.InAppNotification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "n-1", got.ID)
		assert.Equal(t, domain.TypeTaskAssigned, got.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
