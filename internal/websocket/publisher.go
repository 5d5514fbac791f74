package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quickchat-backend/internal/dto"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 2 * time.Second

const (
	notificationCreated = "created"
	notificationDeleted = "deleted"
)

// notification is the redis wire format between a REST process and the
// process that owns the hub.
type notification struct {
	Kind       string               `json:"kind"`
	Message    *dto.MessageResponse `json:"message,omitempty"`
	MessageID  string               `json:"messageId,omitempty"`
	SenderID   string               `json:"senderId,omitempty"`
	ReceiverID string               `json:"receiverId,omitempty"`
}

// RedisPublisher implements Notifier by publishing to a redis channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) NotifyMessageCreated(message dto.MessageResponse) {
	p.publish(notification{Kind: notificationCreated, Message: &message})
}

func (p *RedisPublisher) NotifyMessageDeleted(messageID, senderID, receiverID string) {
	p.publish(notification{
		Kind:       notificationDeleted,
		MessageID:  messageID,
		SenderID:   senderID,
		ReceiverID: receiverID,
	})
}

func (p *RedisPublisher) publish(n notification) {
	if err := p.send(context.Background(), n); err != nil {
		log.Error().Err(err).Str("channel", p.channel).Str("kind", n.Kind).Msg("Failed to publish notification")
	}
}

func (p *RedisPublisher) send(ctx context.Context, n notification) error {
	if p.client == nil {
		return fmt.Errorf("websocket publish: redis client not initialised")
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("websocket publish: marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.client.Publish(ctx, p.channel, string(data)).Err(); err != nil {
		return fmt.Errorf("websocket publish: redis publish: %w", err)
	}
	return nil
}

// RedisSubscriber feeds notifications published by other processes into a
// local Notifier, normally the hub.
type RedisSubscriber struct {
	client  *redis.Client
	channel string
	target  Notifier
}

func NewRedisSubscriber(client *redis.Client, channel string, target Notifier) *RedisSubscriber {
	return &RedisSubscriber{client: client, channel: channel, target: target}
}

// Run blocks until ctx is cancelled or the subscription closes.
func (s *RedisSubscriber) Run(ctx context.Context) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("websocket subscribe %s: %w", s.channel, err)
	}
	log.Info().Str("channel", s.channel).Msg("Subscribed to notification channel")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := s.dispatch([]byte(msg.Payload)); err != nil {
				log.Warn().Err(err).Str("channel", s.channel).Msg("Dropping notification")
			}
		}
	}
}

func (s *RedisSubscriber) dispatch(payload []byte) error {
	var n notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return fmt.Errorf("decode notification: %w", err)
	}

	switch n.Kind {
	case notificationCreated:
		if n.Message == nil {
			return fmt.Errorf("notification %q without message", n.Kind)
		}
		s.target.NotifyMessageCreated(*n.Message)
	case notificationDeleted:
		if n.MessageID == "" {
			return fmt.Errorf("notification %q without message id", n.Kind)
		}
		s.target.NotifyMessageDeleted(n.MessageID, n.SenderID, n.ReceiverID)
	default:
		return fmt.Errorf("unknown notification kind %q", n.Kind)
	}
	return nil
}
