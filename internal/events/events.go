// Package events fans committed question changes out to live subscribers,
// through Redis Pub/Sub when configured or straight to the websocket hub.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/question"
	ws "github.com/gokatarajesh/question-bank/pkg/http/ws"
)

// DefaultChannel is the Pub/Sub channel used when none is configured.
const DefaultChannel = "qb:events"

// Sink receives websocket messages; *ws.Hub satisfies it.
type Sink interface {
	Broadcast(msg ws.Message) error
}

// RedisPublisher publishes changes as JSON on a Pub/Sub channel.
type RedisPublisher struct {
	redis   *redis.Client
	channel string
}

var _ question.ChangePublisher = (*RedisPublisher)(nil)

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{redis: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, change question.Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	if err := p.redis.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return nil
}

// HubPublisher delivers changes to the local hub without a broker.
type HubPublisher struct {
	sink   Sink
	logger zerolog.Logger
}

var _ question.ChangePublisher = (*HubPublisher)(nil)

func NewHubPublisher(sink Sink, logger zerolog.Logger) *HubPublisher {
	return &HubPublisher{
		sink:   sink,
		logger: logger.With().Str("component", "hub_publisher").Logger(),
	}
}

// Publish never fails the caller; per-connection delivery errors are logged.
func (p *HubPublisher) Publish(_ context.Context, change question.Change) error {
	msg, err := changeMessage(change)
	if err != nil {
		return err
	}
	if err := p.sink.Broadcast(msg); err != nil {
		p.logger.Debug().Err(err).Str("question_id", change.ID).Msg("broadcast incomplete")
	}
	return nil
}

// Broadcaster listens on the Pub/Sub channel and forwards changes to the hub,
// so every API replica pushes every change to its own clients.
type Broadcaster struct {
	redis   *redis.Client
	sink    Sink
	channel string
	logger  zerolog.Logger
}

func NewBroadcaster(client *redis.Client, sink Sink, channel string, logger zerolog.Logger) *Broadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Broadcaster{
		redis:   client,
		sink:    sink,
		channel: channel,
		logger:  logger.With().Str("component", "events_broadcaster").Logger(),
	}
}

// Run subscribes to the channel and blocks until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.redis == nil || b.sink == nil {
		return nil
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.forward(msg.Payload)
		}
	}
}

func (b *Broadcaster) forward(payload string) {
	var change question.Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		b.logger.Warn().Err(err).Msg("failed to decode change payload")
		return
	}
	msg, err := changeMessage(change)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to encode change message")
		return
	}
	if err := b.sink.Broadcast(msg); err != nil {
		b.logger.Debug().Err(err).Str("question_id", change.ID).Msg("broadcast incomplete")
	}
}

func changeMessage(change question.Change) (ws.Message, error) {
	msg, err := ws.NewMessage(ws.TypeQuestionChange, change)
	if err != nil {
		return ws.Message{}, fmt.Errorf("encode change message: %w", err)
	}
	return msg, nil
}
