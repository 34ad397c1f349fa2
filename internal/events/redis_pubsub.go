package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher пишет события покупок в один фиксированный канал, выбранный
// при конструировании. Потеря события не фатальна (WS-поток это best-effort
// уведомления, состояние живёт в postgres), поэтому ошибки публикации только
// логируются вызывающим кодом.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisPublisher(client *redis.Client, channel string, log *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, log: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		p.log.Warn("purchase event not published",
			zap.String("type", event.Type),
			zap.Error(err),
		)
		return err
	}
	return nil
}

type RedisSubscriber struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisSubscriber(client *redis.Client, channel string, log *zap.Logger) *RedisSubscriber {
	return &RedisSubscriber{client: client, channel: channel, log: log}
}

// Subscribe запускает фоновый цикл доставки до отмены ctx. Не валидирующиеся
// сообщения в канале пропускаются, подписка живёт дальше.
func (s *RedisSubscriber) Subscribe(ctx context.Context, handler func(Event)) error {
	pubsub := s.client.Subscribe(ctx, s.channel)

	go s.deliver(ctx, pubsub, handler)
	return nil
}

func (s *RedisSubscriber) deliver(ctx context.Context, pubsub *redis.PubSub, handler func(Event)) {
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.log.Error("malformed purchase event in channel",
					zap.String("channel", s.channel),
					zap.Error(err),
				)
				continue
			}
			handler(event)
		}
	}
}
