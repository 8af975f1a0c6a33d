// Пакет events — публикация доменных событий в Redis pub/sub.
// События — best-effort уведомления для внешних подписчиков
// (дашборды, SSE): ошибки публикации логируются и не прерывают pipeline.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Sink — издатель доменных событий.
type Sink struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// New создаёт издатель событий поверх Redis.
func New(addr, password, channel string, logger *slog.Logger) *Sink {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &Sink{
		client:  client,
		channel: channel,
		logger:  logger.With(slog.String("component", "events")),
	}
}

// Record публикует JSON-событие в канал.
// Вызывающий код решает, игнорировать ли ошибку (обычно — да).
func (s *Sink) Record(ctx context.Context, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("сериализация события: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("публикация события в %s: %w", s.channel, err)
	}
	return nil
}

// RecordBestEffort публикует событие, логируя ошибку вместо возврата.
// Используется после коммита транзакционного ядра pipeline.
func (s *Sink) RecordBestEffort(ctx context.Context, event any) {
	if err := s.Record(ctx, event); err != nil {
		s.logger.Warn("Событие не опубликовано",
			slog.String("error", err.Error()),
		)
	}
}

// Close закрывает соединение с Redis.
func (s *Sink) Close() error {
	return s.client.Close()
}
