package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("events")

const defaultQueueSize = 256

// RedisPublisher publishes events on per-session Redis channels from a single worker.
type RedisPublisher struct {
	rdb   *redis.Client
	queue chan Event
}

// NewRedisPublisher creates a publisher. queueSize <= 0 selects a default.
func NewRedisPublisher(rdb *redis.Client, queueSize int) *RedisPublisher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &RedisPublisher{
		rdb:   rdb,
		queue: make(chan Event, queueSize),
	}
}

// Publish queues ev. When the queue is full the event is dropped.
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) {
	select {
	case p.queue <- ev:
	default:
		slog.WarnContext(ctx, "Event queue full, dropping event", "event.type", ev.Type, "session.id", ev.SessionID)
	}
}

// Run drains the queue until ctx is cancelled.
func (p *RedisPublisher) Run(ctx context.Context) {
	slog.InfoContext(ctx, "Event publisher started")
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Event publisher stopped")
			return
		case ev := <-p.queue:
			p.send(ctx, ev)
		}
	}
}

func (p *RedisPublisher) send(ctx context.Context, ev Event) {
	channel := SessionChannel(ev.SessionID)
	ctx, span := tracer.Start(ctx, "events.publish", trace.WithAttributes(
		attribute.String("event.type", ev.Type),
		attribute.String("session.id", ev.SessionID),
		attribute.String("redis.channel", channel),
	))
	defer span.End()

	data, err := json.Marshal(ev)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal event", "event.type", ev.Type, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return
	}

	if err := p.rdb.Publish(ctx, channel, data).Err(); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event", "event.type", ev.Type, "redis.channel", channel, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish event")
	}
}
