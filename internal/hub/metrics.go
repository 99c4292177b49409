package hub

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type hubMetrics struct {
	connectionsAccepted metric.Int64Counter
	connectionsRejected metric.Int64Counter
	connectionsActive   metric.Int64UpDownCounter
	packetsInvalid      metric.Int64Counter
	pushesFailed        metric.Int64Counter
	movesApplied        metric.Int64Counter
	movesRejected       metric.Int64Counter
}

// newHubMetrics registers the hub instruments on the global meter provider.
// An instrument that fails to register falls back to a no-op one.
func newHubMetrics() *hubMetrics {
	meter := otel.Meter("hub")
	return &hubMetrics{
		connectionsAccepted: int64Counter(meter, "hub.connections.accepted", "Connections registered in a session"),
		connectionsRejected: int64Counter(meter, "hub.connections.rejected", "Connections refused because the game had started"),
		connectionsActive:   int64UpDownCounter(meter, "hub.connections.active", "Connections currently registered"),
		packetsInvalid:      int64Counter(meter, "hub.packets.invalid", "Inbound payloads that failed to decode"),
		pushesFailed:        int64Counter(meter, "hub.push.failed", "Pushes rejected by a connection"),
		movesApplied:        int64Counter(meter, "hub.moves.applied", "Moves written to a board"),
		movesRejected:       int64Counter(meter, "hub.moves.rejected", "Moves refused as illegal"),
	}
}

func int64Counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Error("Failed to create counter", "metric.name", name, "error", err)
	}
	return c
}

func int64UpDownCounter(meter metric.Meter, name, desc string) metric.Int64UpDownCounter {
	c, err := meter.Int64UpDownCounter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Error("Failed to create up-down counter", "metric.name", name, "error", err)
	}
	return c
}

func sessionAttr(sessionID string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("session.id", sessionID))
}

func (m *hubMetrics) add(ctx context.Context, c metric.Int64Counter, sessionID string) {
	if c != nil {
		c.Add(ctx, 1, sessionAttr(sessionID))
	}
}

func (m *hubMetrics) activeDelta(ctx context.Context, sessionID string, delta int64) {
	if m.connectionsActive != nil {
		m.connectionsActive.Add(ctx, delta, sessionAttr(sessionID))
	}
}
