package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/grocerdash/grocerdash-backend/pkg/logger"
	"github.com/grocerdash/grocerdash-backend/pkg/metrics"
)

const (
	channelOrderPrefix = "grocerdash:order:"
	channelUserPrefix  = "grocerdash:user:"
	channelAdmin       = "grocerdash:admin"
)

// Publisher is the transport surface the redis hub publishes through.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Envelope is the wire format pushed onto pub/sub channels.
type Envelope struct {
	Event     string    `json:"event"`
	Payload   any       `json:"payload"`
	EmittedAt time.Time `json:"emitted_at"`
}

// RedisHub fans out events over redis pub/sub. The socket gateway process
// subscribes to these channels and relays to connected clients.
type RedisHub struct {
	pub  Publisher
	logg *logger.Logger
}

// NewRedisHub wires the redis-backed hub.
func NewRedisHub(pub Publisher, logg *logger.Logger) (*RedisHub, error) {
	if pub == nil {
		return nil, fmt.Errorf("publisher required")
	}
	return &RedisHub{pub: pub, logg: logg}, nil
}

func (h *RedisHub) EmitToOrder(ctx context.Context, orderID uuid.UUID, event string, payload any) {
	h.emit(ctx, channelOrderPrefix+orderID.String(), event, payload)
}

func (h *RedisHub) EmitToUser(ctx context.Context, userID uuid.UUID, event string, payload any) {
	h.emit(ctx, channelUserPrefix+userID.String(), event, payload)
}

func (h *RedisHub) EmitGlobal(ctx context.Context, event string, payload any) {
	h.emit(ctx, channelAdmin, event, payload)
}

// emit never returns an error: fan-out failures must not abort the enclosing
// request. They are logged and counted instead.
func (h *RedisHub) emit(ctx context.Context, channel, event string, payload any) {
	body, err := json.Marshal(Envelope{Event: event, Payload: payload, EmittedAt: time.Now().UTC()})
	if err != nil {
		h.report(ctx, channel, event, err)
		return
	}
	if err := h.pub.Publish(ctx, channel, body); err != nil {
		h.report(ctx, channel, event, err)
	}
}

func (h *RedisHub) report(ctx context.Context, channel, event string, err error) {
	metrics.RealtimeEmitFailures.WithLabelValues(event).Inc()
	if h.logg != nil {
		ctx = h.logg.WithFields(ctx, map[string]any{"channel": channel, "event": event})
		h.logg.Error(ctx, "realtime emit failed", err)
	}
}
