package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	channels []string
	payloads [][]byte
	err      error
}

func (p *capturingPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, payload)
	return p.err
}

func TestRedisHubChannels(t *testing.T) {
	pub := &capturingPublisher{}
	hub, err := NewRedisHub(pub, nil)
	require.NoError(t, err)

	orderID := uuid.New()
	userID := uuid.New()
	ctx := context.Background()

	hub.EmitToOrder(ctx, orderID, EventLiveTrackingUpdate, map[string]string{"k": "v"})
	hub.EmitToUser(ctx, userID, EventDriverOrderAssigned, nil)
	hub.EmitGlobal(ctx, EventAdminNewOrder, nil)

	require.Len(t, pub.channels, 3)
	assert.Equal(t, "grocerdash:order:"+orderID.String(), pub.channels[0])
	assert.Equal(t, "grocerdash:user:"+userID.String(), pub.channels[1])
	assert.Equal(t, "grocerdash:admin", pub.channels[2])

	var envelope Envelope
	require.NoError(t, json.Unmarshal(pub.payloads[0], &envelope))
	assert.Equal(t, EventLiveTrackingUpdate, envelope.Event)
	assert.False(t, envelope.EmittedAt.IsZero())
}

func TestRedisHubSwallowsPublishErrors(t *testing.T) {
	pub := &capturingPublisher{err: fmt.Errorf("broker down")}
	hub, err := NewRedisHub(pub, nil)
	require.NoError(t, err)

	hub.EmitGlobal(context.Background(), EventAdminOrderStatusUpdate, nil)
	require.Len(t, pub.channels, 1)
}

func TestNewRedisHubRequiresPublisher(t *testing.T) {
	_, err := NewRedisHub(nil, nil)
	assert.Error(t, err)
}
