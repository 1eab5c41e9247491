package realtime

import (
	"context"

	"github.com/google/uuid"
)

// Event names pushed over the realtime channel. Order rooms and driver
// channels are keyed by id; admin events fan out globally.
const (
	EventLiveTrackingUpdate = "liveTrackingUpdates"
	EventOrderConfirmed     = "orderConfirmed"

	EventDriverOrderAssigned     = "driver:order-assigned"
	EventDriverOrderStatusUpdate = "driver:order-status-update"
	EventDriverNewOrder          = "driver:new-order"

	EventAdminNewOrder          = "admin:new-order"
	EventAdminOrderAssigned     = "admin:order-assigned"
	EventAdminOrderStatusUpdate = "admin:order-status-update"
)

// Hub is the fan-out boundary the core depends on. Emission is
// fire-and-forget: implementations must swallow and log transport failures
// rather than surface them to callers.
type Hub interface {
	EmitToOrder(ctx context.Context, orderID uuid.UUID, event string, payload any)
	EmitToUser(ctx context.Context, userID uuid.UUID, event string, payload any)
	EmitGlobal(ctx context.Context, event string, payload any)
}

// NopHub discards every emission. Useful for binaries that do not fan out.
type NopHub struct{}

func (NopHub) EmitToOrder(context.Context, uuid.UUID, string, any) {}
func (NopHub) EmitToUser(context.Context, uuid.UUID, string, any)  {}
func (NopHub) EmitGlobal(context.Context, string, any)             {}
