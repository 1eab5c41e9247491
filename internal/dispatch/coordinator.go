package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/grocerdash/grocerdash-backend/pkg/db/models"
	pkgerrors "github.com/grocerdash/grocerdash-backend/pkg/errors"
	"github.com/grocerdash/grocerdash-backend/pkg/geo"
	"github.com/grocerdash/grocerdash-backend/pkg/logger"
	"github.com/grocerdash/grocerdash-backend/pkg/realtime"
)

// DriverDirectory is the slice of the driver repository the coordinator
// consumes.
type DriverDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryPartner, error)
	PickLongestIdle(ctx context.Context) (*models.DeliveryPartner, error)
}

// Coordinator validates assignment candidates and fans order events out to
// the customer room, the bound driver, and the admin channel. Every payload
// it emits is a fully populated order so observers never render bare ids.
type Coordinator struct {
	drivers DriverDirectory
	hub     realtime.Hub
	logg    *logger.Logger
}

// NewCoordinator builds the dispatch coordinator.
func NewCoordinator(drivers DriverDirectory, hub realtime.Hub, logg *logger.Logger) *Coordinator {
	return &Coordinator{drivers: drivers, hub: hub, logg: logg}
}

// ValidateAssignable checks an assignment candidate without touching the
// order: the driver must exist and be activated.
func (c *Coordinator) ValidateAssignable(ctx context.Context, driverID uuid.UUID) (*models.DeliveryPartner, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}
	driver, err := c.drivers.FindByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !driver.IsActivated {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "driver is not activated").
			WithDetails(map[string]any{"driver_id": driverID, "reason": "inactive"})
	}
	return driver, nil
}

// PickFirstAvailable selects the longest-idle eligible driver for the admin
// "assign first available" action.
func (c *Coordinator) PickFirstAvailable(ctx context.Context) (*models.DeliveryPartner, error) {
	return c.drivers.PickLongestIdle(ctx)
}

// newOrderPing is the driver-facing announcement of a fresh order. TripKm is
// the straight-line pickup-to-dropoff distance so driver apps can sort offers
// without another round trip.
type newOrderPing struct {
	Order  *models.Order `json:"order"`
	TripKm float64       `json:"trip_km"`
}

// NotifyCreated announces a freshly created order: a snapshot to its room,
// a broadcast to admin observers, and a new-order ping to connected drivers.
func (c *Coordinator) NotifyCreated(ctx context.Context, order *models.Order) {
	c.hub.EmitToOrder(ctx, order.ID, realtime.EventLiveTrackingUpdate, order)
	c.hub.EmitGlobal(ctx, realtime.EventAdminNewOrder, order)
	c.hub.EmitGlobal(ctx, realtime.EventDriverNewOrder, newOrderPing{
		Order: order,
		TripKm: geo.HaversineKm(
			order.PickupLocation.Latitude, order.PickupLocation.Longitude,
			order.DeliveryLocation.Latitude, order.DeliveryLocation.Longitude,
		),
	})
}

// NotifyAssigned announces a driver binding to the room, the driver's
// private channel, and admins.
func (c *Coordinator) NotifyAssigned(ctx context.Context, order *models.Order, driverID uuid.UUID) {
	c.hub.EmitToOrder(ctx, order.ID, realtime.EventOrderConfirmed, order)
	c.hub.EmitToUser(ctx, driverID, realtime.EventDriverOrderAssigned, order)
	c.hub.EmitGlobal(ctx, realtime.EventAdminOrderAssigned, order)
}

// NotifyStatusUpdate pushes a transition to the room, admins, and the bound
// driver when one exists.
func (c *Coordinator) NotifyStatusUpdate(ctx context.Context, order *models.Order) {
	c.hub.EmitToOrder(ctx, order.ID, realtime.EventLiveTrackingUpdate, order)
	c.hub.EmitGlobal(ctx, realtime.EventAdminOrderStatusUpdate, order)
	if order.DeliveryPartnerID != nil {
		c.hub.EmitToUser(ctx, *order.DeliveryPartnerID, realtime.EventDriverOrderStatusUpdate, order)
	}
}

// NotifyReleased tells the previously bound driver the order went back to
// the pool, then re-announces availability.
func (c *Coordinator) NotifyReleased(ctx context.Context, order *models.Order, previousDriverID uuid.UUID) {
	if previousDriverID != uuid.Nil {
		c.hub.EmitToUser(ctx, previousDriverID, realtime.EventDriverOrderStatusUpdate, order)
	}
	c.hub.EmitToOrder(ctx, order.ID, realtime.EventLiveTrackingUpdate, order)
	c.hub.EmitGlobal(ctx, realtime.EventAdminOrderStatusUpdate, order)
	c.hub.EmitGlobal(ctx, realtime.EventDriverNewOrder, newOrderPing{
		Order: order,
		TripKm: geo.HaversineKm(
			order.PickupLocation.Latitude, order.PickupLocation.Longitude,
			order.DeliveryLocation.Latitude, order.DeliveryLocation.Longitude,
		),
	})

	if c.logg != nil {
		c.logg.Info(c.logg.WithOrderID(ctx, order.ID.String()),
			fmt.Sprintf("order %s released back to pool", order.OrderNumber))
	}
}
