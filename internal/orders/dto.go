package orders

import (
	"github.com/google/uuid"

	"github.com/grocerdash/grocerdash-backend/pkg/db/models"
	"github.com/grocerdash/grocerdash-backend/pkg/enums"
	"github.com/grocerdash/grocerdash-backend/pkg/types"
)

// Actor identifies the authenticated caller for scoping and authorization.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

// CartItem is one requested line of a new order.
type CartItem struct {
	ProductID uuid.UUID
	Qty       int
	Variation *string
}

// CreateInput carries everything needed to create an order. Prices are never
// taken from the client; the catalog is authoritative.
type CreateInput struct {
	CustomerID      uuid.UUID
	BranchID        uuid.UUID
	Items           []CartItem
	DeliveryAddress types.GeoPoint
	CouponCode      *string
	PaymentMethod   enums.PaymentMethod
}

// EstimateInput quotes a cart without creating anything.
type EstimateInput struct {
	Items      []CartItem
	CouponCode *string
}

// StatusUpdateInput drives the state machine forward.
type StatusUpdateInput struct {
	OrderID        uuid.UUID
	DriverID       uuid.UUID
	NewStatus      enums.OrderStatus
	DriverLocation *types.GeoPoint
}

// Filter narrows staff order listings.
type Filter struct {
	Status *enums.OrderStatus
}

// List is one page of orders plus the cursor for the next page.
type List struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
