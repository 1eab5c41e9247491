package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grocerdash/grocerdash-backend/internal/orders"
	"github.com/grocerdash/grocerdash-backend/pkg/db/models"
	"github.com/grocerdash/grocerdash-backend/pkg/enums"
	"github.com/grocerdash/grocerdash-backend/pkg/types"
)

type orderResponse struct {
	ID                     uuid.UUID            `json:"id"`
	OrderNumber            string               `json:"order_number"`
	Status                 enums.OrderStatus    `json:"status"`
	CustomerID             uuid.UUID            `json:"customer_id"`
	BranchID               uuid.UUID            `json:"branch_id"`
	DeliveryPartnerID      *uuid.UUID           `json:"delivery_partner_id,omitempty"`
	DeliveryLocation       types.GeoPoint       `json:"delivery_location"`
	PickupLocation         types.GeoPoint       `json:"pickup_location"`
	DeliveryPersonLocation *types.GeoPoint      `json:"delivery_person_location,omitempty"`
	TotalPrice             decimal.Decimal      `json:"total_price"`
	CouponCode             *string              `json:"coupon_code,omitempty"`
	DiscountAmount         decimal.Decimal      `json:"discount_amount"`
	PaymentMethod          enums.PaymentMethod  `json:"payment_method"`
	PaymentStatus          enums.PaymentStatus  `json:"payment_status"`
	DriverEarning          decimal.Decimal      `json:"driver_earning"`
	CODCollected           decimal.Decimal      `json:"cod_collected"`
	Items                  []orderItemResponse  `json:"items"`
	Customer               *partyResponse       `json:"customer,omitempty"`
	Branch                 *branchResponse      `json:"branch,omitempty"`
	DeliveryPartner        *partyResponse       `json:"delivery_partner,omitempty"`
	AssignedAt             *time.Time           `json:"assigned_at,omitempty"`
	CreatedAt              time.Time            `json:"created_at"`
	UpdatedAt              time.Time            `json:"updated_at"`
}

type orderItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Variation *string         `json:"variation,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Qty       int             `json:"qty"`
}

type partyResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type branchResponse struct {
	ID       uuid.UUID      `json:"id"`
	Name     string         `json:"name"`
	Location types.GeoPoint `json:"location"`
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:                     order.ID,
		OrderNumber:            order.OrderNumber,
		Status:                 order.Status,
		CustomerID:             order.CustomerID,
		BranchID:               order.BranchID,
		DeliveryPartnerID:      order.DeliveryPartnerID,
		DeliveryLocation:       order.DeliveryLocation,
		PickupLocation:         order.PickupLocation,
		DeliveryPersonLocation: order.DeliveryPersonLocation,
		TotalPrice:             order.TotalPrice,
		CouponCode:             order.CouponCode,
		DiscountAmount:         order.DiscountAmount,
		PaymentMethod:          order.PaymentMethod,
		PaymentStatus:          order.PaymentStatus,
		DriverEarning:          order.DriverEarning,
		CODCollected:           order.CODCollected,
		Items:                  make([]orderItemResponse, 0, len(order.Items)),
		AssignedAt:             order.AssignedAt,
		CreatedAt:              order.CreatedAt,
		UpdatedAt:              order.UpdatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Variation: item.Variation,
			UnitPrice: item.UnitPrice,
			Qty:       item.Qty,
		})
	}
	if order.Customer != nil {
		resp.Customer = &partyResponse{ID: order.Customer.ID, Name: order.Customer.Name}
	}
	if order.Branch != nil {
		resp.Branch = &branchResponse{ID: order.Branch.ID, Name: order.Branch.Name, Location: order.Branch.Location}
	}
	if order.DeliveryPartner != nil {
		resp.DeliveryPartner = &partyResponse{ID: order.DeliveryPartner.ID, Name: order.DeliveryPartner.Name}
	}
	return resp
}

func newOrderListResponse(list *orders.List) orderListResponse {
	resp := orderListResponse{
		Orders:     make([]orderResponse, 0, len(list.Orders)),
		NextCursor: list.NextCursor,
	}
	for i := range list.Orders {
		resp.Orders = append(resp.Orders, newOrderResponse(&list.Orders[i]))
	}
	return resp
}
