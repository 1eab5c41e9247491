package orders

import "github.com/grocerdash/grocerdash-backend/pkg/enums"

// transitions is the order lifecycle graph. Progression is strictly
// single-step; cancellation is reachable from every non-terminal state.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusAvailable:  {enums.OrderStatusAssigned, enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusAssigned:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:  {enums.OrderStatusArriving, enums.OrderStatusCancelled},
	enums.OrderStatusArriving:   {enums.OrderStatusAtLocation, enums.OrderStatusCancelled},
	enums.OrderStatusAtLocation: {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// driverSettable is the set of statuses a delivery partner may request.
var driverSettable = map[enums.OrderStatus]bool{
	enums.OrderStatusConfirmed:  true,
	enums.OrderStatusArriving:   true,
	enums.OrderStatusAtLocation: true,
	enums.OrderStatusDelivered:  true,
	enums.OrderStatusCancelled:  true,
}

// DriverSettable reports whether a driver may request the status at all.
func DriverSettable(status enums.OrderStatus) bool {
	return driverSettable[status]
}
