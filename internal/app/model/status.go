package model

// orderTransitions is the authoritative transition table. Any status change
// not listed here is rejected by the state machine; there is deliberately no
// other code path that writes orders.status. Couriers may collect straight
// from confirmed (COD orders confirm at checkout and often skip processing),
// and a shipped parcel can go directly to transit or a delivery outcome.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:           {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:         {OrderStatusProcessing, OrderStatusPickedUp, OrderStatusCancelled},
	OrderStatusProcessing:        {OrderStatusShipped, OrderStatusReadyForPickup, OrderStatusPickedUp, OrderStatusCancelled},
	OrderStatusShipped:           {OrderStatusPickedUp, OrderStatusInTransit, OrderStatusDelivered, OrderStatusDeliveryAttempted, OrderStatusCancelled},
	OrderStatusReadyForPickup:    {OrderStatusPickedUp, OrderStatusCancelled},
	OrderStatusPickedUp:          {OrderStatusInTransit, OrderStatusDelivered, OrderStatusDeliveryAttempted, OrderStatusCancelled},
	OrderStatusInTransit:         {OrderStatusDelivered, OrderStatusDeliveryAttempted, OrderStatusReturnRequested},
	OrderStatusDeliveryAttempted: {OrderStatusInTransit, OrderStatusDelivered, OrderStatusReturnRequested},
	OrderStatusDelivered:         {OrderStatusReturnRequested},
	OrderStatusReturnRequested:   {OrderStatusReturnPickedUp},
	OrderStatusReturnPickedUp:    {OrderStatusReturnInTransit},
	OrderStatusReturnInTransit:   {OrderStatusReturned},
	OrderStatusCancelled:         {},
	OrderStatusReturned:          {},
}

// CanTransition reports whether from -> to is a legal order status change.
func CanTransition(from, to OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether the status has no outbound transitions.
// delivered is near-terminal: it still allows return_requested.
func IsTerminalStatus(s OrderStatus) bool {
	return len(orderTransitions[s]) == 0
}

// ValidOrderStatus reports whether s is a known status value.
func ValidOrderStatus(s OrderStatus) bool {
	_, ok := orderTransitions[s]
	return ok
}
