package purchases

import (
	"fmt"

	"github.com/google/uuid"
)

// OrderTransitionedEvent is handed to the notification collaborator after a
// successful status change. Delivery happens out of band; the transition
// never waits on it.
type OrderTransitionedEvent struct {
	EventID     string `json:"eventId"`
	OrderID     int64  `json:"orderId"`
	From        Status `json:"from"`
	To          Status `json:"to"`
	TotalAmount string `json:"totalAmount"`
	IsUrgent    bool   `json:"isUrgent"`
}

// EventRef derives a stable identifier for a transition, so a redelivered
// notification carries the same ID and consumers can deduplicate.
func EventRef(orderID int64, from, to Status) uuid.UUID {
	return uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("PO:%d:%s:%s", orderID, from, to)))
}
