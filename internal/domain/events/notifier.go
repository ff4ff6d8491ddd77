package events

import (
	"github.com/google/uuid"

	"github.com/innovative-archive/shop-api/internal/domain/withdrawal"
)

// Notifier adapts the hub to the narrow interfaces services accept.
type Notifier struct {
	hub *Hub
}

// NewNotifier creates hub-backed notifier
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// OrderStatusChanged pushes the new order status to the buyer.
func (n *Notifier) OrderStatusChanged(userID, orderID uuid.UUID, status string) {
	n.hub.Publish(userID, &Event{
		Type: EventOrderStatus,
		Data: map[string]string{
			"order_id": orderID.String(),
			"status":   status,
		},
	})
}

// WalletChanged pushes the balance snapshot after a ledger mutation.
func (n *Notifier) WalletChanged(userID uuid.UUID, balance, onHold int64) {
	n.hub.Publish(userID, &Event{
		Type: EventWalletChanged,
		Data: map[string]int64{
			"balance": balance,
			"on_hold": onHold,
		},
	})
}

// WithdrawalProcessed pushes the admin decision to the requester.
func (n *Notifier) WithdrawalProcessed(userID uuid.UUID, w *withdrawal.Withdrawal) {
	n.hub.Publish(userID, &Event{
		Type: EventWithdrawalProcessed,
		Data: w,
	})
}
