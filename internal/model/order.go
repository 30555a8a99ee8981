package model

import "time"

// Order statuses known to the service. Others are stored as given.
const (
	OrderStatusPending       = "pending"
	OrderStatusProcessing    = "processing"
	OrderStatusCompleted     = "completed"
	OrderStatusCancelled     = "cancelled"
	OrderStatusCheckoutDraft = "checkout-draft"
)

// Order is a placed order. Guest orders have no CustomerID until linked.
type Order struct {
	ID           string     `json:"id"`
	CustomerID   *string    `json:"customer_id,omitempty"`
	BillingEmail string     `json:"billing_email"`
	Status       string     `json:"status"`
	TotalCents   int64      `json:"total_cents"`
	Currency     string     `json:"currency"`
	CreatedAt    time.Time  `json:"created_at"`
	LinkedAt     *time.Time `json:"linked_at,omitempty"`
}

// IsGuest reports whether the order is not yet attached to an account.
func (o *Order) IsGuest() bool {
	return o.CustomerID == nil || *o.CustomerID == ""
}
