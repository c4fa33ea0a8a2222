package order

import "time"

// Order lifecycle.
const (
	StatusPendingPayment = "PENDING_PAYMENT"
	StatusPendingShip    = "PENDING_SHIP"
	StatusShipped        = "SHIPPED"
	StatusCompleted      = "COMPLETED"
	StatusRefunding      = "REFUNDING"
	StatusClosed         = "CLOSED"
)

// Refund lifecycle.
const (
	RefundPending  = "PENDING"
	RefundApproved = "APPROVED"
	RefundRejected = "REJECTED"
)

// validTransitions is the whole state machine. pay moves
// PENDING_PAYMENT→PENDING_SHIP, cancel→CLOSED; a refund request moves
// any post-payment state to REFUNDING, which resolves to CLOSED
// (approved) or back to SHIPPED (rejected).
var validTransitions = map[string][]string{
	StatusPendingPayment: {StatusPendingShip, StatusClosed},
	StatusPendingShip:    {StatusShipped, StatusRefunding},
	StatusShipped:        {StatusCompleted, StatusRefunding},
	StatusCompleted:      {StatusRefunding},
	StatusRefunding:      {StatusClosed, StatusShipped},
	StatusClosed:         {},
}

// CanTransitionTo reports whether the order may move to target.
func (o *Order) CanTransitionTo(target string) bool {
	for _, s := range validTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

type Order struct {
	ID        string `json:"id"`
	OrderNo   string `json:"orderNo"`
	UserID    string `json:"userId"`
	AddressID string `json:"addressId"`
	// Money fields are NUMERIC in Postgres; fixed at creation, never
	// recomputed.
	TotalAmount    string     `json:"totalAmount"`
	DiscountAmount string     `json:"discountAmount"`
	ShippingFee    string     `json:"shippingFee"`
	ActualAmount   string     `json:"actualAmount"`
	Status         string     `json:"status"`
	PaymentMethod  string     `json:"paymentMethod,omitempty"`
	PaymentTime    *time.Time `json:"paymentTime,omitempty"`
	ShippingNo     string     `json:"shippingNo,omitempty"`
	ShippingMethod string     `json:"shippingMethod,omitempty"`
	ShippingTime   *time.Time `json:"shippingTime,omitempty"`
	ConfirmTime    *time.Time `json:"confirmTime,omitempty"`
	CloseTime      *time.Time `json:"closeTime,omitempty"`
	CloseReason    string     `json:"closeReason,omitempty"`
	BuyerMessage   string     `json:"buyerMessage,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	Items          []Item     `json:"items,omitempty"`
	Refund         *Refund    `json:"refund,omitempty"`
}

// Item snapshots the product at purchase time; immutable after creation.
type Item struct {
	ID           string `json:"id"`
	OrderID      string `json:"orderId"`
	ProductID    string `json:"productId"`
	ProductTitle string `json:"productTitle"`
	ProductImage string `json:"productImage"`
	Price        string `json:"price"`
	Quantity     int    `json:"quantity"`
	TotalAmount  string `json:"totalAmount"`
}

// Refund tracks a refund request, 1:1 with its order.
type Refund struct {
	ID           string     `json:"id"`
	RefundNo     string     `json:"refundNo"`
	OrderID      string     `json:"orderId"`
	UserID       string     `json:"userId"`
	RefundAmount string     `json:"refundAmount"`
	RefundReason string     `json:"refundReason"`
	RefundType   string     `json:"refundType"`
	Status       string     `json:"status"`
	RejectReason string     `json:"rejectReason,omitempty"`
	ProcessTime  *time.Time `json:"processTime,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
