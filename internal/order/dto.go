package order

// CreateRequest is the checkout payload.
// swagger:model CreateOrderRequest
type CreateRequest struct {
	AddressID    string   `json:"addressId" binding:"required"`
	CartItemIDs  []string `json:"cartItemIds" binding:"required,min=1"`
	CouponID     string   `json:"couponId"`
	BuyerMessage string   `json:"buyerMessage"`
}

// PayRequest selects the (simulated) payment channel.
// swagger:model PayOrderRequest
type PayRequest struct {
	PaymentMethod string `json:"paymentMethod" binding:"required"`
}

// RefundRequest opens a refund case for an order.
// swagger:model CreateRefundRequest
type RefundRequest struct {
	RefundReason string `json:"refundReason" binding:"required"`
	RefundType   string `json:"refundType" binding:"required"`
}

// ShipRequest records the tracking details when an admin ships an order.
// swagger:model ShipOrderRequest
type ShipRequest struct {
	ShippingNo     string `json:"shippingNo" binding:"required"`
	ShippingMethod string `json:"shippingMethod"`
}

// ProcessRefundRequest resolves a pending refund.
// swagger:model ProcessRefundRequest
type ProcessRefundRequest struct {
	Status       string `json:"status" binding:"required,oneof=APPROVED REJECTED"`
	RejectReason string `json:"rejectReason"`
}
