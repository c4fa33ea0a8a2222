package coupon

import "time"

const (
	StatusPending = "PENDING"
	StatusActive  = "ACTIVE"
	StatusExpired = "EXPIRED"
)

const (
	ClaimUnused  = "UNUSED"
	ClaimUsed    = "USED"
	ClaimExpired = "EXPIRED"
)

// Coupon is a fixed-amount discount voucher with a claim quota.
type Coupon struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	DiscountAmount string    `json:"discountAmount"`
	MinAmount      string    `json:"minAmount"`
	TotalCount     int       `json:"totalCount"`
	ReceivedCount  int       `json:"receivedCount"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UserCoupon is one user's claim ticket for a coupon.
type UserCoupon struct {
	ID        string     `json:"id"`
	UserID    string     `json:"-"`
	CouponID  string     `json:"couponId"`
	Status    string     `json:"status"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ClaimView joins a claim ticket with its coupon for list endpoints.
type ClaimView struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	Coupon    Coupon     `json:"coupon"`
}

// InWindow reports whether now falls inside the coupon's claim window.
func (cp *Coupon) InWindow(now time.Time) bool {
	return !now.Before(cp.StartTime) && !now.After(cp.EndTime)
}
