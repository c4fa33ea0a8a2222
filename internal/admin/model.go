package admin

import "time"

type Admin struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Password    string     `json:"-"`
	Nickname    string     `json:"nickname"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// DashboardStats is the console landing page payload.
type DashboardStats struct {
	UserCount       int    `json:"userCount"`
	ProductCount    int    `json:"productCount"`
	OrderCount      int    `json:"orderCount"`
	PendingShip     int    `json:"pendingShipCount"`
	PendingRefunds  int    `json:"pendingRefundCount"`
	PendingPosts    int    `json:"pendingPostCount"`
	TodayOrderCount int    `json:"todayOrderCount"`
	TodaySales      string `json:"todaySales"`
}

// UserRow is the console view of a shopper account.
type UserRow struct {
	ID         string    `json:"id"`
	Phone      string    `json:"phone"`
	Nickname   string    `json:"nickname"`
	Status     string    `json:"status"`
	OrderCount int       `json:"orderCount"`
	CreatedAt  time.Time `json:"createdAt"`
}
