package cart

import "time"

type Item struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	Selected  bool      `json:"selected"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductSnapshot is the slice of the product the cart page needs.
type ProductSnapshot struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	MainImage     string `json:"mainImage"`
	Price         string `json:"price"`
	OriginalPrice string `json:"originalPrice"`
	Stock         int    `json:"stock"`
	Status        string `json:"status"`
}

type ItemView struct {
	ID       string          `json:"id"`
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
	Selected bool            `json:"selected"`
}

type View struct {
	Items         []ItemView `json:"items"`
	TotalAmount   string     `json:"totalAmount"`
	SelectedCount int        `json:"selectedCount"`
}
