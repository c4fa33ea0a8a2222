package product

import "time"

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

type Product struct {
	ID          string `json:"id"`
	CategoryID  string `json:"categoryId,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	MainImage   string `json:"mainImage"`
	// Money columns are NUMERIC in Postgres and travel as strings to
	// avoid float rounding on the wire.
	Price         string    `json:"price"`
	OriginalPrice string    `json:"originalPrice"`
	Stock         int       `json:"stock"`
	Sales         int       `json:"sales"`
	Views         int       `json:"views"`
	Tags          string    `json:"tags,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SKU is a purchasable variant of a product with its own price and stock.
type SKU struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Specs     string `json:"specs"`
	Price     string `json:"price"`
	Stock     int    `json:"stock"`
	Image     string `json:"image,omitempty"`
}

type Category struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Icon     string     `json:"icon,omitempty"`
	ParentID *string    `json:"parentId,omitempty"`
	Sort     int        `json:"sort"`
	Status   string     `json:"status"`
	Children []Category `json:"children,omitempty"`
}

// Detail is the storefront product page payload.
type Detail struct {
	Product
	SKUs []SKU `json:"skus"`
}
