package cart

import "github.com/google/uuid"

// Item is one product line in a cart.
type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Line is an item joined with its current product data.
type Line struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Quantity  int       `json:"quantity"`
	Subtotal  int64     `json:"subtotal"`
	ImageURL  string    `json:"image_url,omitempty"`
	InStock   bool      `json:"in_stock"`
}

// Cart is the priced view of a user's cart.
type Cart struct {
	Lines []Line `json:"lines"`
	Total int64  `json:"total"`
}
