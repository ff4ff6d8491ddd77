package catalog

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/lib/pq"
)

// Category groups products in the storefront navigation.
type Category struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Product is a storefront item. Price is tax-inclusive, in integer rupees.
type Product struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	CategoryID  uuid.NullUUID  `db:"category_id" json:"category_id,omitempty"`
	Name        string         `db:"name" json:"name"`
	Description sql.NullString `db:"description" json:"description,omitempty"`
	Price       int64          `db:"price" json:"price"`
	Stock       int            `db:"stock" json:"stock"`
	Active      bool           `db:"active" json:"active"`

	ImageURLs pq.StringArray `db:"image_urls" json:"image_urls"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
