package catalog

// CreateProductRequest for POST /admin/products
type CreateProductRequest struct {
	CategoryID  string `json:"category_id" validate:"omitempty,uuid"`
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Price       int64  `json:"price" validate:"required,gt=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
	Active      bool   `json:"active"`
}

// UpdateProductRequest for PUT /admin/products/{id}. Pointer fields are
// left unchanged when absent.
type UpdateProductRequest struct {
	CategoryID  *string `json:"category_id" validate:"omitempty,uuid"`
	Name        *string `json:"name" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Price       *int64  `json:"price" validate:"omitempty,gt=0"`
	Stock       *int    `json:"stock" validate:"omitempty,gte=0"`
	Active      *bool   `json:"active"`
}

// CategoryRequest for POST and PUT on /admin/categories
type CategoryRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Slug      string `json:"slug" validate:"required,min=2,max=100,lowercase"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

// ProductResponse is the public product shape.
type ProductResponse struct {
	ID          string   `json:"id"`
	CategoryID  *string  `json:"category_id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       int64    `json:"price"`
	Stock       int      `json:"stock"`
	Active      bool     `json:"active"`
	ImageURLs   []string `json:"image_urls"`
	CreatedAt   string   `json:"created_at"`
}

func toProductResponse(p *Product) *ProductResponse {
	resp := &ProductResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		Active:    p.Active,
		ImageURLs: p.ImageURLs,
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if p.CategoryID.Valid {
		id := p.CategoryID.UUID.String()
		resp.CategoryID = &id
	}
	if p.Description.Valid {
		resp.Description = p.Description.String
	}
	if resp.ImageURLs == nil {
		resp.ImageURLs = []string{}
	}
	return resp
}

func toProductResponses(products []*Product) []*ProductResponse {
	out := make([]*ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}
