package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/innovative-archive/shop-api/internal/pkg/response"
	"github.com/innovative-archive/shop-api/internal/pkg/validator"
)

const maxImageUploadSize = 10 << 20 // 10 MB

// Handler handles catalog HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates catalog handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListProducts handles GET /products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	f := ProductFilter{ActiveOnly: true}
	h.applyListQuery(r, &f)

	products, err := h.service.ListProducts(r.Context(), f)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, toProductResponses(products))
}

// GetProduct handles GET /products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid product ID")
		return
	}

	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			response.NotFound(w, "Product not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.OK(w, toProductResponse(p))
}

// ListCategories handles GET /categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, categories)
}

// AdminListProducts handles GET /admin/products (includes inactive)
func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	var f ProductFilter
	h.applyListQuery(r, &f)

	products, err := h.service.ListProducts(r.Context(), f)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, toProductResponses(products))
}

// CreateProduct handles POST /admin/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	in := CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Active:      req.Active,
	}
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			response.BadRequest(w, "Invalid category ID")
			return
		}
		in.CategoryID = &id
	}

	p, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			response.NotFound(w, "Category not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.Created(w, toProductResponse(p))
}

// UpdateProduct handles PUT /admin/products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid product ID")
		return
	}

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	var in UpdateProductInput
	if req.CategoryID != nil {
		cid, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			response.BadRequest(w, "Invalid category ID")
			return
		}
		in.CategoryID = &cid
	}
	in.Name = req.Name
	in.Description = req.Description
	in.Price = req.Price
	in.Stock = req.Stock
	in.Active = req.Active

	p, err := h.service.UpdateProduct(r.Context(), id, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrProductNotFound):
			response.NotFound(w, "Product not found")
		case errors.Is(err, ErrCategoryNotFound):
			response.NotFound(w, "Category not found")
		default:
			response.InternalError(w)
		}
		return
	}
	response.OK(w, toProductResponse(p))
}

// DeleteProduct handles DELETE /admin/products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid product ID")
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			response.NotFound(w, "Product not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

// UploadImage handles POST /admin/products/{id}/images
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid product ID")
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadSize); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		response.BadRequest(w, "Missing image file")
		return
	}
	defer file.Close()

	p, err := h.service.UploadProductImage(r.Context(), id, file)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			response.NotFound(w, "Product not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.OK(w, toProductResponse(p))
}

// CreateCategory handles POST /admin/categories
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	c, err := h.service.CreateCategory(r.Context(), req.Name, req.Slug, req.SortOrder)
	if err != nil {
		if errors.Is(err, ErrSlugTaken) {
			response.Conflict(w, "Category slug already in use")
			return
		}
		response.InternalError(w)
		return
	}
	response.Created(w, c)
}

// UpdateCategory handles PUT /admin/categories/{id}
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid category ID")
		return
	}

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	c, err := h.service.UpdateCategory(r.Context(), id, req.Name, req.Slug, req.SortOrder)
	if err != nil {
		switch {
		case errors.Is(err, ErrCategoryNotFound):
			response.NotFound(w, "Category not found")
		case errors.Is(err, ErrSlugTaken):
			response.Conflict(w, "Category slug already in use")
		default:
			response.InternalError(w)
		}
		return
	}
	response.OK(w, c)
}

// DeleteCategory handles DELETE /admin/categories/{id}
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid category ID")
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			response.NotFound(w, "Category not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

func (h *Handler) applyListQuery(r *http.Request, f *ProductFilter) {
	q := r.URL.Query()
	if v := q.Get("category_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.CategoryID = &id
		}
	}
	f.Search = q.Get("search")
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		f.Offset = v
	}
}

// Routes returns public catalog routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListProducts)
	r.Get("/{id}", h.GetProduct)
	return r
}

// CategoryRoutes returns public category routes
func (h *Handler) CategoryRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListCategories)
	return r
}

// AdminRoutes returns admin catalog routes
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)

	r.Get("/", h.AdminListProducts)
	r.Post("/", h.CreateProduct)
	r.Put("/{id}", h.UpdateProduct)
	r.Delete("/{id}", h.DeleteProduct)
	r.Post("/{id}/images", h.UploadImage)

	return r
}

// AdminCategoryRoutes returns admin category routes
func (h *Handler) AdminCategoryRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)

	r.Get("/", h.ListCategories)
	r.Post("/", h.CreateCategory)
	r.Put("/{id}", h.UpdateCategory)
	r.Delete("/{id}", h.DeleteCategory)

	return r
}
