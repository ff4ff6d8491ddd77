package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	imgpkg "github.com/innovative-archive/shop-api/internal/pkg/imaging"
	"github.com/innovative-archive/shop-api/internal/pkg/storage"
)

// Service handles catalog business logic
type Service struct {
	repo    Repository
	storage storage.Storage
	images  *imgpkg.Processor
}

// NewService creates catalog service
func NewService(repo Repository, store storage.Storage, images *imgpkg.Processor) *Service {
	return &Service{
		repo:    repo,
		storage: store,
		images:  images,
	}
}

// CreateProductInput holds fields for product creation.
type CreateProductInput struct {
	CategoryID  *uuid.UUID
	Name        string
	Description string
	Price       int64
	Stock       int
	Active      bool
}

func (s *Service) CreateProduct(ctx context.Context, in CreateProductInput) (*Product, error) {
	if in.CategoryID != nil {
		cat, err := s.repo.GetCategory(ctx, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		if cat == nil {
			return nil, ErrCategoryNotFound
		}
	}

	p := &Product{
		ID:     uuid.New(),
		Name:   in.Name,
		Price:  in.Price,
		Stock:  in.Stock,
		Active: in.Active,
	}
	if in.CategoryID != nil {
		p.CategoryID = uuid.NullUUID{UUID: *in.CategoryID, Valid: true}
	}
	if in.Description != "" {
		p.Description.String = in.Description
		p.Description.Valid = true
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	log.Info().
		Str("product_id", p.ID.String()).
		Str("name", p.Name).
		Msg("product created")

	return s.repo.GetProduct(ctx, p.ID)
}

func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *Service) ListProducts(ctx context.Context, f ProductFilter) ([]*Product, error) {
	return s.repo.ListProducts(ctx, f)
}

// UpdateProductInput carries optional updates; nil means keep current value.
type UpdateProductInput struct {
	CategoryID  *uuid.UUID
	Name        *string
	Description *string
	Price       *int64
	Stock       *int
	Active      *bool
}

func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, in UpdateProductInput) (*Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.CategoryID != nil {
		cat, err := s.repo.GetCategory(ctx, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		if cat == nil {
			return nil, ErrCategoryNotFound
		}
		p.CategoryID = uuid.NullUUID{UUID: *in.CategoryID, Valid: true}
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description.String = *in.Description
		p.Description.Valid = *in.Description != ""
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Active != nil {
		p.Active = *in.Active
	}

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	for _, u := range p.ImageURLs {
		if key, ok := s.storage.KeyFromURL(u); ok {
			if err := s.storage.Delete(ctx, key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to delete product image")
			}
		}
	}
	return s.repo.DeleteProduct(ctx, id)
}

// UploadProductImage processes and stores an image, appending its public
// URL to the product. The thumbnail shares the key prefix with a _thumb
// suffix.
func (s *Service) UploadProductImage(ctx context.Context, productID uuid.UUID, r io.Reader) (*Product, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	processed, err := s.images.Process(r)
	if err != nil {
		return nil, fmt.Errorf("process image: %w", err)
	}

	imageID := uuid.New().String()
	originalKey := fmt.Sprintf("products/%s/%s.jpg", productID, imageID)
	thumbKey := fmt.Sprintf("products/%s/%s_thumb.jpg", productID, imageID)

	if err := s.storage.Put(ctx, originalKey, bytes.NewReader(processed.Original), processed.ContentType); err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	if err := s.storage.Put(ctx, thumbKey, bytes.NewReader(processed.Thumbnail), processed.ContentType); err != nil {
		return nil, fmt.Errorf("upload thumbnail: %w", err)
	}

	p.ImageURLs = append(p.ImageURLs, s.storage.GetURL(originalKey))
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}

	log.Info().
		Str("product_id", productID.String()).
		Str("key", originalKey).
		Msg("product image uploaded")

	return s.repo.GetProduct(ctx, productID)
}

func (s *Service) CreateCategory(ctx context.Context, name, slug string, sortOrder int) (*Category, error) {
	c := &Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		SortOrder: sortOrder,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return s.repo.GetCategory(ctx, c.ID)
}

func (s *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, name, slug string, sortOrder int) (*Category, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCategoryNotFound
	}
	c.Name = name
	c.Slug = slug
	c.SortOrder = sortOrder
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCategory(ctx, id)
}
