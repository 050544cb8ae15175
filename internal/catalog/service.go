package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/stockline-erp/stockline/internal/platform/httpx"
)

// RepositoryPort describes persistence used by the service.
type RepositoryPort interface {
	Create(ctx context.Context, product Product) (int64, error)
	FindByID(ctx context.Context, id int64) (Product, error)
	List(ctx context.Context, limit, offset int) ([]Product, error)
}

// Service exposes catalog lookups and product registration.
type Service struct {
	repo RepositoryPort
}

// NewService constructs catalog service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create validates and registers a new product.
func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	id, err := s.repo.Create(ctx, product)
	if err != nil {
		return Product{}, err
	}
	product.ID = id
	return product, nil
}

// FindProductByID returns display metadata for a product.
func (s *Service) FindProductByID(ctx context.Context, id int64) (Product, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns a catalog page.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Product, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", httpx.ErrValidation)
	}
	if p.RetailPrice.IsNegative() {
		return fmt.Errorf("%w: retail price must be >= 0", httpx.ErrValidation)
	}
	return nil
}
