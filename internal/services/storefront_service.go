package services

import (
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"context"
	"fmt"
)

// StorefrontService serves the public, active-only view of the catalog
type StorefrontService struct {
	catalog  *repository.CatalogRepository
	products *repository.ProductRepository
}

// NewStorefrontService creates a new StorefrontService
func NewStorefrontService(catalog *repository.CatalogRepository, products *repository.ProductRepository) *StorefrontService {
	return &StorefrontService{catalog: catalog, products: products}
}

// Categories lists active categories in display order
func (s *StorefrontService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.catalog.ListCategories(ctx, true)
}

// Tree returns the active hierarchy
func (s *StorefrontService) Tree(ctx context.Context) (*models.CatalogTree, error) {
	return s.catalog.GetTree(ctx, true)
}

// CategoryBySlug returns an active category with its active brands
func (s *StorefrontService) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.catalog.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, repository.ErrCategoryNotFound
	}
	if category.Brands, err = s.catalog.ListBrands(ctx, &category.ID, true); err != nil {
		return nil, err
	}
	return category, nil
}

// BrandBySlug returns an active brand with its active product lines
func (s *StorefrontService) BrandBySlug(ctx context.Context, slug string) (*models.Brand, error) {
	brand, err := s.catalog.GetBrandBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !brand.IsActive {
		return nil, repository.ErrBrandNotFound
	}
	if brand.ProductLines, err = s.catalog.ListProductLines(ctx, &brand.ID, true); err != nil {
		return nil, err
	}
	return brand, nil
}

// ProductLineBySlug returns an active product line
func (s *StorefrontService) ProductLineBySlug(ctx context.Context, slug string) (*models.ProductLine, error) {
	line, err := s.catalog.GetProductLineBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !line.IsActive {
		return nil, repository.ErrProductLineNotFound
	}
	return line, nil
}

// NodeProducts lists the enabled products under an active node, featured
// products first in their featured order, then the rest by name
func (s *StorefrontService) NodeProducts(ctx context.Context, level models.NodeLevel, slug string) ([]models.Product, error) {
	var (
		id       uint
		featured models.ProductIDs
	)
	switch level {
	case models.LevelCategory:
		category, err := s.CategoryBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		id, featured = category.ID, category.FeaturedProductIDs
	case models.LevelBrand:
		brand, err := s.BrandBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		id, featured = brand.ID, brand.FeaturedProductIDs
	case models.LevelProductLine:
		line, err := s.ProductLineBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		id, featured = line.ID, line.FeaturedProductIDs
	default:
		return nil, fmt.Errorf("unknown catalog level %q", level)
	}

	products, err := s.products.ListEnabledInSubtree(ctx, level, id)
	if err != nil {
		return nil, err
	}
	return featuredFirst(products, featured), nil
}

// Product returns an enabled product
func (s *StorefrontService) Product(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Enabled {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

// featuredFirst moves featured products to the front in featured order and
// keeps the remaining products in their original order
func featuredFirst(products []models.Product, featured []uint) []models.Product {
	if len(featured) == 0 {
		return products
	}
	byID := make(map[uint]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}

	out := make([]models.Product, 0, len(products))
	used := make(map[uint]bool, len(featured))
	for _, id := range featured {
		if i, ok := byID[id]; ok && !used[id] {
			out = append(out, products[i])
			used[id] = true
		}
	}
	for _, p := range products {
		if !used[p.ID] {
			out = append(out, p)
		}
	}
	return out
}
