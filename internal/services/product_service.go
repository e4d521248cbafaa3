package services

import (
	"catalog-service/internal/events"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"context"

	"github.com/sirupsen/logrus"
)

const productEntity = "product"

// ProductService manages products and their place in the hierarchy
type ProductService struct {
	products  *repository.ProductRepository
	catalog   *repository.CatalogRepository
	publisher EventPublisher
	logger    *logrus.Entry
}

// NewProductService creates a new ProductService
func NewProductService(products *repository.ProductRepository, catalog *repository.CatalogRepository, publisher EventPublisher, logger *logrus.Logger) *ProductService {
	return &ProductService{
		products:  products,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger.WithField("component", "services.product"),
	}
}

func (s *ProductService) List(ctx context.Context, filters models.ProductFilters) ([]models.Product, int64, error) {
	return s.products.List(ctx, filters)
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	return s.products.GetByID(ctx, id)
}

// Create validates and stores a new product
func (s *ProductService) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	name, err := requireName(req.Name)
	if err != nil {
		return nil, err
	}
	if req.Price < 0 {
		return nil, newValidationError("price", "price must not be negative")
	}
	brandID, lineID, err := s.resolveParents(ctx, req.BrandID, req.ProductLineID)
	if err != nil {
		return nil, err
	}
	slug, err := resolveSlug(ctx, req.Slug, name, productEntity, s.slugChecker(0))
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:          name,
		Slug:          slug,
		Description:   req.Description,
		Image:         req.Image,
		Price:         roundCents(req.Price),
		BrandID:       brandID,
		ProductLineID: lineID,
		Enabled:       boolOrDefault(req.Enabled, true),
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, slugConflict(err)
	}

	s.publish(ctx, events.ActionCreated, product)
	return product, nil
}

// Update applies a partial update
func (s *ProductService) Update(ctx context.Context, id uint, req models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if product.Name, err = requireName(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Slug != nil {
		if product.Slug, err = resolveSlug(ctx, req.Slug, product.Name, productEntity, s.slugChecker(id)); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		product.Description = emptyToNil(req.Description)
	}
	if req.Image != nil {
		product.Image = emptyToNil(req.Image)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, newValidationError("price", "price must not be negative")
		}
		product.Price = roundCents(*req.Price)
	}
	if req.Enabled != nil {
		product.Enabled = *req.Enabled
	}

	brandID, lineID := product.BrandID, product.ProductLineID
	if req.ClearBrand {
		brandID, lineID = nil, nil
	}
	if req.ClearProductLine {
		lineID = nil
	}
	if req.BrandID != nil {
		brandID = req.BrandID
		if req.ProductLineID == nil && lineID != nil {
			line, err := s.catalog.GetProductLine(ctx, *lineID)
			if err != nil || line.BrandID != *brandID {
				lineID = nil
			}
		}
	}
	if req.ProductLineID != nil {
		lineID = req.ProductLineID
		if req.BrandID == nil {
			brandID = nil
		}
	}
	if product.BrandID, product.ProductLineID, err = s.resolveParents(ctx, brandID, lineID); err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, slugConflict(err)
	}

	s.publish(ctx, events.ActionUpdated, product)
	return product, nil
}

// SetEnabled toggles storefront visibility
func (s *ProductService) SetEnabled(ctx context.Context, id uint, enabled bool) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Enabled = enabled
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, events.ActionUpdated, product)
	return product, nil
}

// Delete removes a product and drops it from every featured list
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.ActionDeleted, &models.Product{ID: id})
	return nil
}

// resolveParents checks that the brand and product line exist and agree.
// A product line without a brand takes its brand from the line.
func (s *ProductService) resolveParents(ctx context.Context, brandID, lineID *uint) (*uint, *uint, error) {
	brandID, lineID = zeroToNil(brandID), zeroToNil(lineID)

	if lineID != nil {
		line, err := s.catalog.GetProductLine(ctx, *lineID)
		if err != nil {
			return nil, nil, err
		}
		if brandID == nil {
			brandID = &line.BrandID
		} else if *brandID != line.BrandID {
			return nil, nil, newValidationError("productLineId", "product line does not belong to the selected brand")
		}
	}
	if brandID != nil {
		if _, err := s.catalog.GetBrand(ctx, *brandID); err != nil {
			return nil, nil, err
		}
	}
	return brandID, lineID, nil
}

func (s *ProductService) slugChecker(excludeID uint) slugTaken {
	return func(ctx context.Context, slug string) (bool, error) {
		return s.products.SlugExists(ctx, slug, excludeID)
	}
}

func (s *ProductService) publish(ctx context.Context, action string, product *models.Product) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCatalogEvent(ctx, productEntity, action, product.ID, product.Name, product.Slug, nil); err != nil {
		s.logger.WithError(err).WithField("product_id", product.ID).Warn("Failed to publish product event")
	}
}

func zeroToNil(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}
