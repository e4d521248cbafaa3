package services

import (
	"catalog-service/internal/events"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Messages shared with the operator client
const (
	MsgNameRequired     = "name is required"
	MsgCategoryRequired = "Please select a category"
	MsgBrandRequired    = "Please select a brand"
)

// EventPublisher is the subset of the events publisher the services use
type EventPublisher interface {
	PublishCatalogEvent(ctx context.Context, entity, action string, id uint, name, slug string, metadata map[string]interface{}) error
	PublishOrderEvent(ctx context.Context, eventType string, order *models.Order) error
}

// CatalogService holds the rules of the category / brand / product line hierarchy
type CatalogService struct {
	catalog        *repository.CatalogRepository
	products       *repository.ProductRepository
	publisher      EventPublisher
	requireSubtree bool
	logger         *logrus.Entry
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(catalog *repository.CatalogRepository, products *repository.ProductRepository, publisher EventPublisher, requireSubtree bool, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		catalog:        catalog,
		products:       products,
		publisher:      publisher,
		requireSubtree: requireSubtree,
		logger:         logger.WithField("component", "services.catalog"),
	}
}

// ============================================================================
// Categories
// ============================================================================

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.catalog.ListCategories(ctx, false)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	return s.catalog.GetCategory(ctx, id)
}

// CreateCategory validates and stores a new category at the end of the list
func (s *CatalogService) CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	name, err := requireName(req.Name)
	if err != nil {
		return nil, err
	}
	slug, err := resolveSlug(ctx, req.Slug, name, "category", s.slugChecker(models.LevelCategory, 0))
	if err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:     name,
		Slug:     slug,
		Image:    req.Image,
		IsActive: boolOrDefault(req.IsActive, true),
	}
	if err := s.catalog.CreateCategory(ctx, category); err != nil {
		return nil, slugConflict(err)
	}

	s.publishCatalog(ctx, models.LevelCategory, events.ActionCreated, category.ID, category.Name, category.Slug, nil)
	return category, nil
}

// UpdateCategory applies a partial update
func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, req models.UpdateNodeRequest) (*models.Category, error) {
	category, err := s.catalog.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if req.Name != nil {
		if category.Name, err = requireName(*req.Name); err != nil {
			return nil, err
		}
		columns = append(columns, "name")
	}
	if req.Slug != nil {
		if category.Slug, err = resolveSlug(ctx, req.Slug, category.Name, "category", s.slugChecker(models.LevelCategory, id)); err != nil {
			return nil, err
		}
		columns = append(columns, "slug")
	}
	if req.Image != nil {
		category.Image = emptyToNil(req.Image)
		columns = append(columns, "image")
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
		columns = append(columns, "is_active")
	}
	if req.DisplayOrder != nil {
		category.DisplayOrder = *req.DisplayOrder
		columns = append(columns, "display_order")
	}
	if req.FeaturedProductIDs != nil {
		ids, err := s.validateFeatured(ctx, models.LevelCategory, id, *req.FeaturedProductIDs)
		if err != nil {
			return nil, err
		}
		category.FeaturedProductIDs = ids
		columns = append(columns, "featured_product_ids")
	}

	if err := s.catalog.UpdateCategory(ctx, category, columns...); err != nil {
		return nil, slugConflict(err)
	}

	s.publishCatalog(ctx, models.LevelCategory, events.ActionUpdated, category.ID, category.Name, category.Slug, nil)
	return category, nil
}

// DeleteCategory removes a category with its brands and product lines
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) (*models.CascadeDeleteResult, error) {
	result, err := s.catalog.DeleteCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishCatalog(ctx, models.LevelCategory, events.ActionDeleted, id, "", "", cascadeMetadata(result))
	return result, nil
}

// ReorderCategories persists the full category order
func (s *CatalogService) ReorderCategories(ctx context.Context, orderedIDs []uint) error {
	if err := s.catalog.ReorderCategories(ctx, orderedIDs); err != nil {
		return err
	}
	if len(orderedIDs) > 0 {
		s.publishCatalog(ctx, models.LevelCategory, events.ActionReordered, 0, "", "", map[string]interface{}{"orderedIds": orderedIDs})
	}
	return nil
}

// ============================================================================
// Brands
// ============================================================================

func (s *CatalogService) ListBrands(ctx context.Context, categoryID *uint) ([]models.Brand, error) {
	return s.catalog.ListBrands(ctx, categoryID, false)
}

func (s *CatalogService) GetBrand(ctx context.Context, id uint) (*models.Brand, error) {
	return s.catalog.GetBrand(ctx, id)
}

// CreateBrand validates and stores a new brand at the end of its category
func (s *CatalogService) CreateBrand(ctx context.Context, req models.CreateBrandRequest) (*models.Brand, error) {
	name, err := requireName(req.Name)
	if err != nil {
		return nil, err
	}
	if req.CategoryID == 0 {
		return nil, newValidationError("categoryId", MsgCategoryRequired)
	}
	if _, err := s.catalog.GetCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	slug, err := resolveSlug(ctx, req.Slug, name, "brand", s.slugChecker(models.LevelBrand, 0))
	if err != nil {
		return nil, err
	}

	brand := &models.Brand{
		Name:       name,
		Slug:       slug,
		CategoryID: req.CategoryID,
		Logo:       req.Logo,
		IsActive:   boolOrDefault(req.IsActive, true),
	}
	if err := s.catalog.CreateBrand(ctx, brand); err != nil {
		return nil, slugConflict(err)
	}

	s.publishCatalog(ctx, models.LevelBrand, events.ActionCreated, brand.ID, brand.Name, brand.Slug, nil)
	return brand, nil
}

// UpdateBrand applies a partial update
func (s *CatalogService) UpdateBrand(ctx context.Context, id uint, req models.UpdateNodeRequest) (*models.Brand, error) {
	brand, err := s.catalog.GetBrand(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if req.Name != nil {
		if brand.Name, err = requireName(*req.Name); err != nil {
			return nil, err
		}
		columns = append(columns, "name")
	}
	if req.CategoryID != nil {
		if *req.CategoryID == 0 {
			return nil, newValidationError("categoryId", MsgCategoryRequired)
		}
		if _, err := s.catalog.GetCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		brand.CategoryID = *req.CategoryID
		columns = append(columns, "category_id")
	}
	if req.Slug != nil {
		if brand.Slug, err = resolveSlug(ctx, req.Slug, brand.Name, "brand", s.slugChecker(models.LevelBrand, id)); err != nil {
			return nil, err
		}
		columns = append(columns, "slug")
	}
	if req.Logo != nil {
		brand.Logo = emptyToNil(req.Logo)
		columns = append(columns, "logo")
	}
	if req.IsActive != nil {
		brand.IsActive = *req.IsActive
		columns = append(columns, "is_active")
	}
	if req.DisplayOrder != nil {
		brand.DisplayOrder = *req.DisplayOrder
		columns = append(columns, "display_order")
	}
	if req.FeaturedProductIDs != nil {
		ids, err := s.validateFeatured(ctx, models.LevelBrand, id, *req.FeaturedProductIDs)
		if err != nil {
			return nil, err
		}
		brand.FeaturedProductIDs = ids
		columns = append(columns, "featured_product_ids")
	}

	if err := s.catalog.UpdateBrand(ctx, brand, columns...); err != nil {
		return nil, slugConflict(err)
	}

	s.publishCatalog(ctx, models.LevelBrand, events.ActionUpdated, brand.ID, brand.Name, brand.Slug, nil)
	return brand, nil
}

// DeleteBrand removes a brand with its product lines
func (s *CatalogService) DeleteBrand(ctx context.Context, id uint) (*models.CascadeDeleteResult, error) {
	result, err := s.catalog.DeleteBrand(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishCatalog(ctx, models.LevelBrand, events.ActionDeleted, id, "", "", cascadeMetadata(result))
	return result, nil
}

// ReorderBrands persists the order of one category's brands
func (s *CatalogService) ReorderBrands(ctx context.Context, categoryID uint, orderedIDs []uint) error {
	if categoryID == 0 {
		return newValidationError("categoryId", MsgCategoryRequired)
	}
	if _, err := s.catalog.GetCategory(ctx, categoryID); err != nil {
		return err
	}
	if err := s.catalog.ReorderBrands(ctx, categoryID, orderedIDs); err != nil {
		return err
	}
	if len(orderedIDs) > 0 {
		s.publishCatalog(ctx, models.LevelBrand, events.ActionReordered, categoryID, "", "", map[string]interface{}{"orderedIds": orderedIDs})
	}
	return nil
}

// ============================================================================
// Product lines
// ============================================================================

func (s *CatalogService) ListProductLines(ctx context.Context, brandID *uint) ([]models.ProductLine, error) {
	return s.catalog.ListProductLines(ctx, brandID, false)
}

func (s *CatalogService) GetProductLine(ctx context.Context, id uint) (*models.ProductLine, error) {
	return s.catalog.GetProductLine(ctx, id)
}

// CreateProductLine validates and stores a new product line at the end of its brand
func (s *CatalogService) CreateProductLine(ctx context.Context, req models.CreateProductLineRequest) (*models.ProductLine, error) {
	name, err := requireName(req.Name)
	if err != nil {
		return nil, err
	}
	if req.BrandID == 0 {
		return nil, newValidationError("brandId", MsgBrandRequired)
	}
	if _, err := s.catalog.GetBrand(ctx, req.BrandID); err != nil {
		return nil, err
	}
	slug, err := resolveSlug(ctx, req.Slug, name, "product-line", s.slugChecker(models.LevelProductLine, 0))
	if err != nil {
		return nil, err
	}

	line := &models.ProductLine{
		Name:     name,
		Slug:     slug,
		BrandID:  req.BrandID,
		Logo:     req.Logo,
		IsActive: boolOrDefault(req.IsActive, true),
	}
	if err := s.catalog.CreateProductLine(ctx, line); err != nil {
		return nil, slugConflict(err)
	}

	s.publishCatalog(ctx, models.LevelProductLine, events.ActionCreated, line.ID, line.Name, line.Slug, nil)
	return line, nil
}

// UpdateProductLine applies a partial update
func (s *CatalogService) UpdateProductLine(ctx context.Context, id uint, req models.UpdateNodeRequest) (*models.ProductLine, error) {
	line, err := s.catalog.GetProductLine(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if req.Name != nil {
		if line.Name, err = requireName(*req.Name); err != nil {
			return nil, err
		}
		columns = append(columns, "name")
	}
	if req.BrandID != nil {
		if *req.BrandID == 0 {
			return nil, newValidationError("brandId", MsgBrandRequired)
		}
		if _, err := s.catalog.GetBrand(ctx, *req.BrandID); err != nil {
			return nil, err
		}
		line.BrandID = *req.BrandID
		columns = append(columns, "brand_id")
	}
	if req.Slug != nil {
		if line.Slug, err = resolveSlug(ctx, req.Slug, line.Name, "product-line", s.slugChecker(models.LevelProductLine, id)); err != nil {
			return nil, err
		}
		columns = append(columns, "slug")
	}
	if req.Logo != nil {
		line.Logo = emptyToNil(req.Logo)
		columns = append(columns, "logo")
	}
	if req.IsActive != nil {
		line.IsActive = *req.IsActive
		columns = append(columns, "is_active")
	}
	if req.DisplayOrder != nil {
		line.DisplayOrder = *req.DisplayOrder
		columns = append(columns, "display_order")
	}
	if req.FeaturedProductIDs != nil {
		ids, err := s.validateFeatured(ctx, models.LevelProductLine, id, *req.FeaturedProductIDs)
		if err != nil {
			return nil, err
		}
		line.FeaturedProductIDs = ids
		columns = append(columns, "featured_product_ids")
	}

	if err := s.catalog.UpdateProductLine(ctx, line, columns...); err != nil {
		return nil, slugConflict(err)
	}

	s.publishCatalog(ctx, models.LevelProductLine, events.ActionUpdated, line.ID, line.Name, line.Slug, nil)
	return line, nil
}

// DeleteProductLine removes a product line and detaches its products
func (s *CatalogService) DeleteProductLine(ctx context.Context, id uint) (*models.CascadeDeleteResult, error) {
	result, err := s.catalog.DeleteProductLine(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishCatalog(ctx, models.LevelProductLine, events.ActionDeleted, id, "", "", cascadeMetadata(result))
	return result, nil
}

// ReorderProductLines persists the order of one brand's product lines
func (s *CatalogService) ReorderProductLines(ctx context.Context, brandID uint, orderedIDs []uint) error {
	if brandID == 0 {
		return newValidationError("brandId", MsgBrandRequired)
	}
	if _, err := s.catalog.GetBrand(ctx, brandID); err != nil {
		return err
	}
	if err := s.catalog.ReorderProductLines(ctx, brandID, orderedIDs); err != nil {
		return err
	}
	if len(orderedIDs) > 0 {
		s.publishCatalog(ctx, models.LevelProductLine, events.ActionReordered, brandID, "", "", map[string]interface{}{"orderedIds": orderedIDs})
	}
	return nil
}

// ============================================================================
// Featured products and tree
// ============================================================================

// SetFeatured overwrites a node's featured list and returns the stored ids
func (s *CatalogService) SetFeatured(ctx context.Context, level models.NodeLevel, id uint, productIDs []uint) ([]uint, error) {
	if !level.Valid() {
		return nil, newValidationError("type", fmt.Sprintf("unknown catalog level %q", level))
	}
	if _, err := s.getNode(ctx, level, id); err != nil {
		return nil, err
	}
	ids, err := s.validateFeatured(ctx, level, id, productIDs)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.SetFeatured(ctx, level, id, ids); err != nil {
		return nil, err
	}

	s.publishCatalog(ctx, level, events.ActionFeatured, id, "", "", map[string]interface{}{"productIds": []uint(ids)})
	return ids, nil
}

// GetTree returns the whole hierarchy for the admin manager
func (s *CatalogService) GetTree(ctx context.Context) (*models.CatalogTree, error) {
	return s.catalog.GetTree(ctx, false)
}

// validateFeatured collapses duplicates and rejects ids that are missing,
// disabled or (when configured) outside the node's subtree
func (s *CatalogService) validateFeatured(ctx context.Context, level models.NodeLevel, id uint, productIDs []uint) (models.ProductIDs, error) {
	ids := dedupeIDs(productIDs)
	if len(ids) == 0 {
		return ids, nil
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	enabled := make(map[uint]bool, len(products))
	for _, p := range products {
		enabled[p.ID] = p.Enabled
	}

	var invalid []uint
	for _, pid := range ids {
		if !enabled[pid] {
			invalid = append(invalid, pid)
		}
	}
	if len(invalid) > 0 {
		return nil, &ValidationError{
			Code:    "INVALID_FEATURED_PRODUCTS",
			Field:   "productIds",
			Message: fmt.Sprintf("featured products must exist and be enabled: %v", invalid),
		}
	}

	if s.requireSubtree {
		subtree, err := s.products.ListEnabledInSubtree(ctx, level, id)
		if err != nil {
			return nil, err
		}
		inSubtree := make(map[uint]bool, len(subtree))
		for _, p := range subtree {
			inSubtree[p.ID] = true
		}
		for _, pid := range ids {
			if !inSubtree[pid] {
				invalid = append(invalid, pid)
			}
		}
		if len(invalid) > 0 {
			return nil, &ValidationError{
				Code:    "INVALID_FEATURED_PRODUCTS",
				Field:   "productIds",
				Message: fmt.Sprintf("featured products must belong to this %s: %v", level, invalid),
			}
		}
	}

	return ids, nil
}

func (s *CatalogService) getNode(ctx context.Context, level models.NodeLevel, id uint) (interface{}, error) {
	switch level {
	case models.LevelCategory:
		return s.catalog.GetCategory(ctx, id)
	case models.LevelBrand:
		return s.catalog.GetBrand(ctx, id)
	default:
		return s.catalog.GetProductLine(ctx, id)
	}
}

func (s *CatalogService) slugChecker(level models.NodeLevel, excludeID uint) slugTaken {
	return func(ctx context.Context, slug string) (bool, error) {
		return s.catalog.SlugExists(ctx, level, slug, excludeID)
	}
}

func (s *CatalogService) publishCatalog(ctx context.Context, level models.NodeLevel, action string, id uint, name, slug string, metadata map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCatalogEvent(ctx, string(level), action, id, name, slug, metadata); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"level":  level,
			"action": action,
			"id":     id,
		}).Warn("Failed to publish catalog event")
	}
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", newValidationError("name", MsgNameRequired)
	}
	return name, nil
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func emptyToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	return v
}

func dedupeIDs(ids []uint) models.ProductIDs {
	out := make(models.ProductIDs, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func cascadeMetadata(result *models.CascadeDeleteResult) map[string]interface{} {
	return map[string]interface{}{
		"brandsDeleted":       result.BrandsDeleted,
		"productLinesDeleted": result.ProductLinesDeleted,
		"productsDetached":    result.ProductsDetached,
	}
}
