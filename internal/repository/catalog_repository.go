package repository

import (
	"catalog-service/internal/models"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrBrandNotFound       = errors.New("brand not found")
	ErrProductLineNotFound = errors.New("product line not found")
	ErrInvalidReorder      = errors.New("invalid reorder request")
	ErrSlugTaken           = errors.New("slug already in use")
)

type CatalogRepository struct {
	db    *gorm.DB
	cache *listCache
}

func NewCatalogRepository(db *gorm.DB, redis *redis.Client) *CatalogRepository {
	return &CatalogRepository{
		db:    db,
		cache: newListCache(redis),
	}
}

// ============================================================================
// Categories
// ============================================================================

// ListCategories returns categories ordered by display order
func (r *CatalogRepository) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	cacheKey := r.cache.key("categories", activeOnly)
	var categories []models.Category
	if r.cache.get(ctx, cacheKey, &categories) {
		return categories, nil
	}

	query := r.db.WithContext(ctx).Order("display_order ASC, id ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	r.cache.set(ctx, cacheKey, categories, CatalogListCacheTTL)
	return categories, nil
}

// GetCategory retrieves a category by ID
func (r *CatalogRepository) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFound(err, ErrCategoryNotFound)
	}
	return &category, nil
}

// GetCategoryBySlug retrieves a category by its slug
func (r *CatalogRepository) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, notFound(err, ErrCategoryNotFound)
	}
	return &category, nil
}

// CreateCategory inserts a category after the last existing one
func (r *CatalogRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := nextDisplayOrder(tx, models.Category{}.TableName(), "", 0)
		if err != nil {
			return err
		}
		category.DisplayOrder = order
		ensureFeatured(&category.FeaturedProductIDs)
		return tx.Create(category).Error
	})
	if err != nil {
		return writeError("create category", err)
	}
	r.cache.invalidate(ctx)
	return nil
}

// UpdateCategory writes only the given columns of the category
func (r *CatalogRepository) UpdateCategory(ctx context.Context, category *models.Category, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	ensureFeatured(&category.FeaturedProductIDs)
	if err := r.db.WithContext(ctx).Model(category).Select(updateColumns(columns)).Updates(category).Error; err != nil {
		return writeError("update category", err)
	}
	r.cache.invalidate(ctx)
	return nil
}

func updateColumns(columns []string) []string {
	return append(append([]string{}, columns...), "updated_at")
}

// DeleteCategory removes a category together with its brands and their
// product lines. Products in the subtree are detached, not deleted.
func (r *CatalogRepository) DeleteCategory(ctx context.Context, id uint) (*models.CascadeDeleteResult, error) {
	result := &models.CascadeDeleteResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Select("id").First(&category, id).Error; err != nil {
			return notFound(err, ErrCategoryNotFound)
		}

		var brandIDs []uint
		if err := tx.Model(&models.Brand{}).Where("category_id = ?", id).Pluck("id", &brandIDs).Error; err != nil {
			return err
		}
		if err := deleteBrandsCascade(tx, brandIDs, result); err != nil {
			return err
		}

		if err := tx.Delete(&models.Category{}, id).Error; err != nil {
			return err
		}
		result.CategoriesDeleted = 1
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete category: %w", err)
	}

	r.cache.invalidate(ctx)
	return result, nil
}

// ReorderCategories assigns display orders matching the position of each id
func (r *CatalogRepository) ReorderCategories(ctx context.Context, orderedIDs []uint) error {
	return r.reorder(ctx, models.Category{}.TableName(), "", 0, orderedIDs)
}

// ============================================================================
// Brands
// ============================================================================

// ListBrands returns brands ordered by display order, optionally limited to one category
func (r *CatalogRepository) ListBrands(ctx context.Context, categoryID *uint, activeOnly bool) ([]models.Brand, error) {
	scope := "all"
	if categoryID != nil {
		scope = fmt.Sprint(*categoryID)
	}
	cacheKey := r.cache.key("brands", scope, activeOnly)
	var brands []models.Brand
	if r.cache.get(ctx, cacheKey, &brands) {
		return brands, nil
	}

	query := r.db.WithContext(ctx).Order("display_order ASC, id ASC")
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&brands).Error; err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}

	r.cache.set(ctx, cacheKey, brands, CatalogListCacheTTL)
	return brands, nil
}

// GetBrand retrieves a brand by ID
func (r *CatalogRepository) GetBrand(ctx context.Context, id uint) (*models.Brand, error) {
	var brand models.Brand
	if err := r.db.WithContext(ctx).First(&brand, id).Error; err != nil {
		return nil, notFound(err, ErrBrandNotFound)
	}
	return &brand, nil
}

// GetBrandBySlug retrieves a brand by its slug
func (r *CatalogRepository) GetBrandBySlug(ctx context.Context, slug string) (*models.Brand, error) {
	var brand models.Brand
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&brand).Error; err != nil {
		return nil, notFound(err, ErrBrandNotFound)
	}
	return &brand, nil
}

// CreateBrand inserts a brand after the last brand of its category
func (r *CatalogRepository) CreateBrand(ctx context.Context, brand *models.Brand) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := nextDisplayOrder(tx, models.Brand{}.TableName(), "category_id", brand.CategoryID)
		if err != nil {
			return err
		}
		brand.DisplayOrder = order
		ensureFeatured(&brand.FeaturedProductIDs)
		return tx.Create(brand).Error
	})
	if err != nil {
		return writeError("create brand", err)
	}
	r.cache.invalidate(ctx)
	return nil
}

// UpdateBrand writes only the given columns of the brand
func (r *CatalogRepository) UpdateBrand(ctx context.Context, brand *models.Brand, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	ensureFeatured(&brand.FeaturedProductIDs)
	if err := r.db.WithContext(ctx).Model(brand).Select(updateColumns(columns)).Updates(brand).Error; err != nil {
		return writeError("update brand", err)
	}
	r.cache.invalidate(ctx)
	return nil
}

// DeleteBrand removes a brand and its product lines, detaching their products
func (r *CatalogRepository) DeleteBrand(ctx context.Context, id uint) (*models.CascadeDeleteResult, error) {
	result := &models.CascadeDeleteResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var brand models.Brand
		if err := tx.Select("id").First(&brand, id).Error; err != nil {
			return notFound(err, ErrBrandNotFound)
		}
		return deleteBrandsCascade(tx, []uint{id}, result)
	})
	if err != nil {
		if errors.Is(err, ErrBrandNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete brand: %w", err)
	}

	r.cache.invalidate(ctx)
	return result, nil
}

// ReorderBrands assigns display orders within one category
func (r *CatalogRepository) ReorderBrands(ctx context.Context, categoryID uint, orderedIDs []uint) error {
	return r.reorder(ctx, models.Brand{}.TableName(), "category_id", categoryID, orderedIDs)
}

// ============================================================================
// Product lines
// ============================================================================

// ListProductLines returns product lines ordered by display order, optionally limited to one brand
func (r *CatalogRepository) ListProductLines(ctx context.Context, brandID *uint, activeOnly bool) ([]models.ProductLine, error) {
	scope := "all"
	if brandID != nil {
		scope = fmt.Sprint(*brandID)
	}
	cacheKey := r.cache.key("product-lines", scope, activeOnly)
	var lines []models.ProductLine
	if r.cache.get(ctx, cacheKey, &lines) {
		return lines, nil
	}

	query := r.db.WithContext(ctx).Order("display_order ASC, id ASC")
	if brandID != nil {
		query = query.Where("brand_id = ?", *brandID)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("failed to list product lines: %w", err)
	}

	r.cache.set(ctx, cacheKey, lines, CatalogListCacheTTL)
	return lines, nil
}

// GetProductLine retrieves a product line by ID
func (r *CatalogRepository) GetProductLine(ctx context.Context, id uint) (*models.ProductLine, error) {
	var line models.ProductLine
	if err := r.db.WithContext(ctx).First(&line, id).Error; err != nil {
		return nil, notFound(err, ErrProductLineNotFound)
	}
	return &line, nil
}

// GetProductLineBySlug retrieves a product line by its slug
func (r *CatalogRepository) GetProductLineBySlug(ctx context.Context, slug string) (*models.ProductLine, error) {
	var line models.ProductLine
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&line).Error; err != nil {
		return nil, notFound(err, ErrProductLineNotFound)
	}
	return &line, nil
}

// CreateProductLine inserts a product line after the last line of its brand
func (r *CatalogRepository) CreateProductLine(ctx context.Context, line *models.ProductLine) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := nextDisplayOrder(tx, models.ProductLine{}.TableName(), "brand_id", line.BrandID)
		if err != nil {
			return err
		}
		line.DisplayOrder = order
		ensureFeatured(&line.FeaturedProductIDs)
		return tx.Create(line).Error
	})
	if err != nil {
		return writeError("create product line", err)
	}
	r.cache.invalidate(ctx)
	return nil
}

// UpdateProductLine writes only the given columns of the product line
func (r *CatalogRepository) UpdateProductLine(ctx context.Context, line *models.ProductLine, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	ensureFeatured(&line.FeaturedProductIDs)
	if err := r.db.WithContext(ctx).Model(line).Select(updateColumns(columns)).Updates(line).Error; err != nil {
		return writeError("update product line", err)
	}
	r.cache.invalidate(ctx)
	return nil
}

// DeleteProductLine removes a product line and detaches its products
func (r *CatalogRepository) DeleteProductLine(ctx context.Context, id uint) (*models.CascadeDeleteResult, error) {
	result := &models.CascadeDeleteResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var line models.ProductLine
		if err := tx.Select("id").First(&line, id).Error; err != nil {
			return notFound(err, ErrProductLineNotFound)
		}

		detached := tx.Model(&models.Product{}).
			Where("product_line_id = ?", id).
			Updates(map[string]interface{}{"product_line_id": nil, "updated_at": time.Now()})
		if detached.Error != nil {
			return detached.Error
		}
		result.ProductsDetached = int(detached.RowsAffected)

		if err := tx.Delete(&models.ProductLine{}, id).Error; err != nil {
			return err
		}
		result.ProductLinesDeleted = 1
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrProductLineNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete product line: %w", err)
	}

	r.cache.invalidate(ctx)
	return result, nil
}

// ReorderProductLines assigns display orders within one brand
func (r *CatalogRepository) ReorderProductLines(ctx context.Context, brandID uint, orderedIDs []uint) error {
	return r.reorder(ctx, models.ProductLine{}.TableName(), "brand_id", brandID, orderedIDs)
}

// ============================================================================
// Shared operations
// ============================================================================

// SetFeatured overwrites the featured product list of a node
func (r *CatalogRepository) SetFeatured(ctx context.Context, level models.NodeLevel, id uint, productIDs []uint) error {
	table := models.TableForLevel(level)
	if table == "" {
		return fmt.Errorf("unknown catalog level %q", level)
	}

	featured := models.ProductIDs(productIDs)
	ensureFeatured(&featured)

	result := r.db.WithContext(ctx).Table(table).
		Where("id = ?", id).
		Updates(map[string]interface{}{"featured_product_ids": featured, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("failed to set featured products: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return levelNotFound(level)
	}

	r.cache.invalidate(ctx)
	return nil
}

// SlugExists checks whether a slug is used by another node of the same level
func (r *CatalogRepository) SlugExists(ctx context.Context, level models.NodeLevel, slug string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Table(models.TableForLevel(level)).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// GetTree loads the full hierarchy with every level in display order
func (r *CatalogRepository) GetTree(ctx context.Context, activeOnly bool) (*models.CatalogTree, error) {
	cacheKey := r.cache.key("tree", activeOnly)
	var tree models.CatalogTree
	if r.cache.get(ctx, cacheKey, &tree) {
		return &tree, nil
	}

	scoped := func(db *gorm.DB) *gorm.DB {
		db = db.Order("display_order ASC, id ASC")
		if activeOnly {
			db = db.Where("is_active = ?", true)
		}
		return db
	}

	query := r.db.WithContext(ctx).
		Preload("Brands", scoped).
		Preload("Brands.ProductLines", scoped).
		Order("display_order ASC, id ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	tree.Categories = []models.Category{}
	if err := query.Find(&tree.Categories).Error; err != nil {
		return nil, fmt.Errorf("failed to load catalog tree: %w", err)
	}

	r.cache.set(ctx, cacheKey, tree, CatalogTreeCacheTTL)
	return &tree, nil
}

// reorder runs reorderSiblings in a transaction and drops cached listings
func (r *CatalogRepository) reorder(ctx context.Context, table, scopeColumn string, scopeValue uint, orderedIDs []uint) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return reorderSiblings(tx, table, scopeColumn, scopeValue, orderedIDs)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidReorder) {
			return err
		}
		return fmt.Errorf("failed to reorder %s: %w", table, err)
	}
	r.cache.invalidate(ctx)
	return nil
}

// reorderSiblings sets display_order to each id's index in orderedIDs.
// Siblings left out of orderedIDs follow in their previous relative order.
func reorderSiblings(tx *gorm.DB, table, scopeColumn string, scopeValue uint, orderedIDs []uint) error {
	var current []uint
	query := tx.Table(table).Order("display_order ASC, id ASC")
	if scopeColumn != "" {
		query = query.Where(scopeColumn+" = ?", scopeValue)
	}
	if err := query.Pluck("id", &current).Error; err != nil {
		return err
	}

	inGroup := make(map[uint]bool, len(current))
	for _, id := range current {
		inGroup[id] = true
	}
	seen := make(map[uint]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if !inGroup[id] {
			return fmt.Errorf("%w: id %d is not part of this group", ErrInvalidReorder, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: id %d appears more than once", ErrInvalidReorder, id)
		}
		seen[id] = true
	}

	final := make([]uint, 0, len(current))
	final = append(final, orderedIDs...)
	for _, id := range current {
		if !seen[id] {
			final = append(final, id)
		}
	}

	now := time.Now()
	for position, id := range final {
		err := tx.Table(table).
			Where("id = ?", id).
			Updates(map[string]interface{}{"display_order": position, "updated_at": now}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// deleteBrandsCascade deletes the given brands and their product lines and
// detaches every product that pointed into them
func deleteBrandsCascade(tx *gorm.DB, brandIDs []uint, result *models.CascadeDeleteResult) error {
	if len(brandIDs) == 0 {
		return nil
	}

	var lineIDs []uint
	if err := tx.Model(&models.ProductLine{}).Where("brand_id IN ?", brandIDs).Pluck("id", &lineIDs).Error; err != nil {
		return err
	}

	affected := tx.Model(&models.Product{}).Where("brand_id IN ?", brandIDs)
	if len(lineIDs) > 0 {
		affected = affected.Or("product_line_id IN ?", lineIDs)
	}
	var detached int64
	if err := affected.Count(&detached).Error; err != nil {
		return err
	}

	now := time.Now()
	if len(lineIDs) > 0 {
		err := tx.Model(&models.Product{}).
			Where("product_line_id IN ?", lineIDs).
			Updates(map[string]interface{}{"product_line_id": nil, "updated_at": now}).Error
		if err != nil {
			return err
		}
	}
	err := tx.Model(&models.Product{}).
		Where("brand_id IN ?", brandIDs).
		Updates(map[string]interface{}{"brand_id": nil, "product_line_id": nil, "updated_at": now}).Error
	if err != nil {
		return err
	}

	lines := tx.Where("brand_id IN ?", brandIDs).Delete(&models.ProductLine{})
	if lines.Error != nil {
		return lines.Error
	}
	brands := tx.Where("id IN ?", brandIDs).Delete(&models.Brand{})
	if brands.Error != nil {
		return brands.Error
	}

	result.ProductLinesDeleted += int(lines.RowsAffected)
	result.BrandsDeleted += int(brands.RowsAffected)
	result.ProductsDetached += int(detached)
	return nil
}

// featuredRow is the projection used when pruning featured lists
type featuredRow struct {
	ID                 uint              `gorm:"column:id"`
	FeaturedProductIDs models.ProductIDs `gorm:"column:featured_product_ids"`
}

// pruneFeaturedProduct removes a product id from every featured list
func pruneFeaturedProduct(tx *gorm.DB, productID uint) error {
	for _, level := range []models.NodeLevel{models.LevelCategory, models.LevelBrand, models.LevelProductLine} {
		table := models.TableForLevel(level)

		var rows []featuredRow
		if err := tx.Table(table).Select("id", "featured_product_ids").Find(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			kept := make(models.ProductIDs, 0, len(row.FeaturedProductIDs))
			for _, id := range row.FeaturedProductIDs {
				if id != productID {
					kept = append(kept, id)
				}
			}
			if len(kept) == len(row.FeaturedProductIDs) {
				continue
			}
			err := tx.Table(table).
				Where("id = ?", row.ID).
				Update("featured_product_ids", kept).Error
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func nextDisplayOrder(tx *gorm.DB, table, scopeColumn string, scopeValue uint) (int, error) {
	var last sql.NullInt64
	query := tx.Table(table).Select("MAX(display_order)")
	if scopeColumn != "" {
		query = query.Where(scopeColumn+" = ?", scopeValue)
	}
	if err := query.Row().Scan(&last); err != nil {
		return 0, err
	}
	if !last.Valid {
		return 0, nil
	}
	return int(last.Int64) + 1, nil
}

func ensureFeatured(ids *models.ProductIDs) {
	if *ids == nil {
		*ids = models.ProductIDs{}
	}
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func levelNotFound(level models.NodeLevel) error {
	switch level {
	case models.LevelBrand:
		return ErrBrandNotFound
	case models.LevelProductLine:
		return ErrProductLineNotFound
	}
	return ErrCategoryNotFound
}

// writeError maps unique violations to ErrSlugTaken and wraps the rest
func writeError(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSlugTaken
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
