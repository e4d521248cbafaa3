package repository

import (
	"catalog-service/internal/models"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository struct {
	db    *gorm.DB
	cache *listCache
}

func NewProductRepository(db *gorm.DB, redis *redis.Client) *ProductRepository {
	return &ProductRepository{
		db:    db,
		cache: newListCache(redis),
	}
}

// List returns products matching the filters, ordered by name
func (r *ProductRepository) List(ctx context.Context, filters models.ProductFilters) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filters.BrandID != nil {
		query = query.Where("brand_id = ?", *filters.BrandID)
	}
	if filters.ProductLineID != nil {
		query = query.Where("product_line_id = ?", *filters.ProductLineID)
	}
	if filters.Enabled != nil {
		query = query.Where("enabled = ?", *filters.Enabled)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	products := []models.Product{}
	query = query.Order("name ASC, id ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit).Offset(filters.Offset)
	}
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return &product, nil
}

// GetByIDs returns the products with the given ids; missing ids are skipped
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return products, nil
}

// ListEnabledInSubtree returns the enabled products under a catalog node.
// A category's products are those whose brand belongs to it.
func (r *ProductRepository) ListEnabledInSubtree(ctx context.Context, level models.NodeLevel, nodeID uint) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Where("enabled = ?", true)
	switch level {
	case models.LevelCategory:
		brands := r.db.Model(&models.Brand{}).Select("id").Where("category_id = ?", nodeID)
		query = query.Where("brand_id IN (?)", brands)
	case models.LevelBrand:
		query = query.Where("brand_id = ?", nodeID)
	case models.LevelProductLine:
		query = query.Where("product_line_id = ?", nodeID)
	default:
		return nil, fmt.Errorf("unknown catalog level %q", level)
	}

	products := []models.Product{}
	if err := query.Order("name ASC, id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// SlugExists checks whether another product already uses the slug
func (r *ProductRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return writeError("create product", err)
	}
	return nil
}

// Update saves the product. Disabling a product also removes it from every
// featured list in the same transaction.
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(product).Error; err != nil {
			return err
		}
		if !product.Enabled {
			return pruneFeaturedProduct(tx, product.ID)
		}
		return nil
	})
	if err != nil {
		return writeError("update product", err)
	}
	if !product.Enabled {
		r.cache.invalidate(ctx)
	}
	return nil
}

// Delete removes a product and prunes it from featured lists
func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Product{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return pruneFeaturedProduct(tx, id)
	})
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	r.cache.invalidate(ctx)
	return nil
}
