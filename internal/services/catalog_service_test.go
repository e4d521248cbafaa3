package services

import (
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	catalog     *CatalogService
	products    *ProductService
	storefront  *StorefrontService
	productRepo *repository.ProductRepository
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func newTestEnv(t *testing.T, requireSubtree bool) *testEnv {
	db := setupTestDB(t)
	catalogRepo := repository.NewCatalogRepository(db, nil)
	productRepo := repository.NewProductRepository(db, nil)
	log := quietLogger()
	return &testEnv{
		catalog:     NewCatalogService(catalogRepo, productRepo, nil, requireSubtree, log),
		products:    NewProductService(productRepo, catalogRepo, nil, log),
		storefront:  NewStorefrontService(catalogRepo, productRepo),
		productRepo: productRepo,
	}
}

func boolPtr(v bool) *bool     { return &v }
func strPtr(v string) *string  { return &v }
func idsPtr(v ...uint) *[]uint { return &v }

func assertValidation(t *testing.T, err error, field, message string) {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	assert.Equal(t, field, verr.Field)
	if message != "" {
		assert.Equal(t, message, verr.Message)
	}
}

func TestCreateCategoryValidatesName(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	_, err := env.catalog.CreateCategory(ctx, models.CreateCategoryRequest{Name: "   "})
	assertValidation(t, err, "name", "name is required")

	list, err := env.catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateCategoryDefaultsAndSlugs(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	first, err := env.catalog.CreateCategory(ctx, models.CreateCategoryRequest{Name: "  Hot Drinks! "})
	require.NoError(t, err)
	assert.Equal(t, "Hot Drinks!", first.Name)
	assert.Equal(t, "hot-drinks", first.Slug)
	assert.True(t, first.IsActive)

	second, err := env.catalog.CreateCategory(ctx, models.CreateCategoryRequest{Name: "Hot drinks", IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, "hot-drinks-2", second.Slug)
	assert.False(t, second.IsActive)
	assert.Equal(t, 1, second.DisplayOrder)

	_, err = env.catalog.CreateCategory(ctx, models.CreateCategoryRequest{Name: "Other", Slug: strPtr("hot-drinks")})
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "SLUG_TAKEN", conflict.Code)

	_, err = env.catalog.CreateCategory(ctx, models.CreateCategoryRequest{Name: "Other", Slug: strPtr("Bad Slug")})
	assertValidation(t, err, "slug", "")
}

func TestCreateBrandRequiresCategory(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	_, err := env.catalog.CreateBrand(ctx, models.CreateBrandRequest{Name: "Acme"})
	assertValidation(t, err, "categoryId", "Please select a category")

	_, err = env.catalog.CreateBrand(ctx, models.CreateBrandRequest{Name: "Acme", CategoryID: 77})
	assert.ErrorIs(t, err, repository.ErrCategoryNotFound)

	_, err = env.catalog.CreateBrand(ctx, models.CreateBrandRequest{Name: "", CategoryID: 77})
	assertValidation(t, err, "name", "name is required")
}

func TestCreateProductLineRequiresBrand(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	_, err := env.catalog.CreateProductLine(ctx, models.CreateProductLineRequest{Name: "Zero"})
	assertValidation(t, err, "brandId", "Please select a brand")

	_, err = env.catalog.CreateProductLine(ctx, models.CreateProductLineRequest{Name: "Zero", BrandID: 5})
	assert.ErrorIs(t, err, repository.ErrBrandNotFound)
}

func TestUpdateCategoryPartial(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	cat, err := env.catalog.CreateCategory(ctx, models.CreateCategoryRequest{Name: "Snacks", Image: strPtr("/objects/uploads/a")})
	require.NoError(t, err)

	updated, err := env.catalog.UpdateCategory(ctx, cat.ID, models.UpdateNodeRequest{IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Snacks", updated.Name)
	require.NotNil(t, updated.Image)

	_, err = env.catalog.UpdateCategory(ctx, cat.ID, models.UpdateNodeRequest{Name: strPtr(" ")})
	assertValidation(t, err, "name", "name is required")

	_, err = env.catalog.UpdateCategory(ctx, 404, models.UpdateNodeRequest{})
	assert.ErrorIs(t, err, repository.ErrCategoryNotFound)
}

func TestFeaturedProductsValidation(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	cat, err := env.catalog.CreateCategory(ctx, models.CreateCategoryRequest{Name: "Drinks"})
	require.NoError(t, err)
	brand, err := env.catalog.CreateBrand(ctx, models.CreateBrandRequest{Name: "Fizz", CategoryID: cat.ID})
	require.NoError(t, err)

	enabled, err := env.products.Create(ctx, models.CreateProductRequest{Name: "Cola", Price: 1.99})
	require.NoError(t, err)
	other, err := env.products.Create(ctx, models.CreateProductRequest{Name: "Lemonade", Price: 2.49})
	require.NoError(t, err)
	disabled, err := env.products.Create(ctx, models.CreateProductRequest{Name: "Old", Enabled: boolPtr(false)})
	require.NoError(t, err)

	ids, err := env.catalog.SetFeatured(ctx, models.LevelBrand, brand.ID, []uint{other.ID, enabled.ID, other.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{other.ID, enabled.ID}, ids)

	got, err := env.catalog.GetBrand(ctx, brand.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductIDs{other.ID, enabled.ID}, got.FeaturedProductIDs)

	_, err = env.catalog.SetFeatured(ctx, models.LevelBrand, brand.ID, []uint{enabled.ID, disabled.ID, 9999})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "INVALID_FEATURED_PRODUCTS", verr.Code)

	got, err = env.catalog.GetBrand(ctx, brand.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductIDs{other.ID, enabled.ID}, got.FeaturedProductIDs)

	patched, err := env.catalog.UpdateBrand(ctx, brand.ID, models.UpdateNodeRequest{FeaturedProductIDs: idsPtr()})
	require.NoError(t, err)
	assert.Empty(t, patched.FeaturedProductIDs)

	_, err = env.catalog.SetFeatured(ctx, models.LevelCategory, 999, []uint{enabled.ID})
	assert.ErrorIs(t, err, repository.ErrCategoryNotFound)
}

func TestFeaturedSubtreeEnforcement(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	cat, err := env.catalog.CreateCategory(ctx, models.CreateCategoryRequest{Name: "Drinks"})
	require.NoError(t, err)
	brand, err := env.catalog.CreateBrand(ctx, models.CreateBrandRequest{Name: "Fizz", CategoryID: cat.ID})
	require.NoError(t, err)

	inside, err := env.products.Create(ctx, models.CreateProductRequest{Name: "Cola", BrandID: &brand.ID})
	require.NoError(t, err)
	outside, err := env.products.Create(ctx, models.CreateProductRequest{Name: "Bread"})
	require.NoError(t, err)

	_, err = env.catalog.SetFeatured(ctx, models.LevelCategory, cat.ID, []uint{inside.ID})
	require.NoError(t, err)

	_, err = env.catalog.SetFeatured(ctx, models.LevelCategory, cat.ID, []uint{inside.ID, outside.ID})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "INVALID_FEATURED_PRODUCTS", verr.Code)
}

func TestReorderBrandsChecksCategory(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	err := env.catalog.ReorderBrands(ctx, 0, []uint{1})
	assertValidation(t, err, "categoryId", "Please select a category")

	err = env.catalog.ReorderBrands(ctx, 12, []uint{1})
	assert.ErrorIs(t, err, repository.ErrCategoryNotFound)

	cat, err := env.catalog.CreateCategory(ctx, models.CreateCategoryRequest{Name: "Drinks"})
	require.NoError(t, err)
	a, err := env.catalog.CreateBrand(ctx, models.CreateBrandRequest{Name: "A", CategoryID: cat.ID})
	require.NoError(t, err)
	b, err := env.catalog.CreateBrand(ctx, models.CreateBrandRequest{Name: "B", CategoryID: cat.ID})
	require.NoError(t, err)

	require.NoError(t, env.catalog.ReorderBrands(ctx, cat.ID, []uint{b.ID, a.ID}))
	brands, err := env.catalog.ListBrands(ctx, &cat.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, brands[0].ID)
	assert.Equal(t, 0, brands[0].DisplayOrder)
	assert.Equal(t, 1, brands[1].DisplayOrder)
}

func TestProductParentsMustAgree(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	cat, err := env.catalog.CreateCategory(ctx, models.CreateCategoryRequest{Name: "Drinks"})
	require.NoError(t, err)
	fizz, err := env.catalog.CreateBrand(ctx, models.CreateBrandRequest{Name: "Fizz", CategoryID: cat.ID})
	require.NoError(t, err)
	pop, err := env.catalog.CreateBrand(ctx, models.CreateBrandRequest{Name: "Pop", CategoryID: cat.ID})
	require.NoError(t, err)
	zero, err := env.catalog.CreateProductLine(ctx, models.CreateProductLineRequest{Name: "Zero", BrandID: fizz.ID})
	require.NoError(t, err)

	p, err := env.products.Create(ctx, models.CreateProductRequest{Name: "Zero Cola", Price: 1.234, ProductLineID: &zero.ID})
	require.NoError(t, err)
	require.NotNil(t, p.BrandID)
	assert.Equal(t, fizz.ID, *p.BrandID)
	assert.Equal(t, 1.23, p.Price)
	assert.True(t, p.Enabled)

	_, err = env.products.Create(ctx, models.CreateProductRequest{Name: "Bad", BrandID: &pop.ID, ProductLineID: &zero.ID})
	assertValidation(t, err, "productLineId", "")

	moved, err := env.products.Update(ctx, p.ID, models.UpdateProductRequest{BrandID: &pop.ID})
	require.NoError(t, err)
	assert.Equal(t, pop.ID, *moved.BrandID)
	assert.Nil(t, moved.ProductLineID)

	cleared, err := env.products.Update(ctx, p.ID, models.UpdateProductRequest{ClearBrand: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.BrandID)
}

func TestStorefrontHidesInactiveAndOrdersFeaturedFirst(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	cat, err := env.catalog.CreateCategory(ctx, models.CreateCategoryRequest{Name: "Drinks"})
	require.NoError(t, err)
	hidden, err := env.catalog.CreateCategory(ctx, models.CreateCategoryRequest{Name: "Hidden", IsActive: boolPtr(false)})
	require.NoError(t, err)
	brand, err := env.catalog.CreateBrand(ctx, models.CreateBrandRequest{Name: "Fizz", CategoryID: cat.ID})
	require.NoError(t, err)
	_, err = env.catalog.CreateBrand(ctx, models.CreateBrandRequest{Name: "Gone", CategoryID: cat.ID, IsActive: boolPtr(false)})
	require.NoError(t, err)

	apple, err := env.products.Create(ctx, models.CreateProductRequest{Name: "Apple", BrandID: &brand.ID})
	require.NoError(t, err)
	berry, err := env.products.Create(ctx, models.CreateProductRequest{Name: "Berry", BrandID: &brand.ID})
	require.NoError(t, err)
	cola, err := env.products.Create(ctx, models.CreateProductRequest{Name: "Cola", BrandID: &brand.ID})
	require.NoError(t, err)
	_, err = env.products.Create(ctx, models.CreateProductRequest{Name: "Dull", BrandID: &brand.ID, Enabled: boolPtr(false)})
	require.NoError(t, err)

	_, err = env.catalog.SetFeatured(ctx, models.LevelBrand, brand.ID, []uint{cola.ID})
	require.NoError(t, err)

	cats, err := env.storefront.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)

	_, err = env.storefront.CategoryBySlug(ctx, hidden.Slug)
	assert.ErrorIs(t, err, repository.ErrCategoryNotFound)

	withBrands, err := env.storefront.CategoryBySlug(ctx, cat.Slug)
	require.NoError(t, err)
	assert.Len(t, withBrands.Brands, 1)

	products, err := env.storefront.NodeProducts(ctx, models.LevelBrand, brand.Slug)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, []uint{cola.ID, apple.ID, berry.ID}, []uint{products[0].ID, products[1].ID, products[2].ID})

	_, err = env.products.SetEnabled(ctx, cola.ID, false)
	require.NoError(t, err)
	_, err = env.storefront.Product(ctx, cola.ID)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	refreshed, err := env.catalog.GetBrand(ctx, brand.ID)
	require.NoError(t, err)
	assert.Empty(t, refreshed.FeaturedProductIDs)
}

func TestDeleteCategoryThroughService(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	cat, err := env.catalog.CreateCategory(ctx, models.CreateCategoryRequest{Name: "Drinks"})
	require.NoError(t, err)
	brand, err := env.catalog.CreateBrand(ctx, models.CreateBrandRequest{Name: "Fizz", CategoryID: cat.ID})
	require.NoError(t, err)
	_, err = env.catalog.CreateProductLine(ctx, models.CreateProductLineRequest{Name: "Zero", BrandID: brand.ID})
	require.NoError(t, err)

	result, err := env.catalog.DeleteCategory(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.BrandsDeleted)
	assert.Equal(t, 1, result.ProductLinesDeleted)

	lines, err := env.catalog.ListProductLines(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestGenerateSlug(t *testing.T) {
	assert.Equal(t, "coca-cola-zero", GenerateSlug("Coca-Cola  Zero!"))
	assert.Equal(t, "", GenerateSlug("!!!"))
	long := GenerateSlug("aaaaaaaaaa aaaaaaaaaa aaaaaaaaaa aaaaaaaaaa aaaaaaaaaa aaaaaaaaaa")
	assert.LessOrEqual(t, len(long), 50)
	assert.True(t, IsValidSlug(long))
	assert.False(t, IsValidSlug("Upper"))
	assert.False(t, IsValidSlug("a--b"))
}
