package catalogmanager

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"catalog-service/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	basePath         = "/api/admin/delivery"
	categoriesPath   = basePath + "/categories"
	brandsPath       = basePath + "/brands"
	productLinesPath = basePath + "/product-lines"
	productsPath     = basePath + "/products"

	productPageSize = 100
)

// Validation failures detected before any request is sent
var (
	ErrNameRequired     = errors.New("name is required")
	ErrCategoryRequired = errors.New("Please select a category")
	ErrBrandRequired    = errors.New("Please select a brand")
)

// Requester performs admin API calls and decodes the response data into
// out. GetPage also returns the listing's pagination, nil when the endpoint
// does not paginate. clients.AdminClient implements it.
type Requester interface {
	Do(ctx context.Context, method, path string, body, out interface{}) error
	GetPage(ctx context.Context, path string, out interface{}) (*models.PaginationInfo, error)
}

// OperationError reports a failed mutation the way the operator sees it
type OperationError struct {
	Verb   string
	Entity string
	Err    error
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("Error %s %s", e.Verb, e.Entity)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Manager is the operator side of the catalog hierarchy. Reads go through a
// QueryCache; a successful mutation invalidates the listings it affects and a
// failed one leaves them alone.
type Manager struct {
	api      Requester
	cache    *QueryCache
	Expanded *ExpandState
	logger   *logrus.Entry
}

func New(api Requester, logger *logrus.Logger) *Manager {
	return &Manager{
		api:      api,
		cache:    NewQueryCache(),
		Expanded: NewExpandState(),
		logger:   logger.WithField("component", "catalogmanager"),
	}
}

// Cache exposes the query cache for inspection
func (m *Manager) Cache() *QueryCache {
	return m.cache
}

// ============================================================================
// Reads
// ============================================================================

func (m *Manager) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := m.query(ctx, categoriesPath, &categories)
	return categories, err
}

func (m *Manager) Brands(ctx context.Context, categoryID uint) ([]models.Brand, error) {
	var brands []models.Brand
	err := m.query(ctx, fmt.Sprintf("%s?categoryId=%d", brandsPath, categoryID), &brands)
	return brands, err
}

func (m *Manager) ProductLines(ctx context.Context, brandID uint) ([]models.ProductLine, error) {
	var lines []models.ProductLine
	err := m.query(ctx, fmt.Sprintf("%s?brandId=%d", productLinesPath, brandID), &lines)
	return lines, err
}

// Products returns every enabled product, reading all pages on a cache miss
func (m *Manager) Products(ctx context.Context) ([]models.Product, error) {
	key := productsPath + "?enabled=true"
	var products []models.Product
	if m.cache.Get(key, &products) {
		return products, nil
	}

	// The server may cap the page size, so its pagination decides when to stop
	products = []models.Product{}
	for page := 1; ; page++ {
		var batch []models.Product
		path := fmt.Sprintf("%s&page=%d&limit=%d", key, page, productPageSize)
		info, err := m.api.GetPage(ctx, path, &batch)
		if err != nil {
			return nil, err
		}
		products = append(products, batch...)
		if info == nil || !info.HasNext || len(batch) == 0 {
			break
		}
	}
	m.cache.Set(key, products)
	return products, nil
}

func (m *Manager) query(ctx context.Context, path string, out interface{}) error {
	if m.cache.Get(path, out) {
		return nil
	}
	if err := m.api.Do(ctx, http.MethodGet, path, nil, out); err != nil {
		return err
	}
	m.cache.Set(path, out)
	return nil
}

// ============================================================================
// Categories
// ============================================================================

func (m *Manager) CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	var category models.Category
	if err := m.mutate(ctx, "creating", models.LevelCategory, http.MethodPost, categoriesPath, req, &category); err != nil {
		return nil, err
	}
	m.invalidate(models.LevelCategory, false)
	return &category, nil
}

func (m *Manager) UpdateCategory(ctx context.Context, id uint, req models.UpdateNodeRequest) (*models.Category, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, ErrNameRequired
	}
	var category models.Category
	if err := m.mutate(ctx, "updating", models.LevelCategory, http.MethodPatch, nodePath(models.LevelCategory, id), req, &category); err != nil {
		return nil, err
	}
	m.invalidate(models.LevelCategory, false)
	return &category, nil
}

// DeleteCategory removes a category together with its brands and product lines
func (m *Manager) DeleteCategory(ctx context.Context, id uint) (*models.CascadeDeleteResult, error) {
	return m.deleteNode(ctx, models.LevelCategory, id)
}

// MoveCategory drops activeID onto overID and saves the new category order
func (m *Manager) MoveCategory(ctx context.Context, activeID, overID uint) error {
	if activeID == overID {
		return nil
	}
	categories, err := m.Categories(ctx)
	if err != nil {
		return err
	}
	ids := make([]uint, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	ordered, err := MoveID(ids, activeID, overID)
	if err != nil {
		return err
	}
	body := models.ReorderCategoriesRequest{OrderedIDs: ordered}
	return m.reorder(ctx, models.LevelCategory, categoriesPath+"/reorder", body)
}

// ============================================================================
// Brands
// ============================================================================

func (m *Manager) CreateBrand(ctx context.Context, req models.CreateBrandRequest) (*models.Brand, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	if req.CategoryID == 0 {
		return nil, ErrCategoryRequired
	}
	var brand models.Brand
	if err := m.mutate(ctx, "creating", models.LevelBrand, http.MethodPost, brandsPath, req, &brand); err != nil {
		return nil, err
	}
	m.invalidate(models.LevelBrand, false)
	return &brand, nil
}

func (m *Manager) UpdateBrand(ctx context.Context, id uint, req models.UpdateNodeRequest) (*models.Brand, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, ErrNameRequired
	}
	if req.CategoryID != nil && *req.CategoryID == 0 {
		return nil, ErrCategoryRequired
	}
	var brand models.Brand
	if err := m.mutate(ctx, "updating", models.LevelBrand, http.MethodPatch, nodePath(models.LevelBrand, id), req, &brand); err != nil {
		return nil, err
	}
	m.invalidate(models.LevelBrand, false)
	return &brand, nil
}

// DeleteBrand removes a brand together with its product lines
func (m *Manager) DeleteBrand(ctx context.Context, id uint) (*models.CascadeDeleteResult, error) {
	return m.deleteNode(ctx, models.LevelBrand, id)
}

func (m *Manager) MoveBrand(ctx context.Context, categoryID, activeID, overID uint) error {
	if activeID == overID {
		return nil
	}
	brands, err := m.Brands(ctx, categoryID)
	if err != nil {
		return err
	}
	ids := make([]uint, len(brands))
	for i, b := range brands {
		ids[i] = b.ID
	}
	ordered, err := MoveID(ids, activeID, overID)
	if err != nil {
		return err
	}
	body := models.ReorderBrandsRequest{CategoryID: categoryID, OrderedIDs: ordered}
	return m.reorder(ctx, models.LevelBrand, brandsPath+"/reorder", body)
}

// ============================================================================
// Product lines
// ============================================================================

func (m *Manager) CreateProductLine(ctx context.Context, req models.CreateProductLineRequest) (*models.ProductLine, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	if req.BrandID == 0 {
		return nil, ErrBrandRequired
	}
	var line models.ProductLine
	if err := m.mutate(ctx, "creating", models.LevelProductLine, http.MethodPost, productLinesPath, req, &line); err != nil {
		return nil, err
	}
	m.invalidate(models.LevelProductLine, false)
	return &line, nil
}

func (m *Manager) UpdateProductLine(ctx context.Context, id uint, req models.UpdateNodeRequest) (*models.ProductLine, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, ErrNameRequired
	}
	if req.BrandID != nil && *req.BrandID == 0 {
		return nil, ErrBrandRequired
	}
	var line models.ProductLine
	if err := m.mutate(ctx, "updating", models.LevelProductLine, http.MethodPatch, nodePath(models.LevelProductLine, id), req, &line); err != nil {
		return nil, err
	}
	m.invalidate(models.LevelProductLine, false)
	return &line, nil
}

func (m *Manager) DeleteProductLine(ctx context.Context, id uint) (*models.CascadeDeleteResult, error) {
	return m.deleteNode(ctx, models.LevelProductLine, id)
}

func (m *Manager) MoveProductLine(ctx context.Context, brandID, activeID, overID uint) error {
	if activeID == overID {
		return nil
	}
	lines, err := m.ProductLines(ctx, brandID)
	if err != nil {
		return err
	}
	ids := make([]uint, len(lines))
	for i, l := range lines {
		ids[i] = l.ID
	}
	ordered, err := MoveID(ids, activeID, overID)
	if err != nil {
		return err
	}
	body := models.ReorderProductLinesRequest{BrandID: brandID, OrderedIDs: ordered}
	return m.reorder(ctx, models.LevelProductLine, productLinesPath+"/reorder", body)
}

// ============================================================================
// Helpers
// ============================================================================

func (m *Manager) deleteNode(ctx context.Context, level models.NodeLevel, id uint) (*models.CascadeDeleteResult, error) {
	var result models.CascadeDeleteResult
	if err := m.mutate(ctx, "deleting", level, http.MethodDelete, nodePath(level, id), nil, &result); err != nil {
		return nil, err
	}
	m.invalidate(level, true)
	m.Expanded.Forget(level, id)
	return &result, nil
}

func (m *Manager) reorder(ctx context.Context, level models.NodeLevel, path string, body interface{}) error {
	if err := m.mutate(ctx, "reordering", level, http.MethodPost, path, body, nil); err != nil {
		return err
	}
	m.invalidate(level, false)
	return nil
}

// mutate sends one write and wraps a failure as an OperationError
func (m *Manager) mutate(ctx context.Context, verb string, level models.NodeLevel, method, path string, body, out interface{}) error {
	if err := m.api.Do(ctx, method, path, body, out); err != nil {
		m.logger.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).Warn("Catalog mutation failed")
		return &OperationError{Verb: verb, Entity: entityName(level), Err: err}
	}
	return nil
}

// invalidate drops the listings a change at level can affect. Deletes also
// reach the levels below and the product list, since products get detached.
func (m *Manager) invalidate(level models.NodeLevel, cascade bool) {
	prefixes := []string{levelPath(level)}
	if cascade {
		switch level {
		case models.LevelCategory:
			prefixes = append(prefixes, brandsPath, productLinesPath)
		case models.LevelBrand:
			prefixes = append(prefixes, productLinesPath)
		}
		prefixes = append(prefixes, productsPath)
	}
	m.cache.Invalidate(prefixes...)
}

func levelPath(level models.NodeLevel) string {
	switch level {
	case models.LevelBrand:
		return brandsPath
	case models.LevelProductLine:
		return productLinesPath
	}
	return categoriesPath
}

func nodePath(level models.NodeLevel, id uint) string {
	return fmt.Sprintf("%s/%d", levelPath(level), id)
}

func entityName(level models.NodeLevel) string {
	switch level {
	case models.LevelBrand:
		return "brand"
	case models.LevelProductLine:
		return "product line"
	}
	return "category"
}
