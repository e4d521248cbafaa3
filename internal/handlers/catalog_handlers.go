package handlers

import (
	"net/http"

	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	service *services.CatalogService
}

func NewCatalogHandler(service *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ============================================================================
// Categories
// ============================================================================

// ListCategories returns every category in display order
// @Summary List categories
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/admin/delivery/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, categories)
}

func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	category, err := h.service.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, category)
}

// CreateCategory creates a category at the end of the list
// @Summary Create category
// @Tags catalog
// @Accept json
// @Produce json
// @Param category body models.CreateCategoryRequest true "Category"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/admin/delivery/categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, category)
}

// UpdateCategory applies a partial update, including featuredProductIds
// @Summary Update category
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path int true "Category ID"
// @Param category body models.UpdateNodeRequest true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/admin/delivery/categories/{id} [patch]
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	var req models.UpdateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	category, err := h.service.UpdateCategory(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, category)
}

// DeleteCategory deletes a category with its brands and product lines
// @Summary Delete category
// @Tags catalog
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/admin/delivery/categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	result, err := h.service.DeleteCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, result)
}

// ReorderCategories stores the full category order
// @Summary Reorder categories
// @Tags catalog
// @Accept json
// @Produce json
// @Param order body models.ReorderCategoriesRequest true "Ordered ids"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/admin/delivery/categories/reorder [post]
func (h *CatalogHandler) ReorderCategories(c *gin.Context) {
	var req models.ReorderCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.service.ReorderCategories(ctx, req.OrderedIDs); err != nil {
		respondError(c, err)
		return
	}
	categories, err := h.service.ListCategories(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, categories)
}

// ============================================================================
// Brands
// ============================================================================

func (h *CatalogHandler) ListBrands(c *gin.Context) {
	categoryID, valid := parseOptionalID(c, "categoryId")
	if !valid {
		return
	}
	brands, err := h.service.ListBrands(c.Request.Context(), categoryID)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, brands)
}

func (h *CatalogHandler) GetBrand(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	brand, err := h.service.GetBrand(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, brand)
}

func (h *CatalogHandler) CreateBrand(c *gin.Context) {
	var req models.CreateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	brand, err := h.service.CreateBrand(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, brand)
}

func (h *CatalogHandler) UpdateBrand(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	var req models.UpdateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	brand, err := h.service.UpdateBrand(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, brand)
}

func (h *CatalogHandler) DeleteBrand(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	result, err := h.service.DeleteBrand(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, result)
}

// ReorderBrands stores the brand order within one category
func (h *CatalogHandler) ReorderBrands(c *gin.Context) {
	var req models.ReorderBrandsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.service.ReorderBrands(ctx, req.CategoryID, req.OrderedIDs); err != nil {
		respondError(c, err)
		return
	}
	brands, err := h.service.ListBrands(ctx, &req.CategoryID)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, brands)
}

// ============================================================================
// Product lines
// ============================================================================

func (h *CatalogHandler) ListProductLines(c *gin.Context) {
	brandID, valid := parseOptionalID(c, "brandId")
	if !valid {
		return
	}
	lines, err := h.service.ListProductLines(c.Request.Context(), brandID)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, lines)
}

func (h *CatalogHandler) GetProductLine(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	line, err := h.service.GetProductLine(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, line)
}

func (h *CatalogHandler) CreateProductLine(c *gin.Context) {
	var req models.CreateProductLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	line, err := h.service.CreateProductLine(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, line)
}

func (h *CatalogHandler) UpdateProductLine(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	var req models.UpdateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	line, err := h.service.UpdateProductLine(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, line)
}

func (h *CatalogHandler) DeleteProductLine(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	result, err := h.service.DeleteProductLine(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, result)
}

// ReorderProductLines stores the product line order within one brand
func (h *CatalogHandler) ReorderProductLines(c *gin.Context) {
	var req models.ReorderProductLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.service.ReorderProductLines(ctx, req.BrandID, req.OrderedIDs); err != nil {
		respondError(c, err)
		return
	}
	lines, err := h.service.ListProductLines(ctx, &req.BrandID)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, lines)
}

// ============================================================================
// Featured products and tree
// ============================================================================

// SetFeatured returns a handler that overwrites the featured list of one level
// @Summary Replace featured products
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path int true "Node ID"
// @Param featured body models.SetFeaturedRequest true "Ordered product ids"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/admin/delivery/categories/{id}/featured [put]
func (h *CatalogHandler) SetFeatured(level models.NodeLevel) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := parseID(c, "id")
		if !valid {
			return
		}
		var req models.SetFeaturedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		ids, err := h.service.SetFeatured(c.Request.Context(), level, id, req.ProductIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, http.StatusOK, gin.H{"productIds": ids})
	}
}

// GetTree returns the nested hierarchy for the catalog manager
func (h *CatalogHandler) GetTree(c *gin.Context) {
	tree, err := h.service.GetTree(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, tree)
}
