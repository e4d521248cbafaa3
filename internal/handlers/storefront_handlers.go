package handlers

import (
	"net/http"

	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
)

// StorefrontHandler serves the public, read-only catalog. Inactive nodes and
// disabled products are reported as not found.
type StorefrontHandler struct {
	service *services.StorefrontService
}

func NewStorefrontHandler(service *services.StorefrontService) *StorefrontHandler {
	return &StorefrontHandler{service: service}
}

// ListCategories returns active categories in display order
// @Summary Storefront categories
// @Tags storefront
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/storefront/categories [get]
func (h *StorefrontHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, categories)
}

func (h *StorefrontHandler) GetTree(c *gin.Context) {
	tree, err := h.service.Tree(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, tree)
}

func (h *StorefrontHandler) GetCategory(c *gin.Context) {
	category, err := h.service.CategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, category)
}

func (h *StorefrontHandler) GetBrand(c *gin.Context) {
	brand, err := h.service.BrandBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, brand)
}

func (h *StorefrontHandler) GetProductLine(c *gin.Context) {
	line, err := h.service.ProductLineBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, line)
}

// NodeProducts returns a handler listing the enabled products under a node,
// featured products first
func (h *StorefrontHandler) NodeProducts(level models.NodeLevel) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := h.service.NodeProducts(c.Request.Context(), level, c.Param("slug"))
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, http.StatusOK, products)
	}
}

func (h *StorefrontHandler) GetProduct(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	product, err := h.service.Product(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, product)
}
