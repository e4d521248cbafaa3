package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	service    *services.ProductService
	pagination Pagination
}

func NewProductHandler(service *services.ProductService, pagination Pagination) *ProductHandler {
	return &ProductHandler{service: service, pagination: pagination}
}

type setEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// ListProducts returns products for the admin list and the featured picker
// @Summary List products
// @Tags products
// @Produce json
// @Param brandId query int false "Brand filter"
// @Param productLineId query int false "Product line filter"
// @Param enabled query bool false "Enabled filter"
// @Param search query string false "Name search"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/admin/delivery/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	filters := models.ProductFilters{Search: strings.TrimSpace(c.Query("search"))}

	var valid bool
	if filters.BrandID, valid = parseOptionalID(c, "brandId"); !valid {
		return
	}
	if filters.ProductLineID, valid = parseOptionalID(c, "productLineId"); !valid {
		return
	}
	if raw := c.Query("enabled"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "enabled must be true or false", "enabled")
			return
		}
		filters.Enabled = &enabled
	}

	page, limit, offset := h.pagination.parse(c)
	filters.Limit = limit
	filters.Offset = offset

	products, total, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       products,
		"pagination": models.NewPaginationInfo(page, limit, total),
	})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	product, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, product)
}

// CreateProduct creates a product
// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Param product body models.CreateProductRequest true "Product"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/admin/delivery/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, product)
}

// SetProductEnabled toggles a product; disabling prunes it from featured lists
func (h *ProductHandler) SetProductEnabled(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	var req setEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := h.service.SetEnabled(c.Request.Context(), id, *req.Enabled)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted successfully"})
}
