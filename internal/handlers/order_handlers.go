package handlers

import (
	"net/http"
	"strings"

	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service    *services.OrderService
	pagination Pagination
}

func NewOrderHandler(service *services.OrderService, pagination Pagination) *OrderHandler {
	return &OrderHandler{service: service, pagination: pagination}
}

// PlaceOrder is the storefront checkout
// @Summary Place an order
// @Description Prices and delivery fee are computed server-side
// @Tags storefront
// @Accept json
// @Produce json
// @Param order body models.PlaceOrderRequest true "Cart and customer"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /api/storefront/orders [post]
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.service.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, order)
}

// ListOrders returns orders newest first
// @Summary List orders
// @Tags orders
// @Produce json
// @Param status query string false "Status filter"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/admin/delivery/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	page, limit, offset := h.pagination.parse(c)
	orders, total, err := h.service.ListOrders(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       orders,
		"pagination": models.NewPaginationInfo(page, limit, total),
	})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	order, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, order)
}

// UpdateOrderStatus moves an order to its next status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, order)
}

func (h *OrderHandler) ListCustomers(c *gin.Context) {
	page, limit, offset := h.pagination.parse(c)
	customers, total, err := h.service.ListCustomers(c.Request.Context(), strings.TrimSpace(c.Query("search")), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       customers,
		"pagination": models.NewPaginationInfo(page, limit, total),
	})
}

func (h *OrderHandler) GetCustomer(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	customer, err := h.service.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, customer)
}
