package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"catalog-service/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// notFoundCodes maps repository sentinels to their API error codes
var notFoundCodes = []struct {
	err  error
	code string
}{
	{repository.ErrCategoryNotFound, "CATEGORY_NOT_FOUND"},
	{repository.ErrBrandNotFound, "BRAND_NOT_FOUND"},
	{repository.ErrProductLineNotFound, "PRODUCT_LINE_NOT_FOUND"},
	{repository.ErrProductNotFound, "PRODUCT_NOT_FOUND"},
	{repository.ErrOrderNotFound, "ORDER_NOT_FOUND"},
	{repository.ErrCustomerNotFound, "CUSTOMER_NOT_FOUND"},
	{storage.ErrUnknownUpload, "UPLOAD_NOT_FOUND"},
	{storage.ErrObjectNotFound, "OBJECT_NOT_FOUND"},
}

func errorJSON(c *gin.Context, status int, code, message, field string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
			Field:   field,
		},
	})
}

// respondError writes the error envelope for err. Unknown errors become a
// generic 500 and are attached to the context for the request logger.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		errorJSON(c, http.StatusBadRequest, verr.Code, verr.Message, verr.Field)
		return
	}
	var cerr *services.ConflictError
	if errors.As(err, &cerr) {
		errorJSON(c, http.StatusConflict, cerr.Code, cerr.Message, "")
		return
	}
	for _, nf := range notFoundCodes {
		if errors.Is(err, nf.err) {
			errorJSON(c, http.StatusNotFound, nf.code, nf.err.Error(), "")
			return
		}
	}

	switch {
	case errors.Is(err, repository.ErrInvalidReorder):
		errorJSON(c, http.StatusBadRequest, "INVALID_REORDER", err.Error(), "orderedIds")
	case errors.Is(err, repository.ErrSlugTaken):
		errorJSON(c, http.StatusConflict, "SLUG_TAKEN", err.Error(), "slug")
	case errors.Is(err, storage.ErrTooLarge):
		errorJSON(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error(), "")
	case errors.Is(err, storage.ErrNotImage):
		errorJSON(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", err.Error(), "")
	default:
		_ = c.Error(err)
		errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", "")
	}
}

// respondBindError turns a gin binding failure into a VALIDATION_ERROR on
// the first offending field
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fieldPath(fe)
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(field, fe), field)
		return
	}
	errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", "")
}

// fieldPath drops the struct name from the validator namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	}
	return field + " is invalid"
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+param, param)
		return 0, false
	}
	return uint(id), true
}

// parseOptionalID reads an optional numeric query parameter
func parseOptionalID(c *gin.Context, key string) (*uint, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+key, key)
		return nil, false
	}
	v := uint(id)
	return &v, true
}

// Pagination holds the configured page size bounds
type Pagination struct {
	DefaultLimit int
	MaxLimit     int
}

// parse reads page and limit query parameters within the bounds
func (p Pagination) parse(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(p.DefaultLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = p.DefaultLimit
	}
	if p.MaxLimit > 0 && limit > p.MaxLimit {
		limit = p.MaxLimit
	}
	return page, limit, (page - 1) * limit
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}
