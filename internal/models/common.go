package models

// AllModels lists every model owned by the service, in migration order
func AllModels() []interface{} {
	return []interface{}{
		&Category{},
		&Brand{},
		&ProductLine{},
		&Product{},
		&Customer{},
		&Order{},
		&OrderItem{},
	}
}

// PaginationInfo represents pagination information
type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

// NewPaginationInfo computes page metadata for a listing
func NewPaginationInfo(page, limit int, total int64) *PaginationInfo {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &PaginationInfo{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

// Error represents error details
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// CatalogTree is the full hierarchy with every level in display order
type CatalogTree struct {
	Categories []Category `json:"categories"`
}
