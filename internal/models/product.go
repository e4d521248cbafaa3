package models

import "time"

// Product is a sellable item, optionally attached to a brand and product line
type Product struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"not null"`
	Slug          string    `json:"slug" gorm:"not null;uniqueIndex"`
	Description   *string   `json:"description,omitempty"`
	Image         *string   `json:"image,omitempty"`
	Price         float64   `json:"price" gorm:"type:numeric(10,2);not null;default:0"`
	BrandID       *uint     `json:"brandId" gorm:"index"`
	ProductLineID *uint     `json:"productLineId" gorm:"index"`
	Enabled       bool      `json:"enabled" gorm:"not null"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Name          string  `json:"name" binding:"required,notblank"`
	Slug          *string `json:"slug,omitempty"`
	Description   *string `json:"description,omitempty"`
	Image         *string `json:"image,omitempty"`
	Price         float64 `json:"price" binding:"gte=0"`
	BrandID       *uint   `json:"brandId,omitempty"`
	ProductLineID *uint   `json:"productLineId,omitempty"`
	Enabled       *bool   `json:"enabled,omitempty"`
}

// UpdateProductRequest is a partial product update. ClearBrand and
// ClearProductLine detach the product since a null id cannot be told apart
// from an omitted one.
type UpdateProductRequest struct {
	Name             *string  `json:"name,omitempty"`
	Slug             *string  `json:"slug,omitempty"`
	Description      *string  `json:"description,omitempty"`
	Image            *string  `json:"image,omitempty"`
	Price            *float64 `json:"price,omitempty" binding:"omitempty,gte=0"`
	BrandID          *uint    `json:"brandId,omitempty"`
	ProductLineID    *uint    `json:"productLineId,omitempty"`
	ClearBrand       bool     `json:"clearBrand,omitempty"`
	ClearProductLine bool     `json:"clearProductLine,omitempty"`
	Enabled          *bool    `json:"enabled,omitempty"`
}

// ProductFilters narrows admin product listings
type ProductFilters struct {
	BrandID       *uint
	ProductLineID *uint
	Enabled       *bool
	Search        string
	Limit         int
	Offset        int
}
