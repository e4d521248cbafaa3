package models

import (
	"time"

	"gorm.io/datatypes"
)

// NodeLevel identifies one of the three levels of the catalog hierarchy
type NodeLevel string

const (
	LevelCategory    NodeLevel = "category"
	LevelBrand       NodeLevel = "brand"
	LevelProductLine NodeLevel = "productLine"
)

// Valid reports whether l names a known hierarchy level
func (l NodeLevel) Valid() bool {
	switch l {
	case LevelCategory, LevelBrand, LevelProductLine:
		return true
	}
	return false
}

// ProductIDs is an ordered list of product ids stored as a JSON column
type ProductIDs = datatypes.JSONSlice[uint]

// Category is the top level of the catalog hierarchy
type Category struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	Name               string     `json:"name" gorm:"not null"`
	Slug               string     `json:"slug" gorm:"not null;uniqueIndex"`
	Image              *string    `json:"image,omitempty"`
	DisplayOrder       int        `json:"displayOrder" gorm:"not null;default:0;index"`
	IsActive           bool       `json:"isActive" gorm:"not null"`
	FeaturedProductIDs ProductIDs `json:"featuredProductIds" gorm:"column:featured_product_ids;not null;default:'[]'"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`

	// Relationships
	Brands []Brand `json:"brands,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

// Brand belongs to exactly one category
type Brand struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	Name               string     `json:"name" gorm:"not null"`
	Slug               string     `json:"slug" gorm:"not null;uniqueIndex"`
	CategoryID         uint       `json:"categoryId" gorm:"not null;index"`
	Logo               *string    `json:"logo,omitempty"`
	DisplayOrder       int        `json:"displayOrder" gorm:"not null;default:0;index"`
	IsActive           bool       `json:"isActive" gorm:"not null"`
	FeaturedProductIDs ProductIDs `json:"featuredProductIds" gorm:"column:featured_product_ids;not null;default:'[]'"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`

	// Relationships
	ProductLines []ProductLine `json:"productLines,omitempty" gorm:"foreignKey:BrandID;constraint:OnDelete:CASCADE"`
}

// ProductLine belongs to exactly one brand
type ProductLine struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	Name               string     `json:"name" gorm:"not null"`
	Slug               string     `json:"slug" gorm:"not null;uniqueIndex"`
	BrandID            uint       `json:"brandId" gorm:"not null;index"`
	Logo               *string    `json:"logo,omitempty"`
	DisplayOrder       int        `json:"displayOrder" gorm:"not null;default:0;index"`
	IsActive           bool       `json:"isActive" gorm:"not null"`
	FeaturedProductIDs ProductIDs `json:"featuredProductIds" gorm:"column:featured_product_ids;not null;default:'[]'"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// TableName returns the table name for the Brand model
func (Brand) TableName() string {
	return "brands"
}

// TableName returns the table name for the ProductLine model
func (ProductLine) TableName() string {
	return "product_lines"
}

// TableForLevel maps a hierarchy level to its table
func TableForLevel(level NodeLevel) string {
	switch level {
	case LevelCategory:
		return Category{}.TableName()
	case LevelBrand:
		return Brand{}.TableName()
	case LevelProductLine:
		return ProductLine{}.TableName()
	}
	return ""
}

// CreateCategoryRequest represents a request to create a new category
type CreateCategoryRequest struct {
	Name     string  `json:"name" binding:"required,notblank"`
	Slug     *string `json:"slug,omitempty"`
	Image    *string `json:"image,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// CreateBrandRequest represents a request to create a new brand
type CreateBrandRequest struct {
	Name       string  `json:"name" binding:"required,notblank"`
	Slug       *string `json:"slug,omitempty"`
	CategoryID uint    `json:"categoryId"`
	Logo       *string `json:"logo,omitempty"`
	IsActive   *bool   `json:"isActive,omitempty"`
}

// CreateProductLineRequest represents a request to create a new product line
type CreateProductLineRequest struct {
	Name     string  `json:"name" binding:"required,notblank"`
	Slug     *string `json:"slug,omitempty"`
	BrandID  uint    `json:"brandId"`
	Logo     *string `json:"logo,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// UpdateNodeRequest is a partial update for any hierarchy node. Fields that
// do not apply to the node's level are ignored.
type UpdateNodeRequest struct {
	Name               *string `json:"name,omitempty"`
	Slug               *string `json:"slug,omitempty"`
	Image              *string `json:"image,omitempty"`
	Logo               *string `json:"logo,omitempty"`
	IsActive           *bool   `json:"isActive,omitempty"`
	DisplayOrder       *int    `json:"displayOrder,omitempty"`
	CategoryID         *uint   `json:"categoryId,omitempty"`
	BrandID            *uint   `json:"brandId,omitempty"`
	FeaturedProductIDs *[]uint `json:"featuredProductIds,omitempty"`
}

// ReorderCategoriesRequest carries the full desired order of categories
type ReorderCategoriesRequest struct {
	OrderedIDs []uint `json:"orderedIds"`
}

// ReorderBrandsRequest carries the desired order of one category's brands
type ReorderBrandsRequest struct {
	CategoryID uint   `json:"categoryId" binding:"required"`
	OrderedIDs []uint `json:"orderedIds"`
}

// ReorderProductLinesRequest carries the desired order of one brand's product lines
type ReorderProductLinesRequest struct {
	BrandID    uint   `json:"brandId" binding:"required"`
	OrderedIDs []uint `json:"orderedIds"`
}

// SetFeaturedRequest replaces a node's featured product list
type SetFeaturedRequest struct {
	ProductIDs []uint `json:"productIds"`
}

// CascadeDeleteResult reports what a catalog delete removed
type CascadeDeleteResult struct {
	CategoriesDeleted   int `json:"categoriesDeleted"`
	BrandsDeleted       int `json:"brandsDeleted"`
	ProductLinesDeleted int `json:"productLinesDeleted"`
	ProductsDetached    int `json:"productsDetached"`
}
