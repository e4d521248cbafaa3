package services

import (
	"catalog-service/internal/models"
	"context"
	"strings"
)

// CatalogPathRow is one imported (category, brand, product line) triple.
// Brand and ProductLine may be empty.
type CatalogPathRow struct {
	Category    string
	Brand       string
	ProductLine string
	IsActive    *bool
}

// CatalogPathResult reports the nodes a row resolved to
type CatalogPathResult struct {
	CategoryID    uint     `json:"categoryId"`
	BrandID       uint     `json:"brandId,omitempty"`
	ProductLineID uint     `json:"productLineId,omitempty"`
	Created       []string `json:"created,omitempty"`
}

// CatalogExportRow is one flattened row of the hierarchy
type CatalogExportRow struct {
	Category    string
	Brand       string
	ProductLine string
	IsActive    bool
}

// EnsurePath finds each node of row by name (case-insensitive) below its
// parent and creates the ones that are missing. IsActive only applies to
// created nodes.
func (s *CatalogService) EnsurePath(ctx context.Context, row CatalogPathRow) (*CatalogPathResult, error) {
	categoryName, err := requireName(row.Category)
	if err != nil {
		return nil, newValidationError("category", MsgCategoryRequired)
	}
	brandName := strings.TrimSpace(row.Brand)
	lineName := strings.TrimSpace(row.ProductLine)
	if brandName == "" && lineName != "" {
		return nil, newValidationError("brand", MsgBrandRequired)
	}

	result := &CatalogPathResult{}

	categories, err := s.catalog.ListCategories(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, categoryName) {
			result.CategoryID = c.ID
			break
		}
	}
	if result.CategoryID == 0 {
		category, err := s.CreateCategory(ctx, models.CreateCategoryRequest{Name: categoryName, IsActive: row.IsActive})
		if err != nil {
			return nil, err
		}
		result.CategoryID = category.ID
		result.Created = append(result.Created, string(models.LevelCategory))
	}
	if brandName == "" {
		return result, nil
	}

	brands, err := s.catalog.ListBrands(ctx, &result.CategoryID, false)
	if err != nil {
		return nil, err
	}
	for _, b := range brands {
		if strings.EqualFold(b.Name, brandName) {
			result.BrandID = b.ID
			break
		}
	}
	if result.BrandID == 0 {
		brand, err := s.CreateBrand(ctx, models.CreateBrandRequest{Name: brandName, CategoryID: result.CategoryID, IsActive: row.IsActive})
		if err != nil {
			return nil, err
		}
		result.BrandID = brand.ID
		result.Created = append(result.Created, string(models.LevelBrand))
	}
	if lineName == "" {
		return result, nil
	}

	lines, err := s.catalog.ListProductLines(ctx, &result.BrandID, false)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		if strings.EqualFold(l.Name, lineName) {
			result.ProductLineID = l.ID
			break
		}
	}
	if result.ProductLineID == 0 {
		line, err := s.CreateProductLine(ctx, models.CreateProductLineRequest{Name: lineName, BrandID: result.BrandID, IsActive: row.IsActive})
		if err != nil {
			return nil, err
		}
		result.ProductLineID = line.ID
		result.Created = append(result.Created, string(models.LevelProductLine))
	}
	return result, nil
}

// ExportRows flattens the hierarchy in display order. A node without
// children still gets its own row. IsActive is the deepest node's flag.
func (s *CatalogService) ExportRows(ctx context.Context) ([]CatalogExportRow, error) {
	tree, err := s.catalog.GetTree(ctx, false)
	if err != nil {
		return nil, err
	}

	var rows []CatalogExportRow
	for _, c := range tree.Categories {
		if len(c.Brands) == 0 {
			rows = append(rows, CatalogExportRow{Category: c.Name, IsActive: c.IsActive})
			continue
		}
		for _, b := range c.Brands {
			if len(b.ProductLines) == 0 {
				rows = append(rows, CatalogExportRow{Category: c.Name, Brand: b.Name, IsActive: b.IsActive})
				continue
			}
			for _, l := range b.ProductLines {
				rows = append(rows, CatalogExportRow{Category: c.Name, Brand: b.Name, ProductLine: l.Name, IsActive: l.IsActive})
			}
		}
	}
	return rows, nil
}
