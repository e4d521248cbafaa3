package catalogmanager

import (
	"context"
	"fmt"
	"net/http"

	"catalog-service/internal/models"
)

// FeaturedSelection is an in-progress edit of one node's featured list.
// Selection order is kept and becomes the storefront order on Save.
type FeaturedSelection struct {
	Level    models.NodeLevel
	NodeID   uint
	selected []uint
	manager  *Manager
}

// EditFeatured starts an edit seeded with the node's saved featured products
func (m *Manager) EditFeatured(ctx context.Context, level models.NodeLevel, id uint) (*FeaturedSelection, error) {
	current, err := m.featuredOf(ctx, level, id)
	if err != nil {
		return nil, err
	}
	selected := make([]uint, len(current))
	copy(selected, current)
	return &FeaturedSelection{Level: level, NodeID: id, selected: selected, manager: m}, nil
}

// Toggle adds productID to the end of the selection, or removes it when
// already selected. It returns whether the product is now selected.
func (f *FeaturedSelection) Toggle(productID uint) bool {
	if i := indexOf(f.selected, productID); i >= 0 {
		f.selected = append(f.selected[:i], f.selected[i+1:]...)
		return false
	}
	f.selected = append(f.selected, productID)
	return true
}

func (f *FeaturedSelection) IsSelected(productID uint) bool {
	return indexOf(f.selected, productID) >= 0
}

// Selected returns a copy of the current selection in order
func (f *FeaturedSelection) Selected() []uint {
	out := make([]uint, len(f.selected))
	copy(out, f.selected)
	return out
}

// Save overwrites the node's featured list and returns the list the service
// stored
func (f *FeaturedSelection) Save(ctx context.Context) ([]uint, error) {
	m := f.manager
	var out struct {
		ProductIDs []uint `json:"productIds"`
	}
	body := models.SetFeaturedRequest{ProductIDs: f.Selected()}
	path := nodePath(f.Level, f.NodeID) + "/featured"
	if err := m.mutate(ctx, "updating featured products for", f.Level, http.MethodPut, path, body, &out); err != nil {
		return nil, err
	}
	m.invalidate(f.Level, false)
	f.selected = append(f.selected[:0], out.ProductIDs...)
	return out.ProductIDs, nil
}

// Candidates lists the enabled products an operator may feature on a node.
// A category offers the products of all its brands.
func (m *Manager) Candidates(ctx context.Context, level models.NodeLevel, id uint) ([]models.Product, error) {
	products, err := m.Products(ctx)
	if err != nil {
		return nil, err
	}

	var match func(models.Product) bool
	switch level {
	case models.LevelCategory:
		brands, err := m.Brands(ctx, id)
		if err != nil {
			return nil, err
		}
		brandIDs := make(map[uint]bool, len(brands))
		for _, b := range brands {
			brandIDs[b.ID] = true
		}
		match = func(p models.Product) bool { return p.BrandID != nil && brandIDs[*p.BrandID] }
	case models.LevelBrand:
		match = func(p models.Product) bool { return p.BrandID != nil && *p.BrandID == id }
	case models.LevelProductLine:
		match = func(p models.Product) bool { return p.ProductLineID != nil && *p.ProductLineID == id }
	default:
		return nil, fmt.Errorf("unknown catalog level %q", level)
	}

	candidates := []models.Product{}
	for _, p := range products {
		if match(p) {
			candidates = append(candidates, p)
		}
	}
	return candidates, nil
}

func (m *Manager) featuredOf(ctx context.Context, level models.NodeLevel, id uint) ([]uint, error) {
	var node struct {
		FeaturedProductIDs []uint `json:"featuredProductIds"`
	}
	if err := m.query(ctx, nodePath(level, id), &node); err != nil {
		return nil, err
	}
	return node.FeaturedProductIDs, nil
}
