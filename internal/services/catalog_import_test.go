package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsurePathCreatesAndReuses(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	first, err := env.catalog.EnsurePath(ctx, CatalogPathRow{Category: "Drinks", Brand: "Acme", ProductLine: "Cola", IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, []string{"category", "brand", "productLine"}, first.Created)

	again, err := env.catalog.EnsurePath(ctx, CatalogPathRow{Category: " drinks ", Brand: "ACME", ProductLine: "Lemonade"})
	require.NoError(t, err)
	assert.Equal(t, first.CategoryID, again.CategoryID)
	assert.Equal(t, first.BrandID, again.BrandID)
	assert.NotEqual(t, first.ProductLineID, again.ProductLineID)
	assert.Equal(t, []string{"productLine"}, again.Created)

	category, err := env.catalog.GetCategory(ctx, first.CategoryID)
	require.NoError(t, err)
	assert.False(t, category.IsActive)
	lemonade, err := env.catalog.GetProductLine(ctx, again.ProductLineID)
	require.NoError(t, err)
	assert.True(t, lemonade.IsActive)
	assert.Equal(t, 1, lemonade.DisplayOrder)

	categoryOnly, err := env.catalog.EnsurePath(ctx, CatalogPathRow{Category: "Snacks"})
	require.NoError(t, err)
	assert.Zero(t, categoryOnly.BrandID)
}

func TestEnsurePathValidation(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	_, err := env.catalog.EnsurePath(ctx, CatalogPathRow{Category: "  ", Brand: "Acme"})
	assertValidation(t, err, "category", MsgCategoryRequired)

	_, err = env.catalog.EnsurePath(ctx, CatalogPathRow{Category: "Drinks", ProductLine: "Cola"})
	assertValidation(t, err, "brand", MsgBrandRequired)

	categories, err := env.catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestExportRowsFlattensTree(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	for _, row := range []CatalogPathRow{
		{Category: "Drinks", Brand: "Acme", ProductLine: "Cola"},
		{Category: "Drinks", Brand: "Acme", ProductLine: "Lemonade"},
		{Category: "Drinks", Brand: "Bolt"},
		{Category: "Snacks"},
	} {
		_, err := env.catalog.EnsurePath(ctx, row)
		require.NoError(t, err)
	}

	rows, err := env.catalog.ExportRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, CatalogExportRow{Category: "Drinks", Brand: "Acme", ProductLine: "Cola", IsActive: true}, rows[0])
	assert.Equal(t, "Lemonade", rows[1].ProductLine)
	assert.Equal(t, CatalogExportRow{Category: "Drinks", Brand: "Bolt", IsActive: true}, rows[2])
	assert.Equal(t, CatalogExportRow{Category: "Snacks", IsActive: true}, rows[3])
}
