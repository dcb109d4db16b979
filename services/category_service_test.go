package services

import (
	"context"
	"strings"
	"testing"

	"storefront_server/lib"
	"storefront_server/structs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCategory(t *testing.T) {
	env := setupServices(t, false)
	ctx := context.Background()

	t.Run("assigns id", func(t *testing.T) {
		c, err := env.sm.CategoryService.CreateCategory(ctx, &structs.CreateCategoryRequest{Name: "Beverages"})
		require.NoError(t, err)
		assert.NotZero(t, c.ID)
		assert.Equal(t, "Beverages", c.String())
	})

	t.Run("name at limit", func(t *testing.T) {
		_, err := env.sm.CategoryService.CreateCategory(ctx, &structs.CreateCategoryRequest{Name: strings.Repeat("x", 50)})
		assert.NoError(t, err)
	})

	t.Run("name too long", func(t *testing.T) {
		_, err := env.sm.CategoryService.CreateCategory(ctx, &structs.CreateCategoryRequest{Name: strings.Repeat("x", 51)})
		require.Error(t, err)
		assert.True(t, lib.IsValidationError(err))
	})

	t.Run("name required", func(t *testing.T) {
		_, err := env.sm.CategoryService.CreateCategory(ctx, &structs.CreateCategoryRequest{})
		assert.True(t, lib.IsValidationError(err))
	})
}

func TestGetCategory(t *testing.T) {
	env := setupServices(t, false)
	ctx := context.Background()
	created := env.createCategory(t, "Snacks")

	got, err := env.sm.CategoryService.GetCategory(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)

	_, err = env.sm.CategoryService.GetCategory(ctx, created.ID+100)
	assert.True(t, lib.IsNotFound(err))
}

func TestListCategories(t *testing.T) {
	env := setupServices(t, false)
	for _, name := range []string{"A", "B", "C"} {
		env.createCategory(t, name)
	}

	page, err := env.sm.CategoryService.ListCategories(context.Background(), &structs.ListOptions{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Pagination.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "A", page.Data[0].Name)

	all, err := env.sm.CategoryService.ListCategories(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all.Data, 3)
}

func TestUpdateCategory(t *testing.T) {
	env := setupServices(t, false)
	ctx := context.Background()
	c := env.createCategory(t, "Drinks")

	updated, err := env.sm.CategoryService.UpdateCategory(ctx, c.ID, &structs.UpdateCategoryRequest{Name: ptr("Beverages")})
	require.NoError(t, err)
	assert.Equal(t, "Beverages", updated.Name)

	_, err = env.sm.CategoryService.UpdateCategory(ctx, c.ID, &structs.UpdateCategoryRequest{Name: ptr("")})
	assert.True(t, lib.IsValidationError(err))

	_, err = env.sm.CategoryService.UpdateCategory(ctx, c.ID+1, &structs.UpdateCategoryRequest{Name: ptr("Ghost")})
	assert.True(t, lib.IsNotFound(err))
}

func TestDeleteCategoryCascadesToProducts(t *testing.T) {
	env := setupServices(t, false)
	ctx := context.Background()

	category := env.createCategory(t, "Beverages")
	other := env.createCategory(t, "Snacks")
	for _, name := range []string{"Cola", "Lemonade", "Water"} {
		env.createProduct(t, name, "1.00", category.ID)
	}
	kept := env.createProduct(t, "Chips", "2.00", other.ID)

	result, err := env.sm.CategoryService.DeleteCategory(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Categories)
	assert.Equal(t, 3, result.Products)

	remaining, err := env.sm.ProductService.ListProducts(ctx, &structs.ProductListOptions{CategoryID: &category.ID})
	require.NoError(t, err)
	assert.Zero(t, remaining.Pagination.Total)

	_, err = env.sm.ProductService.GetProduct(ctx, kept.ID)
	assert.NoError(t, err)

	_, err = env.sm.CategoryService.DeleteCategory(ctx, category.ID)
	assert.True(t, lib.IsNotFound(err))
}
