package catalog_test

import (
	"context"
	"testing"

	"github.com/fjod/printshop/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *catalog.Repository {
	repo, err := catalog.NewRepository(":memory:")
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations("./migrations"))
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestGetVariant_Found(t *testing.T) {
	repo := setupTestDB(t)

	v, err := repo.GetVariant(context.Background(), "surf-break-01", "16x20", "Unframed")
	require.NoError(t, err)
	assert.Equal(t, "Florida Surf Break", v.Title)
	assert.Equal(t, "Vintage Travel", v.Style)
	assert.True(t, decimal.RequireFromString("29.99").Equal(v.UnitPrice))
	require.NotNil(t, v.OriginalUnitPrice)
	assert.True(t, decimal.RequireFromString("39.99").Equal(*v.OriginalUnitPrice))
	assert.Equal(t, "/images/prints/surf-break-01.jpg", v.ImageRef)
}

func TestGetVariant_VariantImageOverridesProduct(t *testing.T) {
	repo := setupTestDB(t)

	v, err := repo.GetVariant(context.Background(), "surf-break-01", "16x20", "Black Frame")
	require.NoError(t, err)
	assert.Equal(t, "/images/prints/surf-break-01-black.jpg", v.ImageRef)
	assert.Nil(t, v.OriginalUnitPrice)
}

func TestGetVariant_Errors(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.GetVariant(ctx, "nope", "8x10", "Unframed")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	_, err = repo.GetVariant(ctx, "surf-break-01", "40x60", "Unframed")
	assert.ErrorIs(t, err, catalog.ErrVariantNotFound)

	_, err = repo.GetVariant(ctx, "key-west-02", "24x36", "Unframed")
	assert.ErrorIs(t, err, catalog.ErrProductUnavailable)

	_, err = repo.GetVariant(ctx, "miami-deco-04", "16x20", "Unframed")
	assert.ErrorIs(t, err, catalog.ErrProductUnavailable)
}

func TestGetVariant_CancelledContext(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetVariant(ctx, "surf-break-01", "8x10", "Unframed")
	assert.Error(t, err)
}
