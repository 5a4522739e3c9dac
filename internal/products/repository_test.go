package product

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tatlico/tatlico-backend/pkg/db/models"
	"github.com/tatlico/tatlico-backend/pkg/pagination"
)

func setupProductTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  brand TEXT,
  base_case_cost NUMERIC NOT NULL DEFAULT 0,
  units_per_case INTEGER NOT NULL DEFAULT 1,
  reseller_price NUMERIC CHECK (reseller_price IS NULL OR reseller_price >= 0),
  customer_price NUMERIC CHECK (customer_price IS NULL OR customer_price >= 0),
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	outboxEvents := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(outboxEvents).Error)
	return db
}

func decimalPtr(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func mustCreateProduct(t *testing.T, db *gorm.DB, name string, reseller, customer *decimal.Decimal) *models.Product {
	t.Helper()

	row := &models.Product{
		ID:            uuid.New(),
		SKU:           fmt.Sprintf("TT-%s", uuid.NewString()[:8]),
		Name:          name,
		BaseCaseCost:  decimal.RequireFromString("100"),
		UnitsPerCase:  384,
		ResellerPrice: reseller,
		CustomerPrice: customer,
		IsActive:      true,
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func TestUpdatePricesPatchesOnlyProvidedColumns(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	row := mustCreateProduct(t, db, "Fındık Ezmesi", decimalPtr("4.50"), decimalPtr("5.90"))

	affected, err := repo.UpdatePrices(ctx, row.ID, decimalPtr("4.75"), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	reloaded, err := repo.FindByID(ctx, row.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ResellerPrice)
	require.NotNil(t, reloaded.CustomerPrice)
	assert.True(t, reloaded.ResellerPrice.Equal(decimal.RequireFromString("4.75")))
	assert.True(t, reloaded.CustomerPrice.Equal(decimal.RequireFromString("5.90")))
}

func TestUpdatePricesMissingProduct(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewRepository(db)

	affected, err := repo.UpdatePrices(context.Background(), uuid.New(), decimalPtr("1.00"), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestUpdatePricesWithoutFieldsIsNoop(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewRepository(db)

	row := mustCreateProduct(t, db, "Lokum", decimalPtr("2.00"), nil)

	affected, err := repo.UpdatePrices(context.Background(), row.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestListProductsPaginates(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		row := mustCreateProduct(t, db, fmt.Sprintf("Çikolata %d", i), decimalPtr("3.00"), nil)
		require.NoError(t, db.Model(&models.Product{}).
			Where("id = ?", row.ID).
			UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	first, cursor, err := repo.ListProducts(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, cursor)
	assert.Equal(t, "Çikolata 2", first[0].Name)

	second, next, err := repo.ListProducts(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 2, Cursor: cursor},
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Empty(t, next)
	assert.Equal(t, "Çikolata 0", second[0].Name)
}

func TestListProductsFiltersByQueryAndActive(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	match := mustCreateProduct(t, db, "Antep Fıstıklı Baklava", decimalPtr("8.00"), nil)
	mustCreateProduct(t, db, "Sade Lokum", decimalPtr("2.00"), nil)
	inactive := mustCreateProduct(t, db, "Baklava Eski", decimalPtr("7.00"), nil)
	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", inactive.ID).
		UpdateColumn("is_active", false).Error)

	rows, _, err := repo.ListProducts(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 10},
		Query:      "baklava",
		ActiveOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, match.ID, rows[0].ID)
}
