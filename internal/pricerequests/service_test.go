package pricerequests

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tatlico/tatlico-backend/pkg/cache"
	"github.com/tatlico/tatlico-backend/pkg/db"
	"github.com/tatlico/tatlico-backend/pkg/db/models"
	"github.com/tatlico/tatlico-backend/pkg/enums"
	pkgerrors "github.com/tatlico/tatlico-backend/pkg/errors"
	"github.com/tatlico/tatlico-backend/pkg/logger"
	"github.com/tatlico/tatlico-backend/pkg/outbox"
)

func setupRequestTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  brand TEXT,
  base_case_cost NUMERIC NOT NULL DEFAULT 0,
  units_per_case INTEGER NOT NULL DEFAULT 1,
  reseller_price NUMERIC,
  customer_price NUMERIC,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	requests := `
CREATE TABLE IF NOT EXISTS price_change_requests (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  product_id TEXT NOT NULL,
  proposed_reseller_price NUMERIC,
  proposed_customer_price NUMERIC,
  notes TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  created_by TEXT NOT NULL,
  approved_by TEXT,
  decided_at DATETIME,
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
	require.NoError(t, conn.Exec(products).Error)
	require.NoError(t, conn.Exec(requests).Error)
	require.NoError(t, conn.Exec(outboxEvents).Error)
	return conn
}

type fakeViewStore struct {
	deleted   []string
	published []string
}

func (f *fakeViewStore) Del(ctx context.Context, keys ...string) error {
	f.deleted = append(f.deleted, keys...)
	return nil
}

func (f *fakeViewStore) Publish(ctx context.Context, channel string, payload any) error {
	f.published = append(f.published, payload.(string))
	return nil
}

func (f *fakeViewStore) ViewKey(parts ...string) string {
	return "tt:view:" + strings.Join(parts, ":")
}

func newTestService(t *testing.T) (Service, *gorm.DB, *fakeViewStore) {
	t.Helper()

	conn := setupRequestTestDB(t)
	logg := logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard})

	store := &fakeViewStore{}
	invalidator, err := cache.NewInvalidator(store, logg)
	require.NoError(t, err)

	events := outbox.NewService(outbox.NewRepository(conn), logg)

	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), events, invalidator, nil, logg)
	require.NoError(t, err)
	return svc, conn, store
}

func decimalPtr(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, reseller, customer *decimal.Decimal) *models.Product {
	t.Helper()

	row := &models.Product{
		ID:            uuid.New(),
		SKU:           fmt.Sprintf("TT-%s", uuid.NewString()[:8]),
		Name:          "Antep Fıstıklı Çikolata",
		BaseCaseCost:  decimal.RequireFromString("100"),
		UnitsPerCase:  384,
		ResellerPrice: reseller,
		CustomerPrice: customer,
		IsActive:      true,
	}
	require.NoError(t, conn.Create(row).Error)
	return row
}

func TestCreateRequestRequiresAPrice(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		ProductID: uuid.New(),
		ActorID:   uuid.New(),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "no price fields provided", typed.Message())
}

func TestCreateRequestPersistsPending(t *testing.T) {
	svc, conn, store := newTestService(t)
	ctx := context.Background()

	product := mustCreateProduct(t, conn, decimalPtr("4.00"), nil)
	actor := uuid.New()

	dto, err := svc.CreateRequest(ctx, CreateRequestInput{
		ProductID:             product.ID,
		ProposedResellerPrice: decimalPtr("4.40"),
		ActorID:               actor,
		ActorRole:             "analyst",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PriceRequestPending, dto.Status)
	assert.Equal(t, actor, dto.CreatedBy)
	assert.Nil(t, dto.ApprovedBy)
	assert.Nil(t, dto.DecidedAt)

	var eventCount int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&eventCount).Error)
	assert.Equal(t, int64(1), eventCount)
	assert.Contains(t, store.deleted, "tt:view:price-requests:pending")
}

func TestCreateRequestUnknownProduct(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		ProductID:             uuid.New(),
		ProposedResellerPrice: decimalPtr("4.40"),
		ActorID:               uuid.New(),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDecideRequestApproveAppliesPartialPrices(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	product := mustCreateProduct(t, conn, decimalPtr("4.00"), decimalPtr("5.50"))
	created, err := svc.CreateRequest(ctx, CreateRequestInput{
		ProductID:             product.ID,
		ProposedResellerPrice: decimalPtr("4.40"),
		ActorID:               uuid.New(),
	})
	require.NoError(t, err)

	admin := uuid.New()
	decided, err := svc.DecideRequest(ctx, DecideInput{
		RequestID: created.ID,
		Decision:  enums.PriceRequestDecisionApprove,
		ActorID:   admin,
		ActorRole: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PriceRequestApproved, decided.Status)
	require.NotNil(t, decided.ApprovedBy)
	assert.Equal(t, admin, *decided.ApprovedBy)
	require.NotNil(t, decided.DecidedAt)

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", product.ID).Error)
	require.NotNil(t, reloaded.ResellerPrice)
	assert.True(t, reloaded.ResellerPrice.Equal(decimal.RequireFromString("4.40")))
	// the customer price was not proposed, so it stays untouched
	require.NotNil(t, reloaded.CustomerPrice)
	assert.True(t, reloaded.CustomerPrice.Equal(decimal.RequireFromString("5.50")))
}

func TestDecideRequestRejectLeavesProductAlone(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	product := mustCreateProduct(t, conn, decimalPtr("4.00"), nil)
	created, err := svc.CreateRequest(ctx, CreateRequestInput{
		ProductID:             product.ID,
		ProposedResellerPrice: decimalPtr("9.99"),
		ActorID:               uuid.New(),
	})
	require.NoError(t, err)

	decided, err := svc.DecideRequest(ctx, DecideInput{
		RequestID: created.ID,
		Decision:  enums.PriceRequestDecisionReject,
		ActorID:   uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PriceRequestRejected, decided.Status)
	require.NotNil(t, decided.DecidedAt)

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", product.ID).Error)
	require.NotNil(t, reloaded.ResellerPrice)
	assert.True(t, reloaded.ResellerPrice.Equal(decimal.RequireFromString("4.00")))
}

func TestDecideRequestIsTerminal(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	product := mustCreateProduct(t, conn, decimalPtr("4.00"), nil)
	created, err := svc.CreateRequest(ctx, CreateRequestInput{
		ProductID:             product.ID,
		ProposedResellerPrice: decimalPtr("4.40"),
		ActorID:               uuid.New(),
	})
	require.NoError(t, err)

	_, err = svc.DecideRequest(ctx, DecideInput{
		RequestID: created.ID,
		Decision:  enums.PriceRequestDecisionApprove,
		ActorID:   uuid.New(),
	})
	require.NoError(t, err)

	_, err = svc.DecideRequest(ctx, DecideInput{
		RequestID: created.ID,
		Decision:  enums.PriceRequestDecisionReject,
		ActorID:   uuid.New(),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Equal(t, "request already decided", typed.Message())

	// the rejected retry must not flip the stored status
	reloaded, err := NewRepository(conn).FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PriceRequestApproved, reloaded.Status)
}

func TestDecideRequestNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.DecideRequest(context.Background(), DecideInput{
		RequestID: uuid.New(),
		Decision:  enums.PriceRequestDecisionApprove,
		ActorID:   uuid.New(),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestBulkCreateSkipAccounting(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	withPrice := make([]uuid.UUID, 0, 3)
	for i := 0; i < 3; i++ {
		withPrice = append(withPrice, mustCreateProduct(t, conn, decimalPtr("2.00"), nil).ID)
	}
	noPriceA := uuid.New()
	noPriceB := uuid.New()

	items := []BulkItem{
		{ProductID: withPrice[0], ProposedResellerPrice: decimalPtr("2.10")},
		{ProductID: withPrice[1], ProposedCustomerPrice: decimalPtr("3.20")},
		{ProductID: noPriceA},
		{ProductID: withPrice[2], ProposedResellerPrice: decimalPtr("2.30"), ProposedCustomerPrice: decimalPtr("3.30")},
		{ProductID: noPriceB},
	}

	result, err := svc.BulkCreateRequests(ctx, BulkCreateInput{Items: items, ActorID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, 3, result.CreatedCount)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, noPriceA, result.Skipped[0].ProductID)
	assert.Equal(t, SkipReasonMissingPrice, result.Skipped[0].Reason)
	assert.Equal(t, noPriceB, result.Skipped[1].ProductID)
	assert.Equal(t, SkipReasonMissingPrice, result.Skipped[1].Reason)

	var count int64
	require.NoError(t, conn.Model(&models.PriceChangeRequest{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestBulkCreateSkipsNegativePriceItems(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	valid := mustCreateProduct(t, conn, decimalPtr("2.00"), nil).ID
	negative := mustCreateProduct(t, conn, decimalPtr("2.00"), nil).ID

	result, err := svc.BulkCreateRequests(ctx, BulkCreateInput{
		Items: []BulkItem{
			{ProductID: valid, ProposedResellerPrice: decimalPtr("2.10")},
			{ProductID: negative, ProposedResellerPrice: decimalPtr("-0.50")},
		},
		ActorID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.CreatedCount)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, negative, result.Skipped[0].ProductID)
	assert.Equal(t, SkipReasonInvalidPrice, result.Skipped[0].Reason)

	var count int64
	require.NoError(t, conn.Model(&models.PriceChangeRequest{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestBulkCreateRejectsEmptyInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.BulkCreateRequests(context.Background(), BulkCreateInput{})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestBulkCreateRejectsAllSkipped(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.BulkCreateRequests(context.Background(), BulkCreateInput{
		Items:   []BulkItem{{ProductID: uuid.New()}, {ProductID: uuid.New()}},
		ActorID: uuid.New(),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "no valid items", typed.Message())
}

func TestBulkCreateMissingTableGetsMigrationHint(t *testing.T) {
	svc, conn, _ := newTestService(t)

	require.NoError(t, conn.Exec("DROP TABLE price_change_requests").Error)

	_, err := svc.BulkCreateRequests(context.Background(), BulkCreateInput{
		Items:   []BulkItem{{ProductID: uuid.New(), ProposedResellerPrice: decimalPtr("1.00")}},
		ActorID: uuid.New(),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
	assert.Equal(t, migrationHint, typed.Details())
}

func TestListRequestsFiltersByStatus(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	product := mustCreateProduct(t, conn, decimalPtr("2.00"), nil)
	first, err := svc.CreateRequest(ctx, CreateRequestInput{
		ProductID:             product.ID,
		ProposedResellerPrice: decimalPtr("2.10"),
		ActorID:               uuid.New(),
	})
	require.NoError(t, err)
	_, err = svc.CreateRequest(ctx, CreateRequestInput{
		ProductID:             product.ID,
		ProposedCustomerPrice: decimalPtr("3.20"),
		ActorID:               uuid.New(),
	})
	require.NoError(t, err)

	_, err = svc.DecideRequest(ctx, DecideInput{
		RequestID: first.ID,
		Decision:  enums.PriceRequestDecisionApprove,
		ActorID:   uuid.New(),
	})
	require.NoError(t, err)

	pending, err := svc.ListRequests(ctx, ListRequestsInput{Status: enums.PriceRequestPending})
	require.NoError(t, err)
	require.Len(t, pending.Requests, 1)
	assert.Equal(t, enums.PriceRequestPending, pending.Requests[0].Status)

	approved, err := svc.ListRequests(ctx, ListRequestsInput{Status: enums.PriceRequestApproved})
	require.NoError(t, err)
	require.Len(t, approved.Requests, 1)
	assert.Equal(t, first.ID, approved.Requests[0].ID)
}
