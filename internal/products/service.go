package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tatlico/tatlico-backend/pkg/cache"
	"github.com/tatlico/tatlico-backend/pkg/db"
	"github.com/tatlico/tatlico-backend/pkg/db/models"
	"github.com/tatlico/tatlico-backend/pkg/enums"
	pkgerrors "github.com/tatlico/tatlico-backend/pkg/errors"
	"github.com/tatlico/tatlico-backend/pkg/logger"
	"github.com/tatlico/tatlico-backend/pkg/metrics"
	"github.com/tatlico/tatlico-backend/pkg/outbox"
	"github.com/tatlico/tatlico-backend/pkg/outbox/payloads"
	"github.com/tatlico/tatlico-backend/pkg/pagination"
)

// Skip reasons reported per item by BulkApplyPrices.
const (
	SkipReasonNoFields        = "no fields to update"
	SkipReasonProductNotFound = "product not found"
	SkipReasonDatabaseError   = "database error"
)

var errProductMissing = errors.New("product missing")

// CreateProductInput carries the fields needed to register a catalog entry.
type CreateProductInput struct {
	SKU           string
	Name          string
	Brand         *string
	BaseCaseCost  decimal.Decimal
	UnitsPerCase  int
	ResellerPrice *decimal.Decimal
	CustomerPrice *decimal.Decimal
	ActorID       uuid.UUID
	ActorRole     string
}

// UpdatePricesInput is a direct admin price edit on one product.
type UpdatePricesInput struct {
	ProductID     uuid.UUID
	ResellerPrice *decimal.Decimal
	CustomerPrice *decimal.Decimal
	ActorID       uuid.UUID
	ActorRole     string
}

// PriceItem is one entry of a bulk apply call.
type PriceItem struct {
	ProductID     uuid.UUID
	ResellerPrice *decimal.Decimal
	CustomerPrice *decimal.Decimal
}

// BulkApplyInput carries the full bulk apply payload.
type BulkApplyInput struct {
	Items     []PriceItem
	ActorID   uuid.UUID
	ActorRole string
}

// SkippedItem reports why one bulk entry was not applied.
type SkippedItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Reason    string    `json:"reason"`
}

// BulkApplyResult summarizes one bulk apply run. It is returned to the
// caller and never persisted.
type BulkApplyResult struct {
	UpdatedCount int           `json:"updated_count"`
	Skipped      []SkippedItem `json:"skipped"`
}

// ListProductsInput holds catalog listing filters.
type ListProductsInput struct {
	Limit      int
	Cursor     string
	Query      string
	ActiveOnly bool
}

// Service exposes catalog operations.
type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProductPrices(ctx context.Context, input UpdatePricesInput) (*ProductDTO, error)
	BulkApplyPrices(ctx context.Context, input BulkApplyInput) (*BulkApplyResult, error)
}

type service struct {
	repo        *Repository
	dbClient    *db.Client
	events      *outbox.Service
	invalidator *cache.Invalidator
	stats       *metrics.PricingMetrics
	logg        *logger.Logger
}

// NewService wires the catalog service. The metrics recorder may be nil;
// every other dependency is required.
func NewService(
	repo *Repository,
	dbClient *db.Client,
	events *outbox.Service,
	invalidator *cache.Invalidator,
	stats *metrics.PricingMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, errors.New("product repository is required")
	}
	if dbClient == nil {
		return nil, errors.New("db client is required")
	}
	if events == nil {
		return nil, errors.New("outbox service is required")
	}
	if invalidator == nil {
		return nil, errors.New("view invalidator is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{
		repo:        repo,
		dbClient:    dbClient,
		events:      events,
		invalidator: invalidator,
		stats:       stats,
		logg:        logg,
	}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return NewProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if _, err := pagination.ParseCursor(input.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, nextCursor, err := s.repo.ListProducts(ctx, productListQuery{
		Pagination: pagination.Params{Limit: input.Limit, Cursor: input.Cursor},
		Query:      input.Query,
		ActiveOnly: input.ActiveOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}

	result := &ProductListResult{
		Products:   make([]ProductDTO, 0, len(rows)),
		NextCursor: nextCursor,
	}
	for i := range rows {
		result.Products = append(result.Products, *NewProductDTO(&rows[i]))
	}
	return result, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if input.SKU == "" || input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku and name are required")
	}
	if input.BaseCaseCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base case cost must be non-negative")
	}
	if input.UnitsPerCase < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "units per case must be at least 1")
	}
	if err := validatePrices(input.ResellerPrice, input.CustomerPrice); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:            uuid.New(),
		SKU:           input.SKU,
		Name:          input.Name,
		Brand:         input.Brand,
		BaseCaseCost:  input.BaseCaseCost,
		UnitsPerCase:  input.UnitsPerCase,
		ResellerPrice: input.ResellerPrice,
		CustomerPrice: input.CustomerPrice,
		IsActive:      true,
	}
	if _, err := s.repo.CreateProduct(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("sku %q already exists", input.SKU))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}

	s.invalidator.ProductViews(ctx, product.ID)
	return NewProductDTO(product), nil
}

// UpdateProductPrices performs a direct admin edit. The product must keep at
// least one of the two prices set once the patch is applied.
func (s *service) UpdateProductPrices(ctx context.Context, input UpdatePricesInput) (*ProductDTO, error) {
	if input.ResellerPrice == nil && input.CustomerPrice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, SkipReasonNoFields)
	}
	if err := validatePrices(input.ResellerPrice, input.CustomerPrice); err != nil {
		return nil, err
	}

	var dto *ProductDTO
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.FindByID(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
		}

		if input.ResellerPrice != nil {
			product.ResellerPrice = input.ResellerPrice
		}
		if input.CustomerPrice != nil {
			product.CustomerPrice = input.CustomerPrice
		}
		if !product.HasAnyPrice() {
			return pkgerrors.New(pkgerrors.CodeValidation, "product must keep at least one price")
		}

		if _, err := txRepo.UpdateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product prices")
		}

		if err := s.emitPricesUpdated(ctx, tx, product, input.ActorID, input.ActorRole, payloads.PriceSourceDirectEdit); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "outbox: product prices updated")
		}

		dto = NewProductDTO(product)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.ProductViews(ctx, input.ProductID)
	return dto, nil
}

// BulkApplyPrices applies each item in isolation. A failing item is recorded
// under Skipped and never aborts the remaining items.
func (s *service) BulkApplyPrices(ctx context.Context, input BulkApplyInput) (*BulkApplyResult, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no items provided")
	}

	result := &BulkApplyResult{Skipped: []SkippedItem{}}
	updatedIDs := make([]uuid.UUID, 0, len(input.Items))

	for _, item := range input.Items {
		if item.ResellerPrice == nil && item.CustomerPrice == nil {
			s.skip(result, item.ProductID, SkipReasonNoFields)
			continue
		}

		err := s.applyItem(ctx, item, input.ActorID, input.ActorRole)
		switch {
		case err == nil:
			result.UpdatedCount++
			updatedIDs = append(updatedIDs, item.ProductID)
		case errors.Is(err, errProductMissing):
			s.skip(result, item.ProductID, SkipReasonProductNotFound)
		default:
			logCtx := s.logg.WithField(ctx, "product_id", item.ProductID.String())
			s.logg.Error(logCtx, "bulk price apply failed", err)
			s.skip(result, item.ProductID, SkipReasonDatabaseError)
		}
	}

	s.stats.AddBulkApplied(result.UpdatedCount)
	if len(updatedIDs) > 0 {
		s.invalidator.ProductViews(ctx, updatedIDs...)
	}
	return result, nil
}

func (s *service) applyItem(ctx context.Context, item PriceItem, actorID uuid.UUID, actorRole string) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		affected, err := txRepo.UpdatePrices(ctx, item.ProductID, item.ResellerPrice, item.CustomerPrice)
		if err != nil {
			return err
		}
		if affected == 0 {
			return errProductMissing
		}

		product := &models.Product{
			ID:            item.ProductID,
			ResellerPrice: item.ResellerPrice,
			CustomerPrice: item.CustomerPrice,
		}
		return s.emitPricesUpdated(ctx, tx, product, actorID, actorRole, payloads.PriceSourceBulkApply)
	})
}

func (s *service) emitPricesUpdated(ctx context.Context, tx *gorm.DB, product *models.Product, actorID uuid.UUID, actorRole, source string) error {
	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventProductPricesUpdate,
		AggregateType: enums.AggregateProduct,
		AggregateID:   product.ID,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: actorRole},
		Version:       1,
		Data: payloads.ProductPricesUpdatedEvent{
			ProductID:     product.ID,
			ResellerPrice: product.ResellerPrice,
			CustomerPrice: product.CustomerPrice,
			Source:        source,
		},
	})
}

func (s *service) skip(result *BulkApplyResult, productID uuid.UUID, reason string) {
	result.Skipped = append(result.Skipped, SkippedItem{ProductID: productID, Reason: reason})
	s.stats.IncBulkSkipped(reason)
}

func validatePrices(reseller, customer *decimal.Decimal) error {
	if reseller != nil && reseller.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "reseller price must be non-negative")
	}
	if customer != nil && customer.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer price must be non-negative")
	}
	return nil
}
