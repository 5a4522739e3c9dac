package pricerequests

import (
	"context"
	"errors"
	"time"

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

// SkipReasonMissingPrice marks bulk items that propose no price at all.
const SkipReasonMissingPrice = "missing proposed price"

// SkipReasonInvalidPrice marks bulk items whose proposed price is negative.
const SkipReasonInvalidPrice = "invalid proposed price"

// migrationHint is returned instead of the generic database error when the
// requests table is missing entirely.
const migrationHint = "price_change_requests table is missing; run database migrations"

// CreateRequestInput carries one proposed price change.
type CreateRequestInput struct {
	ProductID             uuid.UUID
	ProposedResellerPrice *decimal.Decimal
	ProposedCustomerPrice *decimal.Decimal
	Notes                 *string
	ActorID               uuid.UUID
	ActorRole             string
}

// DecideInput carries the reviewer verdict for one pending request.
type DecideInput struct {
	RequestID uuid.UUID
	Decision  enums.PriceRequestDecision
	ActorID   uuid.UUID
	ActorRole string
}

// BulkItem is one entry of a bulk create call.
type BulkItem struct {
	ProductID             uuid.UUID
	ProposedResellerPrice *decimal.Decimal
	ProposedCustomerPrice *decimal.Decimal
	Notes                 *string
}

// BulkCreateInput carries the full bulk create payload.
type BulkCreateInput struct {
	Items     []BulkItem
	ActorID   uuid.UUID
	ActorRole string
}

// BulkSkippedItem reports why one bulk entry was not inserted.
type BulkSkippedItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Reason    string    `json:"reason"`
}

// BulkCreateResult summarizes one bulk create run. It is returned to the
// caller and never persisted.
type BulkCreateResult struct {
	CreatedCount int               `json:"created_count"`
	Skipped      []BulkSkippedItem `json:"skipped"`
}

// ListRequestsInput holds request listing filters.
type ListRequestsInput struct {
	Limit     int
	Cursor    string
	Status    enums.PriceRequestStatus
	ProductID *uuid.UUID
}

// Service exposes the price change request workflow.
type Service interface {
	CreateRequest(ctx context.Context, input CreateRequestInput) (*RequestDTO, error)
	DecideRequest(ctx context.Context, input DecideInput) (*RequestDTO, error)
	BulkCreateRequests(ctx context.Context, input BulkCreateInput) (*BulkCreateResult, error)
	GetRequest(ctx context.Context, id uuid.UUID) (*RequestDTO, error)
	ListRequests(ctx context.Context, input ListRequestsInput) (*RequestListResult, error)
}

type service struct {
	repo        *Repository
	dbClient    *db.Client
	events      *outbox.Service
	invalidator *cache.Invalidator
	stats       *metrics.PricingMetrics
	logg        *logger.Logger
}

// NewService wires the request workflow service. The metrics recorder may be
// nil; every other dependency is required.
func NewService(
	repo *Repository,
	dbClient *db.Client,
	events *outbox.Service,
	invalidator *cache.Invalidator,
	stats *metrics.PricingMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, errors.New("price request repository is required")
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

func (s *service) CreateRequest(ctx context.Context, input CreateRequestInput) (*RequestDTO, error) {
	if input.ProposedResellerPrice == nil && input.ProposedCustomerPrice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no price fields provided")
	}
	if err := validateProposedPrices(input.ProposedResellerPrice, input.ProposedCustomerPrice); err != nil {
		return nil, err
	}

	exists, err := s.repo.ProductExists(ctx, input.ProductID)
	if err != nil {
		return nil, s.wrapPersistence(err, "db: check product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	request := &models.PriceChangeRequest{
		ID:                    uuid.New(),
		ProductID:             input.ProductID,
		ProposedResellerPrice: input.ProposedResellerPrice,
		ProposedCustomerPrice: input.ProposedCustomerPrice,
		Notes:                 input.Notes,
		Status:                enums.PriceRequestPending,
		CreatedBy:             input.ActorID,
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Create(ctx, request); err != nil {
			return s.wrapPersistence(err, "db: insert price request")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPriceRequestCreated,
			AggregateType: enums.AggregatePriceRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: input.ActorRole},
			Version:       1,
			Data: payloads.PriceRequestCreatedEvent{
				RequestID:             request.ID,
				ProductID:             request.ProductID,
				ProposedResellerPrice: request.ProposedResellerPrice,
				ProposedCustomerPrice: request.ProposedCustomerPrice,
				CreatedBy:             input.ActorID,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.stats.IncRequestCreated()
	s.invalidator.PriceRequestViews(ctx, request.ProductID)
	return NewRequestDTO(request), nil
}

// DecideRequest resolves one pending request. On approval the proposed
// prices land on the product before the status flips, all in one
// transaction, so a failed status write also rolls the prices back.
func (s *service) DecideRequest(ctx context.Context, input DecideInput) (*RequestDTO, error) {
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject")
	}

	started := time.Now()
	var request *models.PriceChangeRequest

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		loaded, err := txRepo.FindByID(ctx, input.RequestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "price request not found")
			}
			return s.wrapPersistence(err, "db: load price request")
		}
		if loaded.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request already decided")
		}

		status := input.Decision.Status()
		decidedAt := time.Now().UTC()

		if status == enums.PriceRequestApproved {
			affected, err := txRepo.ApplyProposedPrices(ctx, loaded)
			if err != nil {
				return s.wrapPersistence(err, "db: apply proposed prices")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
		}

		affected, err := txRepo.Decide(ctx, loaded.ID, status, input.ActorID, decidedAt)
		if err != nil {
			return s.wrapPersistence(err, "db: decide price request")
		}
		if affected == 0 {
			// lost the race against a concurrent decision
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request already decided")
		}

		loaded.Status = status
		loaded.ApprovedBy = &input.ActorID
		loaded.DecidedAt = &decidedAt

		if err := s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPriceRequestDecided,
			AggregateType: enums.AggregatePriceRequest,
			AggregateID:   loaded.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: input.ActorRole},
			Version:       1,
			Data: payloads.PriceRequestDecidedEvent{
				RequestID: loaded.ID,
				ProductID: loaded.ProductID,
				Decision:  input.Decision,
				Status:    status,
				DecidedBy: input.ActorID,
				DecidedAt: decidedAt,
			},
		}); err != nil {
			return s.wrapPersistence(err, "outbox: price request decided")
		}

		request = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.stats.ObserveDecision(input.Decision.String(), time.Since(started))
	s.invalidator.PriceRequestViews(ctx, request.ProductID)
	if request.Status == enums.PriceRequestApproved {
		s.invalidator.ProductViews(ctx, request.ProductID)
	}
	return NewRequestDTO(request), nil
}

// BulkCreateRequests validates items up front, then inserts the survivors in
// one batch. Items without a proposed price or with a negative one are
// reported under Skipped.
func (s *service) BulkCreateRequests(ctx context.Context, input BulkCreateInput) (*BulkCreateResult, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no price change items provided")
	}

	result := &BulkCreateResult{Skipped: []BulkSkippedItem{}}
	rows := make([]models.PriceChangeRequest, 0, len(input.Items))
	productIDs := make([]uuid.UUID, 0, len(input.Items))

	for _, item := range input.Items {
		if item.ProposedResellerPrice == nil && item.ProposedCustomerPrice == nil {
			result.Skipped = append(result.Skipped, BulkSkippedItem{ProductID: item.ProductID, Reason: SkipReasonMissingPrice})
			s.stats.IncBulkSkipped(SkipReasonMissingPrice)
			continue
		}
		if err := validateProposedPrices(item.ProposedResellerPrice, item.ProposedCustomerPrice); err != nil {
			result.Skipped = append(result.Skipped, BulkSkippedItem{ProductID: item.ProductID, Reason: SkipReasonInvalidPrice})
			s.stats.IncBulkSkipped(SkipReasonInvalidPrice)
			continue
		}
		rows = append(rows, models.PriceChangeRequest{
			ID:                    uuid.New(),
			ProductID:             item.ProductID,
			ProposedResellerPrice: item.ProposedResellerPrice,
			ProposedCustomerPrice: item.ProposedCustomerPrice,
			Notes:                 item.Notes,
			Status:                enums.PriceRequestPending,
			CreatedBy:             input.ActorID,
		})
		productIDs = append(productIDs, item.ProductID)
	}

	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no valid items")
	}

	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		return nil, s.wrapPersistence(err, "db: bulk insert price requests")
	}

	result.CreatedCount = len(rows)
	for range rows {
		s.stats.IncRequestCreated()
	}
	s.invalidator.PriceRequestViews(ctx, productIDs...)
	return result, nil
}

func (s *service) GetRequest(ctx context.Context, id uuid.UUID) (*RequestDTO, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "price request not found")
		}
		return nil, s.wrapPersistence(err, "db: load price request")
	}
	return NewRequestDTO(request), nil
}

func (s *service) ListRequests(ctx context.Context, input ListRequestsInput) (*RequestListResult, error) {
	if input.Status != "" && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if _, err := pagination.ParseCursor(input.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, nextCursor, err := s.repo.ListRequests(ctx, requestListQuery{
		Pagination: pagination.Params{Limit: input.Limit, Cursor: input.Cursor},
		Status:     input.Status,
		ProductID:  input.ProductID,
	})
	if err != nil {
		return nil, s.wrapPersistence(err, "db: list price requests")
	}

	result := &RequestListResult{
		Requests:   make([]RequestDTO, 0, len(rows)),
		NextCursor: nextCursor,
	}
	for i := range rows {
		result.Requests = append(result.Requests, *NewRequestDTO(&rows[i]))
	}
	return result, nil
}

// wrapPersistence maps storage failures to the dependency code, upgrading a
// missing relation to an instruction the operator can act on.
func (s *service) wrapPersistence(err error, message string) error {
	if db.IsUndefinedTable(err) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message).
			WithDetails(migrationHint)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func validateProposedPrices(reseller, customer *decimal.Decimal) error {
	if reseller != nil && reseller.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "proposed reseller price must be non-negative")
	}
	if customer != nil && customer.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "proposed customer price must be non-negative")
	}
	return nil
}
