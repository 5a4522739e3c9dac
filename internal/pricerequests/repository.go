package pricerequests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tatlico/tatlico-backend/pkg/db/models"
	"github.com/tatlico/tatlico-backend/pkg/enums"
	"github.com/tatlico/tatlico-backend/pkg/pagination"
)

// Repository wires together price change request persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts one request row.
func (r *Repository) Create(ctx context.Context, request *models.PriceChangeRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// CreateBatch inserts every request in a single statement.
func (r *Repository) CreateBatch(ctx context.Context, requests []models.PriceChangeRequest) error {
	if len(requests) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&requests).Error
}

// FindByID loads the request without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PriceChangeRequest, error) {
	var request models.PriceChangeRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// ProductExists reports whether the referenced product row is present.
func (r *Repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Count(&count).Error
	return count > 0, err
}

// Decide moves a pending request into a terminal status. The WHERE clause on
// the current status is the concurrency guard: a second decision sees zero
// affected rows instead of overwriting the first.
func (r *Repository) Decide(ctx context.Context, id uuid.UUID, status enums.PriceRequestStatus, decidedBy uuid.UUID, decidedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PriceChangeRequest{}).
		Where("id = ? AND status = ?", id, enums.PriceRequestPending).
		Updates(map[string]any{
			"status":      status,
			"approved_by": decidedBy,
			"decided_at":  decidedAt,
		})
	return res.RowsAffected, res.Error
}

// ApplyProposedPrices copies the request's non-nil proposed prices onto the
// product row.
func (r *Repository) ApplyProposedPrices(ctx context.Context, request *models.PriceChangeRequest) (int64, error) {
	patch := map[string]any{}
	if request.ProposedResellerPrice != nil {
		patch["reseller_price"] = *request.ProposedResellerPrice
	}
	if request.ProposedCustomerPrice != nil {
		patch["customer_price"] = *request.ProposedCustomerPrice
	}
	if len(patch) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", request.ProductID).
		Updates(patch)
	return res.RowsAffected, res.Error
}

type requestListQuery struct {
	Pagination pagination.Params
	Status     enums.PriceRequestStatus
	ProductID  *uuid.UUID
}

// ListRequests returns one cursor page ordered by newest first.
func (r *Repository) ListRequests(ctx context.Context, query requestListQuery) ([]models.PriceChangeRequest, string, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).Model(&models.PriceChangeRequest{})
	if query.Status != "" {
		qb = qb.Where("status = ?", query.Status)
	}
	if query.ProductID != nil {
		qb = qb.Where("product_id = ?", *query.ProductID)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.PriceChangeRequest
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}
