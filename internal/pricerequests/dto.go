package pricerequests

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tatlico/tatlico-backend/pkg/db/models"
	"github.com/tatlico/tatlico-backend/pkg/enums"
)

// RequestDTO is the transport shape for a price change request.
type RequestDTO struct {
	ID                    uuid.UUID                `json:"id"`
	ProductID             uuid.UUID                `json:"product_id"`
	ProposedResellerPrice *decimal.Decimal         `json:"proposed_reseller_price,omitempty"`
	ProposedCustomerPrice *decimal.Decimal         `json:"proposed_customer_price,omitempty"`
	Notes                 *string                  `json:"notes,omitempty"`
	Status                enums.PriceRequestStatus `json:"status"`
	CreatedBy             uuid.UUID                `json:"created_by"`
	ApprovedBy            *uuid.UUID               `json:"approved_by,omitempty"`
	DecidedAt             *time.Time               `json:"decided_at,omitempty"`
	CreatedAt             time.Time                `json:"created_at"`
	UpdatedAt             time.Time                `json:"updated_at"`
}

// NewRequestDTO maps the persistence model to the transport shape.
func NewRequestDTO(r *models.PriceChangeRequest) *RequestDTO {
	if r == nil {
		return nil
	}
	return &RequestDTO{
		ID:                    r.ID,
		ProductID:             r.ProductID,
		ProposedResellerPrice: r.ProposedResellerPrice,
		ProposedCustomerPrice: r.ProposedCustomerPrice,
		Notes:                 r.Notes,
		Status:                r.Status,
		CreatedBy:             r.CreatedBy,
		ApprovedBy:            r.ApprovedBy,
		DecidedAt:             r.DecidedAt,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

// RequestListResult carries one page of requests plus the follow-up cursor.
type RequestListResult struct {
	Requests   []RequestDTO `json:"requests"`
	NextCursor string       `json:"next_cursor,omitempty"`
}
