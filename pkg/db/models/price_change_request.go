package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tatlico/tatlico-backend/pkg/enums"
)

// PriceChangeRequest is a proposed price update awaiting reviewer sign-off.
// Proposed prices are partial: only non-nil fields are applied on approval.
type PriceChangeRequest struct {
	ID                    uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID             uuid.UUID                `gorm:"column:product_id;type:uuid;not null;index"`
	ProposedResellerPrice *decimal.Decimal         `gorm:"column:proposed_reseller_price;type:numeric(12,2)"`
	ProposedCustomerPrice *decimal.Decimal         `gorm:"column:proposed_customer_price;type:numeric(12,2)"`
	Notes                 *string                  `gorm:"column:notes"`
	Status                enums.PriceRequestStatus `gorm:"column:status;type:price_request_status_enum;not null;default:'pending';index"`
	CreatedBy             uuid.UUID                `gorm:"column:created_by;type:uuid;not null"`
	ApprovedBy            *uuid.UUID               `gorm:"column:approved_by;type:uuid"`
	DecidedAt             *time.Time               `gorm:"column:decided_at"`
	CreatedAt             time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                `gorm:"column:updated_at;autoUpdateTime"`

	Product *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// HasProposedPrice reports whether the request proposes at least one price.
func (r PriceChangeRequest) HasProposedPrice() bool {
	return r.ProposedResellerPrice != nil || r.ProposedCustomerPrice != nil
}
