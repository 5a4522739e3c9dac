package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tatlico/tatlico-backend/pkg/enums"
)

// Price update sources recorded on ProductPricesUpdatedEvent.
const (
	PriceSourceRequestApproval = "request_approval"
	PriceSourceDirectEdit      = "direct_edit"
	PriceSourceBulkApply       = "bulk_apply"
)

// PriceRequestCreatedEvent signals a newly proposed price change.
type PriceRequestCreatedEvent struct {
	RequestID             uuid.UUID        `json:"request_id"`
	ProductID             uuid.UUID        `json:"product_id"`
	ProposedResellerPrice *decimal.Decimal `json:"proposed_reseller_price,omitempty"`
	ProposedCustomerPrice *decimal.Decimal `json:"proposed_customer_price,omitempty"`
	CreatedBy             uuid.UUID        `json:"created_by"`
}

// PriceRequestDecidedEvent is emitted when an admin approves or rejects a request.
type PriceRequestDecidedEvent struct {
	RequestID uuid.UUID                  `json:"request_id"`
	ProductID uuid.UUID                  `json:"product_id"`
	Decision  enums.PriceRequestDecision `json:"decision"`
	Status    enums.PriceRequestStatus   `json:"status"`
	DecidedBy uuid.UUID                  `json:"decided_by"`
	DecidedAt time.Time                  `json:"decided_at"`
}

// ProductPricesUpdatedEvent surfaces the prices written to the catalog.
type ProductPricesUpdatedEvent struct {
	ProductID     uuid.UUID        `json:"product_id"`
	ResellerPrice *decimal.Decimal `json:"reseller_price,omitempty"`
	CustomerPrice *decimal.Decimal `json:"customer_price,omitempty"`
	Source        string           `json:"source"`
}
