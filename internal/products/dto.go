package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tatlico/tatlico-backend/pkg/db/models"
)

// ProductDTO is the transport shape for catalog entries.
type ProductDTO struct {
	ID            uuid.UUID        `json:"id"`
	SKU           string           `json:"sku"`
	Name          string           `json:"name"`
	Brand         *string          `json:"brand,omitempty"`
	BaseCaseCost  decimal.Decimal  `json:"base_case_cost"`
	UnitsPerCase  int              `json:"units_per_case"`
	ResellerPrice *decimal.Decimal `json:"reseller_price,omitempty"`
	CustomerPrice *decimal.Decimal `json:"customer_price,omitempty"`
	IsActive      bool             `json:"is_active"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewProductDTO maps the persistence model to the transport shape.
func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Brand:         p.Brand,
		BaseCaseCost:  p.BaseCaseCost,
		UnitsPerCase:  p.UnitsPerCase,
		ResellerPrice: p.ResellerPrice,
		CustomerPrice: p.CustomerPrice,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ProductListResult carries one catalog page plus the follow-up cursor.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}
