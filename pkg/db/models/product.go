package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalog entry in the wholesale assortment.
// ResellerPrice and CustomerPrice are per-unit amounts; either may be
// unset while the other carries the live price.
type Product struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU           string           `gorm:"column:sku;not null;uniqueIndex"`
	Name          string           `gorm:"column:name;not null"`
	Brand         *string          `gorm:"column:brand"`
	BaseCaseCost  decimal.Decimal  `gorm:"column:base_case_cost;type:numeric(12,2);not null;default:0"`
	UnitsPerCase  int              `gorm:"column:units_per_case;not null;default:1"`
	ResellerPrice *decimal.Decimal `gorm:"column:reseller_price;type:numeric(12,2)"`
	CustomerPrice *decimal.Decimal `gorm:"column:customer_price;type:numeric(12,2)"`
	IsActive      bool             `gorm:"column:is_active;not null"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// HasAnyPrice reports whether at least one sale price is set.
func (p Product) HasAnyPrice() bool {
	return p.ResellerPrice != nil || p.CustomerPrice != nil
}
