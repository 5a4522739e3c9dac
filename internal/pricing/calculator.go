package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tatlico/tatlico-backend/pkg/config"
)

var one = decimal.NewFromInt(1)

// Calculator derives per-unit target sale prices from case-level landed
// costs. The fixed shipping share is resolved once at construction so every
// computation in a deployment uses the same pallet assumption.
type Calculator struct {
	fixedShippingPerCase decimal.Decimal
}

// NewCalculator builds a Calculator from the pricing configuration.
func NewCalculator(cfg config.PricingConfig) (*Calculator, error) {
	palletCost, err := decimal.NewFromString(cfg.PalletCost)
	if err != nil {
		return nil, fmt.Errorf("parsing pallet cost %q: %w", cfg.PalletCost, err)
	}
	if palletCost.IsNegative() {
		palletCost = decimal.Zero
	}
	cases := cfg.CasesPerPallet
	if cases < 1 {
		cases = 1
	}
	return &Calculator{
		fixedShippingPerCase: palletCost.Div(decimal.NewFromInt(int64(cases))),
	}, nil
}

// Input carries the per-call cost factors. Malformed values are clamped
// rather than rejected: a negative base cost counts as zero and units per
// case below one count as one.
type Input struct {
	BaseCaseCost decimal.Decimal
	UnitsPerCase int
	Customs      Percent
	Operational  Percent
	VAT          Percent
	TargetMargin Percent
}

// Breakdown is the full cost derivation for one product case.
type Breakdown struct {
	FixedShippingPerCase     decimal.Decimal `json:"fixed_shipping_per_case"`
	CostBeforeCustomsPerCase decimal.Decimal `json:"cost_before_customs_per_case"`
	CostAfterCustomsPerCase  decimal.Decimal `json:"cost_after_customs_per_case"`
	OperationalCostPerCase   decimal.Decimal `json:"operational_cost_per_case"`
	FinalLandedCostPerCase   decimal.Decimal `json:"final_landed_cost_per_case"`

	BaseUnitCost           decimal.Decimal `json:"base_unit_cost"`
	ShippingPerUnit        decimal.Decimal `json:"shipping_per_unit"`
	CustomsCostPerUnit     decimal.Decimal `json:"customs_cost_per_unit"`
	OperationalCostPerUnit decimal.Decimal `json:"operational_cost_per_unit"`
	FinalLandedCostPerUnit decimal.Decimal `json:"final_landed_cost_per_unit"`

	TargetUnitPriceExclVAT decimal.Decimal `json:"target_unit_price_excl_vat"`
	TargetProfitPerUnit    decimal.Decimal `json:"target_profit_per_unit"`
	VATPerUnit             decimal.Decimal `json:"vat_per_unit"`
	TargetUnitPriceInclVAT decimal.Decimal `json:"target_unit_price_incl_vat"`
}

// Compute runs the landed-cost derivation. Pure and deterministic: identical
// inputs always produce identical breakdowns.
func (c *Calculator) Compute(in Input) Breakdown {
	base := in.BaseCaseCost
	if base.IsNegative() {
		base = decimal.Zero
	}
	unitCount := in.UnitsPerCase
	if unitCount < 1 {
		unitCount = 1
	}
	units := decimal.NewFromInt(int64(unitCount))

	costBeforeCustoms := base.Add(c.fixedShippingPerCase)
	costAfterCustoms := costBeforeCustoms.Mul(one.Add(in.Customs.Fraction()))
	operationalCost := costAfterCustoms.Mul(in.Operational.Fraction())
	finalLandedCost := costAfterCustoms.Add(operationalCost)

	finalLandedPerUnit := finalLandedCost.Div(units)
	targetExclVAT := finalLandedPerUnit.Mul(one.Add(in.TargetMargin.Fraction()))
	vatPerUnit := targetExclVAT.Mul(in.VAT.Fraction())

	return Breakdown{
		FixedShippingPerCase:     c.fixedShippingPerCase,
		CostBeforeCustomsPerCase: costBeforeCustoms,
		CostAfterCustomsPerCase:  costAfterCustoms,
		OperationalCostPerCase:   operationalCost,
		FinalLandedCostPerCase:   finalLandedCost,

		BaseUnitCost:           base.Div(units),
		ShippingPerUnit:        c.fixedShippingPerCase.Div(units),
		CustomsCostPerUnit:     costAfterCustoms.Sub(costBeforeCustoms).Div(units),
		OperationalCostPerUnit: operationalCost.Div(units),
		FinalLandedCostPerUnit: finalLandedPerUnit,

		TargetUnitPriceExclVAT: targetExclVAT,
		TargetProfitPerUnit:    targetExclVAT.Sub(finalLandedPerUnit),
		VATPerUnit:             vatPerUnit,
		TargetUnitPriceInclVAT: targetExclVAT.Add(vatPerUnit),
	}
}
