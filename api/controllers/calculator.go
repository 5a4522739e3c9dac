package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tatlico/tatlico-backend/api/responses"
	"github.com/tatlico/tatlico-backend/api/validators"
	"github.com/tatlico/tatlico-backend/internal/pricing"
	pkgerrors "github.com/tatlico/tatlico-backend/pkg/errors"
	"github.com/tatlico/tatlico-backend/pkg/logger"
)

type landedCostRequest struct {
	BaseCaseCost        decimal.Decimal `json:"base_case_cost"`
	UnitsPerCase        int             `json:"units_per_case"`
	CustomsPercent      decimal.Decimal `json:"customs_percent"`
	OperationalPercent  decimal.Decimal `json:"operational_percent"`
	VATPercent          decimal.Decimal `json:"vat_percent"`
	TargetMarginPercent decimal.Decimal `json:"target_margin_percent"`
}

// LandedCost computes the full landed-cost and target-price breakdown for
// one product case. Pure math: nothing is read from or written to storage.
func LandedCost(calc *pricing.Calculator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if calc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "calculator unavailable"))
			return
		}

		var payload landedCostRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		breakdown := calc.Compute(pricing.Input{
			BaseCaseCost: payload.BaseCaseCost,
			UnitsPerCase: payload.UnitsPerCase,
			Customs:      pricing.PercentOf(payload.CustomsPercent),
			Operational:  pricing.PercentOf(payload.OperationalPercent),
			VAT:          pricing.PercentOf(payload.VATPercent),
			TargetMargin: pricing.PercentOf(payload.TargetMarginPercent),
		})

		responses.WriteSuccess(w, breakdown)
	}
}
