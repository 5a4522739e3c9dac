package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tatlico/tatlico-backend/api/responses"
	"github.com/tatlico/tatlico-backend/api/validators"
	"github.com/tatlico/tatlico-backend/internal/pricerequests"
	"github.com/tatlico/tatlico-backend/pkg/enums"
	pkgerrors "github.com/tatlico/tatlico-backend/pkg/errors"
	"github.com/tatlico/tatlico-backend/pkg/logger"
	"github.com/tatlico/tatlico-backend/pkg/pagination"
)

type createPriceRequestBody struct {
	ProductID             uuid.UUID        `json:"product_id" validate:"required"`
	ProposedResellerPrice *decimal.Decimal `json:"proposed_reseller_price,omitempty"`
	ProposedCustomerPrice *decimal.Decimal `json:"proposed_customer_price,omitempty"`
	Notes                 *string          `json:"notes,omitempty"`
}

// CreatePriceRequest accepts a proposed price change for review.
func CreatePriceRequest(svc pricerequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price request service unavailable"))
			return
		}

		actorID, actorRole, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createPriceRequestBody
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.CreateRequest(r.Context(), pricerequests.CreateRequestInput{
			ProductID:             payload.ProductID,
			ProposedResellerPrice: payload.ProposedResellerPrice,
			ProposedCustomerPrice: payload.ProposedCustomerPrice,
			Notes:                 payload.Notes,
			ActorID:               actorID,
			ActorRole:             actorRole,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

type bulkCreateRequestBody struct {
	Items []createPriceRequestBody `json:"items" validate:"required,dive"`
}

// BulkCreatePriceRequests accepts a batch of proposed price changes.
func BulkCreatePriceRequests(svc pricerequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price request service unavailable"))
			return
		}

		actorID, actorRole, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload bulkCreateRequestBody
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]pricerequests.BulkItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, pricerequests.BulkItem{
				ProductID:             item.ProductID,
				ProposedResellerPrice: item.ProposedResellerPrice,
				ProposedCustomerPrice: item.ProposedCustomerPrice,
				Notes:                 item.Notes,
			})
		}

		result, err := svc.BulkCreateRequests(r.Context(), pricerequests.BulkCreateInput{
			Items:     items,
			ActorID:   actorID,
			ActorRole: actorRole,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type decidePriceRequestBody struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

// DecidePriceRequest resolves one pending request (admin only).
func DecidePriceRequest(svc pricerequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price request service unavailable"))
			return
		}

		actorID, actorRole, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requestID, err := parsePathID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload decidePriceRequestBody
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := enums.ParsePriceRequestDecision(payload.Decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid decision"))
			return
		}

		request, err := svc.DecideRequest(r.Context(), pricerequests.DecideInput{
			RequestID: requestID,
			Decision:  decision,
			ActorID:   actorID,
			ActorRole: actorRole,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, request)
	}
}

// GetPriceRequest serves one request by id.
func GetPriceRequest(svc pricerequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price request service unavailable"))
			return
		}

		requestID, err := parsePathID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.GetRequest(r.Context(), requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, request)
	}
}

// ListPriceRequests serves the cursor-paginated request listing with
// optional status and product filters.
func ListPriceRequests(svc pricerequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price request service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		input := pricerequests.ListRequestsInput{
			Limit:  limit,
			Cursor: strings.TrimSpace(query.Get("cursor")),
		}

		if raw := strings.TrimSpace(query.Get("status")); raw != "" {
			status, err := enums.ParsePriceRequestStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = status
		}
		if raw := strings.TrimSpace(query.Get("product_id")); raw != "" {
			productID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id"))
				return
			}
			input.ProductID = &productID
		}

		result, err := svc.ListRequests(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
