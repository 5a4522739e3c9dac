package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tatlico/tatlico-backend/api/middleware"
	"github.com/tatlico/tatlico-backend/api/responses"
	"github.com/tatlico/tatlico-backend/api/validators"
	productsvc "github.com/tatlico/tatlico-backend/internal/products"
	pkgerrors "github.com/tatlico/tatlico-backend/pkg/errors"
	"github.com/tatlico/tatlico-backend/pkg/logger"
	"github.com/tatlico/tatlico-backend/pkg/pagination"
)

// ListProducts serves the cursor-paginated catalog listing.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		result, err := svc.ListProducts(r.Context(), productsvc.ListProductsInput{
			Limit:      limit,
			Cursor:     strings.TrimSpace(query.Get("cursor")),
			Query:      validators.SanitizeString(query.Get("q"), 120),
			ActiveOnly: query.Get("include_inactive") != "true",
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetProduct serves a single catalog entry by id.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := parsePathID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	SKU           string           `json:"sku" validate:"required"`
	Name          string           `json:"name" validate:"required"`
	Brand         *string          `json:"brand,omitempty"`
	BaseCaseCost  decimal.Decimal  `json:"base_case_cost"`
	UnitsPerCase  int              `json:"units_per_case" validate:"required,min=1"`
	ResellerPrice *decimal.Decimal `json:"reseller_price,omitempty"`
	CustomerPrice *decimal.Decimal `json:"customer_price,omitempty"`
}

// AdminCreateProduct registers a catalog entry.
func AdminCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		actorID, actorRole, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), productsvc.CreateProductInput{
			SKU:           strings.TrimSpace(payload.SKU),
			Name:          strings.TrimSpace(payload.Name),
			Brand:         payload.Brand,
			BaseCaseCost:  payload.BaseCaseCost,
			UnitsPerCase:  payload.UnitsPerCase,
			ResellerPrice: payload.ResellerPrice,
			CustomerPrice: payload.CustomerPrice,
			ActorID:       actorID,
			ActorRole:     actorRole,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updatePricesRequest struct {
	ResellerPrice *decimal.Decimal `json:"reseller_price,omitempty"`
	CustomerPrice *decimal.Decimal `json:"customer_price,omitempty"`
}

// AdminUpdateProductPrices patches the two sale prices directly.
func AdminUpdateProductPrices(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		actorID, actorRole, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := parsePathID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePricesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProductPrices(r.Context(), productsvc.UpdatePricesInput{
			ProductID:     productID,
			ResellerPrice: payload.ResellerPrice,
			CustomerPrice: payload.CustomerPrice,
			ActorID:       actorID,
			ActorRole:     actorRole,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type bulkApplyItemRequest struct {
	ProductID     uuid.UUID        `json:"product_id" validate:"required"`
	ResellerPrice *decimal.Decimal `json:"reseller_price,omitempty"`
	CustomerPrice *decimal.Decimal `json:"customer_price,omitempty"`
}

type bulkApplyRequest struct {
	Items []bulkApplyItemRequest `json:"items" validate:"required,min=1,dive"`
}

// AdminBulkApplyPrices applies price updates across many products at once.
func AdminBulkApplyPrices(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		actorID, actorRole, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload bulkApplyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]productsvc.PriceItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, productsvc.PriceItem{
				ProductID:     item.ProductID,
				ResellerPrice: item.ResellerPrice,
				CustomerPrice: item.CustomerPrice,
			})
		}

		result, err := svc.BulkApplyPrices(r.Context(), productsvc.BulkApplyInput{
			Items:     items,
			ActorID:   actorID,
			ActorRole: actorRole,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func actorFromContext(r *http.Request) (uuid.UUID, string, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return uid, middleware.RoleFromContext(r.Context()), nil
}

func parsePathID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}
