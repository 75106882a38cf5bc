package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/osgbhub/osgbhub-backend/api/responses"
	"github.com/osgbhub/osgbhub-backend/api/validators"
	"github.com/osgbhub/osgbhub-backend/internal/catalog"
	pkgerrors "github.com/osgbhub/osgbhub-backend/pkg/errors"
	"github.com/osgbhub/osgbhub-backend/pkg/logger"
)

// CatalogList returns catalog items in catalog order.
func CatalogList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeInactive := r.URL.Query().Get("include_inactive") == "true"
		items, err := svc.ListItems(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

type createCatalogItemRequest struct {
	Name      string           `json:"name" validate:"required,min=1,max=200"`
	Code      string           `json:"code" validate:"required,min=1,max=40"`
	Price     *decimal.Decimal `json:"price"`
	SortOrder int              `json:"sort_order"`
}

// CatalogCreate registers a new catalog item.
func CatalogCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCatalogItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.CreateItem(r.Context(), catalog.CreateItemInput{
			Name:      payload.Name,
			Code:      payload.Code,
			Price:     payload.Price,
			SortOrder: payload.SortOrder,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// CatalogRetire deactivates a catalog item.
func CatalogRetire(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid catalog item id"))
			return
		}
		if err := svc.RetireItem(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "retired"})
	}
}
