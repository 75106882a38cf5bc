package builder

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/osgbhub/osgbhub-backend/api/responses"
	"github.com/osgbhub/osgbhub-backend/api/validators"
	buildersvc "github.com/osgbhub/osgbhub-backend/internal/builder"
	pkgerrors "github.com/osgbhub/osgbhub-backend/pkg/errors"
	"github.com/osgbhub/osgbhub-backend/pkg/enums"
	"github.com/osgbhub/osgbhub-backend/pkg/logger"
)

func writeState(w http.ResponseWriter, state buildersvc.State) {
	responses.WriteSuccessWarnings(w, state, state.Warnings)
}

func itemIDFromURL(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "itemId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	return id, nil
}

// Fetch returns the current builder state.
func Fetch(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := svc.State(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeState(w, state)
	}
}

// Reset discards the outstanding draft.
func Reset(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := svc.ResetDraft(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeState(w, state)
	}
}

// UpdateHeader patches the quote header fields.
func UpdateHeader(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload HeaderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.UpdateHeader(r.Context(), payload.toPatch())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeState(w, state)
	}
}

// SetAdjustments patches the order-level pricing fields.
func SetAdjustments(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload AdjustmentsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		patch, err := payload.toPatch()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.SetAdjustments(r.Context(), patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeState(w, state)
	}
}

// SetCurrency switches the display currency.
func SetCurrency(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload CurrencyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		currency, err := enums.ParseCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
			return
		}
		state, err := svc.SetCurrency(r.Context(), currency, payload.ManualRate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeState(w, state)
	}
}

// AddItem appends a line item to the draft.
func AddItem(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.AddItem(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeState(w, state)
	}
}

// UpdateItem patches a line item.
func UpdateItem(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := itemIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		patch, err := payload.toPatch()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.UpdateItem(r.Context(), id, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeState(w, state)
	}
}

// RemoveItem deletes a line item.
func RemoveItem(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := itemIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.RemoveItem(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeState(w, state)
	}
}

// ReorderItem moves a line item to a new position.
func ReorderItem(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := itemIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload ReorderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.ReorderItem(r.Context(), id, payload.Position)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeState(w, state)
	}
}

// ToggleSelect flips the selection flag of a line item.
func ToggleSelect(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := itemIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.ToggleSelect(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeState(w, state)
	}
}

// SelectAll sets the selection flag on every line item.
func SelectAll(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload SelectAllRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.SelectAll(r.Context(), payload.Selected)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeState(w, state)
	}
}

// BulkDiscount applies a percentage discount to the selected items.
func BulkDiscount(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload BulkDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.BulkSetDiscount(r.Context(), payload.Percent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeState(w, state)
	}
}

// BulkTax applies a tax rate to the selected items.
func BulkTax(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload BulkTaxRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.BulkSetTaxRate(r.Context(), payload.Rate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeState(w, state)
	}
}

// BulkPrice scales every unit price by a percent in either direction.
func BulkPrice(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload BulkPriceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		direction, err := enums.ParseAdjustDirection(payload.Direction)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid adjust direction"))
			return
		}
		state, err := svc.BulkAdjustPrice(r.Context(), payload.Percent, direction)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeState(w, state)
	}
}

// Suggestions returns the draft company's most used catalog items.
func Suggestions(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := svc.Suggestions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

// ListTemplates returns the saved quote templates.
func ListTemplates(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templates, err := svc.ListTemplates(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, templates)
	}
}

// SaveTemplate snapshots the current line items under a name.
func SaveTemplate(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload SaveTemplateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tpl, err := svc.SaveTemplateFromDraft(r.Context(), payload.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, tpl)
	}
}

// ApplyTemplate replaces the draft's item list with the template's items.
func ApplyTemplate(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := svc.ApplyTemplate(r.Context(), chi.URLParam(r, "templateId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeState(w, state)
	}
}

// DeleteTemplate removes a saved template.
func DeleteTemplate(svc *buildersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteTemplate(r.Context(), chi.URLParam(r, "templateId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
