package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/osgbhub/osgbhub-backend/api/responses"
	"github.com/osgbhub/osgbhub-backend/api/validators"
	"github.com/osgbhub/osgbhub-backend/internal/companies"
	pkgerrors "github.com/osgbhub/osgbhub-backend/pkg/errors"
	"github.com/osgbhub/osgbhub-backend/pkg/logger"
)

// CompanySearch lists active companies filtered by a name fragment.
func CompanySearch(svc companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := validators.SanitizeString(r.URL.Query().Get("q"), 120)
		matches, err := svc.SearchCompanies(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, matches)
	}
}

// CompanyDetail loads one company.
func CompanyDetail(svc companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "companyId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid company id"))
			return
		}
		company, err := svc.GetCompany(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, company)
	}
}

type createCompanyRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=200"`
	TaxNumber    *string  `json:"tax_number" validate:"omitempty,min=10,max=11"`
	Email        *string  `json:"email" validate:"omitempty,email"`
	Phone        *string  `json:"phone"`
	City         *string  `json:"city"`
	SectorTags   []string `json:"sector_tags"`
	EmployeeSize *int     `json:"employee_size"`
}

// CompanyCreate registers a client company.
func CompanyCreate(svc companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCompanyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		company, err := svc.CreateCompany(r.Context(), companies.CreateCompanyInput{
			Name:         payload.Name,
			TaxNumber:    payload.TaxNumber,
			Email:        payload.Email,
			Phone:        payload.Phone,
			City:         payload.City,
			SectorTags:   payload.SectorTags,
			EmployeeSize: payload.EmployeeSize,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, company)
	}
}
