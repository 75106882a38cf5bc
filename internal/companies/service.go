package companies

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/osgbhub/osgbhub-backend/pkg/db"
	"github.com/osgbhub/osgbhub-backend/pkg/db/models"
	pkgerrors "github.com/osgbhub/osgbhub-backend/pkg/errors"
)

const defaultSearchLimit = 25

// Service exposes company directory operations for the quote builder.
type Service interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	SearchCompanies(ctx context.Context, query string) ([]models.Company, error)
	CreateCompany(ctx context.Context, input CreateCompanyInput) (*models.Company, error)
}

// CreateCompanyInput holds the validated payload to register a company.
type CreateCompanyInput struct {
	Name         string
	TaxNumber    *string
	Email        *string
	Phone        *string
	City         *string
	SectorTags   []string
	EmployeeSize *int
}

type service struct {
	repo *Repository
}

// NewService wires the company service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("company repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("company %s not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading company")
	}
	return company, nil
}

func (s *service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking company")
	}
	return exists, nil
}

func (s *service) SearchCompanies(ctx context.Context, query string) ([]models.Company, error) {
	companies, err := s.repo.Search(ctx, query, defaultSearchLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "searching companies")
	}
	return companies, nil
}

func (s *service) CreateCompany(ctx context.Context, input CreateCompanyInput) (*models.Company, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name is required")
	}
	if input.EmployeeSize != nil && *input.EmployeeSize < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee size must not be negative")
	}

	company := &models.Company{
		ID:           uuid.New(),
		Name:         name,
		TaxNumber:    input.TaxNumber,
		Email:        input.Email,
		Phone:        input.Phone,
		City:         input.City,
		SectorTags:   pq.StringArray(input.SectorTags),
		IsActive:     true,
		EmployeeSize: input.EmployeeSize,
	}
	if company.SectorTags == nil {
		company.SectorTags = pq.StringArray{}
	}
	created, err := s.repo.Create(ctx, company)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a company with this tax number already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating company")
	}
	return created, nil
}
