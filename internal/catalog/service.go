package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/osgbhub/osgbhub-backend/pkg/db"
	"github.com/osgbhub/osgbhub-backend/pkg/db/models"
	pkgerrors "github.com/osgbhub/osgbhub-backend/pkg/errors"
)

// Service exposes catalog management and lookup operations.
type Service interface {
	ListItems(ctx context.Context, includeInactive bool) ([]models.CatalogItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error)
	ActiveOrder(ctx context.Context) ([]uuid.UUID, error)
	CreateItem(ctx context.Context, input CreateItemInput) (*models.CatalogItem, error)
	RetireItem(ctx context.Context, id uuid.UUID) error
}

// CreateItemInput holds the validated payload to create a catalog item.
type CreateItemInput struct {
	Name      string
	Code      string
	Price     *decimal.Decimal
	SortOrder int
}

type service struct {
	repo *Repository
}

// NewService wires the catalog service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListItems(ctx context.Context, includeInactive bool) ([]models.CatalogItem, error) {
	items, err := s.repo.List(ctx, !includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing catalog items")
	}
	return items, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("catalog item %s not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading catalog item")
	}
	return item, nil
}

func (s *service) ActiveOrder(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.repo.ActiveOrder(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading catalog order")
	}
	return ids, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*models.CatalogItem, error) {
	name := strings.TrimSpace(input.Name)
	code := strings.TrimSpace(input.Code)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog item name is required")
	}
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog item code is required")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog item price must not be negative")
	}

	item := &models.CatalogItem{
		ID:        uuid.New(),
		Name:      name,
		Code:      strings.ToUpper(code),
		Price:     input.Price,
		IsActive:  true,
		SortOrder: input.SortOrder,
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("catalog item code %q already exists", item.Code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating catalog item")
	}
	return created, nil
}

func (s *service) RetireItem(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("catalog item %s not found", id))
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "retiring catalog item")
	}
	return nil
}
