package quotes

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/osgbhub/osgbhub-backend/pkg/db/models"
	"github.com/osgbhub/osgbhub-backend/pkg/pagination"
)

// Repository provides persistence for submitted quotes.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the quote together with its line items.
func (r *Repository) Create(ctx context.Context, quote *models.QuoteRecord) (*models.QuoteRecord, error) {
	if err := r.db.WithContext(ctx).Create(quote).Error; err != nil {
		return nil, err
	}
	return quote, nil
}

// FindByID loads a quote with its line items in builder order.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.QuoteRecord, error) {
	var quote models.QuoteRecord
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&quote, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// List returns one page of quotes newest first, optionally scoped to a
// company. The second return is the cursor for the next page, nil on the
// last one.
func (r *Repository) List(ctx context.Context, companyID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.QuoteRecord, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(limit)

	query := r.db.WithContext(ctx).Model(&models.QuoteRecord{})
	if companyID != nil {
		query = query.Where("company_id = ?", *companyID)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var quotes []models.QuoteRecord
	if err := query.Order("created_at DESC, id DESC").Limit(normalized + 1).Find(&quotes).Error; err != nil {
		return nil, nil, err
	}

	if len(quotes) > normalized {
		next := quotes[normalized]
		quotes = quotes[:normalized]
		return quotes, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return quotes, nil, nil
}

// UpdateStatus persists a status change.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.QuoteRecord{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// NextSequence returns the next per-year sequence number for the given
// prefix. Call it inside the submission transaction so concurrent submits
// fall back to the unique index on the number column.
func (r *Repository) NextSequence(ctx context.Context, prefix string, year int) (int, error) {
	pattern := fmt.Sprintf("%s-%d-%%", prefix, year)
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&models.QuoteRecord{}).
		Where("number LIKE ?", pattern).
		Pluck("number", &numbers).Error
	if err != nil {
		return 0, err
	}

	highest := 0
	for _, number := range numbers {
		idx := strings.LastIndex(number, "-")
		if idx < 0 {
			continue
		}
		if seq, err := strconv.Atoi(number[idx+1:]); err == nil && seq > highest {
			highest = seq
		}
	}
	return highest + 1, nil
}
