package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/osgbhub/osgbhub-backend/internal/pricing"
	"github.com/osgbhub/osgbhub-backend/pkg/config"
	"github.com/osgbhub/osgbhub-backend/pkg/db"
	"github.com/osgbhub/osgbhub-backend/pkg/db/models"
	pkgerrors "github.com/osgbhub/osgbhub-backend/pkg/errors"
	"github.com/osgbhub/osgbhub-backend/pkg/enums"
	"github.com/osgbhub/osgbhub-backend/pkg/logger"
	"github.com/osgbhub/osgbhub-backend/pkg/metrics"
	"github.com/osgbhub/osgbhub-backend/pkg/pagination"
	"github.com/osgbhub/osgbhub-backend/pkg/types"
)

// DraftSource is the slice of the draft store submission needs.
type DraftSource interface {
	LoadDraft(ctx context.Context) (types.QuoteDraft, bool, error)
	ClearDraft(ctx context.Context) error
}

// CompanyChecker answers whether a company exists.
type CompanyChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service finalizes the builder draft into a numbered, persisted quote.
type Service struct {
	runner    TxRunner
	repo      *Repository
	drafts    DraftSource
	companies CompanyChecker
	metrics   *metrics.BuilderMetrics
	logger    *logger.Logger
	cfg       config.QuoteConfig
}

func NewService(runner TxRunner, repo *Repository, drafts DraftSource, companies CompanyChecker, m *metrics.BuilderMetrics, logg *logger.Logger, cfg config.QuoteConfig) (*Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("quote repository is required")
	}
	if drafts == nil {
		return nil, fmt.Errorf("draft source is required")
	}
	if companies == nil {
		return nil, fmt.Errorf("company checker is required")
	}
	if m == nil {
		return nil, fmt.Errorf("builder metrics are required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{
		runner:    runner,
		repo:      repo,
		drafts:    drafts,
		companies: companies,
		metrics:   m,
		logger:    logg,
		cfg:       cfg,
	}, nil
}

// Submit turns the outstanding draft into a submitted quote. Totals are
// recomputed from the line items at submission time, never trusted from the
// client. The draft slot is cleared only after the transaction commits.
func (s *Service) Submit(ctx context.Context) (*models.QuoteRecord, error) {
	draft, found, err := s.drafts.LoadDraft(ctx)
	if err != nil {
		return nil, err
	}
	if !found || len(draft.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot submit a quote without line items")
	}
	if draft.CompanyID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a company must be attached before submitting")
	}
	exists, err := s.companies.Exists(ctx, *draft.CompanyID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("company %s not found", draft.CompanyID))
	}

	now := time.Now().UTC()
	issueDate := now
	if draft.IssueDate != nil {
		issueDate = *draft.IssueDate
	}
	validUntil := issueDate.AddDate(0, 0, s.cfg.DefaultValidityDays)
	if draft.ValidUntil != nil {
		validUntil = *draft.ValidUntil
	}
	if validUntil.Before(issueDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid-until date precedes the issue date")
	}

	totals := pricing.Aggregate(draft.Items, draft.Adjustments())

	quote := &models.QuoteRecord{
		ID:                  uuid.New(),
		CompanyID:           *draft.CompanyID,
		Status:              enums.QuoteStatusSubmitted,
		IssueDate:           issueDate,
		ValidUntil:          validUntil,
		Notes:               draft.Notes,
		PaymentTerms:        draft.PaymentTerms,
		Currency:            draft.Currency,
		ManualRate:          draft.ManualRate,
		GeneralDiscount:     draft.GeneralDiscount,
		GeneralDiscountType: draft.GeneralDiscountType,
		ExtraCosts:          draft.ExtraCosts,
		DownPayment:         draft.DownPayment,
		Subtotal:            totals.Subtotal,
		TotalTax:            totals.TotalTax,
		GeneralDiscountAmt:  totals.GeneralDiscountAmount,
		Total:               totals.Total,
		TotalWithExtras:     totals.TotalWithExtras,
		NetPayable:          totals.NetPayable,
	}
	for _, item := range draft.Items {
		breakdown := pricing.Calculate(item)
		quote.Items = append(quote.Items, models.QuoteLineItem{
			ID:            uuid.New(),
			QuoteID:       quote.ID,
			CatalogItemID: item.CatalogRef,
			Description:   item.Description,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			Discount:      item.Discount,
			DiscountType:  item.DiscountType,
			TaxRate:       item.TaxRate,
			Position:      item.Position,
			LineTotal:     breakdown.ItemTotal,
		})
	}

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		seq, err := txRepo.NextSequence(ctx, s.cfg.NumberPrefix, issueDate.Year())
		if err != nil {
			return err
		}
		quote.Number = fmt.Sprintf("%s-%d-%04d", s.cfg.NumberPrefix, issueDate.Year(), seq)
		_, err = txRepo.Create(ctx, quote)
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "quote number collision, retry the submission")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting quote")
	}

	// The draft is gone either way; a failed clear only means the next
	// builder load starts from a stale draft.
	if err := s.drafts.ClearDraft(ctx); err != nil {
		s.logger.Error(s.logger.WithQuoteNumber(ctx, quote.Number), "clearing draft after submission", err)
	}
	s.metrics.IncSubmission()
	s.logger.Info(s.logger.WithQuoteNumber(ctx, quote.Number), "quote submitted")
	return quote, nil
}

// GetQuote loads a submitted quote with its line items.
func (s *Service) GetQuote(ctx context.Context, id uuid.UUID) (*models.QuoteRecord, error) {
	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("quote %s not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading quote")
	}
	return quote, nil
}

// QuotePage wraps one page of quotes plus the cursor for the next one.
type QuotePage struct {
	Quotes     []models.QuoteRecord `json:"quotes"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// ListQuotes returns submitted quotes newest first, cursor paginated.
func (s *Service) ListQuotes(ctx context.Context, companyID *uuid.UUID, params pagination.Params) (*QuotePage, error) {
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	quotes, next, err := s.repo.List(ctx, companyID, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing quotes")
	}

	page := &QuotePage{Quotes: quotes}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}

// SetStatus moves a quote between lifecycle states. Only submitted quotes
// can be accepted or rejected.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status enums.QuoteStatus) (*models.QuoteRecord, error) {
	if status != enums.QuoteStatusAccepted && status != enums.QuoteStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cannot move a quote to %q", status))
	}
	quote, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != enums.QuoteStatusSubmitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("quote is %s, only submitted quotes can change state", quote.Status))
	}
	if err := s.repo.UpdateStatus(ctx, id, status.String()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating quote status")
	}
	quote.Status = status
	return quote, nil
}
