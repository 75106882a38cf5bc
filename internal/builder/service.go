package builder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/osgbhub/osgbhub-backend/internal/pricing"
	"github.com/osgbhub/osgbhub-backend/internal/suggest"
	"github.com/osgbhub/osgbhub-backend/pkg/db/models"
	pkgerrors "github.com/osgbhub/osgbhub-backend/pkg/errors"
	"github.com/osgbhub/osgbhub-backend/pkg/enums"
	"github.com/osgbhub/osgbhub-backend/pkg/logger"
	"github.com/osgbhub/osgbhub-backend/pkg/metrics"
	"github.com/osgbhub/osgbhub-backend/pkg/types"
)

// DraftStore persists builder drafts and quote templates.
type DraftStore interface {
	LoadDraft(ctx context.Context) (types.QuoteDraft, bool, error)
	SaveDraft(ctx context.Context, draft types.QuoteDraft) (types.QuoteDraft, error)
	ClearDraft(ctx context.Context) error
	ListTemplates(ctx context.Context) ([]types.QuoteTemplate, error)
	Template(ctx context.Context, id string) (types.QuoteTemplate, error)
	SaveTemplate(ctx context.Context, tpl types.QuoteTemplate) error
	DeleteTemplate(ctx context.Context, id string) error
}

// UsageTracker records catalog usage and price history for suggestions.
type UsageTracker interface {
	RecordUsage(ctx context.Context, companyID, catalogItemID uuid.UUID) error
	RecordPrice(ctx context.Context, catalogItemID uuid.UUID, price decimal.Decimal) error
	LastPrice(ctx context.Context, catalogItemID uuid.UUID) (*decimal.Decimal, error)
	Top(ctx context.Context, companyID uuid.UUID, catalogOrder []uuid.UUID) ([]suggest.Suggestion, error)
}

// Catalog is the read surface of the service catalog the builder needs.
type Catalog interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error)
	ActiveOrder(ctx context.Context) ([]uuid.UUID, error)
}

// CompanyDirectory answers whether a company exists.
type CompanyDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// State is the full builder snapshot returned by every operation: the draft,
// the derived pricing, and the totals presented in the draft currency.
// Warnings carry non-fatal degradations such as a failed autosave.
type State struct {
	Draft     types.QuoteDraft      `json:"draft"`
	Items     []types.ItemBreakdown `json:"items"`
	Totals    types.OrderTotals     `json:"totals"`
	Presented PresentedTotals       `json:"presented"`
	Warnings  []string              `json:"-"`
}

// PresentedTotals is the display rendering of the totals in the draft
// currency. Stored amounts stay in the base currency.
type PresentedTotals struct {
	Currency   enums.Currency  `json:"currency"`
	Rate       decimal.Decimal `json:"rate"`
	Total      string          `json:"total"`
	NetPayable string          `json:"net_payable"`
}

// HeaderPatch carries the editable quote header fields. Nil leaves a field
// unchanged; ClearCompany detaches the company.
type HeaderPatch struct {
	CompanyID    *uuid.UUID `json:"company_id,omitempty"`
	ClearCompany bool       `json:"clear_company,omitempty"`
	IssueDate    *time.Time `json:"issue_date,omitempty"`
	ValidUntil   *time.Time `json:"valid_until,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	PaymentTerms *string    `json:"payment_terms,omitempty"`
}

// AdjustmentsPatch carries the order-level pricing fields.
type AdjustmentsPatch struct {
	GeneralDiscount     *decimal.Decimal    `json:"general_discount,omitempty"`
	GeneralDiscountType *enums.DiscountType `json:"general_discount_type,omitempty"`
	ExtraCosts          *decimal.Decimal    `json:"extra_costs,omitempty"`
	DownPayment         *decimal.Decimal    `json:"down_payment,omitempty"`
}

// AddItemInput describes a new line item. When CatalogItemID is set, name
// and price default from the catalog entry and its price history.
type AddItemInput struct {
	CatalogItemID *uuid.UUID
	Description   string
	Quantity      int
	UnitPrice     *decimal.Decimal
	Discount      decimal.Decimal
	DiscountType  enums.DiscountType
	TaxRate       decimal.Decimal
}

// SuggestionView is a ranked catalog item enriched for display.
type SuggestionView struct {
	CatalogItemID uuid.UUID        `json:"catalog_item_id"`
	Name          string           `json:"name"`
	Count         int64            `json:"count"`
	LastPrice     *decimal.Decimal `json:"last_price,omitempty"`
}

// Service drives the quote builder: every mutation loads the draft, applies
// the change, recomputes pricing and autosaves the result.
type Service struct {
	store     DraftStore
	tracker   UsageTracker
	catalog   Catalog
	companies CompanyDirectory
	metrics   *metrics.BuilderMetrics
	logger    *logger.Logger
}

func NewService(store DraftStore, tracker UsageTracker, cat Catalog, companies CompanyDirectory, m *metrics.BuilderMetrics, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("draft store is required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("usage tracker is required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if companies == nil {
		return nil, fmt.Errorf("company directory is required")
	}
	if m == nil {
		return nil, fmt.Errorf("builder metrics are required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{store: store, tracker: tracker, catalog: cat, companies: companies, metrics: m, logger: logg}, nil
}

// State returns the current builder snapshot without mutating anything.
func (s *Service) State(ctx context.Context) (State, error) {
	draft, _, err := s.store.LoadDraft(ctx)
	if err != nil {
		return State{}, err
	}
	return s.compute(draft, nil), nil
}

// UpdateHeader applies the non-nil header fields.
func (s *Service) UpdateHeader(ctx context.Context, patch HeaderPatch) (State, error) {
	draft, _, err := s.store.LoadDraft(ctx)
	if err != nil {
		return State{}, err
	}

	if patch.ClearCompany {
		draft.CompanyID = nil
	} else if patch.CompanyID != nil {
		exists, err := s.companies.Exists(ctx, *patch.CompanyID)
		if err != nil {
			return State{}, err
		}
		if !exists {
			return State{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("company %s not found", patch.CompanyID))
		}
		draft.CompanyID = patch.CompanyID
	}
	if patch.IssueDate != nil {
		draft.IssueDate = patch.IssueDate
	}
	if patch.ValidUntil != nil {
		draft.ValidUntil = patch.ValidUntil
	}
	if draft.IssueDate != nil && draft.ValidUntil != nil && draft.ValidUntil.Before(*draft.IssueDate) {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "valid-until date precedes the issue date")
	}
	if patch.Notes != nil {
		draft.Notes = *patch.Notes
	}
	if patch.PaymentTerms != nil {
		draft.PaymentTerms = *patch.PaymentTerms
	}

	return s.finish(ctx, draft)
}

// SetAdjustments applies the non-nil order-level pricing fields.
func (s *Service) SetAdjustments(ctx context.Context, patch AdjustmentsPatch) (State, error) {
	draft, _, err := s.store.LoadDraft(ctx)
	if err != nil {
		return State{}, err
	}

	if patch.GeneralDiscount != nil {
		if patch.GeneralDiscount.IsNegative() {
			return State{}, pkgerrors.New(pkgerrors.CodeValidation, "general discount must not be negative")
		}
		draft.GeneralDiscount = *patch.GeneralDiscount
	}
	if patch.GeneralDiscountType != nil {
		if !patch.GeneralDiscountType.IsValid() {
			return State{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid discount type %q", *patch.GeneralDiscountType))
		}
		draft.GeneralDiscountType = *patch.GeneralDiscountType
	}
	if patch.ExtraCosts != nil {
		if patch.ExtraCosts.IsNegative() {
			return State{}, pkgerrors.New(pkgerrors.CodeValidation, "extra costs must not be negative")
		}
		draft.ExtraCosts = *patch.ExtraCosts
	}
	if patch.DownPayment != nil {
		if patch.DownPayment.IsNegative() {
			return State{}, pkgerrors.New(pkgerrors.CodeValidation, "down payment must not be negative")
		}
		draft.DownPayment = *patch.DownPayment
	}

	return s.finish(ctx, draft)
}

// SetCurrency switches the display currency. A positive manual rate
// overrides the fixed table; anything else drops the override.
func (s *Service) SetCurrency(ctx context.Context, currency enums.Currency, manualRate *decimal.Decimal) (State, error) {
	if !currency.IsValid() {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", currency))
	}
	draft, _, err := s.store.LoadDraft(ctx)
	if err != nil {
		return State{}, err
	}

	draft.Currency = currency
	if manualRate != nil && manualRate.IsPositive() && currency != enums.CurrencyTRY {
		rate := *manualRate
		draft.ManualRate = &rate
	} else {
		draft.ManualRate = nil
	}

	return s.finish(ctx, draft)
}

// AddItem appends a line item, defaulting description and price from the
// catalog entry and its price history when a catalog reference is given.
func (s *Service) AddItem(ctx context.Context, input AddItemInput) (State, error) {
	draft, _, err := s.store.LoadDraft(ctx)
	if err != nil {
		return State{}, err
	}

	item := types.LineItem{
		ID:           uuid.New(),
		CatalogRef:   input.CatalogItemID,
		Description:  strings.TrimSpace(input.Description),
		Quantity:     input.Quantity,
		Discount:     input.Discount,
		DiscountType: input.DiscountType,
		TaxRate:      input.TaxRate,
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.DiscountType == "" {
		item.DiscountType = enums.DiscountTypePercentage
	}
	if input.UnitPrice != nil {
		item.UnitPrice = *input.UnitPrice
	}

	if input.CatalogItemID != nil {
		entry, err := s.catalog.GetItem(ctx, *input.CatalogItemID)
		if err != nil {
			return State{}, err
		}
		if item.Description == "" {
			item.Description = entry.Name
		}
		if input.UnitPrice == nil {
			item.UnitPrice = s.defaultPrice(ctx, entry)
		}
	}
	if item.Description == "" {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "line item description is required")
	}

	items, err := AddItem(draft.Items, item)
	if err != nil {
		return State{}, err
	}
	draft.Items = items

	s.recordCatalogTouch(ctx, draft, item)
	return s.finish(ctx, draft)
}

// defaultPrice prefers the last price the item was quoted at over the
// catalog list price.
func (s *Service) defaultPrice(ctx context.Context, entry *models.CatalogItem) decimal.Decimal {
	last, err := s.tracker.LastPrice(ctx, entry.ID)
	if err != nil {
		s.logger.Error(ctx, "loading price history", err)
	} else if last != nil {
		return *last
	}
	if entry.Price != nil {
		return *entry.Price
	}
	return decimal.Zero
}

func (s *Service) recordCatalogTouch(ctx context.Context, draft types.QuoteDraft, item types.LineItem) {
	if item.CatalogRef == nil {
		return
	}
	// Suggestion data is advisory; failures never block the builder.
	if draft.CompanyID != nil {
		if err := s.tracker.RecordUsage(ctx, *draft.CompanyID, *item.CatalogRef); err != nil {
			s.logger.Error(ctx, "recording catalog usage", err)
		}
	}
	if err := s.tracker.RecordPrice(ctx, *item.CatalogRef, item.UnitPrice); err != nil {
		s.logger.Error(ctx, "recording price history", err)
	}
}

// RemoveItem deletes a line item.
func (s *Service) RemoveItem(ctx context.Context, id uuid.UUID) (State, error) {
	return s.mutateItems(ctx, func(items []types.LineItem) ([]types.LineItem, error) {
		return RemoveItem(items, id)
	})
}

// UpdateItem patches a line item.
func (s *Service) UpdateItem(ctx context.Context, id uuid.UUID, patch ItemPatch) (State, error) {
	return s.mutateItems(ctx, func(items []types.LineItem) ([]types.LineItem, error) {
		return UpdateItem(items, id, patch)
	})
}

// ReorderItem moves a line item to the target position.
func (s *Service) ReorderItem(ctx context.Context, id uuid.UUID, target int) (State, error) {
	return s.mutateItems(ctx, func(items []types.LineItem) ([]types.LineItem, error) {
		return ReorderItem(items, id, target)
	})
}

// ToggleSelect flips the selection flag of a line item.
func (s *Service) ToggleSelect(ctx context.Context, id uuid.UUID) (State, error) {
	return s.mutateItems(ctx, func(items []types.LineItem) ([]types.LineItem, error) {
		return ToggleSelect(items, id)
	})
}

// SelectAll sets the selection flag on every line item.
func (s *Service) SelectAll(ctx context.Context, selected bool) (State, error) {
	return s.mutateItems(ctx, func(items []types.LineItem) ([]types.LineItem, error) {
		return SelectAll(items, selected), nil
	})
}

// BulkSetDiscount applies a percentage discount to the selected items.
func (s *Service) BulkSetDiscount(ctx context.Context, percent decimal.Decimal) (State, error) {
	return s.mutateItems(ctx, func(items []types.LineItem) ([]types.LineItem, error) {
		return BulkSetDiscount(items, percent)
	})
}

// BulkSetTaxRate applies a tax rate to the selected items.
func (s *Service) BulkSetTaxRate(ctx context.Context, rate decimal.Decimal) (State, error) {
	return s.mutateItems(ctx, func(items []types.LineItem) ([]types.LineItem, error) {
		return BulkSetTaxRate(items, rate)
	})
}

// BulkAdjustPrice scales every unit price by the given percent.
func (s *Service) BulkAdjustPrice(ctx context.Context, percent decimal.Decimal, direction enums.AdjustDirection) (State, error) {
	return s.mutateItems(ctx, func(items []types.LineItem) ([]types.LineItem, error) {
		return BulkAdjustPrice(items, percent, direction)
	})
}

func (s *Service) mutateItems(ctx context.Context, mutate func([]types.LineItem) ([]types.LineItem, error)) (State, error) {
	draft, _, err := s.store.LoadDraft(ctx)
	if err != nil {
		return State{}, err
	}
	items, err := mutate(draft.Items)
	if err != nil {
		return State{}, err
	}
	draft.Items = items
	return s.finish(ctx, draft)
}

// ResetDraft discards the outstanding draft and returns the empty builder.
func (s *Service) ResetDraft(ctx context.Context) (State, error) {
	if err := s.store.ClearDraft(ctx); err != nil {
		return State{}, err
	}
	return s.compute(types.EmptyQuoteDraft(), nil), nil
}

// SaveTemplateFromDraft snapshots the current line items under the given
// name. Unlike autosave, a failed template write is surfaced as an error.
func (s *Service) SaveTemplateFromDraft(ctx context.Context, name string) (types.QuoteTemplate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.QuoteTemplate{}, pkgerrors.New(pkgerrors.CodeValidation, "template name is required")
	}
	draft, _, err := s.store.LoadDraft(ctx)
	if err != nil {
		return types.QuoteTemplate{}, err
	}
	if len(draft.Items) == 0 {
		return types.QuoteTemplate{}, pkgerrors.New(pkgerrors.CodeValidation, "cannot save a template without line items")
	}

	items := make([]types.TemplateItem, 0, len(draft.Items))
	for _, item := range draft.Items {
		items = append(items, types.NewTemplateItem(item))
	}
	tpl := types.QuoteTemplate{
		ID:        uuid.New(),
		Name:      name,
		Items:     items,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveTemplate(ctx, tpl); err != nil {
		return types.QuoteTemplate{}, err
	}
	s.metrics.IncTemplateSave()
	return tpl, nil
}

// ApplyTemplate replaces the draft's item list with fresh copies of the
// template's items. The header and adjustments are left alone.
func (s *Service) ApplyTemplate(ctx context.Context, templateID string) (State, error) {
	tpl, err := s.store.Template(ctx, templateID)
	if err != nil {
		return State{}, err
	}
	draft, _, err := s.store.LoadDraft(ctx)
	if err != nil {
		return State{}, err
	}

	fresh := make([]types.LineItem, 0, len(tpl.Items))
	for _, tplItem := range tpl.Items {
		item := tplItem.Materialize(len(fresh))
		items, err := AddItem(fresh, item)
		if err != nil {
			return State{}, err
		}
		fresh = items
		s.recordCatalogTouch(ctx, draft, item)
	}
	draft.Items = fresh
	return s.finish(ctx, draft)
}

// ListTemplates returns the saved templates.
func (s *Service) ListTemplates(ctx context.Context) ([]types.QuoteTemplate, error) {
	return s.store.ListTemplates(ctx)
}

// DeleteTemplate removes a saved template.
func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	return s.store.DeleteTemplate(ctx, id)
}

// Suggestions ranks the draft company's most used catalog items. Without a
// company attached there is nothing to rank.
func (s *Service) Suggestions(ctx context.Context) ([]SuggestionView, error) {
	draft, _, err := s.store.LoadDraft(ctx)
	if err != nil {
		return nil, err
	}
	if draft.CompanyID == nil {
		return []SuggestionView{}, nil
	}

	order, err := s.catalog.ActiveOrder(ctx)
	if err != nil {
		return nil, err
	}
	ranked, err := s.tracker.Top(ctx, *draft.CompanyID, order)
	if err != nil {
		return nil, err
	}

	views := make([]SuggestionView, 0, len(ranked))
	for _, suggestion := range ranked {
		view := SuggestionView{CatalogItemID: suggestion.CatalogItemID, Count: suggestion.Count}
		if entry, err := s.catalog.GetItem(ctx, suggestion.CatalogItemID); err == nil {
			view.Name = entry.Name
		}
		if last, err := s.tracker.LastPrice(ctx, suggestion.CatalogItemID); err == nil {
			view.LastPrice = last
		}
		views = append(views, view)
	}
	return views, nil
}

// finish recomputes pricing and autosaves the draft. Trivial drafts are not
// persisted, and an autosave failure degrades to a warning so the caller
// still gets the recomputed state.
func (s *Service) finish(ctx context.Context, draft types.QuoteDraft) (State, error) {
	var warnings []string
	if draft.IsTrivial() {
		if err := s.store.ClearDraft(ctx); err != nil {
			s.logger.Error(ctx, "clearing trivial draft", err)
		}
	} else {
		saved, err := s.store.SaveDraft(ctx, draft)
		if err != nil {
			s.logger.Error(ctx, "autosaving draft", err)
			s.metrics.IncAutosaveFailure()
			warnings = append(warnings, "draft autosave failed; changes are not persisted")
		} else {
			draft = saved
		}
	}
	return s.compute(draft, warnings), nil
}

// compute derives per-item breakdowns, order totals and the presented view.
func (s *Service) compute(draft types.QuoteDraft, warnings []string) State {
	breakdowns := make([]types.ItemBreakdown, len(draft.Items))
	for i, item := range draft.Items {
		breakdowns[i] = pricing.Calculate(item)
	}
	totals := pricing.Aggregate(draft.Items, draft.Adjustments())
	rate := pricing.Rate(draft.Currency, draft.ManualRate)

	return State{
		Draft:  draft,
		Items:  breakdowns,
		Totals: totals,
		Presented: PresentedTotals{
			Currency:   draft.Currency,
			Rate:       rate,
			Total:      pricing.Present(totals.Total, draft.Currency, draft.ManualRate),
			NetPayable: pricing.Present(totals.NetPayable, draft.Currency, draft.ManualRate),
		},
		Warnings: warnings,
	}
}
