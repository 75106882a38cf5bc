package builder

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osgbhub/osgbhub-backend/internal/suggest"
	"github.com/osgbhub/osgbhub-backend/pkg/db/models"
	pkgerrors "github.com/osgbhub/osgbhub-backend/pkg/errors"
	"github.com/osgbhub/osgbhub-backend/pkg/enums"
	"github.com/osgbhub/osgbhub-backend/pkg/logger"
	"github.com/osgbhub/osgbhub-backend/pkg/metrics"
	"github.com/osgbhub/osgbhub-backend/pkg/types"
)

type memStore struct {
	draft     *types.QuoteDraft
	templates []types.QuoteTemplate
	saveErr   error
	saves     int
}

func (m *memStore) LoadDraft(context.Context) (types.QuoteDraft, bool, error) {
	if m.draft == nil {
		return types.EmptyQuoteDraft(), false, nil
	}
	return *m.draft, true, nil
}

func (m *memStore) SaveDraft(_ context.Context, draft types.QuoteDraft) (types.QuoteDraft, error) {
	if m.saveErr != nil {
		return draft, m.saveErr
	}
	m.saves++
	m.draft = &draft
	return draft, nil
}

func (m *memStore) ClearDraft(context.Context) error {
	m.draft = nil
	return nil
}

func (m *memStore) ListTemplates(context.Context) ([]types.QuoteTemplate, error) {
	return m.templates, nil
}

func (m *memStore) Template(_ context.Context, id string) (types.QuoteTemplate, error) {
	for _, tpl := range m.templates {
		if tpl.ID.String() == id {
			return tpl, nil
		}
	}
	return types.QuoteTemplate{}, pkgerrors.New(pkgerrors.CodeNotFound, "template not found")
}

func (m *memStore) SaveTemplate(_ context.Context, tpl types.QuoteTemplate) error {
	m.templates = append(m.templates, tpl)
	return nil
}

func (m *memStore) DeleteTemplate(_ context.Context, id string) error {
	kept := m.templates[:0]
	for _, tpl := range m.templates {
		if tpl.ID.String() != id {
			kept = append(kept, tpl)
		}
	}
	m.templates = kept
	return nil
}

type memTracker struct {
	usage  map[uuid.UUID]map[uuid.UUID]int64
	prices map[uuid.UUID]decimal.Decimal
}

func newMemTracker() *memTracker {
	return &memTracker{
		usage:  map[uuid.UUID]map[uuid.UUID]int64{},
		prices: map[uuid.UUID]decimal.Decimal{},
	}
}

func (m *memTracker) RecordUsage(_ context.Context, companyID, itemID uuid.UUID) error {
	if m.usage[companyID] == nil {
		m.usage[companyID] = map[uuid.UUID]int64{}
	}
	m.usage[companyID][itemID]++
	return nil
}

func (m *memTracker) RecordPrice(_ context.Context, itemID uuid.UUID, price decimal.Decimal) error {
	if price.IsPositive() {
		m.prices[itemID] = price
	}
	return nil
}

func (m *memTracker) LastPrice(_ context.Context, itemID uuid.UUID) (*decimal.Decimal, error) {
	if price, ok := m.prices[itemID]; ok {
		return &price, nil
	}
	return nil, nil
}

func (m *memTracker) Top(_ context.Context, companyID uuid.UUID, order []uuid.UUID) ([]suggest.Suggestion, error) {
	var out []suggest.Suggestion
	for _, id := range order {
		if count := m.usage[companyID][id]; count > 0 {
			out = append(out, suggest.Suggestion{CatalogItemID: id, Count: count})
		}
	}
	return out, nil
}

type memCatalog struct {
	items map[uuid.UUID]*models.CatalogItem
	order []uuid.UUID
}

func (m *memCatalog) GetItem(_ context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	if item, ok := m.items[id]; ok {
		return item, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
}

func (m *memCatalog) ActiveOrder(context.Context) ([]uuid.UUID, error) {
	return m.order, nil
}

type memCompanies struct {
	known map[uuid.UUID]bool
}

func (m *memCompanies) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.known[id], nil
}

type fixture struct {
	svc       *Service
	store     *memStore
	tracker   *memTracker
	catalog   *memCatalog
	companies *memCompanies
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &memStore{}
	tracker := newMemTracker()
	cat := &memCatalog{items: map[uuid.UUID]*models.CatalogItem{}}
	dirs := &memCompanies{known: map[uuid.UUID]bool{}}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(store, tracker, cat, dirs, metrics.NewBuilderMetrics(nil), logg)
	require.NoError(t, err)
	return &fixture{svc: svc, store: store, tracker: tracker, catalog: cat, companies: dirs}
}

func (f *fixture) addCatalogItem(name string, price string) uuid.UUID {
	id := uuid.New()
	var pricePtr *decimal.Decimal
	if price != "" {
		p := decimal.RequireFromString(price)
		pricePtr = &p
	}
	f.catalog.items[id] = &models.CatalogItem{ID: id, Name: name, Price: pricePtr, IsActive: true}
	f.catalog.order = append(f.catalog.order, id)
	return id
}

func (f *fixture) addCompany() uuid.UUID {
	id := uuid.New()
	f.companies.known[id] = true
	return id
}

func TestAddItemAutosavesAndRecomputes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	price := dec("200")
	state, err := f.svc.AddItem(ctx, AddItemInput{
		Description: "workplace risk assessment",
		Quantity:    2,
		UnitPrice:   &price,
		TaxRate:     dec("20"),
	})
	require.NoError(t, err)

	require.Len(t, state.Draft.Items, 1)
	assert.True(t, state.Totals.Subtotal.Equal(dec("400")))
	assert.True(t, state.Totals.Total.Equal(dec("480")))
	assert.Equal(t, 1, f.store.saves)
	require.NotNil(t, f.store.draft)
	assert.False(t, f.store.draft.SavedAt.IsZero())
}

func TestAddItemDefaultsFromCatalogAndPriceHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	itemID := f.addCatalogItem("Periodic Examination", "350")

	state, err := f.svc.AddItem(ctx, AddItemInput{CatalogItemID: &itemID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "Periodic Examination", state.Draft.Items[0].Description)
	assert.True(t, state.Draft.Items[0].UnitPrice.Equal(dec("350")))

	// The price is now remembered; a later add prefers it over the list price.
	require.NoError(t, f.tracker.RecordPrice(ctx, itemID, dec("300")))
	state, err = f.svc.AddItem(ctx, AddItemInput{CatalogItemID: &itemID, Quantity: 1})
	require.NoError(t, err)
	assert.True(t, state.Draft.Items[1].UnitPrice.Equal(dec("300")))
}

func TestAddItemRecordsUsageOnlyWithCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	itemID := f.addCatalogItem("Hearing Test", "120")

	_, err := f.svc.AddItem(ctx, AddItemInput{CatalogItemID: &itemID, Quantity: 1})
	require.NoError(t, err)
	assert.Empty(t, f.tracker.usage)

	companyID := f.addCompany()
	_, err = f.svc.UpdateHeader(ctx, HeaderPatch{CompanyID: &companyID})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, AddItemInput{CatalogItemID: &itemID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.tracker.usage[companyID][itemID])
}

func TestUpdateHeaderRejectsUnknownCompany(t *testing.T) {
	f := newFixture(t)
	unknown := uuid.New()

	_, err := f.svc.UpdateHeader(context.Background(), HeaderPatch{CompanyID: &unknown})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestHeaderOnlyChangePersistsDraft(t *testing.T) {
	f := newFixture(t)
	notes := "call before visit"

	state, err := f.svc.UpdateHeader(context.Background(), HeaderPatch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, state.Draft.Notes)
	assert.Equal(t, 1, f.store.saves)
}

func TestTrivialDraftIsNotPersisted(t *testing.T) {
	f := newFixture(t)
	empty := ""

	state, err := f.svc.UpdateHeader(context.Background(), HeaderPatch{Notes: &empty})
	require.NoError(t, err)
	assert.True(t, state.Draft.IsTrivial())
	assert.Equal(t, 0, f.store.saves)
	assert.Nil(t, f.store.draft)
}

func TestAutosaveFailureDegradesToWarning(t *testing.T) {
	f := newFixture(t)
	f.store.saveErr = errors.New("redis down")

	price := dec("100")
	state, err := f.svc.AddItem(context.Background(), AddItemInput{
		Description: "first aid training",
		Quantity:    1,
		UnitPrice:   &price,
	})
	require.NoError(t, err)
	require.Len(t, state.Warnings, 1)
	assert.Contains(t, state.Warnings[0], "autosave failed")
	assert.True(t, state.Totals.Total.Equal(dec("100")))
}

func TestSetCurrencyManualRateRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rate := dec("40")
	state, err := f.svc.SetCurrency(ctx, enums.CurrencyUSD, &rate)
	require.NoError(t, err)
	require.NotNil(t, state.Draft.ManualRate)
	assert.True(t, state.Presented.Rate.Equal(dec("40")))

	// A non-positive manual rate drops the override and the table rate wins.
	zero := decimal.Zero
	state, err = f.svc.SetCurrency(ctx, enums.CurrencyUSD, &zero)
	require.NoError(t, err)
	assert.Nil(t, state.Draft.ManualRate)
	assert.True(t, state.Presented.Rate.Equal(dec("41.50")))

	// Switching to the base currency never keeps an override.
	state, err = f.svc.SetCurrency(ctx, enums.CurrencyTRY, &rate)
	require.NoError(t, err)
	assert.Nil(t, state.Draft.ManualRate)
	assert.True(t, state.Presented.Rate.Equal(decimal.NewFromInt(1)))
}

func TestCurrencyPresentationDoesNotTouchStoredAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	price := dec("830")
	_, err := f.svc.AddItem(ctx, AddItemInput{Description: "audit", Quantity: 1, UnitPrice: &price})
	require.NoError(t, err)

	state, err := f.svc.SetCurrency(ctx, enums.CurrencyUSD, nil)
	require.NoError(t, err)
	assert.True(t, state.Draft.Items[0].UnitPrice.Equal(dec("830")))
	assert.True(t, state.Totals.Total.Equal(dec("830")))
	assert.Equal(t, "20.00 USD", state.Presented.Total)
}

func TestTemplateSaveAndApply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	price := dec("150")
	_, err := f.svc.AddItem(ctx, AddItemInput{Description: "eye exam", Quantity: 3, UnitPrice: &price})
	require.NoError(t, err)

	tpl, err := f.svc.SaveTemplateFromDraft(ctx, "standard intake")
	require.NoError(t, err)
	require.Len(t, tpl.Items, 1)

	_, err = f.svc.ResetDraft(ctx)
	require.NoError(t, err)

	state, err := f.svc.ApplyTemplate(ctx, tpl.ID.String())
	require.NoError(t, err)
	require.Len(t, state.Draft.Items, 1)
	assert.Equal(t, "eye exam", state.Draft.Items[0].Description)
	assert.False(t, state.Draft.Items[0].Selected)
	// Materialized rows get fresh identities.
	assert.NotEqual(t, uuid.Nil, state.Draft.Items[0].ID)
}

func TestApplyTemplateReplacesCurrentItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	price := dec("150")
	_, err := f.svc.AddItem(ctx, AddItemInput{Description: "eye exam", Quantity: 3, UnitPrice: &price})
	require.NoError(t, err)

	tpl, err := f.svc.SaveTemplateFromDraft(ctx, "standard intake")
	require.NoError(t, err)

	_, err = f.svc.ResetDraft(ctx)
	require.NoError(t, err)

	other := dec("999")
	_, err = f.svc.AddItem(ctx, AddItemInput{Description: "stale row", Quantity: 1, UnitPrice: &other})
	require.NoError(t, err)

	state, err := f.svc.ApplyTemplate(ctx, tpl.ID.String())
	require.NoError(t, err)
	require.Len(t, state.Draft.Items, 1)
	assert.Equal(t, "eye exam", state.Draft.Items[0].Description)
	assert.Equal(t, 0, state.Draft.Items[0].Position)
}

func TestSaveTemplateRequiresItems(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SaveTemplateFromDraft(context.Background(), "empty")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestSuggestionsRequireCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	views, err := f.svc.Suggestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)

	companyID := f.addCompany()
	itemID := f.addCatalogItem("Blood Panel", "90")
	_, err = f.svc.UpdateHeader(ctx, HeaderPatch{CompanyID: &companyID})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, AddItemInput{CatalogItemID: &itemID, Quantity: 1})
	require.NoError(t, err)

	views, err = f.svc.Suggestions(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Blood Panel", views[0].Name)
	require.NotNil(t, views[0].LastPrice)
	assert.True(t, views[0].LastPrice.Equal(dec("90")))
}

func TestResetDraftClearsSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	price := dec("10")
	_, err := f.svc.AddItem(ctx, AddItemInput{Description: "x", Quantity: 1, UnitPrice: &price})
	require.NoError(t, err)
	require.NotNil(t, f.store.draft)

	state, err := f.svc.ResetDraft(ctx)
	require.NoError(t, err)
	assert.Nil(t, f.store.draft)
	assert.True(t, state.Draft.IsTrivial())
}
