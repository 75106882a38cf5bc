package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	buildersvc "github.com/osgbhub/osgbhub-backend/internal/builder"
	"github.com/osgbhub/osgbhub-backend/internal/suggest"
	"github.com/osgbhub/osgbhub-backend/pkg/db/models"
	pkgerrors "github.com/osgbhub/osgbhub-backend/pkg/errors"
	"github.com/osgbhub/osgbhub-backend/pkg/logger"
	"github.com/osgbhub/osgbhub-backend/pkg/metrics"
	"github.com/osgbhub/osgbhub-backend/pkg/types"
)

type stubStore struct {
	draft     *types.QuoteDraft
	templates []types.QuoteTemplate
}

func (s *stubStore) LoadDraft(context.Context) (types.QuoteDraft, bool, error) {
	if s.draft == nil {
		return types.EmptyQuoteDraft(), false, nil
	}
	return *s.draft, true, nil
}

func (s *stubStore) SaveDraft(_ context.Context, draft types.QuoteDraft) (types.QuoteDraft, error) {
	s.draft = &draft
	return draft, nil
}

func (s *stubStore) ClearDraft(context.Context) error {
	s.draft = nil
	return nil
}

func (s *stubStore) ListTemplates(context.Context) ([]types.QuoteTemplate, error) {
	return s.templates, nil
}

func (s *stubStore) Template(_ context.Context, id string) (types.QuoteTemplate, error) {
	for _, tpl := range s.templates {
		if tpl.ID.String() == id {
			return tpl, nil
		}
	}
	return types.QuoteTemplate{}, pkgerrors.New(pkgerrors.CodeNotFound, "template not found")
}

func (s *stubStore) SaveTemplate(_ context.Context, tpl types.QuoteTemplate) error {
	s.templates = append(s.templates, tpl)
	return nil
}

func (s *stubStore) DeleteTemplate(_ context.Context, id string) error {
	kept := s.templates[:0]
	for _, tpl := range s.templates {
		if tpl.ID.String() != id {
			kept = append(kept, tpl)
		}
	}
	s.templates = kept
	return nil
}

type stubTracker struct{}

func (stubTracker) RecordUsage(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (stubTracker) RecordPrice(context.Context, uuid.UUID, decimal.Decimal) error {
	return nil
}
func (stubTracker) LastPrice(context.Context, uuid.UUID) (*decimal.Decimal, error) {
	return nil, nil
}
func (stubTracker) Top(context.Context, uuid.UUID, []uuid.UUID) ([]suggest.Suggestion, error) {
	return nil, nil
}

type stubCatalog struct{}

func (stubCatalog) GetItem(context.Context, uuid.UUID) (*models.CatalogItem, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
}
func (stubCatalog) ActiveOrder(context.Context) ([]uuid.UUID, error) { return nil, nil }

type stubCompanies struct{}

func (stubCompanies) Exists(context.Context, uuid.UUID) (bool, error) { return true, nil }

func newTestRouter(t *testing.T) (chi.Router, *stubStore) {
	t.Helper()

	store := &stubStore{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := buildersvc.NewService(store, stubTracker{}, stubCatalog{}, stubCompanies{}, metrics.NewBuilderMetrics(nil), logg)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Get("/builder", Fetch(svc, logg))
	r.Post("/builder/items", AddItem(svc, logg))
	r.Patch("/builder/items/{itemId}", UpdateItem(svc, logg))
	r.Delete("/builder/items/{itemId}", RemoveItem(svc, logg))
	r.Post("/builder/items/{itemId}/reorder", ReorderItem(svc, logg))
	r.Post("/builder/currency", SetCurrency(svc, logg))
	r.Post("/builder/bulk/price", BulkPrice(svc, logg))
	return r, store
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) buildersvc.State {
	t.Helper()
	var envelope struct {
		Data buildersvc.State `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	return envelope.Data
}

func TestFetchReturnsEmptyBuilder(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/builder", nil)
	require.Equal(t, http.StatusOK, w.Code)

	state := decodeState(t, w)
	assert.Empty(t, state.Draft.Items)
	assert.Equal(t, "0.00 TRY", state.Presented.Total)
}

func TestAddItemEndpointComputesTotals(t *testing.T) {
	router, store := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/builder/items", map[string]any{
		"description": "periodic examination",
		"quantity":    2,
		"unit_price":  "250",
		"tax_rate":    "20",
	})
	require.Equal(t, http.StatusOK, w.Code)

	state := decodeState(t, w)
	require.Len(t, state.Draft.Items, 1)
	assert.True(t, state.Totals.Total.Equal(decimal.RequireFromString("600")))
	require.NotNil(t, store.draft)
}

func TestAddItemEndpointRejectsUnknownFields(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/builder/items", map[string]any{
		"description": "x",
		"quantity":    1,
		"surprise":    true,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAndRemoveItemEndpoints(t *testing.T) {
	router, store := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/builder/items", map[string]any{
		"description": "hearing test",
		"quantity":    1,
		"unit_price":  "100",
	})
	require.Equal(t, http.StatusOK, w.Code)
	itemID := decodeState(t, w).Draft.Items[0].ID

	w = doJSON(t, router, http.MethodPatch, "/builder/items/"+itemID.String(), map[string]any{
		"quantity": 4,
	})
	require.Equal(t, http.StatusOK, w.Code)
	state := decodeState(t, w)
	assert.Equal(t, 4, state.Draft.Items[0].Quantity)

	w = doJSON(t, router, http.MethodDelete, "/builder/items/"+itemID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeState(t, w).Draft.Items)
	assert.Nil(t, store.draft)
}

func TestRemoveItemEndpointUnknownIDIsNoOp(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodDelete, "/builder/items/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeState(t, w).Draft.Items)
}

func TestUpdateItemEndpointUnknownID(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPatch, "/builder/items/"+uuid.NewString(), map[string]any{
		"quantity": 2,
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetCurrencyEndpointRejectsUnknownCurrency(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/builder/currency", map[string]any{
		"currency": "JPY",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkPriceEndpointAdjustsEveryItem(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, desc := range []string{"a", "b"} {
		w := doJSON(t, router, http.MethodPost, "/builder/items", map[string]any{
			"description": desc,
			"quantity":    1,
			"unit_price":  "100",
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, router, http.MethodPost, "/builder/bulk/price", map[string]any{
		"percent":   "10",
		"direction": "increase",
	})
	require.Equal(t, http.StatusOK, w.Code)

	state := decodeState(t, w)
	for _, item := range state.Draft.Items {
		assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("110")))
	}
}
