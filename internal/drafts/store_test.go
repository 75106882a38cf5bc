package drafts

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osgbhub/osgbhub-backend/pkg/config"
	pkgerrors "github.com/osgbhub/osgbhub-backend/pkg/errors"
	"github.com/osgbhub/osgbhub-backend/pkg/enums"
	"github.com/osgbhub/osgbhub-backend/pkg/logger"
	"github.com/osgbhub/osgbhub-backend/pkg/types"
)

type fakeKV struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	val, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return val, nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeKV) DraftKey() string     { return "osgb:quote_draft:current" }
func (f *fakeKV) TemplatesKey() string { return "osgb:quote_templates:current" }

func newTestStore(t *testing.T) (*Store, *fakeKV) {
	t.Helper()
	kv := newFakeKV()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	store, err := NewStore(kv, logg, config.QuoteConfig{DraftTTL: time.Hour})
	require.NoError(t, err)
	return store, kv
}

func sampleDraft() types.QuoteDraft {
	draft := types.EmptyQuoteDraft()
	companyID := uuid.New()
	draft.CompanyID = &companyID
	draft.Notes = "annual checkups"
	draft.Items = []types.LineItem{
		{
			ID:           uuid.New(),
			Description:  "periodic examination",
			Quantity:     12,
			UnitPrice:    decimal.RequireFromString("350"),
			DiscountType: enums.DiscountTypePercentage,
			TaxRate:      decimal.RequireFromString("20"),
		},
	}
	return draft
}

func TestDraftRoundTrip(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	saved, err := store.SaveDraft(ctx, sampleDraft())
	require.NoError(t, err)
	assert.False(t, saved.SavedAt.IsZero())
	assert.Equal(t, time.Hour, kv.ttls[kv.DraftKey()])

	loaded, found, err := store.LoadDraft(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, saved.CompanyID, loaded.CompanyID)
	require.Len(t, loaded.Items, 1)
	assert.True(t, loaded.Items[0].UnitPrice.Equal(decimal.RequireFromString("350")))
	assert.Equal(t, "annual checkups", loaded.Notes)
}

func TestLoadDraftMissingSlot(t *testing.T) {
	store, _ := newTestStore(t)

	draft, found, err := store.LoadDraft(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, draft.IsTrivial())
	assert.NotNil(t, draft.Items)
}

func TestLoadDraftCorruptPayloadTreatedAsAbsent(t *testing.T) {
	store, kv := newTestStore(t)
	kv.data[kv.DraftKey()] = "{not json"

	draft, found, err := store.LoadDraft(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, draft.IsTrivial())
}

func TestClearDraft(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveDraft(ctx, sampleDraft())
	require.NoError(t, err)
	require.NoError(t, store.ClearDraft(ctx))
	assert.NotContains(t, kv.data, kv.DraftKey())
}

func TestTemplateLifecycle(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	tpl := types.QuoteTemplate{
		ID:        uuid.New(),
		Name:      "standard package",
		Items:     []types.TemplateItem{types.NewTemplateItem(sampleDraft().Items[0])},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.SaveTemplate(ctx, tpl))
	// The whole list lives under one key with no expiry.
	assert.Equal(t, time.Duration(0), kv.ttls[kv.TemplatesKey()])

	listed, err := store.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "standard package", listed[0].Name)

	found, err := store.Template(ctx, tpl.ID.String())
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, found.ID)

	require.NoError(t, store.DeleteTemplate(ctx, tpl.ID.String()))
	listed, err = store.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestSaveTemplateDuplicateName(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	tpl := types.QuoteTemplate{ID: uuid.New(), Name: "dup"}
	require.NoError(t, store.SaveTemplate(ctx, tpl))

	err := store.SaveTemplate(ctx, types.QuoteTemplate{ID: uuid.New(), Name: "dup"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestDeleteTemplateUnknownID(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.DeleteTemplate(context.Background(), uuid.NewString())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListTemplatesCorruptListIsEmpty(t *testing.T) {
	store, kv := newTestStore(t)
	kv.data[kv.TemplatesKey()] = "broken"

	listed, err := store.ListTemplates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listed)
}
