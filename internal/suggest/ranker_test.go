package suggest

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

	"github.com/osgbhub/osgbhub-backend/pkg/logger"
)

type fakeKV struct {
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return nil
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	val, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return val, nil
}

func (f *fakeKV) UsageKey(companyID string) string {
	return "osgb:usage:" + companyID
}

func (f *fakeKV) PriceHistoryKey(catalogItemID string) string {
	return "osgb:price_history:" + catalogItemID
}

func newTestRanker(t *testing.T) (*Ranker, *fakeKV) {
	t.Helper()
	kv := newFakeKV()
	ranker, err := NewRanker(kv, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return ranker, kv
}

func record(t *testing.T, ranker *Ranker, companyID, itemID uuid.UUID, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		require.NoError(t, ranker.RecordUsage(context.Background(), companyID, itemID))
	}
}

func TestTopRanksByCountThenCatalogOrder(t *testing.T) {
	ranker, _ := newTestRanker(t)
	ctx := context.Background()
	companyID := uuid.New()

	catalog := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	record(t, ranker, companyID, catalog[3], 2)
	record(t, ranker, companyID, catalog[0], 5)
	record(t, ranker, companyID, catalog[2], 2)

	top, err := ranker.Top(ctx, companyID, catalog)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, catalog[0], top[0].CatalogItemID)
	assert.Equal(t, int64(5), top[0].Count)
	// Tied counts resolve by catalog order, so index 2 beats index 3.
	assert.Equal(t, catalog[2], top[1].CatalogItemID)
	assert.Equal(t, catalog[3], top[2].CatalogItemID)
}

func TestTopIsScopedToCompany(t *testing.T) {
	ranker, _ := newTestRanker(t)
	ctx := context.Background()

	companyA := uuid.New()
	companyB := uuid.New()
	catalog := []uuid.UUID{uuid.New(), uuid.New()}

	record(t, ranker, companyA, catalog[0], 3)
	record(t, ranker, companyB, catalog[1], 1)

	topA, err := ranker.Top(ctx, companyA, catalog)
	require.NoError(t, err)
	require.Len(t, topA, 1)
	assert.Equal(t, catalog[0], topA[0].CatalogItemID)

	topB, err := ranker.Top(ctx, companyB, catalog)
	require.NoError(t, err)
	require.Len(t, topB, 1)
	assert.Equal(t, catalog[1], topB[0].CatalogItemID)
}

func TestTopCapsAtLimitAndDropsMissingItems(t *testing.T) {
	ranker, _ := newTestRanker(t)
	ctx := context.Background()
	companyID := uuid.New()

	catalog := make([]uuid.UUID, 7)
	for i := range catalog {
		catalog[i] = uuid.New()
		record(t, ranker, companyID, catalog[i], i+1)
	}
	retired := uuid.New()
	record(t, ranker, companyID, retired, 100)

	top, err := ranker.Top(ctx, companyID, catalog)
	require.NoError(t, err)
	require.Len(t, top, TopLimit)
	// The retired item has the highest count but is no longer in the catalog.
	for _, suggestion := range top {
		assert.NotEqual(t, retired, suggestion.CatalogItemID)
	}
	assert.Equal(t, catalog[6], top[0].CatalogItemID)
}

func TestTopEmptyForUnknownCompany(t *testing.T) {
	ranker, _ := newTestRanker(t)

	top, err := ranker.Top(context.Background(), uuid.New(), []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestPriceHistoryRoundTrip(t *testing.T) {
	ranker, _ := newTestRanker(t)
	ctx := context.Background()
	itemID := uuid.New()

	price, err := ranker.LastPrice(ctx, itemID)
	require.NoError(t, err)
	assert.Nil(t, price)

	require.NoError(t, ranker.RecordPrice(ctx, itemID, decimal.RequireFromString("245.50")))
	price, err = ranker.LastPrice(ctx, itemID)
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.True(t, price.Equal(decimal.RequireFromString("245.50")))
}

func TestRecordPriceSkipsNonPositive(t *testing.T) {
	ranker, kv := newTestRanker(t)
	ctx := context.Background()
	itemID := uuid.New()

	require.NoError(t, ranker.RecordPrice(ctx, itemID, decimal.Zero))
	require.NoError(t, ranker.RecordPrice(ctx, itemID, decimal.RequireFromString("-10")))
	assert.Empty(t, kv.data)
}
