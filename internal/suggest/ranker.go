package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/osgbhub/osgbhub-backend/pkg/errors"
	"github.com/osgbhub/osgbhub-backend/pkg/logger"
)

// TopLimit caps the suggestion list shown in the builder.
const TopLimit = 5

// KV is the slice of the redis client the ranker depends on.
type KV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	UsageKey(companyID string) string
	PriceHistoryKey(catalogItemID string) string
}

// Suggestion is one ranked catalog item for a company.
type Suggestion struct {
	CatalogItemID uuid.UUID `json:"catalog_item_id"`
	Count         int64     `json:"count"`
}

// Ranker tracks per-company catalog usage and last-used prices, and ranks
// the most used items. Counters are advisory: failures degrade to empty
// results rather than failing the builder flow.
type Ranker struct {
	kv     KV
	logger *logger.Logger
}

func NewRanker(kv KV, logg *logger.Logger) (*Ranker, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Ranker{kv: kv, logger: logg}, nil
}

// RecordUsage bumps the company's counter for a catalog item.
func (r *Ranker) RecordUsage(ctx context.Context, companyID, catalogItemID uuid.UUID) error {
	key := r.kv.UsageKey(companyID.String())
	counts, err := r.loadCounts(ctx, key)
	if err != nil {
		return err
	}
	counts[catalogItemID.String()]++

	payload, err := json.Marshal(counts)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshaling usage counters")
	}
	if err := r.kv.Set(ctx, key, payload, 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving usage counters")
	}
	return nil
}

// RecordPrice remembers the last non-zero price a catalog item was quoted
// at. Zero and negative prices are not history worth keeping.
func (r *Ranker) RecordPrice(ctx context.Context, catalogItemID uuid.UUID, price decimal.Decimal) error {
	if !price.IsPositive() {
		return nil
	}
	key := r.kv.PriceHistoryKey(catalogItemID.String())
	if err := r.kv.Set(ctx, key, price.String(), 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving price history")
	}
	return nil
}

// LastPrice returns the last recorded price for the item, or nil when none
// was recorded.
func (r *Ranker) LastPrice(ctx context.Context, catalogItemID uuid.UUID) (*decimal.Decimal, error) {
	raw, err := r.kv.Get(ctx, r.kv.PriceHistoryKey(catalogItemID.String()))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading price history")
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		r.logger.Error(ctx, "discarding unreadable price history value", err)
		return nil, nil
	}
	return &price, nil
}

// Top ranks the company's most used catalog items, highest count first,
// capped at TopLimit. catalogOrder supplies the deterministic tie-break:
// equal counts rank in catalog order, and items no longer in the catalog
// are dropped.
func (r *Ranker) Top(ctx context.Context, companyID uuid.UUID, catalogOrder []uuid.UUID) ([]Suggestion, error) {
	counts, err := r.loadCounts(ctx, r.kv.UsageKey(companyID.String()))
	if err != nil {
		return nil, err
	}

	orderIndex := make(map[string]int, len(catalogOrder))
	for i, id := range catalogOrder {
		orderIndex[id.String()] = i
	}

	ranked := make([]Suggestion, 0, len(counts))
	for rawID, count := range counts {
		if count <= 0 {
			continue
		}
		if _, ok := orderIndex[rawID]; !ok {
			continue
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			continue
		}
		ranked = append(ranked, Suggestion{CatalogItemID: id, Count: count})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return orderIndex[ranked[i].CatalogItemID.String()] < orderIndex[ranked[j].CatalogItemID.String()]
	})

	if len(ranked) > TopLimit {
		ranked = ranked[:TopLimit]
	}
	return ranked, nil
}

func (r *Ranker) loadCounts(ctx context.Context, key string) (map[string]int64, error) {
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return map[string]int64{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading usage counters")
	}
	counts := map[string]int64{}
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		r.logger.Error(ctx, "discarding unreadable usage counters", err)
		return map[string]int64{}, nil
	}
	return counts, nil
}
