package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/osgbhub/osgbhub-backend/pkg/config"
	pkgerrors "github.com/osgbhub/osgbhub-backend/pkg/errors"
	"github.com/osgbhub/osgbhub-backend/pkg/logger"
	"github.com/osgbhub/osgbhub-backend/pkg/types"
)

// KV is the slice of the redis client the store depends on.
type KV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	DraftKey() string
	TemplatesKey() string
}

// Store persists the single builder draft and the template list. Both live
// whole under one key each and are replaced on every write.
type Store struct {
	kv       KV
	logger   *logger.Logger
	draftTTL time.Duration
}

func NewStore(kv KV, logg *logger.Logger, cfg config.QuoteConfig) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Store{kv: kv, logger: logg, draftTTL: cfg.DraftTTL}, nil
}

// SaveDraft stamps the draft and writes it to the fixed slot.
func (s *Store) SaveDraft(ctx context.Context, draft types.QuoteDraft) (types.QuoteDraft, error) {
	draft.SavedAt = time.Now().UTC()
	payload, err := json.Marshal(draft)
	if err != nil {
		return draft, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshaling draft")
	}
	if err := s.kv.Set(ctx, s.kv.DraftKey(), payload, s.draftTTL); err != nil {
		return draft, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving draft")
	}
	return draft, nil
}

// LoadDraft returns the stored draft and whether one existed. A missing or
// unreadable slot yields the empty builder state; corrupt payloads are
// logged and treated as absent rather than surfaced to the caller.
func (s *Store) LoadDraft(ctx context.Context) (types.QuoteDraft, bool, error) {
	raw, err := s.kv.Get(ctx, s.kv.DraftKey())
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return types.EmptyQuoteDraft(), false, nil
		}
		return types.EmptyQuoteDraft(), false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading draft")
	}

	var draft types.QuoteDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		s.logger.Error(ctx, "discarding unreadable draft payload", err)
		return types.EmptyQuoteDraft(), false, nil
	}
	if draft.Items == nil {
		draft.Items = []types.LineItem{}
	}
	if !draft.Currency.IsValid() {
		draft.Currency = types.EmptyQuoteDraft().Currency
	}
	if !draft.GeneralDiscountType.IsValid() {
		draft.GeneralDiscountType = types.EmptyQuoteDraft().GeneralDiscountType
	}
	return draft, true, nil
}

// ClearDraft removes the draft slot.
func (s *Store) ClearDraft(ctx context.Context) error {
	if err := s.kv.Del(ctx, s.kv.DraftKey()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing draft")
	}
	return nil
}

// ListTemplates returns every saved template. A missing key is an empty
// list; a corrupt list is logged and reset to empty on the next write.
func (s *Store) ListTemplates(ctx context.Context) ([]types.QuoteTemplate, error) {
	raw, err := s.kv.Get(ctx, s.kv.TemplatesKey())
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return []types.QuoteTemplate{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading templates")
	}

	var templates []types.QuoteTemplate
	if err := json.Unmarshal([]byte(raw), &templates); err != nil {
		s.logger.Error(ctx, "discarding unreadable template list", err)
		return []types.QuoteTemplate{}, nil
	}
	return templates, nil
}

// Template finds one template by id.
func (s *Store) Template(ctx context.Context, id string) (types.QuoteTemplate, error) {
	templates, err := s.ListTemplates(ctx)
	if err != nil {
		return types.QuoteTemplate{}, err
	}
	for _, tpl := range templates {
		if tpl.ID.String() == id {
			return tpl, nil
		}
	}
	return types.QuoteTemplate{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("template %s not found", id))
}

// SaveTemplate appends the template to the list and writes the whole list
// back. Template names must be unique.
func (s *Store) SaveTemplate(ctx context.Context, tpl types.QuoteTemplate) error {
	templates, err := s.ListTemplates(ctx)
	if err != nil {
		return err
	}
	for _, existing := range templates {
		if existing.Name == tpl.Name {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("template %q already exists", tpl.Name))
		}
	}
	return s.writeTemplates(ctx, append(templates, tpl))
}

// DeleteTemplate removes the template with the given id.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	templates, err := s.ListTemplates(ctx)
	if err != nil {
		return err
	}
	kept := templates[:0]
	found := false
	for _, tpl := range templates {
		if tpl.ID.String() == id {
			found = true
			continue
		}
		kept = append(kept, tpl)
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("template %s not found", id))
	}
	return s.writeTemplates(ctx, kept)
}

func (s *Store) writeTemplates(ctx context.Context, templates []types.QuoteTemplate) error {
	payload, err := json.Marshal(templates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshaling templates")
	}
	// Templates have no TTL; only drafts expire.
	if err := s.kv.Set(ctx, s.kv.TemplatesKey(), payload, 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving templates")
	}
	return nil
}
