package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/osgbhub/osgbhub-backend/pkg/logger"
	"github.com/osgbhub/osgbhub-backend/pkg/types"
)

// draftKV is the slice of the redis client the retention job needs.
type draftKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DraftKey() string
	TemplatesKey() string
}

// DraftRetentionJob enforces draft retention and keeps the template list
// readable. The draft key carries a TTL already; this job covers drafts
// written before a TTL change and unreadable payloads that would otherwise
// linger forever.
type DraftRetentionJob struct {
	kv     draftKV
	logg   *logger.Logger
	maxAge time.Duration
}

// NewDraftRetentionJob constructs the retention job.
func NewDraftRetentionJob(kv draftKV, logg *logger.Logger, maxAge time.Duration) (*DraftRetentionJob, error) {
	if kv == nil {
		return nil, errors.New("kv client required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("max age must be positive, got %s", maxAge)
	}
	return &DraftRetentionJob{kv: kv, logg: logg, maxAge: maxAge}, nil
}

// Name identifies the job in logs and metrics.
func (j *DraftRetentionJob) Name() string { return "quote-draft-retention" }

// Run sweeps the draft slot and the template list. Both checks always run;
// their errors are combined.
func (j *DraftRetentionJob) Run(ctx context.Context) error {
	return multierr.Combine(
		j.sweepDraft(ctx),
		j.repairTemplates(ctx),
	)
}

func (j *DraftRetentionJob) sweepDraft(ctx context.Context) error {
	raw, err := j.kv.Get(ctx, j.kv.DraftKey())
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return fmt.Errorf("read draft slot: %w", err)
	}

	var draft types.QuoteDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		j.logg.Warn(ctx, "purging unreadable draft payload")
		return j.kv.Del(ctx, j.kv.DraftKey())
	}
	if draft.SavedAt.IsZero() || time.Since(draft.SavedAt) > j.maxAge {
		j.logg.Info(j.logg.WithField(ctx, "saved_at", draft.SavedAt), "purging expired draft")
		return j.kv.Del(ctx, j.kv.DraftKey())
	}
	return nil
}

func (j *DraftRetentionJob) repairTemplates(ctx context.Context) error {
	raw, err := j.kv.Get(ctx, j.kv.TemplatesKey())
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return fmt.Errorf("read template list: %w", err)
	}

	var templates []types.QuoteTemplate
	if err := json.Unmarshal([]byte(raw), &templates); err != nil {
		j.logg.Warn(ctx, "resetting unreadable template list")
		empty, marshalErr := json.Marshal([]types.QuoteTemplate{})
		if marshalErr != nil {
			return marshalErr
		}
		return j.kv.Set(ctx, j.kv.TemplatesKey(), empty, 0)
	}

	// Drop entries that lost their identity or name; they cannot be
	// addressed or applied anymore.
	kept := templates[:0]
	for _, tpl := range templates {
		if tpl.Name == "" {
			continue
		}
		kept = append(kept, tpl)
	}
	if len(kept) == len(templates) {
		return nil
	}
	j.logg.Info(j.logg.WithField(ctx, "dropped", len(templates)-len(kept)), "pruned malformed templates")
	payload, err := json.Marshal(kept)
	if err != nil {
		return err
	}
	return j.kv.Set(ctx, j.kv.TemplatesKey(), payload, 0)
}
