package repo

import (
	"context"

	"github.com/wlbot/weblinkchecker/internal/domain"
)

// Snapshotter persists the dead-link history as one whole-map snapshot.
// There is no incremental write path: the store loads once at startup and
// saves once at shutdown. A crash in between loses in-memory updates, which
// is acceptable for an idempotent crawl that rediscovers the same dead links
// on its next run.
type Snapshotter interface {
	// Load returns the persisted mapping. A missing or unreadable snapshot
	// yields an empty map, not an error; only infrastructure failures
	// (e.g. a dead database) surface as errors.
	Load(ctx context.Context) (map[string]domain.DeadLinkRecord, error)
	// Save replaces the persisted mapping with the given one.
	Save(ctx context.Context, entries map[string]domain.DeadLinkRecord) error
}
