package memory

import (
	"context"
	"sync"

	"github.com/wlbot/weblinkchecker/internal/domain"
	"github.com/wlbot/weblinkchecker/internal/repo"
)

var _ repo.Snapshotter = (*Snapshot)(nil)

// Snapshot keeps the history in process memory. Useful for tests and for
// throwaway runs where nothing should be persisted.
type Snapshot struct {
	mu      sync.Mutex
	entries map[string]domain.DeadLinkRecord
}

func New() *Snapshot {
	return &Snapshot{entries: map[string]domain.DeadLinkRecord{}}
}

func (m *Snapshot) Load(ctx context.Context) (map[string]domain.DeadLinkRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.entries), nil
}

func (m *Snapshot) Save(ctx context.Context, entries map[string]domain.DeadLinkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = clone(entries)
	return nil
}

func clone(in map[string]domain.DeadLinkRecord) map[string]domain.DeadLinkRecord {
	out := make(map[string]domain.DeadLinkRecord, len(in))
	for url, rec := range in {
		out[url] = append(domain.DeadLinkRecord(nil), rec...)
	}
	return out
}
