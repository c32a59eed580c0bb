// Package history tracks which external URLs are currently believed dead.
//
// A URL is present in the store if and only if it has at least one dead
// observation that has not since been cancelled by an alive observation.
// The store is shared by all check workers and guarded by one coarse lock;
// the check-and-append inside RecordDead is atomic with respect to other
// workers.
package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wlbot/weblinkchecker/internal/domain"
	"github.com/wlbot/weblinkchecker/internal/repo"
)

// Escalation is returned by RecordDead when a URL has been continuously dead
// for longer than the configured threshold. The decision is re-evaluated on
// every dead observation, so a URL past the threshold escalates again each
// time it is checked dead; deduplication of the resulting reports happens at
// the dispatcher against the talk-page text. At-least-once on purpose: a
// duplicate report beats a silently dropped one.
type Escalation struct {
	URL      string
	Record   domain.DeadLinkRecord // copy of the full observation history
	DeadFor  time.Duration
	Appended bool // whether this observation was recorded or debounced
}

type Store struct {
	mu      sync.Mutex
	entries map[string]domain.DeadLinkRecord

	snap      repo.Snapshotter
	debounce  time.Duration
	threshold time.Duration
	log       *zap.Logger

	now func() time.Time
}

// New builds a Store persisting through snap. The debounce window suppresses
// repeat observations of one URL within the same run; thresholdDays is how
// long a URL must stay dead before it escalates.
func New(snap repo.Snapshotter, debounce time.Duration, thresholdDays int, log *zap.Logger) *Store {
	return &Store{
		entries:   map[string]domain.DeadLinkRecord{},
		snap:      snap,
		debounce:  debounce,
		threshold: time.Duration(thresholdDays) * 24 * time.Hour,
		log:       log,
		now:       time.Now,
	}
}

// Load replaces the in-memory state with the persisted snapshot.
func (s *Store) Load(ctx context.Context) error {
	entries, err := s.snap.Load(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	s.log.Info("history_loaded", zap.Int("urls", len(entries)))
	return nil
}

// Save writes the current state through the snapshotter. This is the only
// durability point; callers run it in a deferred block so it happens even on
// an interrupted run.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	entries := s.cloneLocked()
	s.mu.Unlock()
	if err := s.snap.Save(ctx, entries); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	s.log.Info("history_saved", zap.Int("urls", len(entries)))
	return nil
}

// RecordDead notes one dead observation of url on the given page. It returns
// a non-nil Escalation when the URL has been dead past the threshold.
//
// Repeat observations within the debounce window do not grow the record, but
// the escalation decision is still recomputed off the first observation.
func (s *Store) RecordDead(url, errMsg, pageTitle string) *Escalation {
	now := s.now()

	s.mu.Lock()
	rec, ok := s.entries[url]
	appended := false
	if !ok {
		rec = domain.DeadLinkRecord{{PageTitle: pageTitle, At: now, Error: errMsg}}
		s.entries[url] = rec
		appended = true
	} else if now.Sub(rec.LastSeen()) > s.debounce {
		rec = append(rec, domain.Observation{PageTitle: pageTitle, At: now, Error: errMsg})
		s.entries[url] = rec
		appended = true
	}
	deadFor := now.Sub(rec.FirstSeen())
	var esc *Escalation
	if deadFor > s.threshold {
		esc = &Escalation{
			URL:      url,
			Record:   append(domain.DeadLinkRecord(nil), rec...),
			DeadFor:  deadFor,
			Appended: appended,
		}
	}
	s.mu.Unlock()

	s.log.Debug("dead_recorded",
		zap.String("url", url),
		zap.String("page", pageTitle),
		zap.String("error", errMsg),
		zap.Bool("appended", appended),
		zap.Bool("escalated", esc != nil),
	)
	return esc
}

// RecordAlive deletes any record for url and reports whether one existed,
// i.e. whether the URL was previously flagged dead and is now resolved.
func (s *Store) RecordAlive(url string) bool {
	s.mu.Lock()
	_, ok := s.entries[url]
	if ok {
		delete(s.entries, url)
	}
	s.mu.Unlock()
	return ok
}

// Contains reports whether url is currently flagged dead.
func (s *Store) Contains(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[url]
	return ok
}

// Len returns the number of currently flagged URLs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// URLs lists the currently flagged URLs with the page each was first seen
// on. Used by resume mode to re-check known dead links without a crawl.
func (s *Store) URLs() []FlaggedURL {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FlaggedURL, 0, len(s.entries))
	for url, rec := range s.entries {
		f := FlaggedURL{URL: url}
		if len(rec) > 0 {
			f.PageTitle = rec[0].PageTitle
		}
		out = append(out, f)
	}
	return out
}

// FlaggedURL pairs a dead URL with the page it was first observed on.
type FlaggedURL struct {
	URL       string
	PageTitle string
}

// Snapshot returns a deep copy of the current mapping, for the status API.
func (s *Store) Snapshot() map[string]domain.DeadLinkRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneLocked()
}

func (s *Store) cloneLocked() map[string]domain.DeadLinkRecord {
	out := make(map[string]domain.DeadLinkRecord, len(s.entries))
	for url, rec := range s.entries {
		out[url] = append(domain.DeadLinkRecord(nil), rec...)
	}
	return out
}
