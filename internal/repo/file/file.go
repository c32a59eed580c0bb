package file

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wlbot/weblinkchecker/internal/domain"
	"github.com/wlbot/weblinkchecker/internal/repo"
)

var _ repo.Snapshotter = (*Snapshot)(nil)

// Snapshot stores the history as a single gob file per site, e.g.
// data/deadlinks-wikipedia-pl.dat.
type Snapshot struct {
	path string
	log  *zap.Logger
}

func New(dir, siteKey string, log *zap.Logger) *Snapshot {
	return &Snapshot{
		path: filepath.Join(dir, "deadlinks-"+siteKey+".dat"),
		log:  log,
	}
}

// Path returns the snapshot file location.
func (s *Snapshot) Path() string { return s.path }

func (s *Snapshot) Load(ctx context.Context) (map[string]domain.DeadLinkRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("history_open_failed", zap.String("path", s.path), zap.Error(err))
		}
		return map[string]domain.DeadLinkRecord{}, nil
	}
	defer f.Close()

	var entries map[string]domain.DeadLinkRecord
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		// corrupt snapshot: start fresh rather than aborting the run
		s.log.Warn("history_corrupt", zap.String("path", s.path), zap.Error(err))
		return map[string]domain.DeadLinkRecord{}, nil
	}
	if entries == nil {
		entries = map[string]domain.DeadLinkRecord{}
	}
	return entries, nil
}

func (s *Snapshot) Save(ctx context.Context, entries map[string]domain.DeadLinkRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir history dir: %w", err)
	}

	// write to a sibling temp file, then rename over the old snapshot
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create history temp: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(entries); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode history: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close history temp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace history snapshot: %w", err)
	}
	return nil
}
