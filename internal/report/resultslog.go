package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/wlbot/weblinkchecker/internal/domain"
)

// entriesPerSection controls how often a timestamped section header is
// written into the results file.
const entriesPerSection = 30

// ResultsLog is the human-readable, append-only record of escalations for
// one site. One bullet block per escalated URL, listing every historical
// observation.
type ResultsLog struct {
	mu    sync.Mutex
	f     *os.File
	count int
	now   func() time.Time
}

func OpenResultsLog(dir, siteKey string) (*ResultsLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir results dir: %w", err)
	}
	path := filepath.Join(dir, "results-"+siteKey+".txt")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open results log: %w", err)
	}
	return &ResultsLog{f: f, now: time.Now}, nil
}

// Append writes one escalation block.
func (r *ResultsLog) Append(url string, rec domain.DeadLinkRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	if r.count%entriesPerSection == 0 {
		fmt.Fprintf(&b, "=== %s ===\n", r.now().UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "* %s\n", url)
	for _, obs := range rec {
		fmt.Fprintf(&b, "** %s: %s (%s)\n",
			obs.At.UTC().Format(time.RFC3339), obs.Error, obs.PageTitle)
	}
	if _, err := r.f.WriteString(b.String()); err != nil {
		return fmt.Errorf("append results log: %w", err)
	}
	r.count++
	return nil
}

func (r *ResultsLog) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Close()
}
