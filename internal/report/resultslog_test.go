package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wlbot/weblinkchecker/internal/domain"
)

func TestResultsLog_AppendsBulletBlocks(t *testing.T) {
	dir := t.TempDir()
	rl, err := OpenResultsLog(dir, "wikipedia-pl")
	if err != nil {
		t.Fatalf("OpenResultsLog: %v", err)
	}
	defer rl.Close()

	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := domain.DeadLinkRecord{
		{PageTitle: "Alpha", At: t0, Error: "404 Not Found"},
		{PageTitle: "Alpha", At: t0.Add(8 * 24 * time.Hour), Error: "404 Not Found"},
	}
	if err := rl.Append("http://x.test/a", rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "results-wikipedia-pl.txt"))
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	got := string(raw)
	if !strings.HasPrefix(got, "=== ") {
		t.Fatalf("first entry should open a section header, got %q", got)
	}
	if !strings.Contains(got, "* http://x.test/a\n") {
		t.Fatalf("missing bullet for URL: %q", got)
	}
	if strings.Count(got, "** ") != 2 {
		t.Fatalf("want both observations listed, got %q", got)
	}
}

func TestResultsLog_SectionHeaderEvery30Entries(t *testing.T) {
	dir := t.TempDir()
	rl, err := OpenResultsLog(dir, "wikipedia-pl")
	if err != nil {
		t.Fatalf("OpenResultsLog: %v", err)
	}
	defer rl.Close()

	rec := domain.DeadLinkRecord{{PageTitle: "P", At: time.Now().UTC(), Error: "404"}}
	for i := 0; i < 61; i++ {
		if err := rl.Append("http://x.test/a", rec); err != nil {
			t.Fatalf("Append #%d: %v", i, err)
		}
	}

	raw, _ := os.ReadFile(filepath.Join(dir, "results-wikipedia-pl.txt"))
	if n := strings.Count(string(raw), "=== "); n != 3 {
		t.Fatalf("want 3 section headers for 61 entries, got %d", n)
	}
}
