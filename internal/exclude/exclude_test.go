package exclude

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilter_FullStringAnchoring(t *testing.T) {
	f, err := New([]string{`https?://blocked\.test(/.*)?`})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !f.Excluded("http://blocked.test/page") {
		t.Fatalf("expected match for full URL")
	}
	if !f.Excluded("https://blocked.test") {
		t.Fatalf("expected match with no path")
	}
	// a rule must match the whole URL, not a substring of it
	if f.Excluded("http://evil.example/?u=http://blocked.test/page") {
		t.Fatalf("substring match must not exclude")
	}
	if f.Excluded("http://blocked.test.evil.example/") {
		t.Fatalf("host prefix must not exclude")
	}
}

func TestFilter_FirstMatchWins_UnmatchedDefault(t *testing.T) {
	f, err := New([]string{`http://a\.test/.*`, `http://b\.test/.*`})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !f.Excluded("http://b.test/x") {
		t.Fatalf("second rule should still match")
	}
	if f.Excluded("http://c.test/x") {
		t.Fatalf("unmatched URL must not be excluded")
	}
}

func TestNew_BadPattern(t *testing.T) {
	if _, err := New([]string{`(`}); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestDefault_Compiles(t *testing.T) {
	f := Default()
	if f.Len() == 0 {
		t.Fatalf("expected built-in rules")
	}
	if !f.Excluded("https://web.archive.org/web/2020/http://x.test") {
		t.Fatalf("archive mirror should be excluded")
	}
	if f.Excluded("http://x.test/a") {
		t.Fatalf("plain URL should pass")
	}
}

func TestLoad_MergesFileRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exclude.yaml")
	data := "rules:\n  - 'https?://extra\\.test(/.*)?'\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write rule file: %v", err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !f.Excluded("http://extra.test/x") {
		t.Fatalf("file rule should apply")
	}
	if !f.Excluded("https://archive.today/abc") {
		t.Fatalf("built-in rules should survive the merge")
	}
}

func TestLoad_MissingFileIsError(t *testing.T) {
	if _, err := Load("/nonexistent/exclude.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
