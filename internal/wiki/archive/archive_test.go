package archive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, func()) {
	s := httptest.NewServer(handler)
	c := New("linkbot-test/1.0")
	c.BaseURL = s.URL
	return c, s.Close
}

func TestLookup_SnapshotFound(t *testing.T) {
	c, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("url"); got != "http://x.test/a" {
			t.Errorf("unexpected url param %q", got)
		}
		w.Write([]byte(`{"archived_snapshots":{"closest":{"available":true,"url":"https://web.archive.org/web/2020/http://x.test/a","timestamp":"20200101000000"}}}`))
	})
	defer done()

	snap, found, err := c.Lookup(context.Background(), "http://x.test/a")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !found || snap == "" {
		t.Fatalf("want snapshot, got found=%v snap=%q", found, snap)
	}
}

func TestLookup_NoSnapshot(t *testing.T) {
	c, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"archived_snapshots":{}}`))
	})
	defer done()

	snap, found, err := c.Lookup(context.Background(), "http://x.test/a")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if found || snap != "" {
		t.Fatalf("want no snapshot, got found=%v snap=%q", found, snap)
	}
}

func TestLookup_ServerErrorIsError(t *testing.T) {
	c, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 500)
	})
	defer done()

	if _, _, err := c.Lookup(context.Background(), "http://x.test/a"); err == nil {
		t.Fatalf("expected error on 500")
	}
}
