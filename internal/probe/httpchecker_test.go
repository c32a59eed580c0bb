package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPChecker_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("User-Agent"), "linkbot-test") {
			t.Errorf("expected configured user agent, got %q", r.Header.Get("User-Agent"))
		}
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}))
	defer s.Close()

	chk := NewHTTPChecker(2*time.Second, "linkbot-test/1.0", false)
	out := chk.Check(context.Background(), s.URL)
	if !out.Success {
		t.Fatalf("want success, got %+v", out)
	}
	if out.StatusCode != 200 {
		t.Fatalf("want status 200, got %d", out.StatusCode)
	}
	if !strings.HasPrefix(out.Message, "200") {
		t.Fatalf("want message to start with 200, got %q", out.Message)
	}
}

func TestHTTPChecker_Status404(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer s.Close()

	chk := NewHTTPChecker(2*time.Second, "linkbot-test/1.0", false)
	out := chk.Check(context.Background(), s.URL)
	if out.Success {
		t.Fatalf("want failure, got %+v", out)
	}
	if out.StatusCode != 404 {
		t.Fatalf("want status 404, got %d", out.StatusCode)
	}
}

func TestHTTPChecker_TimeoutSetsStatusZero(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer s.Close()

	chk := NewHTTPChecker(50*time.Millisecond, "linkbot-test/1.0", false)
	out := chk.Check(context.Background(), s.URL)
	if out.Success {
		t.Fatalf("want failure due to timeout, got %+v", out)
	}
	if out.StatusCode != 0 {
		t.Fatalf("want status 0 on transport error, got %d", out.StatusCode)
	}
	if out.Message == "" {
		t.Fatalf("want non-empty error message")
	}
}

func TestHTTPChecker_MalformedURL(t *testing.T) {
	chk := NewHTTPChecker(time.Second, "linkbot-test/1.0", false)
	out := chk.Check(context.Background(), "http://[broken")
	if out.Success || !out.Malformed {
		t.Fatalf("want malformed failure, got %+v", out)
	}
}

func TestHTTPChecker_FakeAgent(t *testing.T) {
	seen := ""
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("User-Agent")
		w.WriteHeader(200)
	}))
	defer s.Close()

	chk := NewHTTPChecker(time.Second, "linkbot-test/1.0", true)
	chk.Check(context.Background(), s.URL)
	if !strings.HasPrefix(seen, "Mozilla/5.0") {
		t.Fatalf("fake agent not presented, got %q", seen)
	}
}
