package wiki

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestCategoryPages_PaginatesAndStreams(t *testing.T) {
	calls := 0
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.URL.Query().Get("gcmtitle"); got != "Category:Test" {
			t.Errorf("unexpected gcmtitle %q", got)
		}
		if calls == 1 {
			fmt.Fprint(w, `{
				"continue": {"gcmcontinue": "page|next"},
				"query": {"pages": [
					{"title": "Alpha", "revisions": [{"slots": {"main": {"content": "text a"}}}]},
					{"title": "Beta", "revisions": [{"slots": {"main": {"content": "text b"}}}]}
				]}
			}`)
			return
		}
		if got := r.URL.Query().Get("gcmcontinue"); got != "page|next" {
			t.Errorf("continue token not passed, got %q", got)
		}
		fmt.Fprint(w, `{
			"query": {"pages": [
				{"title": "Gamma", "revisions": [{"slots": {"main": {"content": "text c"}}}]},
				{"title": "Missing", "missing": true}
			]}
		}`)
	}))
	defer s.Close()

	c := NewWithEndpoint(s.URL, "linkbot-test/1.0", zap.NewNop())
	var titles []string
	for p := range c.CategoryPages(context.Background(), "Test", 0) {
		titles = append(titles, p.Title)
	}
	want := []string{"Alpha", "Beta", "Gamma"}
	if len(titles) != len(want) {
		t.Fatalf("want %v, got %v", want, titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("want %v, got %v", want, titles)
		}
	}
}

func TestCategoryPages_RespectsLimit(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"continue": {"gcmcontinue": "more"},
			"query": {"pages": [
				{"title": "Alpha", "revisions": [{"slots": {"main": {"content": "a"}}}]},
				{"title": "Beta", "revisions": [{"slots": {"main": {"content": "b"}}}]}
			]}
		}`)
	}))
	defer s.Close()

	c := NewWithEndpoint(s.URL, "linkbot-test/1.0", zap.NewNop())
	n := 0
	for range c.CategoryPages(context.Background(), "Test", 1) {
		n++
	}
	if n != 1 {
		t.Fatalf("want 1 page, got %d", n)
	}
}

func TestPageText_MissingPageIsEmpty(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"query": {"pages": [{"title": "Nope", "missing": true}]}}`)
	}))
	defer s.Close()

	c := NewWithEndpoint(s.URL, "linkbot-test/1.0", zap.NewNop())
	text, err := c.PageText(context.Background(), "Nope")
	if err != nil {
		t.Fatalf("PageText: %v", err)
	}
	if text != "" {
		t.Fatalf("want empty text for missing page, got %q", text)
	}
}

func TestAppendText_PostsEdit(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `{"query": {"tokens": {"csrftoken": "tok+\\"}}}`)
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.Form.Get("token") != `tok+\` {
			t.Errorf("token not sent, got %q", r.Form.Get("token"))
		}
		if r.Form.Get("appendtext") == "" || r.Form.Get("summary") == "" {
			t.Errorf("missing edit fields: %v", r.Form)
		}
		fmt.Fprint(w, `{"edit": {"result": "Success"}}`)
	}))
	defer s.Close()

	c := NewWithEndpoint(s.URL, "linkbot-test/1.0", zap.NewNop())
	err := c.AppendText(context.Background(), "Talk:Alpha", "== Dead link ==", "summary")
	if err != nil {
		t.Fatalf("AppendText: %v", err)
	}
}

func TestAppendText_SpamFilterIsSentinel(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `{"query": {"tokens": {"csrftoken": "tok"}}}`)
			return
		}
		fmt.Fprint(w, `{"error": {"code": "spamblacklist", "info": "blocked URL"}}`)
	}))
	defer s.Close()

	c := NewWithEndpoint(s.URL, "linkbot-test/1.0", zap.NewNop())
	err := c.AppendText(context.Background(), "Talk:Alpha", "text", "summary")
	if !errors.Is(err, ErrSpamFilter) {
		t.Fatalf("want ErrSpamFilter, got %v", err)
	}
}
