// Package wiki is a minimal MediaWiki action-API client covering what the
// link checker needs: streaming page content out of a category and appending
// dead-link notices to talk pages.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wlbot/weblinkchecker/internal/domain"
)

// ErrSpamFilter marks an edit rejected by the site's spam blacklist. The
// dispatcher logs these and drops the job instead of retrying.
var ErrSpamFilter = errors.New("edit rejected by spam filter")

type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	log       *zap.Logger

	csrfToken string
}

// New builds a client for one site, e.g. New("wikipedia", "pl", ...) talks
// to https://pl.wikipedia.org/w/api.php.
func New(family, lang, userAgent string, log *zap.Logger) *Client {
	return &Client{
		endpoint:  fmt.Sprintf("https://%s.%s.org/w/api.php", lang, family),
		userAgent: userAgent,
		http:      &http.Client{Timeout: 30 * time.Second},
		log:       log,
	}
}

// NewWithEndpoint is used by tests to point the client at a fake API.
func NewWithEndpoint(endpoint, userAgent string, log *zap.Logger) *Client {
	c := New("wikipedia", "en", userAgent, log)
	c.endpoint = endpoint
	return c
}

type apiResponse struct {
	Continue map[string]string `json:"continue"`
	Query    struct {
		Pages []struct {
			Title     string `json:"title"`
			Missing   bool   `json:"missing"`
			Revisions []struct {
				Slots struct {
					Main struct {
						Content string `json:"content"`
					} `json:"main"`
				} `json:"slots"`
			} `json:"revisions"`
		} `json:"pages"`
		Tokens struct {
			CSRFToken string `json:"csrftoken"`
		} `json:"tokens"`
	} `json:"query"`
	Edit struct {
		Result string `json:"result"`
	} `json:"edit"`
	Error struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

func (c *Client) get(ctx context.Context, params url.Values) (*apiResponse, error) {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api status %s", resp.Status)
	}
	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode api response: %w", err)
	}
	if out.Error.Code != "" {
		return nil, fmt.Errorf("api error %s: %s", out.Error.Code, out.Error.Info)
	}
	return &out, nil
}

// CategoryPages streams the wikitext of pages in a category, batch by batch,
// into the returned channel. The channel closes when the category is
// exhausted, limit pages were sent, or ctx is cancelled. Fetch errors end the
// stream early; the caller still drains whatever arrived.
func (c *Client) CategoryPages(ctx context.Context, category string, limit int) <-chan domain.Page {
	out := make(chan domain.Page)
	go func() {
		defer close(out)
		sent := 0
		cont := map[string]string{}
		for {
			params := url.Values{}
			params.Set("action", "query")
			params.Set("generator", "categorymembers")
			params.Set("gcmtitle", "Category:"+category)
			params.Set("gcmnamespace", "0")
			params.Set("gcmlimit", "50")
			params.Set("prop", "revisions")
			params.Set("rvprop", "content")
			params.Set("rvslots", "main")
			for k, v := range cont {
				params.Set(k, v)
			}

			resp, err := c.get(ctx, params)
			if err != nil {
				c.log.Warn("category_fetch_failed",
					zap.String("category", category), zap.Error(err))
				return
			}
			for _, p := range resp.Query.Pages {
				if p.Missing || len(p.Revisions) == 0 {
					continue
				}
				page := domain.Page{Title: p.Title, Text: p.Revisions[0].Slots.Main.Content}
				select {
				case out <- page:
				case <-ctx.Done():
					return
				}
				sent++
				if limit > 0 && sent >= limit {
					return
				}
			}
			if len(resp.Continue) == 0 {
				return
			}
			cont = resp.Continue
		}
	}()
	return out
}

// PageText returns the current wikitext of a page; a missing page yields an
// empty string and no error.
func (c *Client) PageText(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", title)
	params.Set("prop", "revisions")
	params.Set("rvprop", "content")
	params.Set("rvslots", "main")

	resp, err := c.get(ctx, params)
	if err != nil {
		return "", fmt.Errorf("fetch %q: %w", title, err)
	}
	for _, p := range resp.Query.Pages {
		if p.Missing || len(p.Revisions) == 0 {
			return "", nil
		}
		return p.Revisions[0].Slots.Main.Content, nil
	}
	return "", nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.csrfToken != "" {
		return c.csrfToken, nil
	}
	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "tokens")
	resp, err := c.get(ctx, params)
	if err != nil {
		return "", fmt.Errorf("fetch csrf token: %w", err)
	}
	c.csrfToken = resp.Query.Tokens.CSRFToken
	return c.csrfToken, nil
}

// AppendText appends wikitext to the page with the given edit summary.
func (c *Client) AppendText(ctx context.Context, title, text, summary string) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("action", "edit")
	form.Set("format", "json")
	form.Set("formatversion", "2")
	form.Set("title", title)
	form.Set("appendtext", text)
	form.Set("summary", summary)
	form.Set("bot", "1")
	form.Set("token", tok)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("edit %q: %w", title, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode edit response: %w", err)
	}
	if out.Error.Code != "" {
		if strings.Contains(out.Error.Code, "spam") || out.Error.Code == "abusefilter-disallowed" {
			return fmt.Errorf("%w: %s", ErrSpamFilter, out.Error.Info)
		}
		return fmt.Errorf("edit %q: api error %s: %s", title, out.Error.Code, out.Error.Info)
	}
	if out.Edit.Result != "Success" {
		return fmt.Errorf("edit %q: result %q", title, out.Edit.Result)
	}
	return nil
}
