// Package httpapi exposes a small read-only status surface while a check
// run is in progress: health, the currently flagged URLs, and counters.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/wlbot/weblinkchecker/internal/history"
	"github.com/wlbot/weblinkchecker/internal/httpapi/middleware"
)

type Server struct {
	Logger  *zap.Logger
	History *history.Store
	SiteKey string

	RateRPM   int
	RateBurst int

	started time.Time
}

func NewServer(l *zap.Logger, hist *history.Store, siteKey string, rateRPM, rateBurst int) *Server {
	return &Server{
		Logger:    l,
		History:   hist,
		SiteKey:   siteKey,
		RateRPM:   rateRPM,
		RateBurst: rateBurst,
		started:   time.Now().UTC(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(middleware.RateLimit(s.RateRPM, s.RateBurst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/deadlinks", s.handleListDeadlinks)
	r.Get("/api/stats", s.handleStats)

	return r
}

type deadlinkRow struct {
	URL          string    `json:"url"`
	DeadSince    time.Time `json:"dead_since"`
	LastSeen     time.Time `json:"last_seen"`
	Observations int       `json:"observations"`
	FirstPage    string    `json:"first_page"`
	LastError    string    `json:"last_error"`
}

func (s *Server) handleListDeadlinks(w http.ResponseWriter, r *http.Request) {
	snapshot := s.History.Snapshot()
	rows := make([]deadlinkRow, 0, len(snapshot))
	for url, rec := range snapshot {
		if len(rec) == 0 {
			continue
		}
		rows = append(rows, deadlinkRow{
			URL:          url,
			DeadSince:    rec.FirstSeen(),
			LastSeen:     rec.LastSeen(),
			Observations: len(rec),
			FirstPage:    rec[0].PageTitle,
			LastError:    rec[len(rec)-1].Error,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"site":       s.SiteKey,
		"dead_urls":  s.History.Len(),
		"started_at": s.started,
	})
}
