package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/wlbot/weblinkchecker/internal/domain"
	"github.com/wlbot/weblinkchecker/internal/repo"
)

var _ repo.Snapshotter = (*Snapshot)(nil)

// Snapshot persists the history in postgres instead of the per-site gob
// file. Same whole-map contract: Load reads everything, Save replaces
// everything for this site in one transaction.
type Snapshot struct {
	pool    *pgxpool.Pool
	siteKey string
	log     *zap.Logger
}

func New(ctx context.Context, dsn, siteKey string, log *zap.Logger) (*Snapshot, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Snapshot{pool: pool, siteKey: siteKey, log: log}, nil
}

func (s *Snapshot) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the deadlinks table if it does not exist yet.
func (s *Snapshot) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS deadlinks (
    id          BIGSERIAL PRIMARY KEY,
    site_key    TEXT        NOT NULL,
    url         TEXT        NOT NULL,
    page_title  TEXT        NOT NULL,
    observed_at TIMESTAMPTZ NOT NULL,
    error       TEXT        NOT NULL
);
CREATE INDEX IF NOT EXISTS deadlinks_site_url ON deadlinks (site_key, url, id);
`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Snapshot) Load(ctx context.Context) (map[string]domain.DeadLinkRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT url, page_title, observed_at, error
		   FROM deadlinks
		  WHERE site_key = $1
		  ORDER BY url, id`,
		s.siteKey,
	)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	entries := map[string]domain.DeadLinkRecord{}
	for rows.Next() {
		var (
			url        string
			pageTitle  string
			observedAt time.Time
			errMsg     string
		)
		if err := rows.Scan(&url, &pageTitle, &observedAt, &errMsg); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		entries[url] = append(entries[url], domain.Observation{
			PageTitle: pageTitle,
			At:        observedAt,
			Error:     errMsg,
		})
	}
	return entries, rows.Err()
}

func (s *Snapshot) Save(ctx context.Context, entries map[string]domain.DeadLinkRecord) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM deadlinks WHERE site_key = $1`, s.siteKey); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	batch := &pgx.Batch{}
	for url, rec := range entries {
		for _, obs := range rec {
			batch.Queue(
				`INSERT INTO deadlinks (site_key, url, page_title, observed_at, error)
				 VALUES ($1, $2, $3, $4, $5)`,
				s.siteKey, url, obs.PageTitle, obs.At, obs.Error,
			)
		}
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert observations: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("history_saved",
		zap.String("site", s.siteKey),
		zap.Int("urls", len(entries)),
	)
	return nil
}
