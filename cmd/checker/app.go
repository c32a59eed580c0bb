package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wlbot/weblinkchecker/internal/config"
	"github.com/wlbot/weblinkchecker/internal/exclude"
	"github.com/wlbot/weblinkchecker/internal/history"
	"github.com/wlbot/weblinkchecker/internal/httpapi"
	"github.com/wlbot/weblinkchecker/internal/logging"
	"github.com/wlbot/weblinkchecker/internal/notify"
	"github.com/wlbot/weblinkchecker/internal/probe"
	"github.com/wlbot/weblinkchecker/internal/repo"
	filerepo "github.com/wlbot/weblinkchecker/internal/repo/file"
	"github.com/wlbot/weblinkchecker/internal/repo/postgres"
	"github.com/wlbot/weblinkchecker/internal/report"
	"github.com/wlbot/weblinkchecker/internal/scheduler"
	"github.com/wlbot/weblinkchecker/internal/wiki"
	"github.com/wlbot/weblinkchecker/internal/wiki/archive"
	"github.com/wlbot/weblinkchecker/internal/wiki/extract"
)

// sharedFlags are the operator controls common to run and resume.
type sharedFlags struct {
	talk        bool
	ignoreCodes []int
	days        int
	concurrency int
	fakeAgent   bool
}

func (f *sharedFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVar(&f.talk, "talk", false, "post dead-link notices to talk pages")
	fl.IntSliceVar(&f.ignoreCodes, "ignore", nil, "HTTP status codes to treat as non-fatal (repeatable)")
	fl.IntVar(&f.days, "day", 0, "days a link must stay dead before it is reported")
	fl.IntVar(&f.concurrency, "concurrency", 0, "max concurrent link checks")
	fl.BoolVar(&f.fakeAgent, "fake-agent", false, "present a browser user agent to checked sites")
}

// apply layers non-zero flag values over the env-derived config.
func (f *sharedFlags) apply(cfg *config.Config) {
	if f.talk {
		cfg.ReportTalk = true
	}
	if len(f.ignoreCodes) > 0 {
		cfg.IgnoreCodes = f.ignoreCodes
	}
	if f.days > 0 {
		cfg.ThresholdDays = f.days
	}
	if f.concurrency > 0 {
		cfg.Concurrency = f.concurrency
	}
	if f.fakeAgent {
		cfg.FakeAgent = true
	}
}

// app holds everything one check run wires together.
type app struct {
	cfg        config.Config
	log        *zap.Logger
	hist       *history.Store
	wiki       *wiki.Client
	dispatcher *report.Dispatcher
	orch       *scheduler.Orchestrator

	closers []func()
}

func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	log, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, func() { _ = log.Sync() })

	filter, err := exclude.Load(cfg.ExcludeFile)
	if err != nil {
		return nil, fmt.Errorf("load exclusion rules: %w", err)
	}

	var snap repo.Snapshotter
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, cfg.SiteKey(), log)
		if err != nil {
			return nil, fmt.Errorf("open postgres history: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		snap = pg
	} else {
		snap = filerepo.New(cfg.HistoryDir, cfg.SiteKey(), log)
	}
	a.hist = history.New(snap, cfg.DebounceWindow, cfg.ThresholdDays, log)

	var checker probe.Checker
	httpChecker := probe.NewHTTPChecker(cfg.HTTPTimeout, cfg.UserAgent, cfg.FakeAgent)
	if cfg.RatePerSec > 0 {
		httpChecker.Limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Concurrency)
	}
	checker = httpChecker
	if cfg.RetryAttempts > 1 {
		checker = &probe.RetryChecker{
			Inner:    checker,
			Attempts: cfg.RetryAttempts,
			Backoff:  cfg.RetryBackoff,
		}
	}

	a.wiki = wiki.New(cfg.SiteFamily, cfg.SiteLang, cfg.UserAgent, log)

	results, err := report.OpenResultsLog(cfg.ResultsDir, cfg.SiteKey())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = results.Close() })

	if cfg.ReportTalk {
		a.dispatcher = report.NewDispatcher(a.wiki, cfg.TalkPrefix, log)
	}

	ignore := make(map[int]bool, len(cfg.IgnoreCodes))
	for _, code := range cfg.IgnoreCodes {
		ignore[code] = true
	}

	var notifiers notify.Multi
	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		notifiers = append(notifiers, slack)
	}

	worker := &scheduler.Worker{
		Checker:     checker,
		History:     a.hist,
		Archive:     archive.New(cfg.UserAgent),
		Results:     results,
		Notifier:    notifiers,
		IgnoreCodes: ignore,
		Log:         log,
	}
	if a.dispatcher != nil {
		worker.Reporter = a.dispatcher
	}

	a.orch = scheduler.NewOrchestrator(
		log, a.hist, filter, extract.URLs, worker, a.dispatcher,
		cfg.Concurrency, cfg.DrainWait, cfg.DrainInterval,
	)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// runWithAPI executes fn and, when configured, serves the status API for the
// duration of the run.
func (a *app) runWithAPI(ctx context.Context, fn func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	var srv *http.Server
	if a.cfg.APIAddr != "" {
		api := httpapi.NewServer(a.log, a.hist, a.cfg.SiteKey(), a.cfg.APIRateRPM, a.cfg.APIRateBurst)
		srv = &http.Server{Addr: a.cfg.APIAddr, Handler: api.Router()}
		a.log.Info("api_listen", zap.String("addr", a.cfg.APIAddr))
		g.Go(func() error {
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			if srv != nil {
				_ = srv.Shutdown(context.Background())
			}
		}()
		return fn(gctx)
	})

	return g.Wait()
}
