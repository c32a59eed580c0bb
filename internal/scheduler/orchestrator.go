package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wlbot/weblinkchecker/internal/domain"
	"github.com/wlbot/weblinkchecker/internal/exclude"
	"github.com/wlbot/weblinkchecker/internal/history"
	"github.com/wlbot/weblinkchecker/internal/report"
)

// Extractor pulls candidate URLs out of a page's wikitext.
type Extractor func(text string) []string

// Orchestrator walks a page stream, extracts and filters URLs, and runs
// check workers under a bounded pool. Page iteration itself stays
// single-threaded; only the network-bound checks run in parallel.
type Orchestrator struct {
	Logger     *zap.Logger
	History    *history.Store
	Filter     *exclude.Filter
	Extract    Extractor
	Worker     *Worker
	Dispatcher *report.Dispatcher // nil disables talk-page reporting

	Concurrency   int
	DrainWait     time.Duration
	DrainInterval time.Duration
}

func NewOrchestrator(
	logger *zap.Logger,
	hist *history.Store,
	filter *exclude.Filter,
	extract Extractor,
	worker *Worker,
	dispatcher *report.Dispatcher,
	concurrency int,
	drainWait, drainInterval time.Duration,
) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	if drainWait <= 0 {
		drainWait = 30 * time.Second
	}
	if drainInterval <= 0 {
		drainInterval = 500 * time.Millisecond
	}
	return &Orchestrator{
		Logger:        logger,
		History:       hist,
		Filter:        filter,
		Extract:       extract,
		Worker:        worker,
		Dispatcher:    dispatcher,
		Concurrency:   concurrency,
		DrainWait:     drainWait,
		DrainInterval: drainInterval,
	}
}

// Run checks every candidate URL of every page in the stream. The history
// snapshot is saved before returning no matter how the run ended.
func (o *Orchestrator) Run(ctx context.Context, pages <-chan domain.Page) (err error) {
	if loadErr := o.History.Load(ctx); loadErr != nil {
		return loadErr
	}
	defer func() {
		err = multierr.Append(err, o.finalSave())
	}()

	dispatcherDone := o.startDispatcher(ctx)

	sem := make(chan struct{}, o.Concurrency)
	var wg sync.WaitGroup

stream:
	for {
		select {
		case <-ctx.Done():
			o.Logger.Info("run_interrupted")
			break stream
		case page, ok := <-pages:
			if !ok {
				break stream
			}
			o.checkPage(ctx, page, sem, &wg)
		}
	}

	o.waitWorkers(ctx, &wg)
	o.stopDispatcher(ctx, dispatcherDone)
	return nil
}

// Resume re-checks only the URLs already flagged dead, without crawling
// fresh pages. Exclusion rules still apply, so rules added since the URL was
// first flagged take effect.
func (o *Orchestrator) Resume(ctx context.Context) (err error) {
	if loadErr := o.History.Load(ctx); loadErr != nil {
		return loadErr
	}
	defer func() {
		err = multierr.Append(err, o.finalSave())
	}()

	dispatcherDone := o.startDispatcher(ctx)

	flagged := o.History.URLs()
	o.Logger.Info("resume_start", zap.Int("urls", len(flagged)))

	sem := make(chan struct{}, o.Concurrency)
	var wg sync.WaitGroup
	for _, f := range flagged {
		if ctx.Err() != nil {
			break
		}
		if o.Filter.Excluded(f.URL) {
			o.Logger.Debug("url_excluded", zap.String("url", f.URL))
			continue
		}
		o.spawn(ctx, f.PageTitle, f.URL, sem, &wg)
	}

	o.waitWorkers(ctx, &wg)
	o.stopDispatcher(ctx, dispatcherDone)
	return nil
}

func (o *Orchestrator) checkPage(ctx context.Context, page domain.Page, sem chan struct{}, wg *sync.WaitGroup) {
	urls := o.Extract(page.Text)
	o.Logger.Debug("page_scanned",
		zap.String("title", page.Title), zap.Int("urls", len(urls)))

	for _, u := range urls {
		if ctx.Err() != nil {
			return
		}
		if o.Filter.Excluded(u) {
			o.Logger.Debug("url_excluded", zap.String("url", u))
			continue
		}
		o.spawn(ctx, page.Title, u, sem, wg)
	}
}

// spawn blocks while the pool is full; that backpressure is what bounds the
// number of in-flight checks.
func (o *Orchestrator) spawn(ctx context.Context, pageTitle, u string, sem chan struct{}, wg *sync.WaitGroup) {
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	wg.Add(1)
	go func() {
		defer func() { <-sem }()
		defer wg.Done()
		defer func() {
			// a panic kills only this one check
			if r := recover(); r != nil {
				o.Logger.Error("check_panicked",
					zap.String("url", u), zap.Any("panic", r))
			}
		}()
		o.Worker.CheckOne(ctx, pageTitle, u)
	}()
}

// waitWorkers waits for in-flight checks, but only so long: anything still
// running past DrainWait is abandoned rather than blocking shutdown forever.
func (o *Orchestrator) waitWorkers(ctx context.Context, wg *sync.WaitGroup) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	deadline := time.After(o.DrainWait)
	ticker := time.NewTicker(o.DrainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-deadline:
			o.Logger.Warn("workers_abandoned")
			return
		case <-ticker.C:
			// keep polling; an interrupt below still respects the deadline
		case <-ctx.Done():
			select {
			case <-done:
			case <-time.After(o.DrainInterval):
				o.Logger.Warn("workers_abandoned_on_interrupt")
			}
			return
		}
	}
}

func (o *Orchestrator) startDispatcher(ctx context.Context) <-chan struct{} {
	if o.Dispatcher == nil {
		return nil
	}
	go o.Dispatcher.Run(ctx)
	return o.Dispatcher.Done()
}

// stopDispatcher lets the dispatcher drain its queue, escalating to a hard
// kill on timeout or operator interruption.
func (o *Orchestrator) stopDispatcher(ctx context.Context, done <-chan struct{}) {
	if o.Dispatcher == nil {
		return
	}
	o.Dispatcher.Shutdown()
	select {
	case <-done:
		return
	case <-time.After(o.DrainWait):
		o.Logger.Warn("dispatcher_killed_on_timeout",
			zap.Int("pending", o.Dispatcher.Pending()))
	case <-ctx.Done():
		o.Logger.Warn("dispatcher_killed_on_interrupt",
			zap.Int("pending", o.Dispatcher.Pending()))
	}
	o.Dispatcher.Kill()
	select {
	case <-done:
	case <-time.After(o.DrainInterval):
	}
}

// finalSave persists the history even when the run context was cancelled.
func (o *Orchestrator) finalSave() error {
	saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return o.History.Save(saveCtx)
}
