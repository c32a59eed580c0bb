package scheduler

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/wlbot/weblinkchecker/internal/domain"
	"github.com/wlbot/weblinkchecker/internal/history"
	"github.com/wlbot/weblinkchecker/internal/probe"
)

// Reporter accepts escalated dead links for talk-page posting.
type Reporter interface {
	Enqueue(job domain.ReportJob)
}

// ArchiveLookup resolves an archived snapshot of a URL, best effort.
type ArchiveLookup interface {
	Lookup(ctx context.Context, target string) (snapshot string, found bool, err error)
}

// ResultsAppender records escalations in the human-readable results file.
type ResultsAppender interface {
	Append(url string, rec domain.DeadLinkRecord) error
}

// Notifier is the operator side channel (e.g. Slack), best effort.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Worker checks one URL at a time and feeds the history store. One
// invocation of CheckOne is one observation; it never retries on its own.
type Worker struct {
	Checker     probe.Checker
	History     *history.Store
	Archive     ArchiveLookup   // nil disables snapshot lookup
	Reporter    Reporter        // nil disables talk-page reporting
	Results     ResultsAppender // nil disables the results file
	Notifier    Notifier        // nil disables operator notifications
	IgnoreCodes map[int]bool
	Log         *zap.Logger
}

// CheckOne fetches url once, classifies the outcome and updates the history
// store. Escalations fan out to the archive lookup, the results log, the
// report dispatcher and the notifier, all outside the store's lock.
func (w *Worker) CheckOne(ctx context.Context, pageTitle, target string) {
	w.Log.Debug("link_checking", zap.String("url", target), zap.String("page", pageTitle))

	out := w.Checker.Check(ctx, target)

	alive := out.Success || (out.StatusCode != 0 && w.IgnoreCodes[out.StatusCode])
	if alive {
		if w.History.RecordAlive(target) {
			w.Log.Info("link_back_alive",
				zap.String("url", target), zap.Int("status", out.StatusCode))
		}
		w.Log.Debug("link_ok",
			zap.String("url", target),
			zap.Int("status", out.StatusCode),
			zap.Float64("latency_ms", out.LatencyMS),
		)
		return
	}

	msg := describeFailure(out, target)
	w.Log.Info("link_dead",
		zap.String("url", target),
		zap.String("page", pageTitle),
		zap.String("error", msg),
	)

	esc := w.History.RecordDead(target, msg, pageTitle)
	if esc != nil {
		w.escalate(ctx, pageTitle, target, msg, esc)
	}
}

// describeFailure turns a failed CheckResult into the observation message.
// Malformed URLs get a distinct prefix; transport failures are annotated
// with a DNS class so a gone domain reads differently than a flaky server.
func describeFailure(out probe.CheckResult, target string) string {
	switch {
	case out.Malformed:
		return "malformed URL: " + out.Message
	case out.StatusCode != 0:
		return out.Message
	default:
		msg := out.Message
		if host := hostOf(target); host != "" {
			if dns := probe.CheckDNS(host); dns.Class != "" && dns.Class != "RESOLVES" {
				msg = fmt.Sprintf("%s (dns=%s)", msg, dns.Class)
			}
		}
		return msg
	}
}

func (w *Worker) escalate(ctx context.Context, pageTitle, target, errMsg string, esc *history.Escalation) {
	archiveURL := ""
	if w.Archive != nil {
		snap, found, err := w.Archive.Lookup(ctx, target)
		if err != nil {
			// proceed without a snapshot
			w.Log.Warn("archive_lookup_failed", zap.String("url", target), zap.Error(err))
		} else if found {
			archiveURL = snap
		}
	}

	w.Log.Info("link_escalated",
		zap.String("url", target),
		zap.String("page", pageTitle),
		zap.Duration("dead_for", esc.DeadFor),
		zap.Int("observations", len(esc.Record)),
		zap.Bool("archived", archiveURL != ""),
	)

	if w.Results != nil {
		if err := w.Results.Append(target, esc.Record); err != nil {
			w.Log.Warn("results_append_failed", zap.String("url", target), zap.Error(err))
		}
	}
	if w.Reporter != nil {
		w.Reporter.Enqueue(domain.ReportJob{
			URL:         target,
			ErrorReport: errMsg,
			PageTitle:   pageTitle,
			ArchiveURL:  archiveURL,
		})
	}
	if w.Notifier != nil {
		text := fmt.Sprintf("URL: %s\nPage: %s\nDead for: %s\nError: %s",
			target, pageTitle, esc.DeadFor, errMsg)
		_ = w.Notifier.Send(ctx, "Dead link escalated", text)
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
