// Package report serializes the wiki-facing side effects of escalated dead
// links. All talk-page edits funnel through one dispatcher goroutine, so two
// workers can never race a save on the same page.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wlbot/weblinkchecker/internal/domain"
	"github.com/wlbot/weblinkchecker/internal/wiki"
)

// TalkClient is the slice of the wiki client the dispatcher needs.
type TalkClient interface {
	PageText(ctx context.Context, title string) (string, error)
	AppendText(ctx context.Context, title, text, summary string) error
}

type Dispatcher struct {
	client     TalkClient
	log        *zap.Logger
	talkPrefix string

	mu       sync.Mutex
	queue    []domain.ReportJob
	shutdown bool
	killed   bool

	wake chan struct{}
	done chan struct{}
}

func NewDispatcher(client TalkClient, talkPrefix string, log *zap.Logger) *Dispatcher {
	if talkPrefix == "" {
		talkPrefix = "Talk:"
	}
	return &Dispatcher{
		client:     client,
		log:        log,
		talkPrefix: talkPrefix,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Enqueue appends a job to the queue. Non-blocking.
func (d *Dispatcher) Enqueue(job domain.ReportJob) {
	d.mu.Lock()
	d.queue = append(d.queue, job)
	d.mu.Unlock()
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Shutdown asks the drain loop to finish the remaining queue and exit.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	d.shutdown = true
	d.mu.Unlock()
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Kill stops the loop without draining. Used only on operator interrupt.
func (d *Dispatcher) Kill() {
	d.mu.Lock()
	d.killed = true
	d.mu.Unlock()
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Done is closed when the drain loop has exited.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

// Pending returns the current queue length.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Run drains the queue in FIFO order until Shutdown (queue empty) or Kill.
// Meant to run on its own goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		d.mu.Lock()
		if d.killed {
			d.mu.Unlock()
			return
		}
		var job domain.ReportJob
		have := false
		if len(d.queue) > 0 {
			job = d.queue[0]
			d.queue = d.queue[1:]
			have = true
		} else if d.shutdown {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()

		if !have {
			select {
			case <-ctx.Done():
				return
			case <-d.wake:
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}
		d.post(ctx, job)
	}
}

func (d *Dispatcher) post(ctx context.Context, job domain.ReportJob) {
	talkTitle := d.talkPrefix + job.PageTitle

	current, err := d.client.PageText(ctx, talkTitle)
	if err != nil {
		d.log.Warn("report_fetch_failed",
			zap.String("talk", talkTitle), zap.String("url", job.URL), zap.Error(err))
		return
	}
	// the talk page already mentions this URL; an earlier run (or an earlier
	// job in this queue) reported it
	if strings.Contains(current, job.URL) {
		d.log.Info("report_skipped_duplicate",
			zap.String("talk", talkTitle), zap.String("url", job.URL))
		return
	}

	block := renderNotice(job)
	summary := fmt.Sprintf("Dead link on %s: %s", talkTitle, job.URL)
	if err := d.client.AppendText(ctx, talkTitle, block, summary); err != nil {
		if errors.Is(err, wiki.ErrSpamFilter) {
			d.log.Warn("report_spam_filtered",
				zap.String("talk", talkTitle), zap.String("url", job.URL))
			return
		}
		d.log.Error("report_save_failed",
			zap.String("talk", talkTitle), zap.String("url", job.URL), zap.Error(err))
		return
	}
	d.log.Info("report_posted",
		zap.String("talk", talkTitle), zap.String("url", job.URL),
		zap.Bool("archived", job.ArchiveURL != ""))
}

func renderNotice(job domain.ReportJob) string {
	var b strings.Builder
	b.WriteString("\n\n== Dead link ==\n")
	b.WriteString("An external link used in this article does not answer anymore:\n")
	fmt.Fprintf(&b, "* %s\n", job.URL)
	if job.ErrorReport != "" {
		fmt.Fprintf(&b, "* Error: %s\n", job.ErrorReport)
	}
	if job.ArchiveURL != "" {
		fmt.Fprintf(&b, "* Archived copy: %s\n", job.ArchiveURL)
	}
	b.WriteString("Please replace or remove the link. ~~~~\n")
	return b.String()
}
