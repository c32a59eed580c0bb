// Package notify is the operator side channel for escalation events. Talk
// pages are the canonical destination for dead-link notices; notifications
// here are best effort and never block a report.
package notify

import "context"

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans a notification out to several channels, returning the first
// error while still attempting all of them.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, title, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
