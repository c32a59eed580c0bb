package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// DNSStatus classifies why a host did not answer. Dead-link triage cares
// about the difference between a gone domain (NXDOMAIN, a strong dead
// signal) and a flaky resolver (worth ignoring for a run).
type DNSStatus struct {
	Domain        string
	HasAOrAAAA    bool
	Class         string // "NXDOMAIN" | "NO_A_RECORD" | "RESOLVES" | "SERVFAIL_or_TIMEOUT" | "INVALID_NAME"
	ResolverError string
}

var dnsTimeout = 3 * time.Second

// CheckDNS resolves the host of a failed fetch so the dead observation can
// carry a DNS class alongside the transport error.
func CheckDNS(domain string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(domain)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") {
		s.Class = "INVALID_NAME"
		return s
	}

	ctx, cancel := context.WithTimeout(context.Background(), dnsTimeout)
	defer cancel()
	r := &net.Resolver{} // OS resolver

	ips, err := r.LookupIP(ctx, "ip", s.Domain)
	if err == nil && len(ips) > 0 {
		s.HasAOrAAAA = true
		s.Class = "RESOLVES"
		return s
	}
	if err != nil {
		var de *net.DNSError
		s.ResolverError = err.Error()
		if errors.As(err, &de) {
			if de.IsNotFound {
				s.Class = "NXDOMAIN"
			} else if de.IsTemporary || de.Timeout() {
				s.Class = "SERVFAIL_or_TIMEOUT"
			}
		}
	}

	if s.Class == "NXDOMAIN" {
		if ns, err := r.LookupNS(ctx, s.Domain); err == nil && len(ns) > 0 {
			s.Class = "NO_A_RECORD"
		}
	}
	if s.Class == "" {
		if s.ResolverError != "" {
			s.Class = "SERVFAIL_or_TIMEOUT"
		} else {
			s.Class = "NXDOMAIN"
		}
	}
	return s
}
