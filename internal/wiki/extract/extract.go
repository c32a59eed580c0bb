// Package extract pulls candidate external URLs out of wikitext.
//
// Two kinds of links are dropped before the exclusion filter ever sees them:
// URLs sitting inside citation templates that already carry an archive
// parameter, and URLs that are themselves archive-service snapshots.
package extract

import (
	"regexp"
	"strings"
)

var (
	// bare or bracketed external links; trailing wikitext punctuation is
	// trimmed afterwards
	urlRe = regexp.MustCompile(`https?://[^\s<>\[\]{}|"]+`)

	templateRe = regexp.MustCompile(`\{\{[^{}]*\}\}`)

	archiveHosts = []string{
		"web.archive.org",
		"archive.org/wayback",
		"archive.today",
		"archive.is",
		"archive.ph",
		"webcitation.org",
		"timetravel.mementoweb.org",
	}

	archiveParamRe = regexp.MustCompile(`(?i)\|\s*(archive-?url|archiwum|archiveurl)\s*=\s*\S`)
)

// URLs returns the deduplicated candidate URLs of the given wikitext in
// order of first appearance.
func URLs(text string) []string {
	// blank out templates that already point at an archived copy, so their
	// original URLs are not re-checked
	masked := templateRe.ReplaceAllStringFunc(text, func(tmpl string) string {
		if archiveParamRe.MatchString(tmpl) {
			return strings.Repeat(" ", len(tmpl))
		}
		return tmpl
	})

	seen := map[string]bool{}
	var out []string
	for _, raw := range urlRe.FindAllString(masked, -1) {
		u := strings.TrimRight(raw, ".,;:!?)'")
		if u == "" || seen[u] || isArchiveURL(u) {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

func isArchiveURL(u string) bool {
	lower := strings.ToLower(u)
	for _, host := range archiveHosts {
		if strings.Contains(lower, "://"+host) || strings.Contains(lower, "://www."+host) {
			return true
		}
	}
	return false
}
