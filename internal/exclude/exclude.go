package exclude

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Filter decides which URLs are never checked. Rules are evaluated in order
// and match with full-string semantics: a rule excludes a URL only when the
// pattern matches the entire URL, not a substring of it.
//
// Sites end up here for structural reasons: they reject automated probing
// outright (robots walls, GDPR interstitials, login-gated paths) or are
// known-stable archival mirrors. Probing them wastes worker slots and yields
// false dead reports.
type Filter struct {
	rules []*regexp.Regexp
}

// New compiles the given patterns into a Filter. Patterns are anchored at
// both ends before compilation.
func New(patterns []string) (*Filter, error) {
	f := &Filter{rules: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(`\A(?:` + p + `)\z`)
		if err != nil {
			return nil, fmt.Errorf("compile exclusion rule %q: %w", p, err)
		}
		f.rules = append(f.rules, re)
	}
	return f, nil
}

// Default returns a Filter holding only the built-in rules.
func Default() *Filter {
	f, err := New(defaultPatterns)
	if err != nil {
		// built-in patterns are compile-tested
		panic(err)
	}
	return f
}

type ruleFile struct {
	Rules []string `yaml:"rules"`
}

// Load builds a Filter from the built-in rules plus the patterns in the
// given YAML file. An empty path yields the built-in rules alone.
func Load(path string) (*Filter, error) {
	patterns := append([]string(nil), defaultPatterns...)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read exclusion file: %w", err)
		}
		var rf ruleFile
		if err := yaml.Unmarshal(raw, &rf); err != nil {
			return nil, fmt.Errorf("parse exclusion file: %w", err)
		}
		patterns = append(patterns, rf.Rules...)
	}
	return New(patterns)
}

// Excluded reports whether url matches any rule, checking rules in order and
// stopping at the first match.
func (f *Filter) Excluded(url string) bool {
	for _, re := range f.rules {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

// Len returns the number of compiled rules.
func (f *Filter) Len() int { return len(f.rules) }
