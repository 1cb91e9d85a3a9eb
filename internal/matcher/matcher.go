// Package matcher matches hostnames against glob or regex patterns.
//
// Hostnames are merge keys, already trimmed and lowercased, so patterns are
// matched case-insensitively. A pattern is a glob (*, ?, [...]) unless it
// carries a "re:" prefix or contains regex-only syntax.
package matcher

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// PatternType represents the type of pattern matching to use.
type PatternType int

const (
	// Glob uses shell-style glob patterns (*, ?, []).
	Glob PatternType = iota
	// Regex uses regular expressions, anchored to the whole hostname.
	Regex
	// Auto detects the pattern type.
	Auto
)

// RegexPrefix forces a pattern to be read as a regular expression.
const RegexPrefix = "re:"

// String returns the pattern type name.
func (pt PatternType) String() string {
	switch pt {
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}

// Matcher matches one pattern.
type Matcher struct {
	pattern     string
	patternType PatternType
	glob        string
	compiled    *regexp.Regexp
}

// New compiles pattern. With Auto the type is detected.
func New(patternType PatternType, pattern string) (*Matcher, error) {
	m := &Matcher{pattern: pattern, patternType: patternType}
	if patternType == Auto {
		m.patternType, pattern = detect(pattern)
	}

	switch m.patternType {
	case Glob:
		m.glob = strings.ToLower(strings.TrimSpace(pattern))
		if _, err := path.Match(m.glob, ""); err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", m.pattern, err)
		}
	case Regex:
		expr := pattern
		if !strings.HasPrefix(expr, "^") {
			expr = "^" + expr
		}
		if !strings.HasSuffix(expr, "$") {
			expr += "$"
		}
		compiled, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", m.pattern, err)
		}
		m.compiled = compiled
	default:
		return nil, fmt.Errorf("unsupported pattern type: %v", m.patternType)
	}
	return m, nil
}

// Match reports whether hostname matches.
func (m *Matcher) Match(hostname string) bool {
	if m.patternType == Regex {
		return m.compiled.MatchString(hostname)
	}
	matched, _ := path.Match(m.glob, strings.ToLower(hostname))
	return matched
}

// Pattern returns the original pattern string.
func (m *Matcher) Pattern() string { return m.pattern }

// Type returns the resolved pattern type.
func (m *Matcher) Type() PatternType { return m.patternType }

// detect returns the pattern type and the pattern without any prefix.
func detect(pattern string) (PatternType, string) {
	if rest, ok := strings.CutPrefix(pattern, RegexPrefix); ok {
		return Regex, rest
	}
	for _, indicator := range []string{"^", "$", `\d`, `\w`, "(?", "{", "+", "|", "(", ".*"} {
		if strings.Contains(pattern, indicator) {
			return Regex, pattern
		}
	}
	return Glob, pattern
}

// Set matches when any of its patterns match. An empty set matches
// everything.
type Set []*Matcher

// NewSet compiles every pattern with type detection.
func NewSet(patterns []string) (Set, error) {
	set := make(Set, 0, len(patterns))
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		m, err := New(Auto, p)
		if err != nil {
			return nil, err
		}
		set = append(set, m)
	}
	return set, nil
}

// Match reports whether any pattern matches hostname.
func (s Set) Match(hostname string) bool {
	if len(s) == 0 {
		return true
	}
	for _, m := range s {
		if m.Match(hostname) {
			return true
		}
	}
	return false
}
