package filtering

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// globMeta are the characters that switch a search from substring to glob matching
const globMeta = "*?[{"

// NameMatcher reports whether an entity name matches a user search
type NameMatcher interface {
	// Match returns true when name satisfies the search
	Match(name string) bool
}

// substringMatcher matches names containing the search text
type substringMatcher struct {
	needle string
}

func (m substringMatcher) Match(name string) bool {
	return strings.Contains(strings.ToLower(name), m.needle)
}

// globMatcher matches names against a compiled pattern
type globMatcher struct {
	pattern glob.Glob
}

func (m globMatcher) Match(name string) bool {
	return m.pattern.Match(strings.ToLower(name))
}

// matchAll matches every name
type matchAll struct{}

func (matchAll) Match(string) bool { return true }

// NewNameMatcher compiles a case-insensitive search. An empty search matches everything.
//
// Searches containing any of * ? [ { are glob patterns; gobwas/glob is used so that
// * also matches spaces and punctuation inside names. Anything else is a substring search.
func NewNameMatcher(search string) (NameMatcher, error) {
	search = strings.TrimSpace(search)
	if search == "" {
		return matchAll{}, nil
	}

	lowered := strings.ToLower(search)
	if !strings.ContainsAny(lowered, globMeta) {
		return substringMatcher{needle: lowered}, nil
	}

	compiled, err := glob.Compile(lowered)
	if err != nil {
		return nil, fmt.Errorf("invalid search pattern '%s': %v", search, err)
	}
	return globMatcher{pattern: compiled}, nil
}
