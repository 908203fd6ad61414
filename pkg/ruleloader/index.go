package ruleloader

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// patternRegexCache caches compiled regular expressions built from
// resource-name glob patterns, keyed by the glob source. Thread-safe via
// sync.Map.
var patternRegexCache sync.Map

// MatchResource reports whether resource matches pattern. Pattern syntax:
// exact ("orders.create" matches only itself), prefix ("orders.*" matches
// anything starting with "orders."), simple glob ("order.?.refund"), or a
// regex fallback for anything else.
func MatchResource(pattern, resource string) (bool, error) {
	if pattern == "" {
		return false, fmt.Errorf("pattern cannot be empty")
	}
	if pattern == resource {
		return true, nil
	}
	if pattern == "*" {
		return true, nil
	}
	if strings.HasSuffix(pattern, "*") && !strings.Contains(pattern[:len(pattern)-1], "*") {
		prefix := pattern[:len(pattern)-1]
		return strings.HasPrefix(resource, prefix), nil
	}

	regexPattern := pattern
	if strings.Contains(pattern, "*") || strings.Contains(pattern, "?") {
		regexPattern = globToRegex(pattern)
	}

	cached, ok := patternRegexCache.Load(regexPattern)
	var re *regexp.Regexp
	if ok {
		re = cached.(*regexp.Regexp)
	} else {
		var err error
		re, err = regexp.Compile("^" + regexPattern + "$")
		if err != nil {
			return false, fmt.Errorf("invalid resource pattern: %w", err)
		}
		patternRegexCache.Store(regexPattern, re)
	}
	return re.MatchString(resource), nil
}

func globToRegex(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern) * 2)
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch ch {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '.', '+', '(', ')', '|', '[', ']', '{', '}', '^', '$', '\\':
			b.WriteByte('\\')
			b.WriteByte(ch)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// Index resolves pattern-keyed rule sets down to a concrete resource name,
// so a single wildcard rule set (e.g. "orders.*") can back many concrete
// resources without the loader materializing one entry per resource.
type Index[T any] struct {
	mu       sync.RWMutex
	byPattern map[string][]T
	patterns  []string // insertion order, most specific first is caller's job
}

// NewIndex builds an empty pattern index.
func NewIndex[T any]() *Index[T] {
	return &Index[T]{byPattern: make(map[string][]T)}
}

// Set installs rules under pattern, replacing whatever was there before.
func (idx *Index[T]) Set(pattern string, rules []T) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.byPattern[pattern]; !exists {
		idx.patterns = append(idx.patterns, pattern)
	}
	idx.byPattern[pattern] = rules
}

// Lookup returns the concatenation of every pattern's rules that matches
// resource, in the order patterns were first set.
func (idx *Index[T]) Lookup(resource string) []T {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []T
	for _, pattern := range idx.patterns {
		if ok, _ := MatchResource(pattern, resource); ok {
			out = append(out, idx.byPattern[pattern]...)
		}
	}
	return out
}
