// File: internal/protocol/canonical.go

// Package protocol collapses the free-text project names attached to
// incidents into canonical protocol labels, so that "UniswapV3",
// "Uniswap V2" and "uniswap" count as one protocol in frequency rankings.
//
// The matching chain is deterministic and priority ordered: denylist,
// exact-name table, suffix stripping, category heuristics, brand fragment
// table, title-case fallback. Each step is testable on its own.
package protocol

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// maxBuckets caps the frequency ranking at the most-hit protocols.
	maxBuckets = 15
	// minBucketCount excludes single-incident buckets from the ranking;
	// they are noise in a "most frequently hacked" view.
	minBucketCount = 2
)

// Bucket is one canonical protocol and its incident count.
type Bucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Canonicalizer resolves raw incident names to canonical labels. It keeps a
// per-instance result cache so repeated names always land in the same bucket
// within one aggregation pass; the heuristic chain itself is not injective.
// Not safe for concurrent use; create one per pass.
type Canonicalizer struct {
	cache map[string]cached
}

type cached struct {
	label string
	ok    bool
}

// NewCanonicalizer returns a Canonicalizer with an empty cache.
func NewCanonicalizer() *Canonicalizer {
	return &Canonicalizer{cache: make(map[string]cached)}
}

// Canonicalize maps a raw incident name to its canonical label. ok is false
// for names that contribute to no bucket (raw addresses, placeholder names,
// empty input).
func (c *Canonicalizer) Canonicalize(name string) (label string, ok bool) {
	if name == "" {
		return "", false
	}
	if hit, found := c.cache[name]; found {
		return hit.label, hit.ok
	}

	label, ok = resolve(name)
	c.cache[name] = cached{label: label, ok: ok}
	return label, ok
}

// resolve runs the rule chain for a single name.
func resolve(name string) (string, bool) {
	if rawAddressPattern.MatchString(name) || containsAnyFold(name, denyTerms) {
		return "", false
	}

	if label, found := exactNames[name]; found {
		return label, true
	}

	clean := cleanName(name)
	tokens := splitTokens(clean)
	if len(tokens) == 0 {
		return "", false
	}
	core := strings.ToLower(tokens[0])

	if label, found := categoryLabel(tokens); found {
		return label, true
	}

	lowerClean := strings.ToLower(clean)
	for _, rule := range brandRules {
		if core == rule.fragment ||
			strings.Contains(core, rule.fragment) ||
			strings.Contains(lowerClean, rule.fragment) {
			return rule.label, true
		}
	}

	return titleCase(tokens), true
}

// cleanName strips version tags and trailing qualifier words.
func cleanName(name string) string {
	clean := versionTag.ReplaceAllString(name, "")
	for _, suffix := range suffixPatterns {
		clean = suffix.ReplaceAllString(clean, "")
	}
	return strings.TrimSpace(clean)
}

// splitTokens breaks a cleaned name on whitespace and punctuation, dropping
// empty components.
func splitTokens(clean string) []string {
	parts := tokenSplitter.Split(clean, -1)
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// categoryLabel checks the category heuristics: a token equal to a generic
// category term, or a name on the NFT brand list, collapses into a shared
// category bucket.
func categoryLabel(tokens []string) (string, bool) {
	joined := strings.ToLower(strings.Join(tokens, " "))
	for _, brand := range nftBrands {
		if strings.Contains(joined, brand) {
			return "NFT Project", true
		}
	}
	for _, tok := range tokens {
		if label, found := categoryLabels[strings.ToLower(tok)]; found {
			return label, true
		}
	}
	return "", false
}

// titleCase synthesizes a label from the cleaned tokens when no rule matched.
func titleCase(tokens []string) string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		lower := strings.ToLower(tok)
		r, size := utf8.DecodeRuneInString(lower)
		if r == utf8.RuneError && size <= 1 {
			out[i] = lower
			continue
		}
		out[i] = string(unicode.ToUpper(r)) + lower[size:]
	}
	return strings.Join(out, " ")
}

// containsAnyFold reports whether s contains any of the terms,
// case-insensitively.
func containsAnyFold(s string, terms []string) bool {
	lower := strings.ToLower(s)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Frequency ranks canonical protocols by incident count across the given
// names. Buckets with fewer than two incidents are dropped and the result is
// truncated to the top 15, descending. Ties keep first-encounter order.
func Frequency(names []string) []Bucket {
	c := NewCanonicalizer()
	counts := make(map[string]int)
	var order []string

	for _, name := range names {
		label, ok := c.Canonicalize(name)
		if !ok {
			continue
		}
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}

	buckets := make([]Bucket, 0, len(order))
	for _, label := range order {
		if counts[label] < minBucketCount {
			continue
		}
		buckets = append(buckets, Bucket{Name: label, Count: counts[label]})
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Count > buckets[j].Count
	})
	if len(buckets) > maxBuckets {
		buckets = buckets[:maxBuckets]
	}
	return buckets
}
