// Package reconcile resolves local agency names against the customer/partner
// names of an independently hosted external project. The two datasets share no
// identifiers; the relationship is inferred per lookup by name matching and
// never persisted.
package reconcile

import "strings"

// MatchKind says which tier of the matcher produced a result.
type MatchKind string

const (
	MatchExact       MatchKind = "exact"
	MatchSubstring   MatchKind = "substring"
	MatchWordOverlap MatchKind = "wordOverlap"
	MatchNone        MatchKind = "none"
)

// MatchResult is ephemeral: recomputed on every fetch, cached at most briefly,
// never stored across sessions.
type MatchResult struct {
	LocalName    string    `json:"localName"`
	ExternalName string    `json:"externalName"`
	Kind         MatchKind `json:"matchKind"`
}

// Normalize lowercases and trims a name. No unicode folding, no punctuation
// stripping; the matcher's tiers depend on exactly this much and no more.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Match returns the best external candidate for target using an ordered rule
// cascade: exact, then substring/prefix on normalized names, then multi-word
// overlap. The first tier that succeeds wins; there is no scoring across
// tiers. Ties inside a tier resolve to the first candidate in input order —
// a known imprecision kept deliberately, since callers may depend on it.
// An empty ExternalName (Kind == MatchNone) means "no external data", which
// is a valid state for callers, not an error.
func Match(target string, candidates []string) MatchResult {
	result := MatchResult{LocalName: target, Kind: MatchNone}

	// Tier 1: exact, case-sensitive as stored.
	for _, candidate := range candidates {
		if candidate == target {
			result.ExternalName = candidate
			result.Kind = MatchExact
			return result
		}
	}

	normTarget := Normalize(target)
	if normTarget == "" {
		return result
	}

	// Tier 2: substring/prefix on normalized names, both directions.
	for _, candidate := range candidates {
		normCandidate := Normalize(candidate)
		if normCandidate == "" {
			continue
		}
		if strings.Contains(normCandidate, normTarget) ||
			strings.Contains(normTarget, normCandidate) ||
			strings.HasPrefix(normCandidate, normTarget) ||
			strings.HasPrefix(normTarget, normCandidate) {
			result.ExternalName = candidate
			result.Kind = MatchSubstring
			return result
		}
	}

	// Tier 3: word overlap. Both word sets must have at least two words so a
	// one-word name cannot over-match half the candidate list.
	targetWords := strings.Fields(normTarget)
	if len(targetWords) < 2 {
		return result
	}
	for _, candidate := range candidates {
		candidateWords := splitCandidateWords(Normalize(candidate))
		if len(candidateWords) < 2 {
			continue
		}
		if allWordsOverlap(targetWords, candidateWords) {
			result.ExternalName = candidate
			result.Kind = MatchWordOverlap
			return result
		}
	}

	return result
}

// splitCandidateWords splits on whitespace or hyphen, so "JAFFNA - INTHARA"
// and "JAFFNA-INTHARA" both yield the same word set.
func splitCandidateWords(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '-'
	})
	var words []string
	for _, p := range parts {
		if p != "" {
			words = append(words, p)
		}
	}
	return words
}

func allWordsOverlap(targetWords []string, candidateWords []string) bool {
	for _, tw := range targetWords {
		found := false
		for _, cw := range candidateWords {
			if strings.Contains(cw, tw) || strings.Contains(tw, cw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
