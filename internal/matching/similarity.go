package matching

import "strings"

// Tokenize splits text into case-folded word tokens of at least minLen runes.
// Splitting happens on any non-alphanumeric rune, so punctuation never leaks
// into tokens.
func Tokenize(text string, minLen int) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isAlphanumeric(r)
	})

	var tokens []string
	for _, f := range fields {
		if len([]rune(f)) >= minLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Similarity returns token-overlap similarity between two texts in [0, 1]:
// the number of tokens of a that also occur in b, divided by max(|a|, |b|)
// over tokens of length >= 2. Every occurrence counts, so identical texts
// score 1 even when they repeat a token. Returns 0 when either side has no
// tokens.
func Similarity(a, b string) float64 {
	ta := Tokenize(a, 2)
	tb := Tokenize(b, 2)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]bool, len(tb))
	for _, t := range tb {
		set[t] = true
	}

	matched := 0
	for _, t := range ta {
		if set[t] {
			matched++
		}
	}

	return float64(matched) / float64(max(len(ta), len(tb)))
}

// SharedTokens returns the distinct tokens of at least minLen runes that
// appear in both texts. Used by claim verification to compare recorded unique
// marks against a claimant's answer.
func SharedTokens(a, b string, minLen int) []string {
	set := make(map[string]bool)
	for _, t := range Tokenize(b, minLen) {
		set[t] = true
	}

	var shared []string
	seen := make(map[string]bool)
	for _, t := range Tokenize(a, minLen) {
		if set[t] && !seen[t] {
			shared = append(shared, t)
			seen[t] = true
		}
	}
	return shared
}

func isAlphanumeric(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z'
}
