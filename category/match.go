package category

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type Kind string

const (
	Exact    Kind = "exact"
	Fuzzy    Kind = "fuzzy"
	Fallback Kind = "fallback"
)

// Match is the category picked for free-text input. Confidence is 1 for exact
// matches, 0 for the fallback and in between for fuzzy ones.
type Match struct {
	Kind       Kind    `json:"kind"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

const minFuzzyScore = 0.5

// Resolve matches input against names. Ties keep the earlier name.
func Resolve(input string, names []string) Match {
	input = strings.TrimSpace(input)
	if input == "" {
		return Match{Kind: Fallback, Category: Other}
	}

	for _, name := range names {
		if strings.EqualFold(name, input) {
			return Match{Kind: Exact, Category: name, Confidence: 1}
		}
	}

	best := Match{Kind: Fallback, Category: Other}
	for _, name := range names {
		score := similarity(input, name)
		if score >= minFuzzyScore && score > best.Confidence {
			best = Match{Kind: Fuzzy, Category: name, Confidence: score}
		}
	}
	return best
}

func similarity(a, b string) float64 {
	return max(containment(a, b), tokenOverlap(a, b))
}

// containment scores one string containing the other, weighted by how much
// of the longer one it covers.
func containment(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	short, long := a, b
	if utf8.RuneCountInString(short) > utf8.RuneCountInString(long) {
		short, long = long, short
	}
	if utf8.RuneCountInString(short) < 3 || !strings.Contains(long, short) {
		return 0
	}
	return 0.5 + 0.5*float64(utf8.RuneCountInString(short))/float64(utf8.RuneCountInString(long))
}

// tokenOverlap is the Jaccard index of the word sets of a and b.
func tokenOverlap(a, b string) float64 {
	ta, tb := tokens(a), tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for t := range ta {
		if tb[t] {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}

func tokens(s string) map[string]bool {
	out := make(map[string]bool)
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if f == "and" {
			continue
		}
		out[f] = true
	}
	return out
}
