// Package fuzzy scores how alike two short strings are, on a 0–100 scale,
// in the manner of the fuzzywuzzy family: plain edit-distance ratio, token
// sort and token set ratios, and their partial (substring) variants.
package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Process lowercases s, turns anything but letters and digits into spaces
// and trims it.
func Process(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.TrimSpace(mapped)
}

func ratio(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	// DefaultOptions counts a substitution as 2, which yields the classic
	// (len(a)+len(b)-dist)/(len(a)+len(b)) similarity.
	return 100 * levenshtein.RatioForStrings(a, b, levenshtein.DefaultOptions)
}

// Ratio is the edit-distance similarity of a and b.
func Ratio(a, b string) int {
	return round(ratio([]rune(a), []rune(b)))
}

// partialRatio is the best ratio of the shorter string against every window
// of the same length in the longer one.
func partialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		return 0
	}
	var best float64
	for i := 0; i+len(ra) <= len(rb); i++ {
		r := ratio(ra, rb[i:i+len(ra)])
		if r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// PartialRatio scores the best matching substring of the longer string.
func PartialRatio(a, b string) int {
	return round(partialRatio(a, b))
}

func sortedTokens(s string) string {
	toks := strings.Fields(s)
	sort.Strings(toks)
	return strings.Join(toks, " ")
}

func tokenSort(a, b string, partial bool) float64 {
	sa, sb := sortedTokens(a), sortedTokens(b)
	if partial {
		return partialRatio(sa, sb)
	}
	return ratio([]rune(sa), []rune(sb))
}

func tokenSet(a, b string, partial bool) float64 {
	ta, tb := tokenSetOf(a), tokenSetOf(b)
	var inter, diffA, diffB []string
	for tok := range ta {
		if tb[tok] {
			inter = append(inter, tok)
		} else {
			diffA = append(diffA, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			diffB = append(diffB, tok)
		}
	}
	sort.Strings(inter)
	sort.Strings(diffA)
	sort.Strings(diffB)

	t0 := strings.Join(inter, " ")
	t1 := strings.TrimSpace(t0 + " " + strings.Join(diffA, " "))
	t2 := strings.TrimSpace(t0 + " " + strings.Join(diffB, " "))

	score := func(x, y string) float64 {
		if partial {
			return partialRatio(x, y)
		}
		return ratio([]rune(x), []rune(y))
	}
	return math.Max(score(t0, t1), math.Max(score(t0, t2), score(t1, t2)))
}

func tokenSetOf(s string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		out[tok] = true
	}
	return out
}

// TokenSortRatio compares a and b with their words sorted.
func TokenSortRatio(a, b string) int {
	return round(tokenSort(Process(a), Process(b), false))
}

// TokenSetRatio compares a and b by shared and leftover words.
func TokenSetRatio(a, b string) int {
	return round(tokenSet(Process(a), Process(b), false))
}

// WRatio is the weighted blend used to rank payees: whichever of the plain,
// token and (when lengths differ a lot) partial scores is best, with the
// derived scores scaled down a little.
func WRatio(a, b string) int {
	pa, pb := Process(a), Process(b)
	if len(pa) == 0 || len(pb) == 0 {
		return 0
	}
	const unbaseScale = 0.95
	partialScale := 0.90
	tryPartial := true

	base := ratio([]rune(pa), []rune(pb))
	la, lb := float64(len([]rune(pa))), float64(len([]rune(pb)))
	lenRatio := math.Max(la, lb) / math.Min(la, lb)
	if lenRatio < 1.5 {
		tryPartial = false
	}
	if lenRatio > 8 {
		partialScale = 0.6
	}

	if tryPartial {
		partial := partialRatio(pa, pb) * partialScale
		ptsor := tokenSort(pa, pb, true) * unbaseScale * partialScale
		ptser := tokenSet(pa, pb, true) * unbaseScale * partialScale
		return round(math.Max(base, math.Max(partial, math.Max(ptsor, ptser))))
	}
	tsor := tokenSort(pa, pb, false) * unbaseScale
	tser := tokenSet(pa, pb, false) * unbaseScale
	return round(math.Max(base, math.Max(tsor, tser)))
}

func round(f float64) int {
	return int(math.Round(f))
}
