// Package suggest ranks offsetting accounts for a new transaction by
// looking up payees with a similar description in the journal history.
package suggest

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"ledger-import/internal/fuzzy"
	"ledger-import/internal/payee"
)

const (
	DefaultThreshold = 90
	DefaultLimit     = 5
	MaxSuggestions   = 9
)

// DefaultNoise strips payment processor prefixes that say nothing about
// the merchant.
var DefaultNoise = []string{`PAYPAL \*`, `SQ \*`}

// Options tunes an Engine. Zero values pick the defaults.
type Options struct {
	// Threshold is the minimum fuzzy score (0–100) for a payee to count.
	Threshold int
	// Limit caps how many of the best scoring payees are considered.
	Limit int
	// Noise lists regular expressions removed from descriptions first.
	Noise []string
}

type Engine struct {
	threshold int
	limit     int
	noise     *regexp.Regexp
}

func New(opt Options) (*Engine, error) {
	e := &Engine{threshold: opt.Threshold, limit: opt.Limit}
	if e.threshold <= 0 {
		e.threshold = DefaultThreshold
	}
	if e.limit <= 0 {
		e.limit = DefaultLimit
	}
	noise := opt.Noise
	if noise == nil {
		noise = DefaultNoise
	}
	if len(noise) > 0 {
		re, err := regexp.Compile(strings.Join(noise, "|"))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid noise pattern %v", noise)
		}
		e.noise = re
	}
	return e, nil
}

func (e *Engine) Threshold() int { return e.threshold }

// Normalize removes noisy prefixes from a description. The result is also
// the key under which reviewed choices are reinforced.
func (e *Engine) Normalize(desc string) string {
	if e.noise == nil {
		return desc
	}
	return e.noise.ReplaceAllString(desc, "")
}

// Match is a historical payee and its score against the description.
type Match struct {
	Payee string
	Score int
}

// Result is what the engine found for one description.
type Result struct {
	// Key is the normalized description.
	Key string
	// Matches cleared the threshold, best first.
	Matches []Match
	// Accounts are the merged, ranked candidates (at most MaxSuggestions).
	Accounts []payee.Entry
}

// Found is false when no historical payee cleared the threshold; the
// caller then goes straight to manual entry.
func (r Result) Found() bool { return len(r.Matches) > 0 }

// Extract scores query against every choice and returns the best limit of
// them, best first. Equal scores keep the order of choices.
func Extract(query string, choices []string, limit int) []Match {
	out := make([]Match, 0, len(choices))
	for _, c := range choices {
		out = append(out, Match{Payee: c, Score: fuzzy.WRatio(query, c)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Suggest finds payees in m close to desc and merges their account counts.
func (e *Engine) Suggest(desc string, m *payee.Model) Result {
	res := Result{Key: e.Normalize(desc)}
	merged := payee.NewCounter()
	for _, hit := range Extract(res.Key, m.Payees(), e.limit) {
		if hit.Score < e.threshold {
			continue
		}
		res.Matches = append(res.Matches, hit)
		merged.Merge(m.Counter(hit.Payee))
	}
	if len(res.Matches) > 0 {
		res.Accounts = merged.MostCommon(MaxSuggestions)
	}
	return res
}

// ClosePayees suggests payee names for a bank description from earlier
// description→payee assignments, best match first and without repeats.
func (e *Engine) ClosePayees(desc string, known map[string]string, threshold int) []string {
	descs := make([]string, 0, len(known))
	for d := range known {
		descs = append(descs, d)
	}
	sort.Strings(descs)

	var out []string
	seen := make(map[string]bool)
	for _, hit := range Extract(e.Normalize(desc), descs, e.limit) {
		if hit.Score < threshold {
			continue
		}
		p := known[hit.Payee]
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
