package advisor

import (
	"context"
	"math"
	"sort"

	"github.com/jbrukh/bayesian"
	"github.com/pkg/errors"

	"ledger-import/internal/journal"
	"ledger-import/internal/ledger"
)

var ErrTooFewClasses = errors.New("need at least two expense or income accounts to classify")

// Bayes is a tf-idf naive Bayes classifier trained on journal descriptions.
type Bayes struct {
	classes []bayesian.Class
	cl      *bayesian.Classifier
}

// NewBayes learns from every posting in h except the self account's and
// balance sheet accounts.
func NewBayes(h *journal.History, self string) (*Bayes, error) {
	seen := make(map[string]bool)
	var classes []bayesian.Class
	for _, t := range h.Transactions {
		for _, p := range t.Accounts {
			if p.Account == self || skipped(p.Account) || seen[p.Account] {
				continue
			}
			seen[p.Account] = true
			classes = append(classes, bayesian.Class(p.Account))
		}
	}
	if len(classes) < 2 {
		return nil, ErrTooFewClasses
	}

	b := &Bayes{classes: classes, cl: bayesian.NewClassifierTfIdf(classes...)}
	for _, t := range h.Transactions {
		terms := Terms(t.Name())
		for _, p := range t.Accounts {
			if seen[p.Account] {
				b.cl.Learn(terms, bayesian.Class(p.Account))
			}
		}
	}
	b.cl.ConvertTermsFreqToTfIdf()
	return b, nil
}

type scored struct {
	score float64
	pos   int
}

// Advise returns the top classes, stopping at the first gap wider than one
// standard deviation of all scores.
func (b *Bayes) Advise(_ context.Context, t *ledger.Transaction) ([]string, error) {
	scores, _, _ := b.cl.LogScores(Terms(t.Name()))
	if len(scores) == 0 {
		return nil, nil
	}
	pairs := make([]scored, 0, len(scores))
	var mean, stddev float64
	for pos, s := range scores {
		pairs = append(pairs, scored{s, pos})
		mean += s
	}
	mean /= float64(len(scores))
	for _, s := range scores {
		diff := s - mean
		stddev += diff * diff
	}
	stddev = math.Sqrt(stddev / float64(len(scores)-1))

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })
	var out []string
	last := pairs[0].score
	for _, pr := range pairs[:min(len(pairs), MaxHints)] {
		if math.Abs(pr.score-last) > stddev {
			break
		}
		out = append(out, string(b.classes[pr.pos]))
		last = pr.score
	}
	return out, nil
}
