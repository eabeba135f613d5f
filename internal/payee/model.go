// Package payee keeps, for every payee seen in the journal, how often each
// offsetting account was used with it.
package payee

import "sort"

// Counter counts account usages. Accounts remember the order they were
// first counted in, which breaks ties when ranking.
type Counter struct {
	order  []string
	counts map[string]int
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add bumps account by n.
func (c *Counter) Add(account string, n int) {
	if _, has := c.counts[account]; !has {
		c.order = append(c.order, account)
	}
	c.counts[account] += n
}

func (c *Counter) Count(account string) int { return c.counts[account] }

func (c *Counter) Len() int { return len(c.order) }

// Merge adds every count in o to c.
func (c *Counter) Merge(o *Counter) {
	for _, acc := range o.order {
		c.Add(acc, o.counts[acc])
	}
}

// Entry is an account with its usage count.
type Entry struct {
	Account string
	Count   int
}

// MostCommon returns up to n entries by descending count; n <= 0 returns all.
// Equal counts keep first-seen order.
func (c *Counter) MostCommon(n int) []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, acc := range c.order {
		out = append(out, Entry{Account: acc, Count: c.counts[acc]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Model maps payee to Counter. It is built from journal history and
// reinforced in place while transactions are reviewed.
type Model struct {
	order  []string
	payees map[string]*Counter
}

func NewModel() *Model {
	return &Model{payees: make(map[string]*Counter)}
}

// Touch makes sure payee exists, even if it never gets an account.
func (m *Model) Touch(payee string) *Counter {
	c, has := m.payees[payee]
	if !has {
		c = NewCounter()
		m.payees[payee] = c
		m.order = append(m.order, payee)
	}
	return c
}

// Increment records one use of account with payee.
func (m *Model) Increment(payee, account string) {
	m.Touch(payee).Add(account, 1)
}

// Reinforce records one use of each account with payee.
func (m *Model) Reinforce(payee string, accounts ...string) {
	c := m.Touch(payee)
	for _, acc := range accounts {
		c.Add(acc, 1)
	}
}

// Counter returns the counter for payee, or nil.
func (m *Model) Counter(payee string) *Counter { return m.payees[payee] }

// Payees lists payees in the order they were first seen.
func (m *Model) Payees() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Model) Len() int { return len(m.order) }
