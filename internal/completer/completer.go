// Package completer knows every account name seen so far and offers them at
// the account prompt: Tab completes a prefix, and "?" walks the account tree
// one segment at a time with single-key shortcuts.
package completer

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/manishrjain/keys"

	"ledger-import/internal/prompt"
)

const rootLabel = "default"

type Completer struct {
	accounts []string
	known    map[string]bool
	short    *keys.Shortcuts
	file     string
}

// New loads shortcut assignments from file, which may not exist yet. An
// empty file keeps them in memory only.
func New(file string) *Completer {
	c := &Completer{known: make(map[string]bool), file: file}
	if len(file) > 0 {
		c.short = keys.ParseConfig(file)
	} else {
		c.short = &keys.Shortcuts{}
	}
	return c
}

// Register adds account to the completion list and the shortcut tree.
// Registering an account twice is a no-op.
func (c *Completer) Register(account string) {
	account = strings.TrimSpace(account)
	if len(account) == 0 || c.known[account] {
		return
	}
	c.known[account] = true
	i := sort.SearchStrings(c.accounts, account)
	c.accounts = append(c.accounts, "")
	copy(c.accounts[i+1:], c.accounts[i:])
	c.accounts[i] = account
	c.assign(account)
}

// assign gives every segment of account a key under its parent segment.
func (c *Completer) assign(account string) {
	tree := strings.Split(account, ":")
	prev := rootLabel
	for _, seg := range tree {
		if len(seg) == 0 {
			continue
		}
		c.short.AutoAssign(seg, prev)
		prev = seg
	}
}

// Accounts returns the registered accounts in sorted order.
func (c *Completer) Accounts() []string {
	out := make([]string, len(c.accounts))
	copy(out, c.accounts)
	return out
}

// Complete returns every account starting with prefix.
func (c *Completer) Complete(prefix string) []string {
	i := sort.SearchStrings(c.accounts, prefix)
	var out []string
	for ; i < len(c.accounts) && strings.HasPrefix(c.accounts[i], prefix); i++ {
		out = append(out, c.accounts[i])
	}
	return out
}

// Do implements readline.AutoCompleter. Candidates are returned as the
// suffix still to be typed.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	prefix := string(line[:pos])
	var out [][]rune
	for _, acc := range c.Complete(prefix) {
		out = append(out, []rune(acc[len(prefix):]))
	}
	return out, len([]rune(prefix))
}

// Walk lets the operator pick an account by shortcut keys, one segment at a
// time. An empty answer accepts the account chosen so far.
func (c *Completer) Walk(p prompt.Prompter, out io.Writer) (string, error) {
	label := rootLabel
	var chosen []string
	for c.short.HasLabel(label) {
		if len(chosen) > 0 {
			fmt.Fprintf(out, "Selected [%s]\n", strings.Join(chosen, ":"))
		}
		c.list(out, label)
		ans, err := p.Ask("key> ")
		if err != nil {
			return "", err
		}
		if len(ans) == 0 {
			break
		}
		seg, has := c.short.MapsTo([]rune(ans)[0], label)
		if !has {
			fmt.Fprintf(out, "No account under key %q.\n", ans)
			continue
		}
		chosen = append(chosen, seg)
		label = seg
	}
	return strings.Join(chosen, ":"), nil
}

// list prints the keys under label, grouped by first letter, three to a
// row.
func (c *Completer) list(out io.Writer, label string) {
	cor := color.New(color.FgRed)
	cog := color.New(color.FgGreen)
	fmt.Fprintln(out)
	var prev byte
	var count int
	for _, k := range c.short.Keys {
		if k.Label != label || len(k.MapTo) == 0 {
			continue
		}
		if prev != k.MapTo[0] {
			prev = k.MapTo[0]
			count = 0
			fmt.Fprintln(out)
			cog.Fprintf(out, "\t--------------------- %s\n", string(prev))
		} else {
			count++
			if count%3 == 0 {
				fmt.Fprintln(out)
			}
		}
		fmt.Fprint(out, "\t")
		cor.Fprintf(out, "%s:", k.Ch)
		fmt.Fprintf(out, " %-20s\t", k.MapTo)
	}
	fmt.Fprintln(out)
}

// Persist saves the shortcut assignments so keys stay stable across runs.
func (c *Completer) Persist() {
	if len(c.file) > 0 {
		c.short.Persist(c.file)
	}
}
