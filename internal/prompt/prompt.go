// Package prompt reads operator answers, from a terminal with line editing
// and account completion, or from any reader when stdin is not a terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
)

// ErrInterrupted is returned when the operator presses Ctrl-C.
var ErrInterrupted = errors.New("interrupted")

// Prompter shows label and returns the line typed, without the newline.
// At end of input it returns io.EOF.
type Prompter interface {
	Ask(label string) (string, error)
}

// Terminal is a Prompter backed by readline.
type Terminal struct {
	rl *readline.Instance
}

type TerminalConfig struct {
	// Complete, when set, completes on Tab.
	Complete readline.AutoCompleter
	// HistoryFile keeps answers across runs; empty disables it.
	HistoryFile string
	Stdout      io.Writer
}

func NewTerminal(cfg TerminalConfig) (*Terminal, error) {
	rl, err := readline.NewEx(&readline.Config{
		AutoComplete:    cfg.Complete,
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          cfg.Stdout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to open terminal")
	}
	return &Terminal{rl: rl}, nil
}

func (t *Terminal) Ask(label string) (string, error) {
	t.rl.SetPrompt(label)
	line, err := t.rl.Readline()
	switch {
	case err == readline.ErrInterrupt:
		return "", ErrInterrupted
	case err != nil:
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Stdout is where output should go so it does not garble the prompt line.
func (t *Terminal) Stdout() io.Writer { return t.rl.Stdout() }

func (t *Terminal) Close() error { return t.rl.Close() }

// Reader is a Prompter over plain line input. Labels are echoed to out.
type Reader struct {
	in  *bufio.Reader
	out io.Writer
}

func NewReader(in io.Reader, out io.Writer) *Reader {
	return &Reader{in: bufio.NewReader(in), out: out}
}

func (r *Reader) Ask(label string) (string, error) {
	fmt.Fprint(r.out, label)
	line, err := r.in.ReadString('\n')
	if err == io.EOF && len(line) > 0 {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Verified asks until the answer is one of valid.
func Verified(p Prompter, out io.Writer, label string, valid ...string) (string, error) {
	for {
		ans, err := p.Ask(label)
		if err != nil {
			return "", err
		}
		for _, v := range valid {
			if ans == v {
				return ans, nil
			}
		}
		fmt.Fprintln(out, "Invalid input. Try again.")
	}
}

// Confirm asks a y/n question.
func Confirm(p Prompter, out io.Writer, label string) (bool, error) {
	ans, err := Verified(p, out, label, "y", "n")
	return ans == "y", err
}
