package advisor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"

	"ledger-import/internal/journal"
	"ledger-import/internal/ledger"
	"ledger-import/internal/logger"
)

const DefaultModel = "claude-sonnet-4-5-20250929"

const examplesPerAccount = 3

type ClaudeConfig struct {
	APIKey string
	Model  string
	// Self is the statement account; it is never offered as a hint.
	Self string
}

// Claude asks the Anthropic API to pick accounts from the journal's chart
// of accounts.
type Claude struct {
	model    string
	accounts []accountInfo
	send     func(ctx context.Context, prompt string) (string, error)
}

type exampleTxn struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount,omitempty"`
}

type accountInfo struct {
	Name     string       `json:"name"`
	Examples []exampleTxn `json:"examples,omitempty"`
}

type claudeRequest struct {
	Transaction exampleTxn    `json:"transaction"`
	Accounts    []accountInfo `json:"accounts"`
}

type claudeResponse struct {
	Accounts  []string `json:"accounts"`
	Reasoning string   `json:"reasoning,omitempty"`
}

func NewClaude(cfg ClaudeConfig, h *journal.History) (*Claude, error) {
	if len(cfg.APIKey) == 0 {
		return nil, errors.New("ANTHROPIC_API_KEY not set. Please set it in the environment or .env")
	}
	c := &Claude{model: cfg.Model, accounts: chart(h, cfg.Self)}
	if len(c.model) == 0 {
		c.model = DefaultModel
	}
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	c.send = func(ctx context.Context, prompt string) (string, error) {
		message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: 1024,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return "", errors.Wrap(err, "claude API call failed")
		}
		var text string
		for _, block := range message.Content {
			if block.Type == "text" {
				text += block.Text
			}
		}
		return text, nil
	}
	return c, nil
}

// chart lists the accounts worth suggesting with a few recent examples each.
func chart(h *journal.History, self string) []accountInfo {
	examples := make(map[string][]exampleTxn)
	for i := len(h.Transactions) - 1; i >= 0; i-- {
		t := h.Transactions[i]
		for _, p := range t.Accounts {
			if len(examples[p.Account]) >= examplesPerAccount {
				continue
			}
			examples[p.Account] = append(examples[p.Account], exampleTxn{
				Date: t.Date, Description: t.Name(), Amount: p.AmountText(),
			})
		}
	}
	var out []accountInfo
	for _, acc := range h.AccountNames() {
		if acc == self || skipped(acc) {
			continue
		}
		out = append(out, accountInfo{Name: acc, Examples: examples[acc]})
	}
	return out
}

const claudeInstructions = `You categorize bank transactions for a double-entry ledger.

The "accounts" field lists every account that may be used, with up to three
earlier transactions booked to each. Pick the accounts the "transaction" most
likely belongs to, best first, at most 5. Only use names from the list. If
nothing fits, return an empty list.

Respond with JSON only, in the form:
{"accounts": ["Expenses:Food:Groceries"], "reasoning": "one short sentence"}

`

func (c *Claude) prompt(t *ledger.Transaction) (string, error) {
	req := claudeRequest{Accounts: c.accounts}
	req.Transaction = exampleTxn{Date: t.Date, Description: t.Name()}
	if p, ok := t.Primary(); ok {
		req.Transaction.Amount = p.AmountText()
	}
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "unable to encode request")
	}
	return claudeInstructions + string(data), nil
}

// parseHints pulls the JSON object out of text, which may be wrapped in a
// markdown fence, and keeps only known accounts.
func (c *Claude) parseHints(text string) ([]string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return nil, errors.Errorf("no JSON found in response: %s", text)
	}
	var resp claudeResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to parse JSON response: %s", text)
	}
	known := make(map[string]bool, len(c.accounts))
	for _, a := range c.accounts {
		known[a.Name] = true
	}
	var out []string
	for _, acc := range resp.Accounts {
		if known[acc] && len(out) < MaxHints {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (c *Claude) Advise(ctx context.Context, t *ledger.Transaction) ([]string, error) {
	prompt, err := c.prompt(t)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	log.Debug().Str("model", c.model).Int("prompt_len", len(prompt)).Msg("asking claude")
	text, err := c.send(ctx, prompt)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("response", text).Msg("claude replied")
	return c.parseHints(text)
}
