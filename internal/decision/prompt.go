package decision

import (
	"bytes"
	_ "embed"
	"text/template"

	"kantong/internal/ledger"
	"kantong/internal/models"
	"kantong/internal/session"
)

//go:embed prompt.tmpl
var promptText string

var promptTmpl = template.Must(template.New("prompt").Parse(promptText))

type promptData struct {
	History       []session.Turn
	Wallets       []models.Wallet
	Business      string
	Today         string
	DefaultWallet string
	Message       string
}

// BuildPrompt renders the model prompt for req, keeping at most turns
// history entries.
func BuildPrompt(req Request, turns int) (string, error) {
	history := req.History
	if turns >= 0 && len(history) > turns {
		history = history[len(history)-turns:]
	}
	data := promptData{
		History:       history,
		Wallets:       req.Wallets,
		Business:      req.Business,
		Today:         req.Today.Format("2006-01-02"),
		DefaultWallet: ledger.DefaultWallet,
		Message:       req.Message,
	}
	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
