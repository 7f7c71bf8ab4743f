// Package decision turns a chat message into a typed Command. A Decider
// (the Gemini model, or a regex fallback) answers with a raw Decision, and
// Parse validates its params into exactly one Command variant.
package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"kantong/internal/models"
	"kantong/internal/session"
)

type Action string

const (
	ActionCheckBalance       Action = "check_balance"
	ActionCheckWalletBalance Action = "check_wallet_balance"
	ActionAdjustment         Action = "adjustment"
	ActionIncome             Action = "income"
	ActionExpense            Action = "expense"
	ActionTransfer           Action = "transfer"
	ActionCreateWallet       Action = "create_wallet"
	ActionUpdateWallet       Action = "update_wallet"
	ActionDeleteWallet       Action = "delete_wallet"
	ActionMultiCommand       Action = "multi_command"
	ActionShowHistory        Action = "show_history"
	ActionShowStats          Action = "show_stats"
	ActionShowWallets        Action = "show_wallets"
	ActionBackupDatabase     Action = "backup_database"
	ActionExportExcel        Action = "export_excel"
	ActionHelp               Action = "help"
	ActionOther              Action = "other"

	ActionCreateBusiness  Action = "create_business"
	ActionLoginBusiness   Action = "login_business"
	ActionExitBusiness    Action = "exit_business"
	ActionAddMaterial     Action = "add_material"
	ActionListMaterials   Action = "list_materials"
	ActionAddPriceTier    Action = "add_price_tier"
	ActionAddCatalog      Action = "add_catalog"
	ActionListCatalogs    Action = "list_catalogs"
	ActionAddEmptyBouquet Action = "add_empty_bouquet"
	ActionBusinessExpense Action = "business_expense"
	ActionBusinessIncome  Action = "business_income"
	ActionBusinessStats   Action = "business_stats"
	ActionCalculateCost   Action = "calculate_cost"
)

// Decision is the raw model answer: {"action", "params", "reasoning"}.
type Decision struct {
	Action    Action          `json:"action"`
	Params    json.RawMessage `json:"params,omitempty"`
	Reasoning string          `json:"reasoning,omitempty"`
}

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidParams = errors.New("invalid params")
	ErrNoJSON        = errors.New("no JSON object in model output")
)

// ParseError reports a Decision that does not decode into a Command.
type ParseError struct {
	Action Action
	Err    error
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("parse %q: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("parse %q: %v: %s", e.Action, e.Err, e.Detail)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Request is everything a Decider may look at.
type Request struct {
	Message string
	History []session.Turn
	Wallets []models.Wallet
	Today   time.Time
	// Business is the active business name, empty outside a business session.
	Business string
}

// Decider maps a chat message to a Decision.
type Decider interface {
	Decide(ctx context.Context, req Request) (Decision, error)
}

// ExtractJSON returns the outermost {...} span of model output, which may
// be wrapped in prose or a markdown fence.
func ExtractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}

// DecodeDecision extracts and unmarshals a Decision from model output.
func DecodeDecision(text string) (Decision, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return Decision{}, err
	}
	var d Decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Decision{}, fmt.Errorf("decode decision: %w", err)
	}
	if d.Action == "" {
		return Decision{}, fmt.Errorf("decode decision: %w", ErrUnknownAction)
	}
	return d, nil
}
