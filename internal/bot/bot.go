// Package bot turns chat messages into ledger and business operations and
// renders the replies.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"kantong/internal/business"
	"kantong/internal/decision"
	"kantong/internal/export"
	"kantong/internal/ledger"
	"kantong/internal/models"
	"kantong/internal/session"
)

// Message is one inbound chat message.
type Message struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
	// IsStatus marks broadcast status updates, which are ignored.
	IsStatus bool `json:"is_status,omitempty"`
}

// Attachment is a file the transport should send along with the text.
type Attachment struct {
	Path     string `json:"path"`
	FileName string `json:"file_name"`
	MIME     string `json:"mime"`
}

type Reply struct {
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

const (
	mimeXLSX   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeSQLite = "application/x-sqlite3"
)

// Backuper sends a fresh database snapshot to the owner.
type Backuper interface {
	SendToOwner(ctx context.Context) (*models.Backup, error)
}

type Deps struct {
	Ledger   *ledger.Service
	Business *business.Service
	Sessions *session.Store
	Decider  decision.Decider
	// Fallback answers when Decider fails; nil disables it.
	Fallback decision.Decider
	Exporter *export.Exporter
	Backups  Backuper

	DefaultWallet string
	ContextTurns  int
	HistoryLimit  int
}

type Bot struct {
	ledger   *ledger.Service
	biz      *business.Service
	sessions *session.Store
	decider  decision.Decider
	fallback decision.Decider
	exporter *export.Exporter
	backups  Backuper

	defaultWallet string
	contextTurns  int
	historyLimit  int
}

// New wires the bot and hooks session eviction to end the persisted
// business session.
func New(d Deps) *Bot {
	b := &Bot{
		ledger:        d.Ledger,
		biz:           d.Business,
		sessions:      d.Sessions,
		decider:       d.Decider,
		fallback:      d.Fallback,
		exporter:      d.Exporter,
		backups:       d.Backups,
		defaultWallet: d.DefaultWallet,
		contextTurns:  d.ContextTurns,
		historyLimit:  d.HistoryLimit,
	}
	if b.defaultWallet == "" {
		b.defaultWallet = ledger.DefaultWallet
	}
	if b.contextTurns <= 0 {
		b.contextTurns = 5
	}
	if b.historyLimit <= 0 {
		b.historyLimit = 10
	}
	if b.decider == nil {
		b.decider = decision.RuleDecider{}
	}
	b.sessions.OnEvict = b.onEvict
	return b
}

func (b *Bot) onEvict(userID string, businessID uint) {
	if businessID == 0 {
		return
	}
	if err := b.biz.EndSession(context.Background(), userID); err != nil {
		log.Printf("[bot] end business session for %s: %v", userID, err)
		return
	}
	log.Printf("[bot] business session of %s expired", userID)
}

// Ignored reports whether a message is not meant for the bot: group chats
// and status broadcasts.
func Ignored(msg Message) bool {
	return msg.IsStatus ||
		strings.HasSuffix(msg.UserID, "@g.us") ||
		msg.UserID == "status@broadcast" ||
		strings.TrimSpace(msg.Text) == ""
}

// HandleMessage decides and executes one chat message. The returned error
// is reserved for store failures that happen before a command runs; command
// failures become reply text.
func (b *Bot) HandleMessage(ctx context.Context, msg Message) ([]Reply, error) {
	if Ignored(msg) {
		return nil, nil
	}
	user := msg.UserID
	text := strings.TrimSpace(msg.Text)
	b.sessions.AddTurn(user, session.RoleUser, text)

	wallets, err := b.ledger.ListWallets(ctx, user)
	if err != nil {
		return nil, err
	}
	req := decision.Request{
		Message: text,
		History: b.sessions.History(user, b.contextTurns),
		Wallets: wallets,
		Today:   b.ledger.Now(),
	}
	if biz, err := b.activeBusiness(ctx, user); err == nil {
		req.Business = biz.Name
	}

	d, err := b.decide(ctx, req)
	if err != nil {
		log.Printf("[bot] %s: decide: %v", user, err)
		return b.reply(user, Reply{Text: msgCannotProcess}), nil
	}
	log.Printf("[bot] %s: action=%s reasoning=%q", user, d.Action, d.Reasoning)

	cmd, err := decision.Parse(d)
	if err != nil {
		log.Printf("[bot] %s: %v", user, err)
		return b.reply(user, Reply{Text: errorText(nil, err)}), nil
	}

	r, err := b.run(ctx, user, cmd)
	if err != nil {
		r = Reply{Text: errorText(cmd, err)}
	}
	return b.reply(user, r), nil
}

func (b *Bot) decide(ctx context.Context, req decision.Request) (decision.Decision, error) {
	d, err := b.decider.Decide(ctx, req)
	if err == nil || b.fallback == nil {
		return d, err
	}
	log.Printf("[bot] decider failed, using fallback: %v", err)
	return b.fallback.Decide(ctx, req)
}

// reply records the bot turn and wraps r.
func (b *Bot) reply(user string, r Reply) []Reply {
	b.sessions.AddTurn(user, session.RoleBot, r.Text)
	return []Reply{r}
}

// run executes one command.
func (b *Bot) run(ctx context.Context, user string, cmd decision.Command) (Reply, error) {
	switch c := cmd.(type) {
	case decision.CheckBalance:
		return b.checkBalance(ctx, user, c)
	case decision.CheckWalletBalance:
		return b.checkWalletBalance(ctx, user, c.Wallet)
	case decision.Adjustment:
		return b.adjust(ctx, user, c)
	case decision.Income:
		return b.entry(ctx, user, models.TypeIncome, c.Entry)
	case decision.Expense:
		return b.entry(ctx, user, models.TypeExpense, c.Entry)
	case decision.Transfer:
		return b.transfer(ctx, user, c)
	case decision.CreateWallet:
		return b.createWallet(ctx, user, c)
	case decision.UpdateWallet:
		return b.updateWallet(ctx, user, c)
	case decision.DeleteWallet:
		return b.deleteWallet(ctx, user, c)
	case decision.MultiCommand:
		return b.multi(ctx, user, c)
	case decision.ShowHistory:
		return b.history(ctx, user, c)
	case decision.ShowStats:
		return b.stats(ctx, user, c)
	case decision.ShowWallets:
		return b.wallets(ctx, user)
	case decision.BackupDatabase:
		return b.backup(ctx)
	case decision.ExportExcel:
		return b.exportExcel(ctx, user, c)
	case decision.Help:
		return Reply{Text: helpText}, nil
	case decision.Other:
		if c.Message != "" {
			return Reply{Text: c.Message}, nil
		}
		return Reply{Text: msgNotUnderstood}, nil
	case decision.CreateBusiness:
		return b.createBusiness(ctx, user, c)
	case decision.LoginBusiness:
		return b.loginBusiness(ctx, user, c)
	case decision.ExitBusiness:
		return b.exitBusiness(ctx, user)
	case decision.AddMaterial:
		return b.addMaterial(ctx, user, c)
	case decision.ListMaterials:
		return b.listMaterials(ctx, user)
	case decision.AddPriceTier:
		return b.addPriceTier(ctx, user, c)
	case decision.AddCatalog:
		return b.addCatalog(ctx, user, c)
	case decision.ListCatalogs:
		return b.listCatalogs(ctx, user, c)
	case decision.AddEmptyBouquet:
		return b.addEmptyBouquet(ctx, user, c)
	case decision.BusinessExpense:
		return b.businessExpense(ctx, user, c)
	case decision.BusinessIncome:
		return b.businessIncome(ctx, user, c)
	case decision.BusinessStats:
		return b.businessStats(ctx, user)
	case decision.CalculateCost:
		return b.calculateCost(ctx, user, c)
	}
	return Reply{}, fmt.Errorf("unhandled command %T", cmd)
}

// multi runs each item in order; a failing item does not stop the rest.
func (b *Bot) multi(ctx context.Context, user string, m decision.MultiCommand) (Reply, error) {
	var (
		lines []string
		out   Reply
	)
	for _, item := range m.Items {
		if item.Err != nil {
			log.Printf("[bot] %s: multi item: %v", user, item.Err)
			lines = append(lines, errorText(nil, item.Err))
			continue
		}
		if _, nested := item.Command.(decision.MultiCommand); nested {
			lines = append(lines, msgInvalidCommand)
			continue
		}
		r, err := b.run(ctx, user, item.Command)
		if err != nil {
			lines = append(lines, errorText(item.Command, err))
			continue
		}
		lines = append(lines, firstLine(r.Text))
		out.Attachments = append(out.Attachments, r.Attachments...)
	}
	out.Text = strings.Join(lines, "\n")
	return out, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
