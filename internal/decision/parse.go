package decision

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kantong/internal/ledger"
	"kantong/internal/models"
	"kantong/internal/util"

	"github.com/shopspring/decimal"
)

// amount accepts a JSON number, a numeric string or shorthand like "50rb".
type amount struct {
	set   bool
	value decimal.Decimal
}

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*a = amount{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*a = amount{}
			return nil
		}
		d, err := util.ParseAmount(s)
		if err != nil {
			return err
		}
		*a = amount{set: true, value: d}
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	*a = amount{set: true, value: d}
	return nil
}

func (a amount) ptr() *decimal.Decimal {
	if !a.set {
		return nil
	}
	v := a.value
	return &v
}

// flag accepts true/false or their string forms.
type flag struct {
	set   bool
	value bool
}

func (f *flag) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = flag{}
		return nil
	}
	v, err := strconv.ParseBool(strings.ToLower(s))
	if err != nil {
		return err
	}
	*f = flag{set: true, value: v}
	return nil
}

// count accepts an integer or its string form.
type count int

func (c *count) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*c = count(n)
	return nil
}

type walletParams struct {
	Wallet string `json:"wallet"`
}

type adjustmentParams struct {
	Wallet      string `json:"wallet"`
	RealBalance amount `json:"realBalance"`
	Description string `json:"description"`
}

type entryParams struct {
	Amount      amount `json:"amount"`
	Wallet      string `json:"wallet"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

type transferParams struct {
	Amount      amount `json:"amount"`
	FromWallet  string `json:"fromWallet"`
	ToWallet    string `json:"toWallet"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// In a multi_command item "type" names the action and the wallet type
// moves to "walletType".
type createWalletParams struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	WalletType     string `json:"walletType"`
	IncludeInTotal flag   `json:"includeInTotal"`
}

type periodParams struct {
	Period string `json:"period"`
	Month  string `json:"month"`
	Limit  count  `json:"limit"`
	Type   string `json:"type"`
}

type businessParams struct {
	Name        string `json:"name"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Description string `json:"description"`
}

type materialParams struct {
	Name      string `json:"name"`
	UnitPrice amount `json:"unitPrice"`
	PackPrice amount `json:"packPrice"`
	PerPack   count  `json:"perPack"`
}

type materialLineParams struct {
	Name      string `json:"name"`
	Quantity  amount `json:"quantity"`
	UnitPrice amount `json:"unitPrice"`
}

type catalogParams struct {
	Name      string               `json:"name"`
	Price     amount               `json:"price"`
	Materials []materialLineParams `json:"materials"`
}

type priceParams struct {
	Price amount `json:"price"`
}

type bouquetParams struct {
	Size  string `json:"size"`
	Price amount `json:"price"`
}

type bookParams struct {
	Amount      amount `json:"amount"`
	Description string `json:"description"`
}

type otherParams struct {
	Message string `json:"message"`
}

type multiParams struct {
	Commands []json.RawMessage `json:"commands"`
}

// Parse decodes d into its Command variant.
func Parse(d Decision) (Command, error) {
	p := &parser{action: d.Action, raw: d.Params}
	cmd := p.command()
	if p.err != nil {
		return nil, p.err
	}
	return cmd, nil
}

type parser struct {
	action Action
	raw    json.RawMessage
	err    error
}

func (p *parser) fail(err error, format string, args ...any) {
	if p.err == nil {
		p.err = &ParseError{Action: p.action, Err: err, Detail: fmt.Sprintf(format, args...)}
	}
}

func (p *parser) decode(v any) {
	raw := bytes.TrimSpace(p.raw)
	if len(raw) == 0 || string(raw) == "null" {
		return
	}
	if err := json.Unmarshal(raw, v); err != nil {
		p.fail(ErrInvalidParams, "%v", err)
	}
}

func (p *parser) positive(field string, a amount) decimal.Decimal {
	if !a.set || !a.value.IsPositive() {
		p.fail(ErrInvalidParams, "%s must be greater than zero", field)
		return decimal.Zero
	}
	return a.value
}

func (p *parser) required(field, v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		p.fail(ErrInvalidParams, "%s is required", field)
	}
	return v
}

func (p *parser) date(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil
	}
	t, err := util.ParseDate(s, time.UTC)
	if err != nil {
		p.fail(ErrInvalidParams, "date %q is not YYYY-MM-DD", s)
		return nil
	}
	return &t
}

func (p *parser) period(s, month string, fallback ledger.Period) (ledger.Period, string) {
	per := ledger.Period(strings.TrimSpace(s))
	switch per {
	case "":
		per = fallback
	case ledger.PeriodToday, ledger.PeriodThisMonth, ledger.PeriodLastMonth,
		ledger.PeriodSpecificMonth, ledger.PeriodAllTime:
	default:
		p.fail(ErrInvalidParams, "unknown period %q", s)
	}
	month = strings.TrimSpace(month)
	if per == ledger.PeriodSpecificMonth && month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			p.fail(ErrInvalidParams, "month %q is not YYYY-MM", month)
		}
	}
	return per, month
}

func (p *parser) walletType(s string) models.WalletType {
	t := models.WalletType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		p.fail(ErrInvalidParams, "unknown wallet type %q", s)
	}
	return t
}

func (p *parser) lines(in []materialLineParams) []MaterialLine {
	out := make([]MaterialLine, 0, len(in))
	for _, l := range in {
		line := MaterialLine{Name: p.required("material name", l.Name)}
		line.Quantity = p.positive("quantity", l.Quantity)
		if l.UnitPrice.set {
			if l.UnitPrice.value.IsNegative() {
				p.fail(ErrInvalidParams, "unit price must not be negative")
			}
			line.UnitPrice = l.UnitPrice.value
		}
		out = append(out, line)
	}
	return out
}

func (p *parser) entry() Entry {
	var e entryParams
	p.decode(&e)
	return Entry{
		Amount:      p.positive("amount", e.Amount),
		Wallet:      strings.TrimSpace(e.Wallet),
		Description: strings.TrimSpace(e.Description),
		Category:    strings.TrimSpace(e.Category),
		Date:        p.date(e.Date),
	}
}

func (p *parser) command() Command {
	switch p.action {
	case ActionCheckBalance:
		var w walletParams
		p.decode(&w)
		return CheckBalance{Wallet: strings.TrimSpace(w.Wallet)}

	case ActionCheckWalletBalance:
		var w walletParams
		p.decode(&w)
		return CheckWalletBalance{Wallet: p.required("wallet", w.Wallet)}

	case ActionAdjustment:
		var a adjustmentParams
		p.decode(&a)
		if !a.RealBalance.set {
			p.fail(ErrInvalidParams, "realBalance is required")
		} else if a.RealBalance.value.IsNegative() {
			p.fail(ErrInvalidParams, "realBalance must not be negative")
		}
		return Adjustment{
			Wallet:      p.required("wallet", a.Wallet),
			RealBalance: a.RealBalance.value,
			Description: strings.TrimSpace(a.Description),
		}

	case ActionIncome:
		return Income{p.entry()}

	case ActionExpense:
		return Expense{p.entry()}

	case ActionTransfer:
		var t transferParams
		p.decode(&t)
		return Transfer{
			Amount:      p.positive("amount", t.Amount),
			From:        p.required("fromWallet", t.FromWallet),
			To:          p.required("toWallet", t.ToWallet),
			Description: strings.TrimSpace(t.Description),
			Date:        p.date(t.Date),
		}

	case ActionCreateWallet:
		var c createWalletParams
		p.decode(&c)
		typ := models.WalletRegular
		switch {
		case c.WalletType != "":
			typ = p.walletType(c.WalletType)
		case c.Type != "" && c.Type != string(ActionCreateWallet):
			typ = p.walletType(c.Type)
		}
		include := true
		if c.IncludeInTotal.set {
			include = c.IncludeInTotal.value
		}
		return CreateWallet{Name: p.required("name", c.Name), Type: typ, IncludeInTotal: include}

	case ActionUpdateWallet:
		var c createWalletParams
		p.decode(&c)
		cmd := UpdateWallet{Name: p.required("name", c.Name)}
		ts := c.WalletType
		if ts == "" && c.Type != string(ActionUpdateWallet) {
			ts = c.Type
		}
		if ts != "" {
			t := p.walletType(ts)
			cmd.Type = &t
		}
		if c.IncludeInTotal.set {
			v := c.IncludeInTotal.value
			cmd.IncludeInTotal = &v
		}
		return cmd

	case ActionDeleteWallet:
		var c createWalletParams
		p.decode(&c)
		return DeleteWallet{Name: p.required("name", c.Name)}

	case ActionMultiCommand:
		var m multiParams
		p.decode(&m)
		if p.err == nil && len(m.Commands) == 0 {
			p.fail(ErrInvalidParams, "commands is empty")
		}
		items := make([]MultiItem, 0, len(m.Commands))
		for _, raw := range m.Commands {
			items = append(items, parseItem(raw))
		}
		return MultiCommand{Items: items}

	case ActionShowHistory:
		var q periodParams
		p.decode(&q)
		per, month := p.period(q.Period, q.Month, ledger.PeriodToday)
		if q.Limit < 0 {
			p.fail(ErrInvalidParams, "limit must not be negative")
		}
		return ShowHistory{Period: per, Month: month, Limit: int(q.Limit)}

	case ActionShowStats:
		var q periodParams
		p.decode(&q)
		per, month := p.period(q.Period, q.Month, ledger.PeriodToday)
		return ShowStats{Period: per, Month: month}

	case ActionShowWallets:
		return ShowWallets{}

	case ActionBackupDatabase:
		return BackupDatabase{}

	case ActionExportExcel:
		var q periodParams
		p.decode(&q)
		per, month := p.period(q.Period, q.Month, ledger.PeriodThisMonth)
		typ := ExportType(strings.ToLower(strings.TrimSpace(q.Type)))
		switch typ {
		case "":
			typ = ExportAll
		case ExportAll, ExportIncome, ExportExpense:
		default:
			p.fail(ErrInvalidParams, "unknown export type %q", q.Type)
		}
		return ExportExcel{Type: typ, Period: per, Month: month}

	case ActionHelp:
		return Help{}

	case ActionOther:
		var o otherParams
		p.decode(&o)
		return Other{Message: strings.TrimSpace(o.Message)}

	case ActionCreateBusiness:
		var b businessParams
		p.decode(&b)
		return CreateBusiness{
			Name:        p.required("name", b.Name),
			Username:    p.required("username", b.Username),
			Password:    p.required("password", b.Password),
			Description: strings.TrimSpace(b.Description),
		}

	case ActionLoginBusiness:
		var b businessParams
		p.decode(&b)
		return LoginBusiness{
			Name:     p.required("name", b.Name),
			Username: p.required("username", b.Username),
			Password: p.required("password", b.Password),
		}

	case ActionExitBusiness:
		return ExitBusiness{}

	case ActionAddMaterial:
		var m materialParams
		p.decode(&m)
		cmd := AddMaterial{Name: p.required("name", m.Name), PackPrice: m.PackPrice.ptr()}
		if m.PerPack > 0 {
			n := int(m.PerPack)
			cmd.PerPack = &n
		}
		switch {
		case m.UnitPrice.set:
			cmd.UnitPrice = m.UnitPrice.value
		case cmd.PackPrice != nil && cmd.PerPack != nil:
			cmd.UnitPrice = cmd.PackPrice.Div(decimal.NewFromInt(int64(*cmd.PerPack))).Round(2)
		default:
			p.fail(ErrInvalidParams, "unitPrice or packPrice with perPack is required")
		}
		if cmd.UnitPrice.IsNegative() {
			p.fail(ErrInvalidParams, "unitPrice must not be negative")
		}
		return cmd

	case ActionListMaterials:
		return ListMaterials{}

	case ActionAddPriceTier:
		var pr priceParams
		p.decode(&pr)
		return AddPriceTier{Price: p.positive("price", pr.Price)}

	case ActionAddCatalog:
		var c catalogParams
		p.decode(&c)
		cmd := AddCatalog{Name: p.required("name", c.Name), Materials: p.lines(c.Materials)}
		if c.Price.set {
			v := p.positive("price", c.Price)
			cmd.Price = &v
		}
		return cmd

	case ActionListCatalogs:
		var pr priceParams
		p.decode(&pr)
		return ListCatalogs{Price: pr.Price.ptr()}

	case ActionAddEmptyBouquet:
		var b bouquetParams
		p.decode(&b)
		return AddEmptyBouquet{Size: p.required("size", b.Size), Price: p.positive("price", b.Price)}

	case ActionBusinessExpense:
		var b bookParams
		p.decode(&b)
		return BusinessExpense{Amount: p.positive("amount", b.Amount), Description: p.required("description", b.Description)}

	case ActionBusinessIncome:
		var b bookParams
		p.decode(&b)
		return BusinessIncome{Amount: p.positive("amount", b.Amount), Description: p.required("description", b.Description)}

	case ActionBusinessStats:
		return BusinessStats{}

	case ActionCalculateCost:
		var c catalogParams
		p.decode(&c)
		lines := p.lines(c.Materials)
		if p.err == nil && len(lines) == 0 {
			p.fail(ErrInvalidParams, "materials is empty")
		}
		return CalculateCost{Materials: lines}
	}

	p.fail(ErrUnknownAction, "")
	return nil
}

// parseItem decodes one multi_command entry, {"type": action, ...params}.
func parseItem(raw json.RawMessage) MultiItem {
	var head struct {
		Type Action `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return MultiItem{Err: &ParseError{Action: ActionMultiCommand, Err: ErrInvalidParams, Detail: err.Error()}}
	}
	if head.Type == ActionMultiCommand {
		return MultiItem{Err: &ParseError{Action: head.Type, Err: ErrInvalidParams, Detail: "nested multi_command"}}
	}
	cmd, err := Parse(Decision{Action: head.Type, Params: raw})
	return MultiItem{Command: cmd, Err: err}
}
