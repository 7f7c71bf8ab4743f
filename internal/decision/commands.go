package decision

import (
	"time"

	"kantong/internal/ledger"
	"kantong/internal/models"

	"github.com/shopspring/decimal"
)

// Command is one of the concrete command types below. The set is closed.
type Command interface {
	Action() Action
	command()
}

type CheckBalance struct {
	Wallet string
}

type CheckWalletBalance struct {
	Wallet string
}

// Adjustment always diffs against the stored balance, so any current
// balance the model reports is ignored.
type Adjustment struct {
	Wallet      string
	RealBalance decimal.Decimal
	Description string
}

// Entry is shared by Income and Expense.
type Entry struct {
	Amount      decimal.Decimal
	Wallet      string
	Description string
	Category    string
	Date        *time.Time // date only, midnight UTC
}

type Income struct{ Entry }

type Expense struct{ Entry }

type Transfer struct {
	Amount      decimal.Decimal
	From        string
	To          string
	Description string
	Date        *time.Time
}

type CreateWallet struct {
	Name           string
	Type           models.WalletType
	IncludeInTotal bool
}

type UpdateWallet struct {
	Name           string
	Type           *models.WalletType
	IncludeInTotal *bool
}

type DeleteWallet struct {
	Name string
}

// MultiItem is one sub-command; Err is set when it failed to parse.
type MultiItem struct {
	Command Command
	Err     error
}

type MultiCommand struct {
	Items []MultiItem
}

type ShowHistory struct {
	Period ledger.Period
	Month  string
	Limit  int
}

type ShowStats struct {
	Period ledger.Period
	Month  string
}

type ShowWallets struct{}

type BackupDatabase struct{}

// ExportType filters exported transactions.
type ExportType string

const (
	ExportAll     ExportType = "all"
	ExportIncome  ExportType = "income"
	ExportExpense ExportType = "expense"
)

type ExportExcel struct {
	Type   ExportType
	Period ledger.Period
	Month  string
}

type Help struct{}

// Other carries an optional free-text answer from the model.
type Other struct {
	Message string
}

type CreateBusiness struct {
	Name        string
	Username    string
	Password    string
	Description string
}

type LoginBusiness struct {
	Name     string
	Username string
	Password string
}

type ExitBusiness struct{}

type AddMaterial struct {
	Name      string
	UnitPrice decimal.Decimal
	PackPrice *decimal.Decimal
	PerPack   *int
}

type ListMaterials struct{}

type AddPriceTier struct {
	Price decimal.Decimal
}

// MaterialLine is one material in a cost calculation. A zero UnitPrice
// means "look it up".
type MaterialLine struct {
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

type AddCatalog struct {
	Name      string
	Price     *decimal.Decimal // nil: suggest from cost
	Materials []MaterialLine
}

type ListCatalogs struct {
	Price *decimal.Decimal
}

type AddEmptyBouquet struct {
	Size  string
	Price decimal.Decimal
}

type BusinessExpense struct {
	Amount      decimal.Decimal
	Description string
}

type BusinessIncome struct {
	Amount      decimal.Decimal
	Description string
}

type BusinessStats struct{}

type CalculateCost struct {
	Materials []MaterialLine
}

func (CheckBalance) Action() Action       { return ActionCheckBalance }
func (CheckWalletBalance) Action() Action { return ActionCheckWalletBalance }
func (Adjustment) Action() Action         { return ActionAdjustment }
func (Income) Action() Action             { return ActionIncome }
func (Expense) Action() Action            { return ActionExpense }
func (Transfer) Action() Action           { return ActionTransfer }
func (CreateWallet) Action() Action       { return ActionCreateWallet }
func (UpdateWallet) Action() Action       { return ActionUpdateWallet }
func (DeleteWallet) Action() Action       { return ActionDeleteWallet }
func (MultiCommand) Action() Action       { return ActionMultiCommand }
func (ShowHistory) Action() Action        { return ActionShowHistory }
func (ShowStats) Action() Action          { return ActionShowStats }
func (ShowWallets) Action() Action        { return ActionShowWallets }
func (BackupDatabase) Action() Action     { return ActionBackupDatabase }
func (ExportExcel) Action() Action        { return ActionExportExcel }
func (Help) Action() Action               { return ActionHelp }
func (Other) Action() Action              { return ActionOther }
func (CreateBusiness) Action() Action     { return ActionCreateBusiness }
func (LoginBusiness) Action() Action      { return ActionLoginBusiness }
func (ExitBusiness) Action() Action       { return ActionExitBusiness }
func (AddMaterial) Action() Action        { return ActionAddMaterial }
func (ListMaterials) Action() Action      { return ActionListMaterials }
func (AddPriceTier) Action() Action       { return ActionAddPriceTier }
func (AddCatalog) Action() Action         { return ActionAddCatalog }
func (ListCatalogs) Action() Action       { return ActionListCatalogs }
func (AddEmptyBouquet) Action() Action    { return ActionAddEmptyBouquet }
func (BusinessExpense) Action() Action    { return ActionBusinessExpense }
func (BusinessIncome) Action() Action     { return ActionBusinessIncome }
func (BusinessStats) Action() Action      { return ActionBusinessStats }
func (CalculateCost) Action() Action      { return ActionCalculateCost }

func (CheckBalance) command()       {}
func (CheckWalletBalance) command() {}
func (Adjustment) command()         {}
func (Income) command()             {}
func (Expense) command()            {}
func (Transfer) command()           {}
func (CreateWallet) command()       {}
func (UpdateWallet) command()       {}
func (DeleteWallet) command()       {}
func (MultiCommand) command()       {}
func (ShowHistory) command()        {}
func (ShowStats) command()          {}
func (ShowWallets) command()        {}
func (BackupDatabase) command()     {}
func (ExportExcel) command()        {}
func (Help) command()               {}
func (Other) command()              {}
func (CreateBusiness) command()     {}
func (LoginBusiness) command()      {}
func (ExitBusiness) command()       {}
func (AddMaterial) command()        {}
func (ListMaterials) command()      {}
func (AddPriceTier) command()       {}
func (AddCatalog) command()         {}
func (ListCatalogs) command()       {}
func (AddEmptyBouquet) command()    {}
func (BusinessExpense) command()    {}
func (BusinessIncome) command()     {}
func (BusinessStats) command()      {}
func (CalculateCost) command()      {}
