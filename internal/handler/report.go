package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"kantong/internal/export"
	"kantong/internal/ledger"
	"kantong/internal/models"
	"kantong/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler exposes read-only views of a chat user's ledger.
type ReportHandler struct {
	Ledger       *ledger.Service
	Exporter     *export.Exporter
	HistoryLimit int
}

func NewReportHandler(l *ledger.Service, e *export.Exporter, historyLimit int) *ReportHandler {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &ReportHandler{Ledger: l, Exporter: e, HistoryLimit: historyLimit}
}

type walletResp struct {
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	IncludeInTotal bool            `json:"include_in_total"`
	Balance        decimal.Decimal `json:"balance"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type transactionResp struct {
	ID          uint            `json:"id"`
	Wallet      string          `json:"wallet"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toTransactionResp(t models.Transaction, loc *time.Location) transactionResp {
	return transactionResp{
		ID:          t.ID,
		Wallet:      t.WalletName,
		Type:        string(t.Type),
		Amount:      t.Amount,
		Category:    t.CategoryName(),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.In(loc),
	}
}

func (h *ReportHandler) ListWallets(c *gin.Context) {
	wallets, err := h.Ledger.ListWallets(c.Request.Context(), c.Param("user"))
	if err != nil {
		fail(c, err)
		return
	}
	items := make([]walletResp, 0, len(wallets))
	for _, w := range wallets {
		items = append(items, walletResp{
			Name:           w.Name,
			Type:           string(w.Type),
			IncludeInTotal: w.IncludeInTotal,
			Balance:        w.Balance,
			UpdatedAt:      w.UpdatedAt,
		})
	}
	util.Success(c, util.Response{"items": items})
}

// GetBalance returns the headline balance and the running total over all
// wallets.
func (h *ReportHandler) GetBalance(c *gin.Context) {
	ctx := c.Request.Context()
	user := c.Param("user")
	balance, err := h.Ledger.GetBalance(ctx, user)
	if err != nil {
		fail(c, err)
		return
	}
	total, err := h.Ledger.TotalBalance(ctx, user)
	if err != nil {
		fail(c, err)
		return
	}
	util.Success(c, util.Response{
		"balance":   balance,
		"total_all": total,
	})
}

func (h *ReportHandler) GetHistory(c *gin.Context) {
	period := ledger.Period(c.DefaultQuery("period", string(ledger.PeriodToday)))
	limit := h.HistoryLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 500 {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "limit must be 1..500")
			return
		}
		limit = n
	}

	txs, err := h.Ledger.GetHistoryByPeriod(c.Request.Context(), c.Param("user"), period, c.Query("month"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	loc := h.Ledger.Location()
	items := make([]transactionResp, 0, len(txs))
	for _, t := range txs {
		items = append(items, toTransactionResp(t, loc))
	}
	util.Success(c, util.Response{
		"period": period,
		"items":  items,
	})
}

type categoryResp struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

func (h *ReportHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	user := c.Param("user")
	period := ledger.Period(c.DefaultQuery("period", string(ledger.PeriodThisMonth)))
	month := c.Query("month")

	st, err := h.Ledger.GetStats(ctx, user, period, month)
	if err != nil {
		fail(c, err)
		return
	}
	cats, err := h.Ledger.GetCategoryStats(ctx, user, period, month)
	if err != nil {
		fail(c, err)
		return
	}
	categories := make([]categoryResp, 0, len(cats))
	for _, cs := range cats {
		categories = append(categories, categoryResp{Category: cs.Category, Total: cs.Total, Count: cs.Count})
	}

	resp := util.Response{
		"period":        period,
		"income":        st.Income,
		"expense":       st.Expense,
		"income_count":  st.IncomeCount,
		"expense_count": st.ExpenseCount,
		"net":           st.Net(),
		"categories":    categories,
	}
	if period == ledger.PeriodAllTime {
		trends, err := h.Ledger.GetMonthlyTrends(ctx, user)
		if err != nil {
			fail(c, err)
			return
		}
		resp["monthly"] = trends
	}
	util.Success(c, resp)
}

// ExportXLSX streams the transaction workbook for a period.
func (h *ReportHandler) ExportXLSX(c *gin.Context) {
	ctx := c.Request.Context()
	user := c.Param("user")
	filter := export.Filter(c.DefaultQuery("type", string(export.FilterAll)))
	var typ models.TransactionType
	switch filter {
	case export.FilterAll:
	case export.FilterIncome:
		typ = models.TypeIncome
	case export.FilterExpense:
		typ = models.TypeExpense
	default:
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "type must be all, income or expense")
		return
	}
	period := ledger.Period(c.DefaultQuery("period", string(ledger.PeriodThisMonth)))

	txs, err := h.Ledger.GetTransactions(ctx, user, period, c.Query("month"), typ)
	if err != nil {
		fail(c, err)
		return
	}
	wallets, err := h.Ledger.ListWallets(ctx, user)
	if err != nil {
		fail(c, err)
		return
	}

	var buf bytes.Buffer
	if _, err := h.Exporter.Write(&buf, export.Request{
		UserID:       user,
		Filter:       filter,
		Wallets:      wallets,
		Transactions: txs,
	}); err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s_%s.xlsx\"",
		filter, h.Ledger.Now().Format("20060102")))
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}
