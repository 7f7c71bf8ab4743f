package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kantong/internal/business"
	"kantong/internal/decision"
	"kantong/internal/models"

	"github.com/shopspring/decimal"
)

// activeBusiness resolves the business the user is logged in to. The
// in-memory session is consulted first and refreshed from the database
// after a restart.
func (b *Bot) activeBusiness(ctx context.Context, user string) (*models.Business, error) {
	if id := b.sessions.Business(user); id != 0 {
		biz, err := b.biz.GetBusiness(ctx, id)
		if err == nil {
			return biz, nil
		}
		if !errors.Is(err, business.ErrBusinessNotFound) {
			return nil, err
		}
		b.sessions.SetBusiness(user, 0)
	}
	sess, err := b.biz.ActiveSession(ctx, user)
	if err != nil {
		return nil, err
	}
	b.sessions.SetBusiness(user, sess.BusinessID)
	biz := sess.Business
	return &biz, nil
}

func usages(lines []decision.MaterialLine) []business.MaterialUsage {
	out := make([]business.MaterialUsage, 0, len(lines))
	for _, l := range lines {
		out = append(out, business.MaterialUsage{Name: l.Name, UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	return out
}

func writeUsages(sb *strings.Builder, us []business.MaterialUsage) {
	for _, u := range us {
		fmt.Fprintf(sb, "• %s x%s @ %s = %s\n", u.Name, u.Quantity.String(), rp(u.UnitPrice), rp(u.UnitPrice.Mul(u.Quantity)))
	}
}

func (b *Bot) createBusiness(ctx context.Context, user string, c decision.CreateBusiness) (Reply, error) {
	biz, err := b.biz.CreateBusiness(ctx, business.CreateBusinessParams{
		UserID:      user,
		Name:        c.Name,
		Username:    c.Username,
		Password:    c.Password,
		Description: c.Description,
	})
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("✅ Bisnis *%s* berhasil dibuat\nUsername: %s\n\nLogin dengan: \"login bisnis %s\"",
		biz.Name, biz.Username, biz.Name)}, nil
}

func (b *Bot) loginBusiness(ctx context.Context, user string, c decision.LoginBusiness) (Reply, error) {
	biz, err := b.biz.VerifyCredentials(ctx, c.Name, c.Username, c.Password)
	if err != nil {
		return Reply{}, err
	}
	if err := b.biz.StartSession(ctx, user, biz.ID); err != nil {
		return Reply{}, err
	}
	b.sessions.SetBusiness(user, biz.ID)
	return Reply{Text: fmt.Sprintf("🏪 Masuk ke bisnis *%s*\nKetik \"exit\" untuk keluar dari mode bisnis.", biz.Name)}, nil
}

func (b *Bot) exitBusiness(ctx context.Context, user string) (Reply, error) {
	biz, err := b.activeBusiness(ctx, user)
	if err != nil && !errors.Is(err, business.ErrNoActiveSession) {
		return Reply{}, err
	}
	if err := b.biz.EndSession(ctx, user); err != nil {
		return Reply{}, err
	}
	b.sessions.End(user)
	if biz == nil {
		return Reply{Text: "👋 Sesi diakhiri."}, nil
	}
	return Reply{Text: fmt.Sprintf("👋 Keluar dari bisnis *%s*. Sesi diakhiri.", biz.Name)}, nil
}

func (b *Bot) addMaterial(ctx context.Context, user string, c decision.AddMaterial) (Reply, error) {
	biz, err := b.activeBusiness(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	m, err := b.biz.AddMaterial(ctx, biz.ID, business.MaterialParams{
		Name:      c.Name,
		UnitPrice: c.UnitPrice,
		PackPrice: c.PackPrice,
		PerPack:   c.PerPack,
	})
	if err != nil {
		return Reply{}, err
	}
	text := fmt.Sprintf("✅ Bahan *%s* ditambahkan: %s/pcs", m.Name, rp(m.UnitPrice))
	if m.PackPrice.Valid && m.PerPack != nil {
		text += fmt.Sprintf(" (%s per %d pcs)", rp(m.PackPrice.Decimal), *m.PerPack)
	}
	return Reply{Text: text}, nil
}

func (b *Bot) listMaterials(ctx context.Context, user string) (Reply, error) {
	biz, err := b.activeBusiness(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	mats, err := b.biz.ListMaterials(ctx, biz.ID)
	if err != nil {
		return Reply{}, err
	}
	if len(mats) == 0 {
		return Reply{Text: "📦 Belum ada bahan."}, nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📦 *Bahan %s*\n\n", biz.Name)
	for i, m := range mats {
		fmt.Fprintf(&sb, "%d. %s: %s/pcs", i+1, m.Name, rp(m.UnitPrice))
		if m.PackPrice.Valid && m.PerPack != nil {
			fmt.Fprintf(&sb, " (%s per %d pcs)", rp(m.PackPrice.Decimal), *m.PerPack)
		}
		sb.WriteString("\n")
	}
	return Reply{Text: strings.TrimSpace(sb.String())}, nil
}

func (b *Bot) addPriceTier(ctx context.Context, user string, c decision.AddPriceTier) (Reply, error) {
	biz, err := b.activeBusiness(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	if _, err := b.biz.AddPriceTier(ctx, biz.ID, c.Price); err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("✅ Harga jual %s ditambahkan", rp(c.Price))}, nil
}

func (b *Bot) addCatalog(ctx context.Context, user string, c decision.AddCatalog) (Reply, error) {
	biz, err := b.activeBusiness(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	p := business.CatalogParams{Name: c.Name}
	var cost *decimal.Decimal
	if len(c.Materials) > 0 {
		us, err := b.biz.ResolveUsages(ctx, biz.ID, usages(c.Materials))
		if err != nil {
			return Reply{}, err
		}
		total := business.CalculateCost(us)
		p.ProductionMaterials = us
		p.ProductionCost = &total
		cost = &total
	}
	switch {
	case c.Price != nil:
		p.Price = *c.Price
	case cost != nil:
		suggested, err := b.biz.SuggestSellingPrice(ctx, biz.ID, *cost)
		if err != nil {
			return Reply{}, err
		}
		p.Price = suggested
	}

	item, err := b.biz.AddCatalog(ctx, biz.ID, p)
	if err != nil {
		return Reply{}, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Katalog *%s* ditambahkan\nHarga: %s", item.Name, rp(item.Price))
	if cost != nil {
		fmt.Fprintf(&sb, "\nModal: %s\nUntung: %s", rp(*cost), rp(item.Price.Sub(*cost)))
	}
	return Reply{Text: sb.String()}, nil
}

func (b *Bot) listCatalogs(ctx context.Context, user string, c decision.ListCatalogs) (Reply, error) {
	biz, err := b.activeBusiness(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	var items []models.Catalog
	if c.Price != nil {
		items, err = b.biz.CatalogsByPrice(ctx, biz.ID, *c.Price)
	} else {
		items, err = b.biz.ListCatalogs(ctx, biz.ID)
	}
	if err != nil {
		return Reply{}, err
	}
	if len(items) == 0 {
		return Reply{Text: "🛍️ Belum ada katalog."}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🛍️ *Katalog %s*\n\n", biz.Name)
	var out Reply
	for i, it := range items {
		fmt.Fprintf(&sb, "%d. %s: %s", i+1, it.Name, rp(it.Price))
		if it.ProductionCost.Valid {
			fmt.Fprintf(&sb, " (modal %s)", rp(it.ProductionCost.Decimal))
		}
		sb.WriteString("\n")
		if it.ImagePath != "" {
			out.Attachments = append(out.Attachments, Attachment{Path: it.ImagePath, FileName: it.Name, MIME: "image/jpeg"})
		}
	}
	out.Text = strings.TrimSpace(sb.String())
	return out, nil
}

func (b *Bot) addEmptyBouquet(ctx context.Context, user string, c decision.AddEmptyBouquet) (Reply, error) {
	biz, err := b.activeBusiness(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	eb, err := b.biz.AddEmptyBouquet(ctx, biz.ID, c.Size, c.Price)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("✅ Buket kosong ukuran *%s* ditambahkan: %s", eb.Size, rp(eb.Price))}, nil
}

func (b *Bot) businessExpense(ctx context.Context, user string, c decision.BusinessExpense) (Reply, error) {
	biz, err := b.activeBusiness(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	if _, err := b.biz.AddExpense(ctx, biz.ID, c.Description, c.Amount); err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("✅ Pengeluaran bisnis %s: %s", rp(c.Amount), c.Description)}, nil
}

func (b *Bot) businessIncome(ctx context.Context, user string, c decision.BusinessIncome) (Reply, error) {
	biz, err := b.activeBusiness(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	if _, err := b.biz.AddIncome(ctx, biz.ID, c.Description, c.Amount); err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("✅ Pemasukan bisnis %s: %s", rp(c.Amount), c.Description)}, nil
}

func (b *Bot) businessStats(ctx context.Context, user string) (Reply, error) {
	biz, err := b.activeBusiness(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	st, err := b.biz.Stats(ctx, biz.ID)
	if err != nil {
		return Reply{}, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Statistik Bisnis %s*\n\n", biz.Name)
	fmt.Fprintf(&sb, "📈 Pemasukan: %s\n", rp(st.TotalIncome))
	fmt.Fprintf(&sb, "📉 Pengeluaran: %s\n", rp(st.TotalExpense))
	fmt.Fprintf(&sb, "💰 Profit: %s\n\n", rp(st.Profit))
	fmt.Fprintf(&sb, "📦 Bahan: %d\n", st.MaterialsCount)
	fmt.Fprintf(&sb, "🛍️ Katalog: %d\n", st.CatalogsCount)
	fmt.Fprintf(&sb, "🧾 Pengeluaran belum dicatat: %d", st.UnrecordedExpensesCount)
	return Reply{Text: sb.String()}, nil
}

func (b *Bot) calculateCost(ctx context.Context, user string, c decision.CalculateCost) (Reply, error) {
	biz, err := b.activeBusiness(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	us, err := b.biz.ResolveUsages(ctx, biz.ID, usages(c.Materials))
	if err != nil {
		return Reply{}, err
	}
	cost := business.CalculateCost(us)
	price, err := b.biz.SuggestSellingPrice(ctx, biz.ID, cost)
	if err != nil {
		return Reply{}, err
	}

	var sb strings.Builder
	sb.WriteString("🧮 *Hitung Modal*\n\n")
	writeUsages(&sb, us)
	fmt.Fprintf(&sb, "\nTotal modal: %s", rp(cost))
	if price.GreaterThan(cost) {
		fmt.Fprintf(&sb, "\nSaran harga jual: %s (untung %s)", rp(price), rp(price.Sub(cost)))
	}
	return Reply{Text: sb.String()}, nil
}
