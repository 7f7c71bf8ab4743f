package business

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"kantong/internal/config"
	"kantong/internal/database"
	"kantong/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "6281111111111@c.us"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "biz.db")})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return NewService(db)
}

func newShop(t *testing.T, s *Service) *models.Business {
	t.Helper()
	b, err := s.CreateBusiness(context.Background(), CreateBusinessParams{
		UserID:   owner,
		Name:     "Toko Bunga Mawar",
		Username: "admin",
		Password: "rahasia",
	})
	require.NoError(t, err)
	return b
}

func TestCreateBusiness(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	b := newShop(t, s)

	assert.Equal(t, "toko bunga mawar", b.Name)
	assert.NotEqual(t, "rahasia", b.PasswordHash)

	_, err := s.CreateBusiness(ctx, CreateBusinessParams{UserID: owner, Name: "TOKO BUNGA MAWAR", Username: "x", Password: "y"})
	assert.ErrorIs(t, err, ErrBusinessAlreadyExists)

	// another owner may reuse the name
	_, err = s.CreateBusiness(ctx, CreateBusinessParams{UserID: "other@c.us", Name: "Toko Bunga Mawar", Username: "x", Password: "y"})
	require.NoError(t, err)

	list, err := s.ListBusinesses(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := s.GetBusinessByName(ctx, owner, " toko bunga mawar")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = s.GetBusinessByName(ctx, owner, "toko roti")
	assert.ErrorIs(t, err, ErrBusinessNotFound)
}

func TestVerifyCredentialsAndSession(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	b := newShop(t, s)

	got, err := s.VerifyCredentials(ctx, "Toko Bunga Mawar", "admin", "rahasia")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = s.VerifyCredentials(ctx, "Toko Bunga Mawar", "admin", "salah")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.VerifyCredentials(ctx, "Toko Lain", "admin", "rahasia")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// a member logs in from a different chat handle
	member := "6282222222222@c.us"
	_, err = s.ActiveSession(ctx, member)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	require.NoError(t, s.StartSession(ctx, member, got.ID))
	sess, err := s.ActiveSession(ctx, member)
	require.NoError(t, err)
	assert.Equal(t, b.ID, sess.BusinessID)
	assert.Equal(t, "toko bunga mawar", sess.Business.Name)

	// starting again replaces the session
	require.NoError(t, s.StartSession(ctx, member, got.ID))

	require.NoError(t, s.EndSession(ctx, member))
	_, err = s.ActiveSession(ctx, member)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestMaterials(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	b := newShop(t, s)

	pack := dec("25000")
	per := 50
	m, err := s.AddMaterial(ctx, b.ID, MaterialParams{Name: "Kertas Cellophane", UnitPrice: dec("500"), PackPrice: &pack, PerPack: &per})
	require.NoError(t, err)
	assert.Equal(t, "kertas cellophane", m.Name)

	_, err = s.AddMaterial(ctx, b.ID, MaterialParams{Name: "kertas cellophane", UnitPrice: dec("600")})
	assert.ErrorIs(t, err, ErrMaterialAlreadyExists)
	_, err = s.AddMaterial(ctx, b.ID, MaterialParams{Name: "lem", UnitPrice: dec("-1")})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = s.AddMaterial(ctx, b.ID, MaterialParams{Name: "pita satin", UnitPrice: dec("1000")})
	require.NoError(t, err)

	list, err := s.ListMaterials(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "kertas cellophane", list[0].Name)
	assert.True(t, list[0].PackPrice.Valid)
	assert.Equal(t, 50, *list[0].PerPack)
	assert.False(t, list[1].PackPrice.Valid)

	found, err := s.FindMaterial(ctx, b.ID, "pita warna merah")
	require.NoError(t, err)
	assert.Equal(t, "pita satin", found.Name)
	_, err = s.FindMaterial(ctx, b.ID, "kawat")
	assert.ErrorIs(t, err, ErrMaterialNotFound)

	_, err = s.UpdateMaterial(ctx, b.ID, "pita satin", MaterialUpdate{})
	assert.ErrorIs(t, err, ErrNoUpdates)
	price := dec("1200")
	upd, err := s.UpdateMaterial(ctx, b.ID, "Pita Satin", MaterialUpdate{UnitPrice: &price})
	require.NoError(t, err)
	assert.True(t, upd.UnitPrice.Equal(price))
	got, err := s.GetMaterial(ctx, b.ID, "pita satin")
	require.NoError(t, err)
	assert.True(t, got.UnitPrice.Equal(price))

	require.NoError(t, s.DeleteMaterial(ctx, b.ID, "pita satin"))
	assert.ErrorIs(t, s.DeleteMaterial(ctx, b.ID, "pita satin"), ErrMaterialNotFound)

	n, err := s.DeleteAllMaterials(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCalculateCost(t *testing.T) {
	cost := CalculateCost([]MaterialUsage{
		{Name: "kertas", UnitPrice: dec("500"), Quantity: dec("3")},
		{Name: "pita", UnitPrice: dec("1000"), Quantity: dec("1.5")},
		{Name: "bonus", Quantity: dec("2")},
	})
	assert.True(t, cost.Equal(dec("3000")), cost.String())
	assert.True(t, CalculateCost(nil).IsZero())
}

func TestResolveUsages(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	b := newShop(t, s)
	_, err := s.AddMaterial(ctx, b.ID, MaterialParams{Name: "kertas cellophane", UnitPrice: dec("500")})
	require.NoError(t, err)

	out, err := s.ResolveUsages(ctx, b.ID, []MaterialUsage{{Name: "cellophane", Quantity: dec("4")}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "kertas cellophane", out[0].Name)
	assert.True(t, CalculateCost(out).Equal(dec("2000")))

	_, err = s.ResolveUsages(ctx, b.ID, []MaterialUsage{{Name: "kawat", Quantity: dec("1")}})
	assert.ErrorIs(t, err, ErrMaterialNotFound)
}

func TestPriceTiersAndSuggestion(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	b := newShop(t, s)

	// no tiers: default list
	p, err := s.SuggestSellingPrice(ctx, b.ID, dec("4000"))
	require.NoError(t, err)
	assert.True(t, p.Equal(dec("6000")), p.String()) // 5200 -> 6000
	p, err = s.SuggestSellingPrice(ctx, b.ID, dec("20000"))
	require.NoError(t, err)
	assert.True(t, p.Equal(dec("26000")), p.String())

	for _, v := range []string{"25000", "10000", "15000"} {
		_, err := s.AddPriceTier(ctx, b.ID, dec(v))
		require.NoError(t, err)
	}
	_, err = s.AddPriceTier(ctx, b.ID, dec("15000"))
	assert.ErrorIs(t, err, ErrPriceAlreadyExists)

	tiers, err := s.ListPriceTiers(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, tiers, 3)
	assert.True(t, tiers[0].Price.Equal(dec("10000")))
	assert.True(t, tiers[2].Price.Equal(dec("25000")))

	p, err = s.SuggestSellingPrice(ctx, b.ID, dec("8000")) // 10400
	require.NoError(t, err)
	assert.True(t, p.Equal(dec("15000")), p.String())
	p, err = s.SuggestSellingPrice(ctx, b.ID, dec("19500")) // 25350 beyond all tiers
	require.NoError(t, err)
	assert.True(t, p.Equal(dec("26000")), p.String())

	require.NoError(t, s.DeletePriceTier(ctx, b.ID, tiers[0].ID))
	assert.ErrorIs(t, s.DeletePriceTier(ctx, b.ID, tiers[0].ID), ErrPriceTierNotFound)
	n, err := s.DeleteAllPriceTiers(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestCatalogs(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	b := newShop(t, s)

	img := filepath.Join(t.TempDir(), "buket.jpg")
	require.NoError(t, os.WriteFile(img, []byte("jpeg"), 0o644))

	cost := dec("9000")
	c, err := s.AddCatalog(ctx, b.ID, CatalogParams{
		Name:           "Buket Mawar Merah",
		Price:          dec("15000"),
		ImagePath:      img,
		ProductionCost: &cost,
		ProductionMaterials: []MaterialUsage{
			{Name: "mawar", UnitPrice: dec("3000"), Quantity: dec("3")},
		},
	})
	require.NoError(t, err)
	_, err = s.AddCatalog(ctx, b.ID, CatalogParams{Name: "Buket Snack", Price: dec("15000")})
	require.NoError(t, err)
	_, err = s.AddCatalog(ctx, b.ID, CatalogParams{Name: "Buket Uang", Price: dec("50000")})
	require.NoError(t, err)

	got, err := s.GetCatalog(ctx, b.ID, c.ID)
	require.NoError(t, err)
	usages := Usages(*got)
	require.Len(t, usages, 1)
	assert.True(t, CalculateCost(usages).Equal(cost))

	byPrice, err := s.CatalogsByPrice(ctx, b.ID, dec("15000"))
	require.NoError(t, err)
	assert.Len(t, byPrice, 2)

	found, err := s.FindCatalog(ctx, b.ID, "buket mawar merah")
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)
	found, err = s.FindCatalog(ctx, b.ID, "snack coklat")
	require.NoError(t, err)
	assert.Equal(t, "Buket Snack", found.Name)
	_, err = s.FindCatalog(ctx, b.ID, "kue")
	assert.ErrorIs(t, err, ErrCatalogNotFound)

	_, err = s.UpdateCatalog(ctx, b.ID, c.ID, CatalogUpdate{})
	assert.ErrorIs(t, err, ErrNoUpdates)
	np := dec("17000")
	upd, err := s.UpdateCatalog(ctx, b.ID, c.ID, CatalogUpdate{Price: &np})
	require.NoError(t, err)
	assert.True(t, upd.Price.Equal(np))

	require.NoError(t, s.DeleteCatalog(ctx, b.ID, c.ID))
	_, err = os.Stat(img)
	assert.True(t, os.IsNotExist(err), "image removed with its catalog")
	assert.ErrorIs(t, s.DeleteCatalog(ctx, b.ID, c.ID), ErrCatalogNotFound)

	n, err := s.DeleteAllCatalogs(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestEmptyBouquets(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	b := newShop(t, s)

	_, err := s.AddEmptyBouquet(ctx, b.ID, "m", dec("8000"))
	require.NoError(t, err)
	_, err = s.AddEmptyBouquet(ctx, b.ID, "M ", dec("9000"))
	assert.ErrorIs(t, err, ErrEmptyBouquetAlreadyExists)
	_, err = s.AddEmptyBouquet(ctx, b.ID, "XL", dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidPrice)

	eb, err := s.UpdateEmptyBouquet(ctx, b.ID, "M", dec("8500"))
	require.NoError(t, err)
	assert.True(t, eb.Price.Equal(dec("8500")))

	got, err := s.GetEmptyBouquet(ctx, b.ID, "m")
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(dec("8500")))

	list, err := s.ListEmptyBouquets(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteEmptyBouquet(ctx, b.ID, "M"))
	assert.ErrorIs(t, s.DeleteEmptyBouquet(ctx, b.ID, "M"), ErrEmptyBouquetNotFound)
}

func TestBooksAndStats(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	b := newShop(t, s)

	_, err := s.AddMaterial(ctx, b.ID, MaterialParams{Name: "kertas", UnitPrice: dec("500")})
	require.NoError(t, err)
	_, err = s.AddCatalog(ctx, b.ID, CatalogParams{Name: "Buket", Price: dec("15000")})
	require.NoError(t, err)

	e1, err := s.AddExpense(ctx, b.ID, "beli kertas", dec("50000"))
	require.NoError(t, err)
	_, err = s.AddExpense(ctx, b.ID, "beli pita", dec("20000"))
	require.NoError(t, err)
	_, err = s.AddExpense(ctx, b.ID, "gratis", dec("0"))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = s.AddIncome(ctx, b.ID, "jual buket", dec("150000"))
	require.NoError(t, err)

	require.NoError(t, s.MarkExpenseRecorded(ctx, b.ID, e1.ID))
	assert.ErrorIs(t, s.MarkExpenseRecorded(ctx, b.ID, 9999), ErrExpenseNotFound)

	pending, err := s.ListExpenses(ctx, b.ID, false)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "beli pita", pending[0].Description)

	st, err := s.Stats(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, st.TotalIncome.Equal(dec("150000")))
	assert.True(t, st.TotalExpense.Equal(dec("70000")))
	assert.True(t, st.Profit.Equal(dec("80000")))
	assert.Equal(t, 1, st.MaterialsCount)
	assert.Equal(t, 1, st.CatalogsCount)
	assert.Equal(t, 1, st.UnrecordedExpensesCount)
}
