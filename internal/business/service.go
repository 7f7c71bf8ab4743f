// Package business manages small-shop bookkeeping scoped by business:
// logins, materials and their cost, price tiers, catalog items, the empty
// bouquet price sheet, and simple income and expense records.
package business

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kantong/internal/models"
	"kantong/internal/util"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// CreateBusinessParams holds the fields of a new business.
type CreateBusinessParams struct {
	UserID      string
	Name        string
	Username    string
	Password    string
	Description string
}

// Stats summarizes a business's books.
type Stats struct {
	TotalIncome             decimal.Decimal
	TotalExpense            decimal.Decimal
	Profit                  decimal.Decimal
	MaterialsCount          int
	CatalogsCount           int
	UnrecordedExpensesCount int
}

func cleanName(name string) (string, error) {
	n := util.NormalizeName(name)
	if err := util.ValidateName(n); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	return n, nil
}

// ---------- businesses ----------

// CreateBusiness registers a business for the user; the password is stored
// as a bcrypt hash.
func (s *Service) CreateBusiness(ctx context.Context, p CreateBusinessParams) (*models.Business, error) {
	name, err := cleanName(p.Name)
	if err != nil {
		return nil, err
	}
	if p.Username == "" {
		return nil, fmt.Errorf("%w: username is empty", ErrInvalidName)
	}
	hash, err := util.HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	b := &models.Business{
		UserID:       p.UserID,
		Name:         name,
		Username:     p.Username,
		PasswordHash: hash,
		Description:  p.Description,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Business{}).Where("user_id = ? AND name = ?", p.UserID, name).Count(&n).Error; err != nil {
			return fmt.Errorf("check business: %w", err)
		}
		if n > 0 {
			return ErrBusinessAlreadyExists
		}
		if err := tx.Create(b).Error; err != nil {
			return fmt.Errorf("create business: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListBusinesses returns the user's businesses, newest first.
func (s *Service) ListBusinesses(ctx context.Context, userID string) ([]models.Business, error) {
	var out []models.Business
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	return out, nil
}

func (s *Service) GetBusinessByName(ctx context.Context, userID, name string) (*models.Business, error) {
	n, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	var b models.Business
	err = s.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, n).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBusinessNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get business: %w", err)
	}
	return &b, nil
}

func (s *Service) GetBusiness(ctx context.Context, id uint) (*models.Business, error) {
	var b models.Business
	err := s.db.WithContext(ctx).First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBusinessNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get business: %w", err)
	}
	return &b, nil
}

// VerifyCredentials looks the business up by name across all owners, so a
// member who knows the login can operate someone else's shop.
func (s *Service) VerifyCredentials(ctx context.Context, name, username, password string) (*models.Business, error) {
	n, err := cleanName(name)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	var candidates []models.Business
	err = s.db.WithContext(ctx).
		Where("name = ? AND username = ?", n, username).
		Order("id").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	for i := range candidates {
		if util.CheckPassword(password, candidates[i].PasswordHash) {
			return &candidates[i], nil
		}
	}
	return nil, ErrInvalidCredentials
}

// ---------- sessions ----------

// StartSession makes businessID the user's active business, replacing any
// previous one.
func (s *Service) StartSession(ctx context.Context, userID string, businessID uint) error {
	sess := models.BusinessSession{UserID: userID, BusinessID: businessID, StartedAt: s.now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"business_id", "started_at"}),
	}).Omit("Business").Create(&sess).Error
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

func (s *Service) EndSession(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.BusinessSession{}).Error; err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// ActiveSession returns ErrNoActiveSession when the user is not logged in
// to any business.
func (s *Service) ActiveSession(ctx context.Context, userID string) (*models.BusinessSession, error) {
	var sess models.BusinessSession
	err := s.db.WithContext(ctx).Preload("Business").Where("user_id = ?", userID).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, fmt.Errorf("active session: %w", err)
	}
	return &sess, nil
}

// ---------- stats ----------

func (s *Service) Stats(ctx context.Context, businessID uint) (*Stats, error) {
	incomes, err := s.ListIncomes(ctx, businessID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.ListExpenses(ctx, businessID, true)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var materials, catalogs int64
	if err := db.Model(&models.Material{}).Where("business_id = ?", businessID).Count(&materials).Error; err != nil {
		return nil, fmt.Errorf("count materials: %w", err)
	}
	if err := db.Model(&models.Catalog{}).Where("business_id = ?", businessID).Count(&catalogs).Error; err != nil {
		return nil, fmt.Errorf("count catalogs: %w", err)
	}

	st := &Stats{
		TotalIncome:    decimal.Zero,
		TotalExpense:   decimal.Zero,
		MaterialsCount: int(materials),
		CatalogsCount:  int(catalogs),
	}
	for _, in := range incomes {
		st.TotalIncome = st.TotalIncome.Add(in.Amount)
	}
	for _, ex := range expenses {
		st.TotalExpense = st.TotalExpense.Add(ex.Amount)
		if !ex.IsRecorded {
			st.UnrecordedExpensesCount++
		}
	}
	st.Profit = st.TotalIncome.Sub(st.TotalExpense)
	return st, nil
}
