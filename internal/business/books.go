package business

import (
	"context"
	"fmt"

	"kantong/internal/models"
	"kantong/internal/util"

	"github.com/shopspring/decimal"
)

// AddExpense records a business expense, initially not yet recorded in the
// owner's personal ledger.
func (s *Service) AddExpense(ctx context.Context, businessID uint, description string, amount decimal.Decimal) (*models.BusinessExpense, error) {
	if err := util.ValidateAmount(amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	e := &models.BusinessExpense{BusinessID: businessID, Description: description, Amount: amount}
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, fmt.Errorf("create business expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns expenses newest first; includeRecorded=false keeps
// only the ones not yet marked recorded.
func (s *Service) ListExpenses(ctx context.Context, businessID uint, includeRecorded bool) ([]models.BusinessExpense, error) {
	q := s.db.WithContext(ctx).Where("business_id = ?", businessID)
	if !includeRecorded {
		q = q.Where("is_recorded = ?", false)
	}
	var out []models.BusinessExpense
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list business expenses: %w", err)
	}
	return out, nil
}

func (s *Service) MarkExpenseRecorded(ctx context.Context, businessID, expenseID uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.BusinessExpense{}).
		Where("business_id = ? AND id = ?", businessID, expenseID).
		Update("is_recorded", true)
	if res.Error != nil {
		return fmt.Errorf("mark expense recorded: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func (s *Service) AddIncome(ctx context.Context, businessID uint, description string, amount decimal.Decimal) (*models.BusinessIncome, error) {
	if err := util.ValidateAmount(amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	in := &models.BusinessIncome{BusinessID: businessID, Description: description, Amount: amount}
	if err := s.db.WithContext(ctx).Create(in).Error; err != nil {
		return nil, fmt.Errorf("create business income: %w", err)
	}
	return in, nil
}

// ListIncomes returns incomes newest first.
func (s *Service) ListIncomes(ctx context.Context, businessID uint) ([]models.BusinessIncome, error) {
	var out []models.BusinessIncome
	if err := s.db.WithContext(ctx).Where("business_id = ?", businessID).Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list business incomes: %w", err)
	}
	return out, nil
}
