package business

import (
	"context"
	"fmt"

	"kantong/internal/models"
	"kantong/internal/util"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// minMargin is the markup a suggested price must cover.
	minMargin = decimal.RequireFromString("1.3")
	roundTo   = decimal.NewFromInt(1000)

	defaultTiers = []int64{1000, 5000, 6000, 8000, 10000, 12000, 15000, 20000}
)

func (s *Service) AddPriceTier(ctx context.Context, businessID uint, price decimal.Decimal) (*models.PriceTier, error) {
	if err := util.ValidatePrice(price); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	pt := &models.PriceTier{BusinessID: businessID, Price: price}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tiers, err := listTiers(tx, businessID)
		if err != nil {
			return err
		}
		for _, t := range tiers {
			if t.Price.Equal(price) {
				return ErrPriceAlreadyExists
			}
		}
		if err := tx.Create(pt).Error; err != nil {
			return fmt.Errorf("create price tier: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pt, nil
}

func listTiers(tx *gorm.DB, businessID uint) ([]models.PriceTier, error) {
	var out []models.PriceTier
	if err := tx.Where("business_id = ?", businessID).Order("price ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list price tiers: %w", err)
	}
	return out, nil
}

// ListPriceTiers returns tiers cheapest first.
func (s *Service) ListPriceTiers(ctx context.Context, businessID uint) ([]models.PriceTier, error) {
	return listTiers(s.db.WithContext(ctx), businessID)
}

func (s *Service) DeletePriceTier(ctx context.Context, businessID, tierID uint) error {
	res := s.db.WithContext(ctx).Where("business_id = ? AND id = ?", businessID, tierID).Delete(&models.PriceTier{})
	if res.Error != nil {
		return fmt.Errorf("delete price tier: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPriceTierNotFound
	}
	return nil
}

func (s *Service) DeleteAllPriceTiers(ctx context.Context, businessID uint) (int64, error) {
	res := s.db.WithContext(ctx).Where("business_id = ?", businessID).Delete(&models.PriceTier{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete price tiers: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SuggestSellingPrice picks the cheapest tier that keeps a 30% margin over
// cost. A business without tiers uses the default tier list. When no tier
// is high enough the minimum price is rounded up to the next thousand.
func (s *Service) SuggestSellingPrice(ctx context.Context, businessID uint, cost decimal.Decimal) (decimal.Decimal, error) {
	tiers, err := s.ListPriceTiers(ctx, businessID)
	if err != nil {
		return decimal.Zero, err
	}
	prices := make([]decimal.Decimal, 0, len(defaultTiers))
	if len(tiers) == 0 {
		for _, p := range defaultTiers {
			prices = append(prices, decimal.NewFromInt(p))
		}
	} else {
		for _, t := range tiers {
			prices = append(prices, t.Price)
		}
	}
	return suggestPrice(cost, prices), nil
}

// suggestPrice expects prices in ascending order.
func suggestPrice(cost decimal.Decimal, prices []decimal.Decimal) decimal.Decimal {
	minPrice := cost.Mul(minMargin)
	for _, p := range prices {
		if p.GreaterThanOrEqual(minPrice) {
			return p
		}
	}
	return minPrice.Div(roundTo).Ceil().Mul(roundTo)
}
