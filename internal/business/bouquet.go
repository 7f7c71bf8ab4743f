package business

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kantong/internal/models"
	"kantong/internal/util"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func cleanSize(size string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(size))
	if s == "" || len(s) > 32 {
		return "", fmt.Errorf("%w: size %q", ErrInvalidName, size)
	}
	return s, nil
}

// AddEmptyBouquet adds a size to the bare-bouquet price sheet. Sizes are
// stored upper-cased ("S", "M", "XL").
func (s *Service) AddEmptyBouquet(ctx context.Context, businessID uint, size string, price decimal.Decimal) (*models.EmptyBouquet, error) {
	sz, err := cleanSize(size)
	if err != nil {
		return nil, err
	}
	if err := util.ValidatePrice(price); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}

	eb := &models.EmptyBouquet{BusinessID: businessID, Size: sz, Price: price}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.EmptyBouquet{}).Where("business_id = ? AND size = ?", businessID, sz).Count(&n).Error; err != nil {
			return fmt.Errorf("check empty bouquet: %w", err)
		}
		if n > 0 {
			return ErrEmptyBouquetAlreadyExists
		}
		if err := tx.Create(eb).Error; err != nil {
			return fmt.Errorf("create empty bouquet: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return eb, nil
}

// ListEmptyBouquets returns the price sheet, newest first.
func (s *Service) ListEmptyBouquets(ctx context.Context, businessID uint) ([]models.EmptyBouquet, error) {
	var out []models.EmptyBouquet
	if err := s.db.WithContext(ctx).Where("business_id = ?", businessID).Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list empty bouquets: %w", err)
	}
	return out, nil
}

func (s *Service) GetEmptyBouquet(ctx context.Context, businessID uint, size string) (*models.EmptyBouquet, error) {
	sz, err := cleanSize(size)
	if err != nil {
		return nil, ErrEmptyBouquetNotFound
	}
	var eb models.EmptyBouquet
	err = s.db.WithContext(ctx).Where("business_id = ? AND size = ?", businessID, sz).First(&eb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEmptyBouquetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get empty bouquet: %w", err)
	}
	return &eb, nil
}

// UpdateEmptyBouquet changes the price of a size.
func (s *Service) UpdateEmptyBouquet(ctx context.Context, businessID uint, size string, price decimal.Decimal) (*models.EmptyBouquet, error) {
	if err := util.ValidatePrice(price); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	eb, err := s.GetEmptyBouquet(ctx, businessID, size)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(eb).Update("price", price).Error; err != nil {
		return nil, fmt.Errorf("update empty bouquet: %w", err)
	}
	eb.Price = price
	return eb, nil
}

func (s *Service) DeleteEmptyBouquet(ctx context.Context, businessID uint, size string) error {
	eb, err := s.GetEmptyBouquet(ctx, businessID, size)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(eb).Error; err != nil {
		return fmt.Errorf("delete empty bouquet: %w", err)
	}
	return nil
}
