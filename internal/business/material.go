package business

import (
	"context"
	"errors"
	"fmt"

	"kantong/internal/models"
	"kantong/internal/util"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaterialParams describes a material. PackPrice and PerPack are optional.
type MaterialParams struct {
	Name      string
	UnitPrice decimal.Decimal
	PackPrice *decimal.Decimal
	PerPack   *int
}

// MaterialUpdate is a partial patch; nil fields are left alone.
type MaterialUpdate struct {
	UnitPrice *decimal.Decimal
	PackPrice *decimal.Decimal
	PerPack   *int
}

// MaterialUsage is one line of a cost calculation.
type MaterialUsage struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func (s *Service) AddMaterial(ctx context.Context, businessID uint, p MaterialParams) (*models.Material, error) {
	name, err := cleanName(p.Name)
	if err != nil {
		return nil, err
	}
	if err := util.ValidatePrice(p.UnitPrice); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	m := &models.Material{BusinessID: businessID, Name: name, UnitPrice: p.UnitPrice, PerPack: p.PerPack}
	if p.PackPrice != nil {
		if err := util.ValidatePrice(*p.PackPrice); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
		}
		m.PackPrice = decimal.NewNullDecimal(*p.PackPrice)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Material{}).Where("business_id = ? AND name = ?", businessID, name).Count(&n).Error; err != nil {
			return fmt.Errorf("check material: %w", err)
		}
		if n > 0 {
			return ErrMaterialAlreadyExists
		}
		if err := tx.Create(m).Error; err != nil {
			return fmt.Errorf("create material: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMaterials returns materials ordered by name.
func (s *Service) ListMaterials(ctx context.Context, businessID uint) ([]models.Material, error) {
	var out []models.Material
	if err := s.db.WithContext(ctx).Where("business_id = ?", businessID).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return out, nil
}

func (s *Service) GetMaterial(ctx context.Context, businessID uint, name string) (*models.Material, error) {
	n, err := cleanName(name)
	if err != nil {
		return nil, ErrMaterialNotFound
	}
	var m models.Material
	err = s.db.WithContext(ctx).Where("business_id = ? AND name = ?", businessID, n).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMaterialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get material: %w", err)
	}
	return &m, nil
}

// FindMaterial resolves free text to a material: exact name first, then the
// best word-overlap match.
func (s *Service) FindMaterial(ctx context.Context, businessID uint, query string) (*models.Material, error) {
	m, err := s.GetMaterial(ctx, businessID, query)
	if !errors.Is(err, ErrMaterialNotFound) {
		return m, err
	}
	var all []models.Material
	if err := s.db.WithContext(ctx).Where("business_id = ?", businessID).Order("id").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	best, ok := BestMatch(query, all, func(m models.Material) string { return m.Name })
	if !ok {
		return nil, ErrMaterialNotFound
	}
	return &best, nil
}

func (s *Service) UpdateMaterial(ctx context.Context, businessID uint, name string, upd MaterialUpdate) (*models.Material, error) {
	if upd.UnitPrice == nil && upd.PackPrice == nil && upd.PerPack == nil {
		return nil, ErrNoUpdates
	}
	m, err := s.GetMaterial(ctx, businessID, name)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if upd.UnitPrice != nil {
		if err := util.ValidatePrice(*upd.UnitPrice); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
		}
		fields["unit_price"] = *upd.UnitPrice
		m.UnitPrice = *upd.UnitPrice
	}
	if upd.PackPrice != nil {
		if err := util.ValidatePrice(*upd.PackPrice); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
		}
		m.PackPrice = decimal.NewNullDecimal(*upd.PackPrice)
		fields["pack_price"] = m.PackPrice
	}
	if upd.PerPack != nil {
		fields["per_pack"] = *upd.PerPack
		m.PerPack = upd.PerPack
	}
	if err := s.db.WithContext(ctx).Model(m).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("update material: %w", err)
	}
	return m, nil
}

func (s *Service) DeleteMaterial(ctx context.Context, businessID uint, name string) error {
	n, err := cleanName(name)
	if err != nil {
		return ErrMaterialNotFound
	}
	res := s.db.WithContext(ctx).Where("business_id = ? AND name = ?", businessID, n).Delete(&models.Material{})
	if res.Error != nil {
		return fmt.Errorf("delete material: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMaterialNotFound
	}
	return nil
}

// DeleteAllMaterials returns the number of rows removed.
func (s *Service) DeleteAllMaterials(ctx context.Context, businessID uint) (int64, error) {
	res := s.db.WithContext(ctx).Where("business_id = ?", businessID).Delete(&models.Material{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete materials: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CalculateCost sums unit price times quantity.
func CalculateCost(usages []MaterialUsage) decimal.Decimal {
	total := decimal.Zero
	for _, u := range usages {
		total = total.Add(u.UnitPrice.Mul(u.Quantity))
	}
	return total
}

// ResolveUsages fills in unit prices from the business's materials. Names
// are matched exactly, then by word overlap.
func (s *Service) ResolveUsages(ctx context.Context, businessID uint, usages []MaterialUsage) ([]MaterialUsage, error) {
	out := make([]MaterialUsage, 0, len(usages))
	for _, u := range usages {
		if u.UnitPrice.IsZero() {
			m, err := s.FindMaterial(ctx, businessID, u.Name)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", err, u.Name)
			}
			u.Name = m.Name
			u.UnitPrice = m.UnitPrice
		}
		out = append(out, u)
	}
	return out, nil
}
