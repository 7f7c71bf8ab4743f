package business

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"kantong/internal/models"
	"kantong/internal/util"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CatalogParams struct {
	Name                string
	Price               decimal.Decimal
	ImagePath           string
	ProductionCost      *decimal.Decimal
	ProductionMaterials []MaterialUsage
}

// CatalogUpdate is a partial patch; nil fields are left alone.
type CatalogUpdate struct {
	Name                *string
	Price               *decimal.Decimal
	ImagePath           *string
	ProductionCost      *decimal.Decimal
	ProductionMaterials *[]MaterialUsage
}

func (u CatalogUpdate) empty() bool {
	return u.Name == nil && u.Price == nil && u.ImagePath == nil &&
		u.ProductionCost == nil && u.ProductionMaterials == nil
}

func encodeUsages(usages []MaterialUsage) (string, error) {
	if len(usages) == 0 {
		return "", nil
	}
	b, err := json.Marshal(usages)
	if err != nil {
		return "", fmt.Errorf("encode production materials: %w", err)
	}
	return string(b), nil
}

// Usages decodes a catalog's production materials; bad JSON yields nil.
func Usages(c models.Catalog) []MaterialUsage {
	if c.ProductionMaterials == "" {
		return nil
	}
	var out []MaterialUsage
	if err := json.Unmarshal([]byte(c.ProductionMaterials), &out); err != nil {
		return nil
	}
	return out
}

func (s *Service) AddCatalog(ctx context.Context, businessID uint, p CatalogParams) (*models.Catalog, error) {
	name := strings.TrimSpace(p.Name)
	if err := util.ValidateName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	if err := util.ValidatePrice(p.Price); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	mats, err := encodeUsages(p.ProductionMaterials)
	if err != nil {
		return nil, err
	}

	c := &models.Catalog{
		BusinessID:          businessID,
		Name:                name,
		Price:               p.Price,
		ImagePath:           p.ImagePath,
		ProductionMaterials: mats,
	}
	if p.ProductionCost != nil {
		c.ProductionCost = decimal.NewNullDecimal(*p.ProductionCost)
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("create catalog: %w", err)
	}
	return c, nil
}

// ListCatalogs returns catalog items, newest first.
func (s *Service) ListCatalogs(ctx context.Context, businessID uint) ([]models.Catalog, error) {
	var out []models.Catalog
	if err := s.db.WithContext(ctx).Where("business_id = ?", businessID).Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	return out, nil
}

// CatalogsByPrice returns the items sold at exactly price.
func (s *Service) CatalogsByPrice(ctx context.Context, businessID uint, price decimal.Decimal) ([]models.Catalog, error) {
	all, err := s.ListCatalogs(ctx, businessID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Catalog, 0)
	for _, c := range all {
		if c.Price.Equal(price) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) GetCatalog(ctx context.Context, businessID, id uint) (*models.Catalog, error) {
	var c models.Catalog
	err := s.db.WithContext(ctx).Where("business_id = ? AND id = ?", businessID, id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCatalogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog: %w", err)
	}
	return &c, nil
}

// FindCatalog matches a name case-insensitively, then by word overlap.
func (s *Service) FindCatalog(ctx context.Context, businessID uint, query string) (*models.Catalog, error) {
	var all []models.Catalog
	if err := s.db.WithContext(ctx).Where("business_id = ?", businessID).Order("id").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	q := util.NormalizeName(query)
	for i := range all {
		if util.NormalizeName(all[i].Name) == q {
			return &all[i], nil
		}
	}
	best, ok := BestMatch(query, all, func(c models.Catalog) string { return c.Name })
	if !ok {
		return nil, ErrCatalogNotFound
	}
	return &best, nil
}

func (s *Service) UpdateCatalog(ctx context.Context, businessID, id uint, upd CatalogUpdate) (*models.Catalog, error) {
	if upd.empty() {
		return nil, ErrNoUpdates
	}
	c, err := s.GetCatalog(ctx, businessID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := util.ValidateName(name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidName, err)
		}
		fields["name"] = name
		c.Name = name
	}
	if upd.Price != nil {
		if err := util.ValidatePrice(*upd.Price); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
		}
		fields["price"] = *upd.Price
		c.Price = *upd.Price
	}
	if upd.ImagePath != nil {
		fields["image_path"] = *upd.ImagePath
		c.ImagePath = *upd.ImagePath
	}
	if upd.ProductionCost != nil {
		c.ProductionCost = decimal.NewNullDecimal(*upd.ProductionCost)
		fields["production_cost"] = c.ProductionCost
	}
	if upd.ProductionMaterials != nil {
		mats, err := encodeUsages(*upd.ProductionMaterials)
		if err != nil {
			return nil, err
		}
		fields["production_materials"] = mats
		c.ProductionMaterials = mats
	}
	if err := s.db.WithContext(ctx).Model(c).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("update catalog: %w", err)
	}
	return c, nil
}

// DeleteCatalog removes the item and its image file.
func (s *Service) DeleteCatalog(ctx context.Context, businessID, id uint) error {
	c, err := s.GetCatalog(ctx, businessID, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(c).Error; err != nil {
		return fmt.Errorf("delete catalog: %w", err)
	}
	removeImage(c.ImagePath)
	return nil
}

func (s *Service) DeleteAllCatalogs(ctx context.Context, businessID uint) (int64, error) {
	var all []models.Catalog
	if err := s.db.WithContext(ctx).Where("business_id = ?", businessID).Find(&all).Error; err != nil {
		return 0, fmt.Errorf("list catalogs: %w", err)
	}
	res := s.db.WithContext(ctx).Where("business_id = ?", businessID).Delete(&models.Catalog{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete catalogs: %w", res.Error)
	}
	for _, c := range all {
		removeImage(c.ImagePath)
	}
	return res.RowsAffected, nil
}

func removeImage(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[business] remove image %s: %v", path, err)
	}
}
