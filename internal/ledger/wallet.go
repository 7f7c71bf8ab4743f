package ledger

import (
	"context"
	"errors"
	"fmt"

	"kantong/internal/models"
	"kantong/internal/util"

	"gorm.io/gorm"
)

// WalletUpdate is a partial wallet patch; nil fields are left alone.
type WalletUpdate struct {
	Type           *models.WalletType
	IncludeInTotal *bool
}

func (u WalletUpdate) empty() bool {
	return u.Type == nil && u.IncludeInTotal == nil
}

func normalize(name string) (string, error) {
	n := util.NormalizeName(name)
	if err := util.ValidateName(n); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidWalletName, err)
	}
	return n, nil
}

// findWallet returns gorm.ErrRecordNotFound when the wallet is absent.
func findWallet(tx *gorm.DB, userID, name string) (*models.Wallet, error) {
	var w models.Wallet
	if err := tx.Where("user_id = ? AND name = ?", userID, name).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// GetOrCreateWallet returns the named wallet, creating an empty regular one
// included in the total if it does not exist yet.
func (s *Service) GetOrCreateWallet(ctx context.Context, userID, name string) (*models.Wallet, error) {
	n, err := normalize(name)
	if err != nil {
		return nil, err
	}

	var out *models.Wallet
	err = s.write(ctx, func(tx *gorm.DB) error {
		w, err := findWallet(tx, userID, n)
		if err == nil {
			out = w
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find wallet: %w", err)
		}
		w = &models.Wallet{UserID: userID, Name: n, Type: models.WalletRegular, IncludeInTotal: true}
		if err := tx.Create(w).Error; err != nil {
			return fmt.Errorf("create wallet: %w", err)
		}
		out = w
		return nil
	})
	return out, err
}

// CreateWallet creates a new empty wallet. It fails with ErrAlreadyExists
// when the normalized name is taken and leaves the existing wallet alone.
func (s *Service) CreateWallet(ctx context.Context, userID, name string, typ models.WalletType, includeInTotal bool) (*models.Wallet, error) {
	n, err := normalize(name)
	if err != nil {
		return nil, err
	}
	if typ == "" {
		typ = models.WalletRegular
	}
	if !typ.Valid() {
		return nil, ErrInvalidWalletType
	}

	w := &models.Wallet{UserID: userID, Name: n, Type: typ, IncludeInTotal: includeInTotal}
	err = s.write(ctx, func(tx *gorm.DB) error {
		_, err := findWallet(tx, userID, n)
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find wallet: %w", err)
		}
		if err := tx.Create(w).Error; err != nil {
			return fmt.Errorf("create wallet: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// UpdateWallet applies a partial patch to type and include-in-total.
func (s *Service) UpdateWallet(ctx context.Context, userID, name string, upd WalletUpdate) (*models.Wallet, error) {
	n, err := normalize(name)
	if err != nil {
		return nil, err
	}
	if upd.Type != nil && !upd.Type.Valid() {
		return nil, ErrInvalidWalletType
	}

	var out *models.Wallet
	err = s.write(ctx, func(tx *gorm.DB) error {
		w, err := findWallet(tx, userID, n)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("find wallet: %w", err)
		}
		if upd.empty() {
			return ErrNoUpdates
		}

		fields := map[string]interface{}{}
		if upd.Type != nil {
			fields["type"] = *upd.Type
			w.Type = *upd.Type
		}
		if upd.IncludeInTotal != nil {
			fields["include_in_total"] = *upd.IncludeInTotal
			w.IncludeInTotal = *upd.IncludeInTotal
		}
		if err := tx.Model(w).Updates(fields).Error; err != nil {
			return fmt.Errorf("update wallet: %w", err)
		}
		out = w
		return nil
	})
	return out, err
}

// DeleteWallet removes a wallet whose balance is exactly zero. Transactions
// that reference the wallet name are kept.
func (s *Service) DeleteWallet(ctx context.Context, userID, name string) error {
	n, err := normalize(name)
	if err != nil {
		return err
	}
	return s.write(ctx, func(tx *gorm.DB) error {
		w, err := findWallet(tx, userID, n)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("find wallet: %w", err)
		}
		if !w.Balance.IsZero() {
			return ErrNotEmpty
		}
		if err := tx.Delete(w).Error; err != nil {
			return fmt.Errorf("delete wallet: %w", err)
		}
		return nil
	})
}

// GetWallet returns ErrNotFound when the wallet does not exist.
func (s *Service) GetWallet(ctx context.Context, userID, name string) (*models.Wallet, error) {
	n, err := normalize(name)
	if err != nil {
		return nil, err
	}
	w, err := findWallet(s.read(ctx), userID, n)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find wallet: %w", err)
	}
	return w, nil
}

// ListWallets returns the user's wallets ordered by name.
func (s *Service) ListWallets(ctx context.Context, userID string) ([]models.Wallet, error) {
	var wallets []models.Wallet
	if err := s.read(ctx).Where("user_id = ?", userID).Order("name").Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, nil
}

// WalletExists reports whether the user has a wallet with this name.
func (s *Service) WalletExists(ctx context.Context, userID, name string) (bool, error) {
	_, err := s.GetWallet(ctx, userID, name)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidWalletName) {
		return false, nil
	}
	return err == nil, err
}
