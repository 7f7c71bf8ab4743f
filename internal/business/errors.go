package business

import "errors"

var (
	ErrBusinessAlreadyExists     = errors.New("business already exists")
	ErrBusinessNotFound          = errors.New("business not found")
	ErrInvalidCredentials        = errors.New("invalid business credentials")
	ErrNoActiveSession           = errors.New("no active business session")
	ErrMaterialAlreadyExists     = errors.New("material already exists")
	ErrMaterialNotFound          = errors.New("material not found")
	ErrPriceAlreadyExists        = errors.New("price tier already exists")
	ErrPriceTierNotFound         = errors.New("price tier not found")
	ErrCatalogNotFound           = errors.New("catalog item not found")
	ErrEmptyBouquetAlreadyExists = errors.New("empty bouquet size already exists")
	ErrEmptyBouquetNotFound      = errors.New("empty bouquet size not found")
	ErrExpenseNotFound           = errors.New("business expense not found")
	ErrNoUpdates                 = errors.New("no updates given")
	ErrInvalidName               = errors.New("invalid name")
	ErrInvalidPrice              = errors.New("price must be >= 0")
	ErrInvalidAmount             = errors.New("amount must be > 0")
)
