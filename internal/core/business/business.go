// Package business deals with the business configuration and the sequential
// invoice number allocation.
package business

import (
	"context"
	"errors"
	"fmt"

	"github.com/billfold/billfold/internal/web"
)

// Set of errors for business API.
var (
	ErrNotConfigured     = errors.New("business not configured")
	ErrAlreadyConfigured = errors.New("business already configured")
	ErrCorrupt           = errors.New("business config corrupted")
	ErrInvalidArgument   = errors.New("business invalid argument")
)

// Store is used to persist the business configuration. Implementations must
// make NextInvoiceNumber durable before returning: a number handed to the
// caller can never be handed out again, even across process restarts. Gaps
// are tolerable, duplicates are not.
type Store interface {
	Create(ctx context.Context, cfg Config) error
	Query(ctx context.Context) (Config, error)
	Update(ctx context.Context, cfg Config) error
	NextInvoiceNumber(ctx context.Context) (int, error)
}

// Core deals with the business configuration logic.
type Core struct {
	store Store
}

func NewCore(store Store) *Core {
	return &Core{store: store}
}

// Setup initializes the business configuration with the invoice counter at 1.
// It fails if a configuration already exists.
func (c *Core) Setup(ctx context.Context, nc NewConfig) (Config, error) {
	if nc.Name == "" {
		return Config{}, fmt.Errorf("business name is required: %w", ErrInvalidArgument)
	}
	if nc.DefaultTaxRate.IsNegative() {
		return Config{}, fmt.Errorf("default tax rate must not be negative: %w", ErrInvalidArgument)
	}

	if nc.InvoicePrefix == "" {
		nc.InvoicePrefix = "INV"
	}
	if nc.Currency == "" {
		nc.Currency = "USD"
	}

	cfg := Config{
		Name:           nc.Name,
		Address:        nc.Address,
		Email:          nc.Email,
		Phone:          nc.Phone,
		InvoicePrefix:  nc.InvoicePrefix,
		Currency:       nc.Currency,
		DefaultTaxRate: nc.DefaultTaxRate,
		InvoiceCounter: 1,
		DateUpdated:    web.GetTime(ctx),
	}

	if err := c.store.Create(ctx, cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Query returns the business configuration.
func (c *Core) Query(ctx context.Context) (Config, error) {
	return c.store.Query(ctx)
}

// Update applies the non-nil fields of uc to the stored configuration. The
// invoice counter is preserved as is.
func (c *Core) Update(ctx context.Context, uc UpdateConfig) (Config, error) {
	cfg, err := c.store.Query(ctx)
	if err != nil {
		return Config{}, err
	}

	if uc.Name != nil {
		if *uc.Name == "" {
			return Config{}, fmt.Errorf("business name is required: %w", ErrInvalidArgument)
		}
		cfg.Name = *uc.Name
	}
	if uc.Address != nil {
		cfg.Address = *uc.Address
	}
	if uc.Email != nil {
		cfg.Email = *uc.Email
	}
	if uc.Phone != nil {
		cfg.Phone = *uc.Phone
	}
	if uc.InvoicePrefix != nil && *uc.InvoicePrefix != "" {
		cfg.InvoicePrefix = *uc.InvoicePrefix
	}
	if uc.Currency != nil && *uc.Currency != "" {
		cfg.Currency = *uc.Currency
	}
	if uc.DefaultTaxRate != nil {
		if uc.DefaultTaxRate.IsNegative() {
			return Config{}, fmt.Errorf("default tax rate must not be negative: %w", ErrInvalidArgument)
		}
		cfg.DefaultTaxRate = *uc.DefaultTaxRate
	}
	cfg.DateUpdated = web.GetTime(ctx)

	if err := c.store.Update(ctx, cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// NextInvoiceNumber allocates the next invoice number. The returned numbers
// are strictly increasing and unique for the lifetime of the business
// config. A missing or corrupted configuration is an error, never a reason
// to restart counting at 1.
func (c *Core) NextInvoiceNumber(ctx context.Context) (int, error) {
	return c.store.NextInvoiceNumber(ctx)
}
