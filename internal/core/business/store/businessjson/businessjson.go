// Package businessjson persists the business configuration to a JSON file.
// The invoice counter increment is saved durably before the allocated number
// is handed out, so numbers stay unique across restarts and crashes.
package businessjson

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/billfold/billfold/internal/core/business"
	"github.com/billfold/billfold/internal/data/jsonfile"
	"github.com/shopspring/decimal"
)

// Store manages the config file. A mutex serializes read-modify-write
// cycles; the process owns the file exclusively.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Create(ctx context.Context, cfg business.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return business.ErrAlreadyConfigured
	}

	return jsonfile.Write(s.path, toFileConfig(cfg))
}

func (s *Store) Query(ctx context.Context) (business.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

func (s *Store) Update(ctx context.Context, cfg business.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.load()
	if err != nil {
		return err
	}

	// The counter is owned by NextInvoiceNumber. Never write a stale copy
	// back over it.
	cfg.InvoiceCounter = cur.InvoiceCounter

	return jsonfile.Write(s.path, toFileConfig(cfg))
}

func (s *Store) NextInvoiceNumber(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load()
	if err != nil {
		return 0, err
	}

	n := cfg.InvoiceCounter
	cfg.InvoiceCounter = n + 1
	if err := jsonfile.Write(s.path, toFileConfig(cfg)); err != nil {
		return 0, fmt.Errorf("persisting invoice counter: %w", err)
	}

	return n, nil
}

func (s *Store) load() (business.Config, error) {
	var fc fileConfig
	if err := jsonfile.Read(s.path, &fc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return business.Config{}, business.ErrNotConfigured
		}
		return business.Config{}, fmt.Errorf("%w: %s", business.ErrCorrupt, err)
	}

	if err := fc.validate(); err != nil {
		return business.Config{}, fmt.Errorf("%w: %s", business.ErrCorrupt, err)
	}

	return toConfig(fc), nil
}

// ----------------------------------------------------------------------

type fileConfig struct {
	BusinessName    string          `json:"business_name"`
	BusinessAddress string          `json:"business_address"`
	BusinessEmail   string          `json:"business_email"`
	BusinessPhone   string          `json:"business_phone"`
	InvoicePrefix   string          `json:"invoice_prefix"`
	Currency        string          `json:"currency"`
	DefaultTaxRate  decimal.Decimal `json:"default_tax_rate"`
	InvoiceCounter  int             `json:"invoice_counter"`
	DateUpdated     time.Time       `json:"date_updated"`
}

func (fc fileConfig) validate() error {
	switch {
	case fc.BusinessName == "":
		return fmt.Errorf("business_name is empty")
	case fc.InvoicePrefix == "":
		return fmt.Errorf("invoice_prefix is empty")
	case fc.InvoiceCounter < 1:
		return fmt.Errorf("invoice_counter %d is below 1", fc.InvoiceCounter)
	case fc.DefaultTaxRate.IsNegative():
		return fmt.Errorf("default_tax_rate is negative")
	}
	return nil
}

func toFileConfig(cfg business.Config) fileConfig {
	return fileConfig{
		BusinessName:    cfg.Name,
		BusinessAddress: cfg.Address,
		BusinessEmail:   cfg.Email,
		BusinessPhone:   cfg.Phone,
		InvoicePrefix:   cfg.InvoicePrefix,
		Currency:        cfg.Currency,
		DefaultTaxRate:  cfg.DefaultTaxRate,
		InvoiceCounter:  cfg.InvoiceCounter,
		DateUpdated:     cfg.DateUpdated,
	}
}

func toConfig(fc fileConfig) business.Config {
	return business.Config{
		Name:           fc.BusinessName,
		Address:        fc.BusinessAddress,
		Email:          fc.BusinessEmail,
		Phone:          fc.BusinessPhone,
		InvoicePrefix:  fc.InvoicePrefix,
		Currency:       fc.Currency,
		DefaultTaxRate: fc.DefaultTaxRate,
		InvoiceCounter: fc.InvoiceCounter,
		DateUpdated:    fc.DateUpdated,
	}
}
