// Package businessdb persists the business configuration to PostgreSQL. The
// invoice counter is advanced with a single atomic UPDATE so concurrent
// requests can never be handed the same number.
package businessdb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/billfold/billfold/internal/core/business"
	db "github.com/billfold/billfold/internal/data/dbsql/pgx"
	"github.com/shopspring/decimal"
)

// The configuration is a singleton row.
const configID = 1

type Store struct {
	log *slog.Logger
	db  db.DB
}

func NewStore(log *slog.Logger, database db.DB) *Store {
	return &Store{
		log: log,
		db:  database,
	}
}

func (s *Store) Create(ctx context.Context, cfg business.Config) error {
	const q = `
	INSERT INTO business_config
		(id, business_name, business_address, business_email, business_phone,
		invoice_prefix, currency, default_tax_rate, invoice_counter, date_updated)
	VALUES
		(@id, @business_name, @business_address, @business_email, @business_phone,
		@invoice_prefix, @currency, @default_tax_rate, @invoice_counter, @date_updated)`

	if err := db.NamedExec(ctx, s.log, s.db, q, toDBConfig(cfg)); err != nil {
		if errors.Is(err, db.ErrDBDuplicatedEntry) {
			return business.ErrAlreadyConfigured
		}
		return err
	}

	return nil
}

func (s *Store) Query(ctx context.Context) (business.Config, error) {
	data := struct {
		ID int `db:"id"`
	}{
		ID: configID,
	}

	const q = `
	SELECT
		id, business_name, business_address, business_email, business_phone,
		invoice_prefix, currency, default_tax_rate, invoice_counter, date_updated
	FROM
		business_config
	WHERE
		id = @id`

	cfg, err := db.NamedQueryStruct[dbConfig](ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, db.ErrDBNotFound) {
			return business.Config{}, business.ErrNotConfigured
		}
		return business.Config{}, err
	}

	return toConfig(cfg), nil
}

func (s *Store) Update(ctx context.Context, cfg business.Config) error {
	const q = `
	UPDATE business_config SET
		business_name = @business_name,
		business_address = @business_address,
		business_email = @business_email,
		business_phone = @business_phone,
		invoice_prefix = @invoice_prefix,
		currency = @currency,
		default_tax_rate = @default_tax_rate,
		date_updated = @date_updated
	WHERE
		id = @id`

	return db.NamedExec(ctx, s.log, s.db, q, toDBConfig(cfg))
}

// NextInvoiceNumber increments the persisted counter and returns the value
// it had before the increment. The row lock taken by the UPDATE serializes
// concurrent allocations.
func (s *Store) NextInvoiceNumber(ctx context.Context) (int, error) {
	data := struct {
		ID int `db:"id"`
	}{
		ID: configID,
	}

	const q = `
	UPDATE business_config SET
		invoice_counter = invoice_counter + 1,
		date_updated = now() AT TIME ZONE 'utc'
	WHERE
		id = @id
	RETURNING
		invoice_counter - 1 AS number`

	n, err := db.NamedQueryStruct[dbNumber](ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, db.ErrDBNotFound) {
			return 0, business.ErrNotConfigured
		}
		return 0, err
	}

	return n.Number, nil
}

// ----------------------------------------------------------------------

type dbConfig struct {
	ID             int             `db:"id"`
	Name           string          `db:"business_name"`
	Address        string          `db:"business_address"`
	Email          string          `db:"business_email"`
	Phone          string          `db:"business_phone"`
	InvoicePrefix  string          `db:"invoice_prefix"`
	Currency       string          `db:"currency"`
	DefaultTaxRate decimal.Decimal `db:"default_tax_rate"`
	InvoiceCounter int             `db:"invoice_counter"`
	DateUpdated    time.Time       `db:"date_updated"`
}

type dbNumber struct {
	Number int `db:"number"`
}

func toDBConfig(cfg business.Config) dbConfig {
	return dbConfig{
		ID:             configID,
		Name:           cfg.Name,
		Address:        cfg.Address,
		Email:          cfg.Email,
		Phone:          cfg.Phone,
		InvoicePrefix:  cfg.InvoicePrefix,
		Currency:       cfg.Currency,
		DefaultTaxRate: cfg.DefaultTaxRate,
		InvoiceCounter: cfg.InvoiceCounter,
		DateUpdated:    cfg.DateUpdated,
	}
}

func toConfig(cfg dbConfig) business.Config {
	return business.Config{
		Name:           cfg.Name,
		Address:        cfg.Address,
		Email:          cfg.Email,
		Phone:          cfg.Phone,
		InvoicePrefix:  cfg.InvoicePrefix,
		Currency:       cfg.Currency,
		DefaultTaxRate: cfg.DefaultTaxRate,
		InvoiceCounter: cfg.InvoiceCounter,
		DateUpdated:    cfg.DateUpdated,
	}
}
