// Package invoicedb persists invoices to PostgreSQL.
package invoicedb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/billfold/billfold/internal/core/invoice"
	db "github.com/billfold/billfold/internal/data/dbsql/pgx"
	"github.com/google/uuid"
)

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

// Create inserts the invoice and its items inside one transaction, so a
// failure leaves no half-written invoice behind.
func (s *Store) Create(ctx context.Context, inv invoice.Invoice) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `
	INSERT INTO invoices
		(id, number, client_id, issue_date, due_date, tax_rate, currency,
		notes, status, subtotal, tax, total, date_created)
	VALUES
		(@id, @number, @client_id, @issue_date, @due_date, @tax_rate, @currency,
		@notes, @status, @subtotal, @tax, @total, @date_created)`

	if err := db.NamedExec(ctx, s.log, tx, q, toDBInvoice(inv)); err != nil {
		if errors.Is(err, db.ErrDBDuplicatedEntry) {
			return fmt.Errorf("invoice number %d already persisted: %w", inv.Number, err)
		}
		return err
	}

	const qItem = `
	INSERT INTO invoice_items
		(invoice_id, position, description, quantity, rate, unit)
	VALUES
		(@invoice_id, @position, @description, @quantity, @rate, @unit)`

	for i, it := range inv.Items {
		if err := db.NamedExec(ctx, s.log, tx, qItem, toDBItem(inv.ID, i, it)); err != nil {
			return fmt.Errorf("inserting item %d: %w", i+1, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) Query(ctx context.Context) ([]invoice.Invoice, error) {
	const q = `
	SELECT
		id, number, client_id, issue_date, due_date, tax_rate, currency,
		notes, status, subtotal, tax, total, date_created
	FROM
		invoices
	ORDER BY
		number DESC`

	dbInvs, err := db.NamedQuerySlice[dbInvoice](ctx, s.log, s.db, q, struct{}{})
	if err != nil {
		return nil, err
	}

	const qItems = `
	SELECT
		invoice_id, position, description, quantity, rate, unit
	FROM
		invoice_items
	ORDER BY
		invoice_id, position`

	dbItems, err := db.NamedQuerySlice[dbItem](ctx, s.log, s.db, qItems, struct{}{})
	if err != nil {
		return nil, err
	}

	byInvoice := make(map[uuid.UUID][]invoice.Item)
	for _, it := range dbItems {
		byInvoice[it.InvoiceID] = append(byInvoice[it.InvoiceID], toItem(it))
	}

	invoices := make([]invoice.Invoice, len(dbInvs))
	for i, dbi := range dbInvs {
		invoices[i] = toInvoice(dbi, byInvoice[dbi.ID])
	}

	return invoices, nil
}

func (s *Store) QueryByNumber(ctx context.Context, number int) (invoice.Invoice, error) {
	data := struct {
		Number int `db:"number"`
	}{
		Number: number,
	}

	const q = `
	SELECT
		id, number, client_id, issue_date, due_date, tax_rate, currency,
		notes, status, subtotal, tax, total, date_created
	FROM
		invoices
	WHERE
		number = @number`

	dbi, err := db.NamedQueryStruct[dbInvoice](ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, db.ErrDBNotFound) {
			return invoice.Invoice{}, invoice.ErrNotFound
		}
		return invoice.Invoice{}, err
	}

	const qItems = `
	SELECT
		invoice_id, position, description, quantity, rate, unit
	FROM
		invoice_items
	WHERE
		invoice_id = @id
	ORDER BY
		position`

	idData := struct {
		ID uuid.UUID `db:"id"`
	}{
		ID: dbi.ID,
	}

	dbItems, err := db.NamedQuerySlice[dbItem](ctx, s.log, s.db, qItems, idData)
	if err != nil {
		return invoice.Invoice{}, err
	}

	items := make([]invoice.Item, len(dbItems))
	for i, it := range dbItems {
		items[i] = toItem(it)
	}

	return toInvoice(dbi, items), nil
}

func (s *Store) UpdateStatus(ctx context.Context, number int, status invoice.Status) error {
	data := struct {
		Number int    `db:"number"`
		Status string `db:"status"`
	}{
		Number: number,
		Status: string(status),
	}

	const q = `
	UPDATE invoices SET
		status = @status
	WHERE
		number = @number
	RETURNING
		number`

	if _, err := db.NamedQueryStruct[dbNumber](ctx, s.log, s.db, q, data); err != nil {
		if errors.Is(err, db.ErrDBNotFound) {
			return invoice.ErrNotFound
		}
		return err
	}

	return nil
}
