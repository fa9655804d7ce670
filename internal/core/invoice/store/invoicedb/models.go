package invoicedb

import (
	"time"

	"github.com/billfold/billfold/internal/core/invoice"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type dbInvoice struct {
	ID          uuid.UUID       `db:"id"`
	Number      int             `db:"number"`
	ClientID    int             `db:"client_id"`
	IssueDate   time.Time       `db:"issue_date"`
	DueDate     time.Time       `db:"due_date"`
	TaxRate     decimal.Decimal `db:"tax_rate"`
	Currency    string          `db:"currency"`
	Notes       string          `db:"notes"`
	Status      string          `db:"status"`
	Subtotal    decimal.Decimal `db:"subtotal"`
	Tax         decimal.Decimal `db:"tax"`
	Total       decimal.Decimal `db:"total"`
	DateCreated time.Time       `db:"date_created"`
}

type dbItem struct {
	InvoiceID   uuid.UUID       `db:"invoice_id"`
	Position    int             `db:"position"`
	Description string          `db:"description"`
	Quantity    decimal.Decimal `db:"quantity"`
	Rate        decimal.Decimal `db:"rate"`
	Unit        string          `db:"unit"`
}

type dbNumber struct {
	Number int `db:"number"`
}

func toDBInvoice(inv invoice.Invoice) dbInvoice {
	return dbInvoice{
		ID:          inv.ID,
		Number:      inv.Number,
		ClientID:    inv.ClientID,
		IssueDate:   inv.IssueDate,
		DueDate:     inv.DueDate,
		TaxRate:     inv.TaxRate,
		Currency:    inv.Currency,
		Notes:       inv.Notes,
		Status:      string(inv.Status),
		Subtotal:    inv.Subtotal,
		Tax:         inv.Tax,
		Total:       inv.Total,
		DateCreated: inv.DateCreated,
	}
}

func toDBItem(invoiceID uuid.UUID, position int, it invoice.Item) dbItem {
	return dbItem{
		InvoiceID:   invoiceID,
		Position:    position,
		Description: it.Description,
		Quantity:    it.Quantity,
		Rate:        it.Rate,
		Unit:        it.Unit,
	}
}

func toItem(it dbItem) invoice.Item {
	return invoice.Item{
		Description: it.Description,
		Quantity:    it.Quantity,
		Rate:        it.Rate,
		Unit:        it.Unit,
	}
}

func toInvoice(dbi dbInvoice, items []invoice.Item) invoice.Invoice {
	return invoice.Invoice{
		ID:          dbi.ID,
		Number:      dbi.Number,
		ClientID:    dbi.ClientID,
		Items:       items,
		IssueDate:   dbi.IssueDate,
		DueDate:     dbi.DueDate,
		TaxRate:     dbi.TaxRate,
		Currency:    dbi.Currency,
		Notes:       dbi.Notes,
		Status:      invoice.Status(dbi.Status),
		Subtotal:    dbi.Subtotal,
		Tax:         dbi.Tax,
		Total:       dbi.Total,
		DateCreated: dbi.DateCreated,
	}
}
