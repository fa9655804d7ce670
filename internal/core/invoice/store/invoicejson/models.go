package invoicejson

import (
	"time"

	"github.com/billfold/billfold/internal/core/invoice"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fileInvoice struct {
	ID          uuid.UUID       `json:"id"`
	Number      int             `json:"number"`
	ClientID    int             `json:"client_id"`
	Items       []fileItem      `json:"items"`
	IssueDate   time.Time       `json:"issue_date"`
	DueDate     time.Time       `json:"due_date"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Currency    string          `json:"currency"`
	Notes       string          `json:"notes,omitempty"`
	Status      string          `json:"status"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	DateCreated time.Time       `json:"date_created"`
}

type fileItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Unit        string          `json:"unit"`
}

func toFileInvoice(inv invoice.Invoice) fileInvoice {
	items := make([]fileItem, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = fileItem(it)
	}

	return fileInvoice{
		ID:          inv.ID,
		Number:      inv.Number,
		ClientID:    inv.ClientID,
		Items:       items,
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

func toInvoice(fi fileInvoice) invoice.Invoice {
	items := make([]invoice.Item, len(fi.Items))
	for i, it := range fi.Items {
		items[i] = invoice.Item(it)
	}

	return invoice.Invoice{
		ID:          fi.ID,
		Number:      fi.Number,
		ClientID:    fi.ClientID,
		Items:       items,
		IssueDate:   fi.IssueDate,
		DueDate:     fi.DueDate,
		TaxRate:     fi.TaxRate,
		Currency:    fi.Currency,
		Notes:       fi.Notes,
		Status:      invoice.Status(fi.Status),
		Subtotal:    fi.Subtotal,
		Tax:         fi.Tax,
		Total:       fi.Total,
		DateCreated: fi.DateCreated,
	}
}
