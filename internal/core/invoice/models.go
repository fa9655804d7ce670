package invoice

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an invoice. Everything else on a built
// invoice is immutable.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a status value coming from the outside.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusDraft, StatusSent, StatusPaid, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q: %w", s, ErrInvalidArgument)
}

// Item is one billable entry on an invoice. Items are immutable once the
// invoice is built and their order is preserved for display.
type Item struct {
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	Unit        string
}

// Total returns the exact line total, unrounded. Rounding happens once, when
// the invoice totals are computed.
func (it Item) Total() decimal.Decimal {
	return it.Quantity.Mul(it.Rate)
}

// Invoice is a fully computed, numbered invoice. Subtotal, Tax and Total are
// derived by the calculator and never settable independently.
type Invoice struct {
	ID          uuid.UUID
	Number      int
	ClientID    int
	Items       []Item
	IssueDate   time.Time
	DueDate     time.Time
	TaxRate     decimal.Decimal
	Currency    string
	Notes       string
	Status      Status
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	DateCreated time.Time
}

// IsOverdue reports whether a sent invoice passed its due date.
func (inv Invoice) IsOverdue(now time.Time) bool {
	return inv.Status == StatusSent && inv.DueDate.Before(now)
}

// NewInvoice holds the information needed to build an invoice. A nil TaxRate
// falls back to the business default. A zero DueDate falls back to 30 days
// after the issue date.
type NewInvoice struct {
	ClientID int
	Items    []Item
	DueDate  time.Time
	TaxRate  *decimal.Decimal
	Notes    string
}
