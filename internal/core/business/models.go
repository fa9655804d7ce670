package business

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Config is the business identity and settings every invoice is issued
// under. InvoiceCounter is the next invoice number to allocate and is the
// single source of truth for numbering.
type Config struct {
	Name           string
	Address        string
	Email          string
	Phone          string
	InvoicePrefix  string
	Currency       string
	DefaultTaxRate decimal.Decimal
	InvoiceCounter int
	DateUpdated    time.Time
}

// InvoiceNumber formats an allocated number for display, e.g. "INV-0042".
func (c Config) InvoiceNumber(n int) string {
	return fmt.Sprintf("%s-%04d", c.InvoicePrefix, n)
}

// NewConfig holds the information needed to set a business up. The invoice
// counter always starts at 1 and is never settable from the outside.
type NewConfig struct {
	Name           string
	Address        string
	Email          string
	Phone          string
	InvoicePrefix  string
	Currency       string
	DefaultTaxRate decimal.Decimal
}

// UpdateConfig holds optional changes to the business settings. Nil fields
// are left untouched. The invoice counter cannot be changed.
type UpdateConfig struct {
	Name           *string
	Address        *string
	Email          *string
	Phone          *string
	InvoicePrefix  *string
	Currency       *string
	DefaultTaxRate *decimal.Decimal
}
