// Package invoice deals with building, computing and persisting invoices.
package invoice

import (
	"context"
	"errors"
	"fmt"

	"github.com/billfold/billfold/internal/core/business"
	"github.com/billfold/billfold/internal/core/client"
	"github.com/billfold/billfold/internal/web"
	"github.com/google/uuid"
)

// Set of errors for invoice API.
var (
	ErrNotFound        = errors.New("invoice not found")
	ErrInvalidArgument = errors.New("invoice invalid argument")
)

// Store is used to persist invoices.
type Store interface {
	Create(ctx context.Context, inv Invoice) error
	Query(ctx context.Context) ([]Invoice, error)
	QueryByNumber(ctx context.Context, number int) (Invoice, error)
	UpdateStatus(ctx context.Context, number int, status Status) error
}

// Core builds and manages invoices. It composes the client records and the
// business configuration, which owns the number allocation.
type Core struct {
	store    Store
	clients  *client.Core
	business *business.Core
}

func NewCore(store Store, clients *client.Core, bus *business.Core) *Core {
	return &Core{
		store:    store,
		clients:  clients,
		business: bus,
	}
}

// Create validates the input, computes the totals, allocates the next
// invoice number and persists the invoice. The number is allocated exactly
// once per successful build; any validation failure returns before the
// counter is touched.
func (c *Core) Create(ctx context.Context, ni NewInvoice) (Invoice, error) {
	cfg, err := c.business.Query(ctx)
	if err != nil {
		return Invoice{}, err
	}

	if len(ni.Items) == 0 {
		return Invoice{}, fmt.Errorf("an invoice needs at least one item: %w", ErrInvalidArgument)
	}

	taxRate := cfg.DefaultTaxRate
	if ni.TaxRate != nil {
		taxRate = *ni.TaxRate
	}

	totals, err := ComputeTotals(ni.Items, taxRate)
	if err != nil {
		return Invoice{}, err
	}

	cl, err := c.clients.QueryByID(ctx, ni.ClientID)
	if err != nil {
		return Invoice{}, err
	}
	if !cl.Active {
		return Invoice{}, fmt.Errorf("client %d is inactive: %w", cl.ID, ErrInvalidArgument)
	}

	now := web.GetTime(ctx)
	dueDate := ni.DueDate
	if dueDate.IsZero() {
		dueDate = now.AddDate(0, 0, 30)
	}
	if dueDate.Before(now) {
		return Invoice{}, fmt.Errorf("due date is before the issue date: %w", ErrInvalidArgument)
	}

	// Everything validated. From here on a failure may leave a gap in the
	// numbering, never a duplicate.
	number, err := c.business.NextInvoiceNumber(ctx)
	if err != nil {
		return Invoice{}, err
	}

	inv := Invoice{
		ID:          uuid.New(),
		Number:      number,
		ClientID:    cl.ID,
		Items:       ni.Items,
		IssueDate:   now,
		DueDate:     dueDate,
		TaxRate:     taxRate,
		Currency:    cfg.Currency,
		Notes:       ni.Notes,
		Status:      StatusDraft,
		Subtotal:    totals.Subtotal,
		Tax:         totals.Tax,
		Total:       totals.Total,
		DateCreated: now,
	}

	if err := c.store.Create(ctx, inv); err != nil {
		return Invoice{}, fmt.Errorf("persisting invoice %d: %w", number, err)
	}

	return inv, nil
}

// Query returns all invoices, newest first.
func (c *Core) Query(ctx context.Context) ([]Invoice, error) {
	return c.store.Query(ctx)
}

// QueryByNumber returns a single invoice with its items.
func (c *Core) QueryByNumber(ctx context.Context, number int) (Invoice, error) {
	return c.store.QueryByNumber(ctx, number)
}

// SetStatus moves an invoice to a new lifecycle state. The status field is
// the only mutable part of a built invoice.
func (c *Core) SetStatus(ctx context.Context, number int, status Status) (Invoice, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return Invoice{}, err
	}

	if err := c.store.UpdateStatus(ctx, number, status); err != nil {
		return Invoice{}, err
	}

	return c.store.QueryByNumber(ctx, number)
}
