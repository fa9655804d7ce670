package invoicejson

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/billfold/billfold/internal/core/invoice"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func testInvoice(number int) invoice.Invoice {
	now := time.Now().UTC().Truncate(time.Second)
	items := []invoice.Item{
		{Description: "Consulting", Quantity: decimal.NewFromInt(10), Rate: decimal.NewFromInt(50), Unit: "hour"},
	}

	return invoice.Invoice{
		ID:          uuid.New(),
		Number:      number,
		ClientID:    1,
		Items:       items,
		IssueDate:   now,
		DueDate:     now.AddDate(0, 0, 30),
		TaxRate:     decimal.RequireFromString("0.08"),
		Currency:    "USD",
		Status:      invoice.StatusDraft,
		Subtotal:    decimal.RequireFromString("500.00"),
		Tax:         decimal.RequireFromString("40.00"),
		Total:       decimal.RequireFromString("540.00"),
		DateCreated: now,
	}
}

func TestCreateAndQuery(t *testing.T) {
	ctx := context.Background()
	store := NewStore(filepath.Join(t.TempDir(), "invoices.json"))

	inv := testInvoice(1)
	if err := store.Create(ctx, inv); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.QueryByNumber(ctx, inv.Number)
	if err != nil {
		t.Fatalf("query by number: %v", err)
	}
	if diff := cmp.Diff(inv, got); diff != "" {
		t.Fatalf("invoice mismatch: %s", diff)
	}

	if _, err := store.QueryByNumber(ctx, 42); !errors.Is(err, invoice.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCreateDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	store := NewStore(filepath.Join(t.TempDir(), "invoices.json"))

	if err := store.Create(ctx, testInvoice(1)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, testInvoice(1)); err == nil {
		t.Fatal("duplicate invoice number was accepted")
	}
}

func TestQueryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore(filepath.Join(t.TempDir(), "invoices.json"))

	for _, n := range []int{2, 1, 3} {
		if err := store.Create(ctx, testInvoice(n)); err != nil {
			t.Fatalf("create %d: %v", n, err)
		}
	}

	invoices, err := store.Query(ctx)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	want := []int{3, 2, 1}
	for i, inv := range invoices {
		if inv.Number != want[i] {
			t.Fatalf("position %d has number %d, want %d", i, inv.Number, want[i])
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	store := NewStore(filepath.Join(t.TempDir(), "invoices.json"))

	inv := testInvoice(1)
	if err := store.Create(ctx, inv); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.UpdateStatus(ctx, inv.Number, invoice.StatusPaid); err != nil {
		t.Fatalf("update status: %v", err)
	}

	got, err := store.QueryByNumber(ctx, inv.Number)
	if err != nil {
		t.Fatalf("query by number: %v", err)
	}
	if got.Status != invoice.StatusPaid {
		t.Errorf("status = %s, want paid", got.Status)
	}

	if err := store.UpdateStatus(ctx, 42, invoice.StatusPaid); !errors.Is(err, invoice.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "invoices.json")

	store := NewStore(path)
	inv := testInvoice(1)
	if err := store.Create(ctx, inv); err != nil {
		t.Fatalf("create: %v", err)
	}

	reopened := NewStore(path)
	got, err := reopened.QueryByNumber(ctx, inv.Number)
	if err != nil {
		t.Fatalf("query after reopen: %v", err)
	}
	if diff := cmp.Diff(inv, got); diff != "" {
		t.Fatalf("invoice mismatch after reopen: %s", diff)
	}
}
