package businessjson

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/billfold/billfold/internal/core/business"
	"github.com/shopspring/decimal"
)

func testConfig() business.Config {
	return business.Config{
		Name:           "Acme Consulting",
		InvoicePrefix:  "INV",
		Currency:       "USD",
		DefaultTaxRate: decimal.RequireFromString("0.08"),
		InvoiceCounter: 1,
		DateUpdated:    time.Now().UTC(),
	}
}

func TestCreateAndQuery(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.json")
	store := NewStore(path)

	if _, err := store.Query(ctx); !errors.Is(err, business.ErrNotConfigured) {
		t.Fatalf("query before setup = %v, want ErrNotConfigured", err)
	}

	cfg := testConfig()
	if err := store.Create(ctx, cfg); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, cfg); !errors.Is(err, business.ErrAlreadyConfigured) {
		t.Fatalf("second create = %v, want ErrAlreadyConfigured", err)
	}

	got, err := store.Query(ctx)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if got.Name != cfg.Name {
		t.Errorf("name = %q, want %q", got.Name, cfg.Name)
	}
	if got.InvoiceCounter != 1 {
		t.Errorf("counter = %d, want 1", got.InvoiceCounter)
	}
}

func TestNextInvoiceNumberSequence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.json")
	store := NewStore(path)

	if err := store.Create(ctx, testConfig()); err != nil {
		t.Fatalf("create: %v", err)
	}

	for want := 1; want <= 10; want++ {
		n, err := store.NextInvoiceNumber(ctx)
		if err != nil {
			t.Fatalf("allocating number %d: %v", want, err)
		}
		if n != want {
			t.Fatalf("got number %d, want %d", n, want)
		}
	}
}

// The counter must survive a process restart. A fresh store over the same
// file plays that role here.
func TestNextInvoiceNumberSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.json")

	store := NewStore(path)
	if err := store.Create(ctx, testConfig()); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := store.NextInvoiceNumber(ctx); err != nil {
			t.Fatalf("allocating: %v", err)
		}
	}

	reopened := NewStore(path)
	n, err := reopened.NextInvoiceNumber(ctx)
	if err != nil {
		t.Fatalf("allocating after reopen: %v", err)
	}
	if n != 4 {
		t.Fatalf("got number %d after reopen, want 4", n)
	}
}

func TestNextInvoiceNumberConcurrent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.json")
	store := NewStore(path)

	if err := store.Create(ctx, testConfig()); err != nil {
		t.Fatalf("create: %v", err)
	}

	const workers = 20
	numbers := make(chan int, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := store.NextInvoiceNumber(ctx)
			if err != nil {
				t.Errorf("allocating: %v", err)
				return
			}
			numbers <- n
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int]bool)
	for n := range numbers {
		if seen[n] {
			t.Fatalf("number %d was allocated twice", n)
		}
		seen[n] = true
	}
	if len(seen) != workers {
		t.Fatalf("allocated %d numbers, want %d", len(seen), workers)
	}
}

func TestUpdatePreservesCounter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.json")
	store := NewStore(path)

	if err := store.Create(ctx, testConfig()); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := store.NextInvoiceNumber(ctx); err != nil {
			t.Fatalf("allocating: %v", err)
		}
	}

	// An update built from a stale read must not roll the counter back.
	cfg := testConfig()
	cfg.Name = "Acme Consulting LLC"
	cfg.InvoiceCounter = 1
	if err := store.Update(ctx, cfg); err != nil {
		t.Fatalf("update: %v", err)
	}

	n, err := store.NextInvoiceNumber(ctx)
	if err != nil {
		t.Fatalf("allocating after update: %v", err)
	}
	if n != 6 {
		t.Fatalf("got number %d after update, want 6", n)
	}
}

func TestCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.json")

	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{{{`},
		{"counter below one", `{"business_name":"Acme","invoice_prefix":"INV","invoice_counter":0}`},
		{"missing name", `{"invoice_prefix":"INV","invoice_counter":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("writing file: %v", err)
			}

			store := NewStore(path)
			if _, err := store.Query(ctx); !errors.Is(err, business.ErrCorrupt) {
				t.Errorf("query = %v, want ErrCorrupt", err)
			}
			if _, err := store.NextInvoiceNumber(ctx); !errors.Is(err, business.ErrCorrupt) {
				t.Errorf("next number = %v, want ErrCorrupt", err)
			}
		})
	}
}
