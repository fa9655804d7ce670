package businessdb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/billfold/billfold/internal/core/business"
	"github.com/billfold/billfold/internal/data/dbtest"
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
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations())
	t.Cleanup(teardown)

	store := NewStore(log, database)

	if _, err := store.Query(ctx); !errors.Is(err, business.ErrNotConfigured) {
		t.Fatalf("query before setup = %v, want ErrNotConfigured", err)
	}
	if _, err := store.NextInvoiceNumber(ctx); !errors.Is(err, business.ErrNotConfigured) {
		t.Fatalf("allocation before setup = %v, want ErrNotConfigured", err)
	}

	if err := store.Create(ctx, testConfig()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, testConfig()); !errors.Is(err, business.ErrAlreadyConfigured) {
		t.Fatalf("second create = %v, want ErrAlreadyConfigured", err)
	}

	cfg, err := store.Query(ctx)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if cfg.Name != "Acme Consulting" {
		t.Errorf("name = %q, want %q", cfg.Name, "Acme Consulting")
	}
	if cfg.InvoiceCounter != 1 {
		t.Errorf("counter = %d, want 1", cfg.InvoiceCounter)
	}
}

func TestNextInvoiceNumber(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations())
	t.Cleanup(teardown)

	store := NewStore(log, database)
	if err := store.Create(ctx, testConfig()); err != nil {
		t.Fatalf("create: %v", err)
	}

	for want := 1; want <= 5; want++ {
		n, err := store.NextInvoiceNumber(ctx)
		if err != nil {
			t.Fatalf("allocating number %d: %v", want, err)
		}
		if n != want {
			t.Fatalf("got number %d, want %d", n, want)
		}
	}
}

func TestNextInvoiceNumberConcurrent(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations())
	t.Cleanup(teardown)

	store := NewStore(log, database)
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
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations())
	t.Cleanup(teardown)

	store := NewStore(log, database)
	if err := store.Create(ctx, testConfig()); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := store.NextInvoiceNumber(ctx); err != nil {
			t.Fatalf("allocating: %v", err)
		}
	}

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
	if n != 4 {
		t.Fatalf("got number %d after update, want 4", n)
	}
}
